package resources

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	acct, err := NewAccount([]string{"one@example.com", "", "two@example.com"}, nil)
	require.NoError(t, err)

	assert.Empty(t, acct.ID)
	assert.Equal(t, []string{"mailto:one@example.com", "mailto:two@example.com"}, acct.Contact)
	assert.NotNil(t, acct.Signer)
}

func TestAccountOrderURL(t *testing.T) {
	acct := &Account{Orders: []string{"https://example.com/order/1"}}

	url, err := acct.OrderURL(0)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/order/1", url)

	_, err = acct.OrderURL(1)
	assert.Error(t, err)
	_, err = acct.OrderURL(-1)
	assert.Error(t, err)
}

func TestSaveRestoreAccount(t *testing.T) {
	acct, err := NewAccount([]string{"admin@example.com"}, nil)
	require.NoError(t, err)
	acct.ID = "https://example.com/acct/1"
	acct.Orders = []string{"https://example.com/order/1"}

	path := filepath.Join(t.TempDir(), "account.json")
	require.NoError(t, SaveAccount(path, acct))

	restored, err := RestoreAccount(path)
	require.NoError(t, err)

	assert.Equal(t, acct.ID, restored.ID)
	assert.Equal(t, acct.Contact, restored.Contact)
	assert.Equal(t, acct.Orders, restored.Orders)
	require.NotNil(t, restored.Signer)
	assert.Equal(t, acct.Signer.Public(), restored.Signer.Public())
}

func TestSaveAccountNil(t *testing.T) {
	err := SaveAccount(filepath.Join(t.TempDir(), "account.json"), nil)
	assert.Error(t, err)
}
