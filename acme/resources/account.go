// Package resources provides types for representing and interacting with ACME
// protocol resources.
package resources

import (
	"crypto"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bac-acme/bac/acme/keys"
)

// Account holds information related to a single ACME Account resource. If the
// account has an empty ID it has not yet been created server-side with the
// ACME server.
//
// The ID field holds the server assigned Account ID (the Location URL from
// account creation). It is used as the JWS Key ID when authenticating ACME
// requests with the Account's registered keypair.
type Account struct {
	// The server assigned Account ID. This is used for the JWS KeyID when
	// authenticating ACME requests using the Account's registered keypair.
	ID string
	// If not nil, a slice of one or more email addresses to be used as the ACME
	// Account's "mailto://" Contact addresses.
	Contact []string
	// The private key used for the ACME account's keypair. The public
	// component is computed from this key automatically.
	Signer crypto.Signer
	// If not nil, a slice of URLs for Order resources the Account created with
	// the ACME server.
	Orders []string
}

// String returns the Account's ID or an empty string if it has not been
// created with the ACME server.
func (a Account) String() string {
	return a.ID
}

// NewAccount creates an ACME account in-memory. *Important:* the created
// Account is *not* registered with the ACME server until it is explicitly
// created server-side using a Client instance's CreateAccount function.
//
// The emails argument is a slice of zero or more email addresses that should
// be used as the Account's Contact information.
//
// The privKey argument is the private key that should be used for the Account
// keypair. If it is nil a new randomly generated ECDSA P-256 key is used.
func NewAccount(emails []string, privKey crypto.Signer) (*Account, error) {
	var contacts []string
	for _, e := range emails {
		if e == "" {
			continue
		}
		contacts = append(contacts, fmt.Sprintf("mailto:%s", e))
	}

	if privKey == nil {
		randKey, err := keys.NewSigner("ecdsa")
		if err != nil {
			return nil, err
		}
		privKey = randKey
	}

	return &Account{
		Contact: contacts,
		Signer:  privKey,
	}, nil
}

// OrderURL returns the URL of the Order at the given index in the Account's
// Orders slice.
func (a *Account) OrderURL(index int) (string, error) {
	if index < 0 || index >= len(a.Orders) {
		return "", fmt.Errorf("order index %d out of bounds (%d orders)",
			index, len(a.Orders))
	}
	return a.Orders[index], nil
}

// SaveAccount persists the given Account object (which must not be nil) to
// the given file path.
func SaveAccount(path string, account *Account) error {
	if account == nil {
		return fmt.Errorf("account must not be nil")
	}
	frozenBytes, err := account.save()
	if err != nil {
		return err
	}
	return os.WriteFile(path, frozenBytes, 0o600)
}

// RestoreAccount loads a previously saved Account object from the given file
// path. This file should have been created using SaveAccount in a previous
// session.
func RestoreAccount(path string) (*Account, error) {
	acct := &Account{}
	frozenBytes, err := os.ReadFile(path)
	if err != nil {
		return acct, err
	}

	err = acct.restore(frozenBytes)
	return acct, err
}

type rawAccount struct {
	ID         string
	Contact    []string
	PrivateKey []byte
	KeyType    string
	Orders     []string `json:",omitempty"`
}

func (acct *Account) save() ([]byte, error) {
	keyBytes, keyType, err := keys.MarshalSigner(acct.Signer)
	if err != nil {
		return nil, err
	}

	rawAcct := rawAccount{
		ID:         acct.ID,
		Contact:    acct.Contact,
		PrivateKey: keyBytes,
		KeyType:    keyType,
		Orders:     acct.Orders,
	}
	frozenAcct, err := json.MarshalIndent(rawAcct, "", "  ")
	if err != nil {
		return nil, err
	}
	return frozenAcct, nil
}

func (acct *Account) restore(frozenAcct []byte) error {
	var rawAcct rawAccount

	err := json.Unmarshal(frozenAcct, &rawAcct)
	if err != nil {
		return err
	}

	privKey, err := keys.UnmarshalSigner(rawAcct.PrivateKey, rawAcct.KeyType)
	if err != nil {
		return err
	}

	acct.ID = rawAcct.ID
	acct.Contact = rawAcct.Contact
	acct.Signer = privKey
	acct.Orders = rawAcct.Orders
	return nil
}
