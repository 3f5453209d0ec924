package client

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSR(t *testing.T) {
	b64, pemCSR, err := CSR("", []string{"example.com", "www.example.com"}, nil)
	require.NoError(t, err)

	der, err := base64.RawURLEncoding.DecodeString(string(b64))
	require.NoError(t, err)

	csr, err := x509.ParseCertificateRequest(der)
	require.NoError(t, err)
	require.NoError(t, csr.CheckSignature())

	// With no explicit common name the first SAN is promoted.
	assert.Equal(t, "example.com", csr.Subject.CommonName)
	assert.Equal(t, []string{"example.com", "www.example.com"}, csr.DNSNames)

	block, rest := pem.Decode([]byte(pemCSR))
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "CERTIFICATE REQUEST", block.Type)
	assert.Equal(t, der, block.Bytes)
}

func TestCSRNoNames(t *testing.T) {
	_, _, err := CSR("", nil, nil)
	assert.Error(t, err)
}
