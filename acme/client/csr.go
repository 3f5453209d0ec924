package client

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/bac-acme/bac/acme/keys"
)

// PEMCSR is the PEM encoding of an x509 Certificate Signing Request (CSR)
type PEMCSR string

// B64CSR is the Base64URLSafe encoding of an x509 Certificate Signing Request
// (CSR), suitable for direct inclusion as the "csr" field of a finalize
// payload.
type B64CSR string

// CSR produces a CertificateSigningRequest for the provided commonName and
// SAN names, signed with the given private key. The CSR uses the public
// component of this key as the CSR public key; it SHOULD NOT be the account
// keypair (RFC 8555 §11.1). If no commonName is provided the first of the
// names is used. If privateKey is nil a new random ECDSA key is generated.
// CSR returns the Base64URL encoding of the CSR as well as its PEM encoding.
func CSR(commonName string, names []string, privateKey crypto.Signer) (B64CSR, PEMCSR, error) {
	if len(names) == 0 {
		return B64CSR(""), PEMCSR(""), fmt.Errorf("no names specified")
	}

	if commonName == "" {
		commonName = names[0]
	}

	if privateKey == nil {
		var err error
		privateKey, err = keys.NewSigner("ecdsa")
		if err != nil {
			return B64CSR(""), PEMCSR(""), err
		}
	}

	template := x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName: commonName,
		},
		DNSNames: names,
	}

	csrBytes, err := x509.CreateCertificateRequest(rand.Reader, &template, privateKey)
	if err != nil {
		return B64CSR(""), PEMCSR(""), err
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type: "CERTIFICATE REQUEST", Bytes: csrBytes,
	})

	return B64CSR(base64.RawURLEncoding.EncodeToString(csrBytes)),
		PEMCSR(pemBytes),
		nil
}
