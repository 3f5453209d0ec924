package client

import (
	"crypto"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/bac-acme/bac/acme/keys"
)

// SigningOptions allows specifying signature related options when producing a
// JWS for an ACME request.
type SigningOptions struct {
	// If true, embed the signer's public key as a JWK in the signed JWS
	// instead of using a KeyID header. This is required for endpoints like
	// NewAccount where no account URL exists yet. Setting EmbedKey to true is
	// mutually exclusive with a non-empty KeyID.
	EmbedKey bool
	// If not-empty, a KeyID value to use for the JWS Key ID header to
	// identify the ACME account (its Location URL). Providing a KeyID is
	// mutually exclusive with setting EmbedKey to true.
	KeyID string
	// The private key used to sign the JWS. The associated public key is
	// computed and used for the embedded JWK when EmbedKey is true.
	Signer crypto.Signer
	// NonceSource is a jose.NonceSource implementation that provides the
	// Replay-Nonce header value for the produced JWS. This is typically the
	// operation's nonce slot.
	NonceSource jose.NonceSource
}

// validate checks that the SigningOptions are sensible. This enforces the
// mutually exclusive KeyID and EmbedKey options and ensures that the
// NonceSource and Signer are not nil.
func (opts *SigningOptions) validate() error {
	if opts.KeyID != "" && opts.EmbedKey {
		return fmt.Errorf("SigningOptions validate: cannot specify both KeyID and EmbedKey")
	}
	if opts.KeyID == "" && !opts.EmbedKey {
		return fmt.Errorf("SigningOptions validate: you must specify a KeyID or EmbedKey")
	}
	if opts.NonceSource == nil {
		return fmt.Errorf("SigningOptions validate: you must specify a NonceSource")
	}
	if opts.Signer == nil {
		return fmt.Errorf("SigningOptions validate: you must specify a private key")
	}
	return nil
}

// SignResult holds the input and output from a Sign operation.
type SignResult struct {
	// The url argument given to Sign.
	InputURL string
	// The data argument given to Sign.
	InputData []byte
	// The JWS produced by signing the given data.
	JWS *jose.JSONWebSignature
	// The JWS in serialized form.
	SerializedJWS []byte
}

// Sign produces a SignResult by signing the provided data (with a protected
// "url" header) according to the SigningOptions provided. An empty data
// argument produces a JWS whose payload field is the empty string exactly,
// which is how ACME represents POST-as-GET requests (RFC 8555 §6.3). The
// signature is the fixed-length (IEEE-P1363, not ASN.1 DER) encoding required
// for JWS ES256.
func Sign(url string, data []byte, opts SigningOptions) (*SignResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if opts.EmbedKey {
		return signEmbedded(url, data, opts)
	}
	return signKeyID(url, data, opts)
}

func signEmbedded(url string, data []byte, opts SigningOptions) (*SignResult, error) {
	signingKey := jose.SigningKey{
		Key:       opts.Signer,
		Algorithm: keys.SigAlgForKey(opts.Signer),
	}

	signer, err := jose.NewSigner(signingKey, &jose.SignerOptions{
		NonceSource: opts.NonceSource,
		EmbedJWK:    true,
		ExtraHeaders: map[jose.HeaderKey]interface{}{
			"url": url,
		},
	})
	if err != nil {
		return nil, err
	}

	return sign(signer, url, data)
}

func signKeyID(url string, data []byte, opts SigningOptions) (*SignResult, error) {
	signerKey := keys.SigningKeyForSigner(opts.Signer, opts.KeyID)

	joseOpts := &jose.SignerOptions{
		NonceSource: opts.NonceSource,
		ExtraHeaders: map[jose.HeaderKey]interface{}{
			"url": url,
		},
	}

	signer, err := jose.NewSigner(signerKey, joseOpts)
	if err != nil {
		return nil, err
	}

	return sign(signer, url, data)
}

func sign(signer jose.Signer, url string, data []byte) (*SignResult, error) {
	signed, err := signer.Sign(data)
	if err != nil {
		return nil, err
	}

	serialized := []byte(signed.FullSerialize())

	// Reparse the serialized body to get a fully populated JWS object.
	parsedJWS, err := jose.ParseSigned(string(serialized),
		[]jose.SignatureAlgorithm{jose.ES256, jose.RS256})
	if err != nil {
		return nil, err
	}

	return &SignResult{
		InputURL:      url,
		InputData:     data,
		JWS:           parsedJWS,
		SerializedJWS: serialized,
	}, nil
}
