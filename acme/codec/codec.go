// Package codec provides the byte-level encodings used on the ACME wire:
// unpadded base64url (RFC 4648 §5) and hex string conversion.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned (wrapped) when a hex string can not be decoded.
var ErrInvalidInput = errors.New("invalid input")

// Base64URL encodes data using the unpadded URL-safe base64 alphabet. ACME
// uses this encoding for JWS fields, thumbprints and ARI certificate IDs.
func Base64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Base64URLString is a convenience wrapper around Base64URL for text input.
func Base64URLString(data string) string {
	return Base64URL([]byte(data))
}

// Base64URLDecode reverses Base64URL.
func Base64URLDecode(data string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(data)
}

// HexToBytes decodes a hex string two characters at a time. A string with an
// odd length or with non-hex characters yields an error wrapping
// ErrInvalidInput.
func HexToBytes(data string) ([]byte, error) {
	decoded, err := hex.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: hex %q: %s", ErrInvalidInput, data, err)
	}
	return decoded, nil
}

// BytesToHex is the inverse of HexToBytes. The output is lowercase.
func BytesToHex(data []byte) string {
	return hex.EncodeToString(data)
}
