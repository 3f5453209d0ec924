package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64URLRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("hello world"),
		// base64 of these bytes contains '+' and '/' in the standard
		// alphabet and requires padding.
		{0xfb, 0xff},
		{0xff, 0xfe, 0xfd, 0xfc, 0xfb},
		{0x00},
	}

	for _, in := range inputs {
		encoded := Base64URL(in)
		assert.NotContains(t, encoded, "+")
		assert.NotContains(t, encoded, "/")
		assert.NotContains(t, encoded, "=")

		decoded, err := Base64URLDecode(encoded)
		require.NoError(t, err)
		assert.Equal(t, []byte(in), append([]byte{}, decoded...))
	}
}

func TestBase64URLString(t *testing.T) {
	assert.Equal(t, "", Base64URLString(""))
	assert.Equal(t, Base64URL([]byte("0")), Base64URLString("0"))
}

func TestHexRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"00",
		"abcdef0123456789",
		"DEADBEEF",
	}

	for _, in := range inputs {
		decoded, err := HexToBytes(in)
		require.NoError(t, err)
		assert.Equal(t, len(in)/2, len(decoded))

		// Round trip lowercases the input.
		assert.Equal(t, toLower(in), BytesToHex(decoded))
	}
}

func TestHexToBytesInvalid(t *testing.T) {
	for _, in := range []string{"abc", "zz", "0g", "f"} {
		_, err := HexToBytes(in)
		require.Error(t, err, "expected error for %q", in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func toLower(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + ('a' - 'A')
		}
	}
	return string(out)
}
