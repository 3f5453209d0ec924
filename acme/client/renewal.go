package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bac-acme/bac/acme"
	"github.com/bac-acme/bac/acme/codec"
	"github.com/bac-acme/bac/acme/resources"
	acmenet "github.com/bac-acme/bac/net"
)

// RenewalInfo fetches the ACME Renewal Information (ARI) resource for a
// certificate with an unauthenticated GET request. The certificate is
// identified by the hex encodings of its Authority Key Identifier extension
// bytes and its serial number, which are converted to the
// "base64url(aki).base64url(serial)" path segment the ARI endpoint expects.
// If the operation is successful the provided RenewalInfo is mutated in
// place.
//
// See https://datatracker.ietf.org/doc/draft-ietf-acme-ari/
func (c *Client) RenewalInfo(ctx context.Context, akiHex, serialHex string, info *resources.RenewalInfo) *Result {
	const operation = "renewalInfo"

	baseURL, ok := c.GetEndpointURL(ctx, acme.RENEWAL_INFO_ENDPOINT)
	if !ok {
		return exceptionResult(operation, fmt.Errorf(
			"ACME server missing %q endpoint in directory", acme.RENEWAL_INFO_ENDPOINT))
	}

	certID, err := CertID(akiHex, serialHex)
	if err != nil {
		return exceptionResult(operation, err)
	}

	url := strings.TrimSuffix(baseURL, "/") + "/" + certID
	resp := c.retryUntilOK(ctx, c.PlainRetry, operation, func() (*acmenet.NetResponse, error) {
		return c.net.GetURL(ctx, url)
	})

	result := c.finish(operation, resp)
	if !result.OK() {
		return result
	}

	if info != nil {
		if err := json.Unmarshal(result.Body, info); err != nil {
			return exceptionResult(operation, err)
		}
	}
	return result
}

// CertID builds the ARI certificate identifier path segment from the hex
// encodings of a certificate's Authority Key Identifier and serial number.
func CertID(akiHex, serialHex string) (string, error) {
	aki, err := codec.HexToBytes(akiHex)
	if err != nil {
		return "", fmt.Errorf("invalid authority key identifier: %w", err)
	}

	serial, err := codec.HexToBytes(serialHex)
	if err != nil {
		return "", fmt.Errorf("invalid serial number: %w", err)
	}

	return codec.Base64URL(aki) + "." + codec.Base64URL(serial), nil
}
