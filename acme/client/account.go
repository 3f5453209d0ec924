package client

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bac-acme/bac/acme"
	"github.com/bac-acme/bac/acme/resources"
)

// CreateAccount creates the given Account resource with the ACME server. The
// request is signed with the Account's key embedded as a JWK because no key
// identifier exists before the account does. On success the Account's ID
// field is populated with the value of the response's Location header (the
// key identifier used for all later requests).
//
// Important: this function always unconditionally agrees to the server's
// terms of service (it sends "termsOfServiceAgreed": true in all account
// creation requests).
//
// The prevNonce argument may carry the Replay-Nonce from a previous
// response, or be empty to acquire a fresh nonce from the server.
//
// For more information on account creation see
// https://tools.ietf.org/html/rfc8555#section-7.3
func (c *Client) CreateAccount(ctx context.Context, acct *resources.Account, prevNonce string) *Result {
	const operation = "newAccount"

	if acct.ID != "" {
		return exceptionResult(operation, fmt.Errorf(
			"account already exists under ID %q", acct.ID))
	}

	newAcctReq := struct {
		Contact   []string `json:"contact,omitempty"`
		ToSAgreed bool     `json:"termsOfServiceAgreed"`
	}{
		Contact:   acct.Contact,
		ToSAgreed: true,
	}

	reqBody, err := json.Marshal(&newAcctReq)
	if err != nil {
		return exceptionResult(operation, err)
	}

	newAcctURL, ok := c.GetEndpointURL(ctx, acme.NEW_ACCOUNT_ENDPOINT)
	if !ok {
		return exceptionResult(operation, fmt.Errorf(
			"ACME server missing %q endpoint in directory", acme.NEW_ACCOUNT_ENDPOINT))
	}

	slot := c.newNonceSlot(ctx, prevNonce)
	resp := c.retryProtectedUntilOK(ctx, c.SignedRetry, operation, newAcctURL, slot,
		func() (*SignResult, error) {
			return Sign(newAcctURL, reqBody, SigningOptions{
				EmbedKey:    true,
				Signer:      acct.Signer,
				NonceSource: slot,
			})
		})

	result := c.finish(operation, resp)
	if !result.OK() {
		return result
	}

	if result.Location == "" {
		return exceptionResult(operation, fmt.Errorf(
			"server returned response with no Location header"))
	}

	// Store the Location header as the Account's ID
	acct.ID = result.Location
	c.log.Info("created account", zap.String("id", acct.ID))
	return result
}
