package client

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bac-acme/bac/acme"
	"github.com/bac-acme/bac/acme/resources"
)

// CreateOrder creates the given Order resource with the ACME server. If the
// operation is successful the Order is updated in place from the response
// body and its ID field is populated with the value of the reply's Location
// header.
//
// For more information on Order creation see "Applying for Certificate
// Issuance" in RFC 8555:
// https://tools.ietf.org/html/rfc8555#section-7.4
func (c *Client) CreateOrder(ctx context.Context, acct *resources.Account, order *resources.Order, prevNonce string) *Result {
	const operation = "newOrder"

	if acct.ID == "" {
		return exceptionResult(operation, fmt.Errorf(
			"account has not been created with the ACME server"))
	}

	req := struct {
		Identifiers []resources.Identifier `json:"identifiers"`
	}{
		Identifiers: order.Identifiers,
	}

	reqBody, err := json.Marshal(&req)
	if err != nil {
		return exceptionResult(operation, err)
	}

	newOrderURL, ok := c.GetEndpointURL(ctx, acme.NEW_ORDER_ENDPOINT)
	if !ok {
		return exceptionResult(operation, fmt.Errorf(
			"ACME server missing %q endpoint in directory", acme.NEW_ORDER_ENDPOINT))
	}

	result := c.signedPost(ctx, operation, newOrderURL, reqBody, acct, prevNonce)
	if !result.OK() {
		return result
	}

	if result.Location == "" {
		return exceptionResult(operation, fmt.Errorf(
			"server returned response with no Location header"))
	}

	if err := json.Unmarshal(result.Body, order); err != nil {
		return exceptionResult(operation, fmt.Errorf(
			"server returned invalid JSON: %s", err))
	}

	// Store the Location header as the Order's ID
	order.ID = result.Location
	acct.Orders = append(acct.Orders, order.ID)
	c.log.Info("created order", zap.String("id", order.ID))
	return result
}

// GetOrder refreshes a given Order with a POST-as-GET request to its ID URL.
// If this is successful the Order is mutated in place.
//
// Calling GetOrder is required to refresh an Order's Status field to
// synchronize the resource with the server-side representation.
func (c *Client) GetOrder(ctx context.Context, acct *resources.Account, order *resources.Order, prevNonce string) *Result {
	const operation = "order"

	if order == nil || order.ID == "" {
		return exceptionResult(operation, fmt.Errorf("order must have an ID"))
	}

	result := c.postAsGet(ctx, operation, order.ID, acct, prevNonce)
	if !result.OK() {
		return result
	}

	if err := json.Unmarshal(result.Body, order); err != nil {
		return exceptionResult(operation, err)
	}
	return result
}

// GetAuthorization refreshes a given Authorization with a POST-as-GET request
// to its ID URL. If this is successful the Authorization is mutated in place.
func (c *Client) GetAuthorization(ctx context.Context, acct *resources.Account, authz *resources.Authorization, prevNonce string) *Result {
	const operation = "authorization"

	if authz == nil || authz.ID == "" {
		return exceptionResult(operation, fmt.Errorf("authorization must have an ID"))
	}

	result := c.postAsGet(ctx, operation, authz.ID, acct, prevNonce)
	if !result.OK() {
		return result
	}

	if err := json.Unmarshal(result.Body, authz); err != nil {
		return exceptionResult(operation, err)
	}
	return result
}

// GetChallenge refreshes a given Challenge with a POST-as-GET request to its
// URL. If this is successful the Challenge is mutated in place.
func (c *Client) GetChallenge(ctx context.Context, acct *resources.Account, chall *resources.Challenge, prevNonce string) *Result {
	const operation = "challenge"

	if chall == nil || chall.URL == "" {
		return exceptionResult(operation, fmt.Errorf("challenge must have a URL"))
	}

	result := c.postAsGet(ctx, operation, chall.URL, acct, prevNonce)
	if !result.OK() {
		return result
	}

	if err := json.Unmarshal(result.Body, chall); err != nil {
		return exceptionResult(operation, err)
	}
	return result
}

// InitiateChallenge asks the server to validate the given Challenge by
// POSTing the empty JSON object to its URL (RFC 8555 §7.5.1). The server
// validates asynchronously; callers poll with GetChallenge or GetAuthorization
// afterwards. On success the Challenge is updated in place.
//
// Provisioning the challenge response (the HTTP file, DNS record or TLS
// certificate) is the caller's job and must happen before initiation.
func (c *Client) InitiateChallenge(ctx context.Context, acct *resources.Account, chall *resources.Challenge, prevNonce string) *Result {
	const operation = "initiateChallenge"

	if chall == nil || chall.URL == "" {
		return exceptionResult(operation, fmt.Errorf("challenge must have a URL"))
	}

	result := c.signedPost(ctx, operation, chall.URL, []byte("{}"), acct, prevNonce)
	if !result.OK() {
		return result
	}

	if err := json.Unmarshal(result.Body, chall); err != nil {
		return exceptionResult(operation, err)
	}
	c.log.Info("initiated challenge", zap.String("url", chall.URL),
		zap.String("type", chall.Type))
	return result
}

// FinalizeOrder submits the given base64url-encoded CSR to the Order's
// finalize URL. Finalizing an order the server does not consider "ready"
// yields a structured "orderNotReady" protocol error; the server is the
// source of truth for ordering legality. On success the Order is updated in
// place from the response body.
//
// See https://tools.ietf.org/html/rfc8555#section-7.4
func (c *Client) FinalizeOrder(ctx context.Context, acct *resources.Account, order *resources.Order, csr B64CSR, prevNonce string) *Result {
	const operation = "finalize"

	if order == nil || order.Finalize == "" {
		return exceptionResult(operation, fmt.Errorf("order must have a finalize URL"))
	}
	if csr == "" {
		return exceptionResult(operation, fmt.Errorf("csr must not be empty"))
	}

	req := struct {
		CSR string `json:"csr"`
	}{
		CSR: string(csr),
	}

	reqBody, err := json.Marshal(&req)
	if err != nil {
		return exceptionResult(operation, err)
	}

	result := c.signedPost(ctx, operation, order.Finalize, reqBody, acct, prevNonce)
	if !result.OK() {
		return result
	}

	if err := json.Unmarshal(result.Body, order); err != nil {
		return exceptionResult(operation, err)
	}
	c.log.Info("finalized order", zap.String("id", order.ID),
		zap.String("status", order.Status))
	return result
}

// GetCertificate downloads the issued certificate chain from the given
// certificate URL with a POST-as-GET request. The envelope's Body holds the
// PEM encoded chain; unlike every other operation the success body is not
// JSON.
func (c *Client) GetCertificate(ctx context.Context, acct *resources.Account, certURL string, prevNonce string) *Result {
	const operation = "certificate"

	if certURL == "" {
		return exceptionResult(operation, fmt.Errorf("certificate URL must not be empty"))
	}

	return c.postAsGet(ctx, operation, certURL, acct, prevNonce)
}

// signedPost signs reqBody with the account's key identifier and POSTs it to
// url under the signed retry policy, normalizing the outcome.
func (c *Client) signedPost(ctx context.Context, operation, url string, reqBody []byte, acct *resources.Account, prevNonce string) *Result {
	if acct == nil || acct.ID == "" {
		return exceptionResult(operation, fmt.Errorf(
			"account has not been created with the ACME server"))
	}

	slot := c.newNonceSlot(ctx, prevNonce)
	resp := c.retryProtectedUntilOK(ctx, c.SignedRetry, operation, url, slot,
		func() (*SignResult, error) {
			return Sign(url, reqBody, SigningOptions{
				KeyID:       acct.ID,
				Signer:      acct.Signer,
				NonceSource: slot,
			})
		})

	return c.finish(operation, resp)
}

// postAsGet performs a signed POST with an empty payload, the ACME
// representation of an authenticated read (RFC 8555 §6.3).
func (c *Client) postAsGet(ctx context.Context, operation, url string, acct *resources.Account, prevNonce string) *Result {
	return c.signedPost(ctx, operation, url, []byte{}, acct, prevNonce)
}
