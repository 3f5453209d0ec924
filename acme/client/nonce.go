package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/bac-acme/bac/acme"
	acmenet "github.com/bac-acme/bac/net"
)

// ErrNoNonceAvailable is returned when neither a previously seen Replay-Nonce
// nor the newNonce endpoint yields a usable nonce. The retry engine treats it
// as a recoverable per-attempt condition, not a fatal one.
var ErrNoNonceAvailable = errors.New("no nonce available")

// nonceSlot holds the single anti-replay nonce owned by one operation's call
// chain. It satisfies the JWS "NonceSource" interface: Nonce consumes the
// held value, or fetches a fresh one from the ACME server's newNonce
// endpoint when the slot is empty. A nonce is consumed the moment it is read
// so it can never be signed into two requests.
//
// Slots are never shared across concurrent flows. Sharing one would make
// acquisition and consumption race, producing spurious "badNonce" failures.
type nonceSlot struct {
	client *Client
	// ctx is the operation's context; jose.NonceSource has no context
	// parameter so the slot carries it for the fallback fetch.
	ctx   context.Context
	value string
}

// newNonceSlot creates the slot for one operation call chain, optionally
// seeded with the Replay-Nonce from a previous response.
func (c *Client) newNonceSlot(ctx context.Context, seed string) *nonceSlot {
	return &nonceSlot{client: c, ctx: ctx, value: seed}
}

// Nonce satisfies the JWS "NonceSource" interface.
func (s *nonceSlot) Nonce() (string, error) {
	if s.value != "" {
		n := s.value
		s.value = ""
		return n, nil
	}

	nonce, err := s.client.fetchNonce(s.ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoNonceAvailable, err)
	}
	return nonce, nil
}

// observe captures the Replay-Nonce header the server attaches to every
// response (success or failure) so the next signing attempt can use it
// without an extra round trip.
func (s *nonceSlot) observe(resp *http.Response) {
	if nonce := resp.Header.Get(acme.REPLAY_NONCE_HEADER); nonce != "" {
		s.value = nonce
		s.client.log.Debug("captured replay nonce", zap.String("nonce", nonce))
	}
}

// fetchNonce performs a single HEAD request to the ACME server's newNonce
// endpoint and extracts the Replay-Nonce header.
//
// See https://tools.ietf.org/html/rfc8555#section-7.2
func (c *Client) fetchNonce(ctx context.Context) (string, error) {
	nonceURL, ok := c.GetEndpointURL(ctx, acme.NEW_NONCE_ENDPOINT)
	if !ok {
		return "", fmt.Errorf(
			"missing %q entry in ACME server directory", acme.NEW_NONCE_ENDPOINT)
	}

	resp, err := c.net.HeadURL(ctx, nonceURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%q returned HTTP status %d, expected 2xx",
			acme.NEW_NONCE_ENDPOINT, resp.StatusCode)
	}

	nonce := resp.Header.Get(acme.REPLAY_NONCE_HEADER)
	if nonce == "" {
		return "", fmt.Errorf("%q returned no %q header value",
			acme.NEW_NONCE_ENDPOINT, acme.REPLAY_NONCE_HEADER)
	}

	c.log.Debug("fetched fresh nonce", zap.String("nonce", nonce))
	return nonce, nil
}

// NewNonce fetches a fresh nonce from the ACME server's newNonce endpoint
// with the plain retry policy. The returned envelope's Nonce field holds the
// token for the next signed call.
func (c *Client) NewNonce(ctx context.Context) *Result {
	const operation = "newNonce"

	nonceURL, ok := c.GetEndpointURL(ctx, acme.NEW_NONCE_ENDPOINT)
	if !ok {
		return exceptionResult(operation, fmt.Errorf(
			"missing %q entry in ACME server directory", acme.NEW_NONCE_ENDPOINT))
	}

	resp := c.retryUntilOK(ctx, c.PlainRetry, operation, func() (*acmenet.NetResponse, error) {
		httpResp, err := c.net.HeadURL(ctx, nonceURL)
		if err != nil {
			return nil, err
		}
		httpResp.Body.Close()
		return &acmenet.NetResponse{Response: httpResp}, nil
	})

	result := c.finish(operation, resp)
	if result.OK() && result.Nonce == "" {
		return exceptionResult(operation, fmt.Errorf(
			"%q returned no %q header value",
			acme.NEW_NONCE_ENDPOINT, acme.REPLAY_NONCE_HEADER))
	}
	return result
}
