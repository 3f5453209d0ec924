package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	acmenet "github.com/bac-acme/bac/net"
)

// RetryPolicy bounds a retry loop. The wait before attempt n+1 is
// BaseDelay × n, so delays grow linearly across a loop. The default values
// are operational tuning, not protocol requirements, and can be overridden
// via ClientConfig.
type RetryPolicy struct {
	// Maximum number of attempts, including the first one.
	Attempts int
	// The delay multiplier between attempts.
	BaseDelay time.Duration
}

var (
	// DefaultPlainRetry is the policy for unauthenticated requests.
	DefaultPlainRetry = RetryPolicy{Attempts: 6, BaseDelay: 650 * time.Millisecond}
	// DefaultSignedRetry is the policy for signed requests. The larger base
	// delay reflects that each signed retry does strictly more work: one
	// extra round trip to re-acquire a nonce plus a signing pass.
	DefaultSignedRetry = RetryPolicy{Attempts: 3, BaseDelay: 2250 * time.Millisecond}
)

func (p RetryPolicy) isZero() bool {
	return p.Attempts == 0 && p.BaseDelay == 0
}

func (p RetryPolicy) validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("Attempts must be at least 1")
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("BaseDelay must not be negative")
	}
	return nil
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// retryUntilOK performs the given unauthenticated request until it returns a
// 2xx response or the policy's attempts are exhausted. Attempts are strictly
// sequential. A transport failure consumes an attempt and its backoff delay.
// On exhaustion the last non-2xx response is returned so the caller can
// surface the server's error detail; a nil return means no HTTP response was
// ever obtained.
func (c *Client) retryUntilOK(ctx context.Context, policy RetryPolicy, operation string, do func() (*acmenet.NetResponse, error)) *acmenet.NetResponse {
	var last *acmenet.NetResponse
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		resp, err := do()
		switch {
		case err != nil:
			c.log.Warn("request failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err))
		case resp.OK():
			return resp
		default:
			last = resp
			c.log.Warn("request returned non-2xx status",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("status", resp.Response.StatusCode))
		}

		if attempt == policy.Attempts {
			break
		}
		if !sleepCtx(ctx, policy.backoff(attempt)) {
			break
		}
	}
	return last
}

// retryProtectedUntilOK performs the given signed request until it returns a
// 2xx response or the policy's attempts are exhausted. The payload is
// re-signed on every attempt because the server invalidates a nonce on first
// use regardless of the request's outcome: the sign callback draws its nonce
// from the slot, which is re-seeded from every response's Replay-Nonce header
// (success and failure alike) and falls back to the newNonce endpoint when
// empty. A failed nonce acquisition or signing fault consumes the attempt and
// its backoff delay without aborting the loop.
//
// Exhaustion semantics match retryUntilOK: last response or nil.
func (c *Client) retryProtectedUntilOK(ctx context.Context, policy RetryPolicy, operation, url string, slot *nonceSlot, sign func() (*SignResult, error)) *acmenet.NetResponse {
	var last *acmenet.NetResponse
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		signResult, err := sign()
		if err != nil {
			// Covers ErrNoNonceAvailable as well as unexpected signing
			// faults. No network call was made for this attempt.
			c.log.Warn("signing failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else {
			resp, postErr := c.net.PostURL(ctx, url, signResult.SerializedJWS)
			switch {
			case postErr != nil:
				c.log.Warn("request failed",
					zap.String("operation", operation),
					zap.Int("attempt", attempt),
					zap.Error(postErr))
			default:
				slot.observe(resp.Response)
				if resp.OK() {
					return resp
				}
				last = resp
				c.log.Warn("request returned non-2xx status",
					zap.String("operation", operation),
					zap.Int("attempt", attempt),
					zap.Int("status", resp.Response.StatusCode))
			}
		}

		if attempt == policy.Attempts {
			break
		}
		if !sleepCtx(ctx, policy.backoff(attempt)) {
			break
		}
	}
	return last
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
