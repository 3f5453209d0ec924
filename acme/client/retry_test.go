package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bac-acme/bac/acme/resources"
)

// failingTransport fails every request at the transport level, as a DNS or
// connection error would.
type failingTransport struct {
	calls int
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("dial tcp: connection refused")
}

func testPolicies() (RetryPolicy, RetryPolicy) {
	plain := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
	signed := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
	return plain, signed
}

func newTestClient(t *testing.T, directoryURL string, httpClient *http.Client) *Client {
	t.Helper()
	plain, signed := testPolicies()
	c, err := NewClient(ClientConfig{
		DirectoryURL: directoryURL,
		PlainRetry:   plain,
		SignedRetry:  signed,
		HTTPClient:   httpClient,
	})
	require.NoError(t, err)
	return c
}

func TestRetryExhaustionSynthesizesFailedError(t *testing.T) {
	transport := &failingTransport{}
	c := newTestClient(t, "https://acme.invalid/dir",
		&http.Client{Transport: transport})

	result := c.UpdateDirectory(context.Background())

	require.False(t, result.OK())
	// Exactly Attempts attempts, no more, even though every one failed.
	assert.Equal(t, 3, transport.calls)
	assert.Equal(t, ExhaustionError, result.Err.Kind)
	assert.Equal(t, "bac:failed:directory", result.Err.Problem.Type)
	assert.Equal(t, resources.LOCAL_PROBLEM_STATUS, result.Err.Problem.Status)
	assert.True(t, result.Err.Problem.IsLocal())
}

func TestRetryReturnsLastProtocolError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"urn:ietf:params:acme:error:malformed","detail":"bad request","status":400}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/dir", nil)
	result := c.UpdateDirectory(context.Background())

	require.False(t, result.OK())
	// The loop retried to exhaustion, then surfaced the server's structured
	// error rather than discarding it.
	assert.Equal(t, 3, calls)
	assert.Equal(t, ProtocolError, result.Err.Kind)
	assert.Equal(t, "urn:ietf:params:acme:error:malformed", result.Err.Problem.Type)
	assert.Equal(t, "malformed", result.Err.Problem.ACMEErrorName())
	assert.Equal(t, 400, result.Err.Problem.Status)
	assert.False(t, result.Err.Problem.IsLocal())
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"newNonce":"https://example.com/nonce"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/dir", nil)
	result := c.UpdateDirectory(context.Background())

	require.True(t, result.OK())
	assert.Equal(t, 1, calls)

	url, ok := c.GetEndpointURL(context.Background(), "newNonce")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/nonce", url)
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"type":"urn:ietf:params:acme:error:serverInternal","status":503}`))
			return
		}
		_, _ = w.Write([]byte(`{"newNonce":"https://example.com/nonce"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/dir", nil)
	result := c.UpdateDirectory(context.Background())

	require.True(t, result.OK())
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	transport := &failingTransport{}
	plain := RetryPolicy{Attempts: 6, BaseDelay: time.Hour}
	c, err := NewClient(ClientConfig{
		DirectoryURL: "https://acme.invalid/dir",
		PlainRetry:   plain,
		SignedRetry:  DefaultSignedRetry,
		HTTPClient:   &http.Client{Transport: transport},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	result := c.UpdateDirectory(ctx)
	require.False(t, result.OK())
	// Cancellation ends the loop during the first backoff wait instead of
	// sleeping out the hour-long delays.
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, ExhaustionError, result.Err.Kind)
}

func TestRetryPolicyBackoffIsLinear(t *testing.T) {
	p := RetryPolicy{Attempts: 6, BaseDelay: 650 * time.Millisecond}
	assert.Equal(t, 650*time.Millisecond, p.backoff(1))
	assert.Equal(t, 1300*time.Millisecond, p.backoff(2))
	assert.Equal(t, 3250*time.Millisecond, p.backoff(5))
}

func TestRetryPolicyValidate(t *testing.T) {
	assert.Error(t, RetryPolicy{Attempts: 0, BaseDelay: time.Second}.validate())
	assert.Error(t, RetryPolicy{Attempts: 1, BaseDelay: -time.Second}.validate())
	assert.NoError(t, RetryPolicy{Attempts: 1}.validate())
	assert.NoError(t, DefaultPlainRetry.validate())
	assert.NoError(t, DefaultSignedRetry.validate())
}
