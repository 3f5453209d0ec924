package net

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostURLSetsJOSEHeaders(t *testing.T) {
	var gotContentType, gotUserAgent string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	net, err := New(Config{})
	require.NoError(t, err)

	resp, err := net.PostURL(context.Background(), srv.URL, []byte(`{"protected":"x"}`))
	require.NoError(t, err)

	assert.Equal(t, "application/jose+json", gotContentType)
	assert.Contains(t, gotUserAgent, "bac")
	assert.Equal(t, `{"protected":"x"}`, gotBody)
	assert.True(t, resp.OK())
	assert.Equal(t, []byte(`{"status":"ok"}`), resp.RespBody)
}

func TestResponseOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"urn:ietf:params:acme:error:malformed"}`))
	}))
	defer srv.Close()

	net, err := New(Config{})
	require.NoError(t, err)

	resp, err := net.GetURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.NotEmpty(t, resp.RespBody)
}

func TestHeadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Replay-Nonce", "nonce-value")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	net, err := New(Config{})
	require.NoError(t, err)

	resp, err := net.HeadURL(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "nonce-value", resp.Header.Get("Replay-Nonce"))
}
