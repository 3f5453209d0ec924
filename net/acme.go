// Package net provides common HTTP utilities for talking to an ACME server.
package net

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime"
)

const (
	version       = "0.0.1"
	userAgentBase = "bac"
	locale        = "en-us"

	// The media type for signed ACME request bodies. See
	// https://tools.ietf.org/html/rfc8555#section-6.2
	joseContentType = "application/jose+json"
)

// Config contains options for constructing an ACMENet instance.
type Config struct {
	// An optional file path to one or more PEM encoded CA certificates to be
	// used as trust roots for HTTPS requests to the ACME server. If empty the
	// default system roots are used.
	CABundlePath string
	// An optional pre-built HTTP client. When set it is used as-is and
	// CABundlePath is ignored. Primarily useful for tests that need to stub
	// the transport.
	HTTPClient *http.Client
}

// ACMENet performs HTTP requests to an ACME server.
type ACMENet struct {
	httpClient *http.Client
}

// New creates an ACMENet from the given Config.
func New(config Config) (*ACMENet, error) {
	if config.HTTPClient != nil {
		return &ACMENet{httpClient: config.HTTPClient}, nil
	}

	var caBundle *x509.CertPool
	if config.CABundlePath != "" {
		pemBundle, err := os.ReadFile(config.CABundlePath)
		if err != nil {
			return nil, err
		}

		caBundle = x509.NewCertPool()
		caBundle.AppendCertsFromPEM(pemBundle)
	}

	return &ACMENet{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: caBundle,
				},
			},
		},
	}, nil
}

// NetResponse holds the results from calling Do with an HTTP Request.
type NetResponse struct {
	// The HTTP Response object from making the request.
	Response *http.Response
	// The response body.
	RespBody []byte
	// The response dumped by httputil to a printable form.
	RespDump []byte
	// The request dumped by httputil to a printable form.
	ReqDump []byte
}

// OK is true when the response carries a 2xx HTTP status code.
func (r *NetResponse) OK() bool {
	return r.Response.StatusCode >= 200 && r.Response.StatusCode < 300
}

// Do performs an HTTP request, returning a pointer to a NetResponse instance
// or an error. User-Agent and Accept-Language headers are automatically added
// to the request. The body of the HTTP Response is read into the NetResponse
// and can not be read again.
func (c *ACMENet) Do(req *http.Request) (*NetResponse, error) {
	return c.httpRequest(req)
}

func (c *ACMENet) httpRequest(req *http.Request) (*NetResponse, error) {
	ua := fmt.Sprintf("%s %s (%s; %s)",
		userAgentBase, version, runtime.GOOS, runtime.GOARCH)
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", locale)

	reqDump, err := httputil.DumpRequest(req, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respDump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &NetResponse{
		Response: resp,
		RespBody: respBody,
		RespDump: respDump,
		ReqDump:  reqDump,
	}, nil
}

// HeadURL performs a HEAD request to the given URL.
func (c *ACMENet) HeadURL(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// PostRequest constructs a POST request to the given URL with the given JWS
// body. Returns an HTTP request or a non-nil error.
func (c *ACMENet) PostRequest(ctx context.Context, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", joseContentType)
	return req, nil
}

// PostURL POSTs the given body to the given URL. This is a wrapper combining
// PostRequest and Do.
func (c *ACMENet) PostURL(ctx context.Context, url string, body []byte) (*NetResponse, error) {
	req, err := c.PostRequest(ctx, url, body)
	if err != nil {
		return nil, err
	}

	return c.Do(req)
}

// GetRequest constructs a GET request to the given URL. Returns an HTTP
// request or a non-nil error.
func (c *ACMENet) GetRequest(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

// GetURL GETs the given URL. This is a wrapper combining GetRequest and Do.
func (c *ACMENet) GetURL(ctx context.Context, url string) (*NetResponse, error) {
	req, err := c.GetRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}
