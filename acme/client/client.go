// Package client provides a low-level ACME v2 client.
//
// The client is a protocol engine only: it builds signed requests, tracks
// server-issued anti-replay nonces and wraps every network call in a bounded
// retry loop. It deliberately does not fulfill challenges or serve the
// certificates it obtains.
package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bac-acme/bac/acme/resources"
	acmenet "github.com/bac-acme/bac/net"
)

// Client allows interaction with an ACME server.
//
// The Client's DirectoryURL field is a parsed *url.URL for the ACME server's
// directory. The client configures itself with the correct URLs for ACME
// operations using the directory resource accessed at this URL. See
// https://tools.ietf.org/html/rfc8555#section-7.1.1
//
// The cached directory is read-only and may be shared by reference across
// concurrent operations. Nonce state is NOT kept on the Client: each
// operation call owns a single nonce slot for its retry chain, and the
// ResultEnvelope returned by each operation carries the next usable nonce.
// This keeps concurrent issuance flows from racing over one shared nonce.
type Client struct {
	// A parsed *url.URL pointer for the ACME server's directory URL.
	DirectoryURL *url.URL
	// Retry policy for unauthenticated requests (directory, nonce, ARI).
	PlainRetry RetryPolicy
	// Retry policy for signed requests. Each retry re-acquires a nonce and
	// re-signs, so the base delay is larger than the plain policy's.
	SignedRetry RetryPolicy

	// the net object is used to make HTTP GET/POST/HEAD requests to the ACME
	// server.
	net *acmenet.ACMENet
	// log receives structured diagnostics for retries and nonce churn.
	log *zap.Logger

	// directory is an in-memory representation of the ACME server's directory
	// object, guarded for concurrent flows sharing one Client.
	dirMu     sync.RWMutex
	directory resources.Directory
}

// ClientConfig contains configuration options provided to NewClient when
// creating a Client instance.
//
// The DirectoryURL field is a string containing the URL for the ACME server's
// directory endpoint. This field is mandatory and must not be empty. It
// should be a fully qualified URL with a HTTP/HTTPS protocol prefix.
//
// The CACert field is an optional string containing a file path to a file
// containing one or more PEM encoded CA certificates that should be used as
// trust roots for HTTPS requests to the ACME server. If empty the default
// system roots are used. For example, if you are using Pebble as the ACME
// server, it should be the file path to the "test/certs/pebble.minica.pem"
// file from the Pebble source directory.
type ClientConfig struct {
	// A fully qualified URL for the ACME server's directory resource. Must
	// include an HTTP/HTTPS protocol prefix.
	DirectoryURL string
	// An optional file path to one or more PEM encoded CA certificates to be
	// used as trust roots for HTTPS requests to the ACME server.
	CACert string
	// Retry policy for unauthenticated requests. The zero value selects
	// DefaultPlainRetry.
	PlainRetry RetryPolicy
	// Retry policy for signed requests. The zero value selects
	// DefaultSignedRetry.
	SignedRetry RetryPolicy
	// An optional structured logger. If nil a no-op logger is used.
	Logger *zap.Logger
	// An optional pre-built HTTP client, used as-is when set. Primarily a
	// seam for tests that need to stub the transport.
	HTTPClient *http.Client
}

// normalize validates a ClientConfig.
func (conf *ClientConfig) normalize() error {
	// Clean up any junk whitespace that might have snuck in
	conf.DirectoryURL = strings.TrimSpace(conf.DirectoryURL)

	if conf.DirectoryURL == "" {
		return fmt.Errorf("DirectoryURL must not be empty")
	}

	if _, err := url.Parse(conf.DirectoryURL); err != nil {
		return fmt.Errorf("DirectoryURL invalid: %s", err.Error())
	}

	if conf.PlainRetry.isZero() {
		conf.PlainRetry = DefaultPlainRetry
	}
	if conf.SignedRetry.isZero() {
		conf.SignedRetry = DefaultSignedRetry
	}
	if err := conf.PlainRetry.validate(); err != nil {
		return fmt.Errorf("PlainRetry invalid: %s", err)
	}
	if err := conf.SignedRetry.validate(); err != nil {
		return fmt.Errorf("SignedRetry invalid: %s", err)
	}

	return nil
}

// NewClient creates a Client instance from the given ClientConfig. If the
// config is not valid or if another error occurs it will be returned along
// with a nil Client.
func NewClient(config ClientConfig) (*Client, error) {
	// Validate the ClientConfig has no errors when normalized.
	if err := config.normalize(); err != nil {
		return nil, err
	}

	net, err := acmenet.New(acmenet.Config{
		CABundlePath: config.CACert,
		HTTPClient:   config.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create ACME net client: %s", err)
	}

	// NOTE: it's safe to throw away the returned err here because we check
	// that `url.Parse` will succeed in `config.normalize()` above.
	dirURL, _ := url.Parse(config.DirectoryURL)

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		DirectoryURL: dirURL,
		PlainRetry:   config.PlainRetry,
		SignedRetry:  config.SignedRetry,
		net:          net,
		log:          logger,
	}, nil
}
