package client

import (
	"context"
	"encoding/json"

	"github.com/bac-acme/bac/acme/resources"
	acmenet "github.com/bac-acme/bac/net"
)

// UpdateDirectory fetches the ACME server's directory resource with the plain
// retry policy and replaces the client's cached copy. The cached directory is
// used when referencing the endpoints for updating nonces, creating accounts,
// and creating orders.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.1
func (c *Client) UpdateDirectory(ctx context.Context) *Result {
	const operation = "directory"

	url := c.DirectoryURL.String()
	resp := c.retryUntilOK(ctx, c.PlainRetry, operation, func() (*acmenet.NetResponse, error) {
		return c.net.GetURL(ctx, url)
	})

	result := c.finish(operation, resp)
	if !result.OK() {
		return result
	}

	var directory resources.Directory
	if err := json.Unmarshal(result.Body, &directory); err != nil {
		return exceptionResult(operation, err)
	}

	c.dirMu.Lock()
	c.directory = directory
	c.dirMu.Unlock()
	c.log.Debug("updated directory")

	return result
}

// Directory returns the ACME server's directory resource, fetching it first
// if no cached copy exists. The returned map is read-only and may be shared
// by reference across concurrent operations.
func (c *Client) Directory(ctx context.Context) (resources.Directory, error) {
	c.dirMu.RLock()
	dir := c.directory
	c.dirMu.RUnlock()
	if dir != nil {
		return dir, nil
	}

	if result := c.UpdateDirectory(ctx); !result.OK() {
		return nil, result.Err
	}

	c.dirMu.RLock()
	defer c.dirMu.RUnlock()
	return c.directory, nil
}

// GetEndpointURL gets a URL for a specific ACME endpoint by first fetching
// the ACME server's directory and then checking that directory resource for
// a key with the given name. If the key is found its value is returned along
// with a true bool. If the key is not found an empty string is returned with
// a false bool.
func (c *Client) GetEndpointURL(ctx context.Context, name string) (string, bool) {
	dir, err := c.Directory(ctx)
	if err != nil {
		return "", false
	}
	return dir.Endpoint(name)
}
