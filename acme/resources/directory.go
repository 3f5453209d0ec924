package resources

// Directory is an in-memory representation of an ACME server's directory
// object: a mapping of operation name to endpoint URL, plus a "meta" entry.
// A Directory is fetched once per session and treated as read-only; it may
// be refetched (producing a new value) to pick up new URLs.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.1
type Directory map[string]interface{}

// Endpoint looks up the URL for a named ACME endpoint (e.g. "newNonce"). If
// the directory has no such entry, or the entry is not a non-empty string,
// an empty string and false are returned.
func (d Directory) Endpoint(name string) (string, bool) {
	rawURL, ok := d[name]
	if !ok {
		return "", false
	}
	switch v := rawURL.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	}
	return "", false
}
