// Package acme provides ACME protocol constants. See RFC 8555.
package acme

const (
	// Directory constants
	// See https://tools.ietf.org/html/rfc8555#section-9.7.5

	// The ACME directory key for the newNonce endpoint
	NEW_NONCE_ENDPOINT = "newNonce"
	// The ACME directory key for the newAccount endpoint.
	NEW_ACCOUNT_ENDPOINT = "newAccount"
	// The ACME directory key for the newOrder endpoint.
	NEW_ORDER_ENDPOINT = "newOrder"
	// The ACME directory key for the revokeCert endpoint.
	REVOKE_CERT_ENDPOINT = "revokeCert"
	// The ACME directory key for the keyChange endpoint.
	KEY_CHANGE_ENDPOINT = "keyChange"
	// The directory key for the ACME Renewal Information (ARI) endpoint. See
	// https://datatracker.ietf.org/doc/draft-ietf-acme-ari/
	RENEWAL_INFO_ENDPOINT = "renewalInfo"

	// The HTTP response header used by ACME to communicate a fresh nonce. See
	// https://tools.ietf.org/html/rfc8555#section-9.3
	REPLAY_NONCE_HEADER = "Replay-Nonce"
	// The HTTP response header carrying the URL of a created resource.
	LOCATION_HEADER = "Location"

	// The URN prefix shared by all server problem document types. See
	// https://tools.ietf.org/html/rfc8555#section-6.7
	ERROR_TYPE_PREFIX = "urn:ietf:params:acme:error:"
)
