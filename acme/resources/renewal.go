package resources

// RenewalInfo is the ACME Renewal Information (ARI) resource describing the
// window in which a certificate should be renewed.
//
// See https://datatracker.ietf.org/doc/draft-ietf-acme-ari/
type RenewalInfo struct {
	// The window in which the server suggests renewing the certificate.
	SuggestedWindow SuggestedWindow `json:"suggestedWindow"`
	// An optional URL with human readable context for the suggested window.
	ExplanationURL string `json:"explanationURL,omitempty"`
}

// SuggestedWindow holds the RFC 3339 start and end timestamps of a suggested
// renewal window.
type SuggestedWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
