package resources

import (
	"fmt"
	"strings"

	"github.com/bac-acme/bac/acme"
)

// Local problem types are synthesized by the client (never by the server)
// when no structured server error exists to report.
const (
	// The problem Type prefix used when every retry attempt failed without
	// obtaining any HTTP response.
	LOCAL_FAILED_PREFIX = "bac:failed:"
	// The problem Type prefix used when an unexpected local fault occurred
	// (malformed JSON, signing failure, collaborator error).
	LOCAL_EXCEPTION_PREFIX = "bac:exception:"
	// The Status value used for locally synthesized problems. Zero is never a
	// real HTTP status so callers can tell local problems from server ones.
	LOCAL_PROBLEM_STATUS = 0
)

// Problem is a struct representing a problem document from the server (RFC
// 7807, RFC 8555 §6.7), or a locally synthesized equivalent.
//
// TODO(@cpu): implement RFC 8555 subproblem support
type Problem struct {
	Type   string `json:"type,omitempty"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status,omitempty"`
}

// Error makes Problem usable as an error value.
func (p *Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Type, p.Detail)
	}
	return p.Type
}

// IsLocal is true for problems synthesized by the client rather than
// returned by the ACME server.
func (p *Problem) IsLocal() bool {
	return strings.HasPrefix(p.Type, LOCAL_FAILED_PREFIX) ||
		strings.HasPrefix(p.Type, LOCAL_EXCEPTION_PREFIX)
}

// ACMEErrorName returns the bare error name for server problems with an
// "urn:ietf:params:acme:error:" type (e.g. "badNonce"), or an empty string
// for other problem types.
func (p *Problem) ACMEErrorName() string {
	if !strings.HasPrefix(p.Type, acme.ERROR_TYPE_PREFIX) {
		return ""
	}
	return strings.TrimPrefix(p.Type, acme.ERROR_TYPE_PREFIX)
}

// FailedProblem builds the local problem reported when every retry attempt
// for the named operation failed without a response.
func FailedProblem(operation string) *Problem {
	return &Problem{
		Type:   LOCAL_FAILED_PREFIX + operation,
		Detail: fmt.Sprintf("%q failed after multiple attempts", operation),
		Status: LOCAL_PROBLEM_STATUS,
	}
}

// ExceptionProblem builds the local problem reported when the named operation
// hit an unexpected local fault.
func ExceptionProblem(operation string, err error) *Problem {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &Problem{
		Type:   LOCAL_EXCEPTION_PREFIX + operation,
		Detail: detail,
		Status: LOCAL_PROBLEM_STATUS,
	}
}
