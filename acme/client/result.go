package client

import (
	"encoding/json"
	"fmt"

	"github.com/bac-acme/bac/acme"
	"github.com/bac-acme/bac/acme/resources"
	acmenet "github.com/bac-acme/bac/net"
)

// ErrorKind enumerates the failure channels an operation can report. Every
// failure, protocol-level or local, surfaces through the same Result shape so
// callers can pattern match on success vs. error without caring which channel
// produced the failure.
type ErrorKind int

const (
	// ProtocolError means the server returned a non-2xx response carrying a
	// structured ACME problem document. The document is propagated verbatim.
	ProtocolError ErrorKind = iota + 1
	// ExhaustionError means no HTTP response was ever obtained after the
	// maximum retry attempts (only transport failures occurred throughout).
	ExhaustionError
	// ExceptionError means an unexpected local fault occurred (malformed
	// JSON, signing failure, collaborator error).
	ExceptionError
)

// String returns a short name for the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case ProtocolError:
		return "protocol"
	case ExhaustionError:
		return "exhaustion"
	case ExceptionError:
		return "exception"
	}
	return "unknown"
}

// ErrorDetail describes why an operation failed. The Problem field is always
// populated: for ProtocolError it is the server's problem document, for the
// local kinds it is a synthesized "bac:failed:<op>" or "bac:exception:<op>"
// problem. Err carries the underlying local fault for ExceptionError.
type ErrorDetail struct {
	Kind    ErrorKind
	Problem *resources.Problem
	Err     error
}

// Error makes ErrorDetail usable as an error value.
func (e *ErrorDetail) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Problem.Error())
}

// Unwrap exposes the underlying local fault, if any.
func (e *ErrorDetail) Unwrap() error {
	return e.Err
}

// Result is the normalized outcome of every client operation. Exactly one of
// the success fields (Body/Location/Nonce) or the Err field is populated.
// When present, the Nonce is always safe to pass as the prevNonce argument of
// the next operation.
type Result struct {
	// The raw response body. Operations that update a resource in place have
	// already unmarshaled it; Body remains available for callers that want
	// the server's exact bytes (e.g. a PEM certificate chain).
	Body []byte
	// The value of the response's Location header, when the server set one.
	Location string
	// The Replay-Nonce issued with the response, usable for the next call.
	Nonce string
	// Non-nil when the operation failed.
	Err *ErrorDetail
}

// OK is true when the operation succeeded.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Unmarshal decodes the success body as JSON into v.
func (r *Result) Unmarshal(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// failedResult synthesizes the envelope for retry exhaustion: every attempt
// failed at the transport level and no response exists to report.
func failedResult(operation string) *Result {
	return &Result{
		Err: &ErrorDetail{
			Kind:    ExhaustionError,
			Problem: resources.FailedProblem(operation),
		},
	}
}

// exceptionResult synthesizes the envelope for an unexpected local fault,
// distinguishing it from a protocol-level failure.
func exceptionResult(operation string, err error) *Result {
	return &Result{
		Err: &ErrorDetail{
			Kind:    ExceptionError,
			Problem: resources.ExceptionProblem(operation, err),
			Err:     err,
		},
	}
}

// finish normalizes the outcome of a retry loop into a Result envelope. A nil
// response means the loop exhausted its attempts without ever obtaining an
// HTTP response. A non-2xx response is decoded as an ACME problem document.
func (c *Client) finish(operation string, resp *acmenet.NetResponse) *Result {
	if resp == nil {
		return failedResult(operation)
	}

	if resp.OK() {
		return &Result{
			Body:     resp.RespBody,
			Location: resp.Response.Header.Get(acme.LOCATION_HEADER),
			Nonce:    resp.Response.Header.Get(acme.REPLAY_NONCE_HEADER),
		}
	}

	problem := &resources.Problem{}
	if len(resp.RespBody) > 0 {
		if err := json.Unmarshal(resp.RespBody, problem); err != nil {
			return exceptionResult(operation,
				fmt.Errorf("server returned status %d with invalid JSON body: %s",
					resp.Response.StatusCode, err))
		}
	}
	if problem.Status == 0 {
		problem.Status = resp.Response.StatusCode
	}
	if problem.Detail == "" && problem.Type == "" {
		problem.Detail = fmt.Sprintf("server returned status %d with no problem document",
			resp.Response.StatusCode)
	}

	return &Result{
		Err: &ErrorDetail{
			Kind:    ProtocolError,
			Problem: problem,
		},
	}
}
