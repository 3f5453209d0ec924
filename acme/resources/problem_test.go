package resources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProblemACMEErrorName(t *testing.T) {
	p := &Problem{Type: "urn:ietf:params:acme:error:badNonce"}
	assert.Equal(t, "badNonce", p.ACMEErrorName())
	assert.False(t, p.IsLocal())

	p = &Problem{Type: "about:blank"}
	assert.Equal(t, "", p.ACMEErrorName())
}

func TestFailedProblem(t *testing.T) {
	p := FailedProblem("newOrder")
	assert.Equal(t, "bac:failed:newOrder", p.Type)
	assert.Equal(t, LOCAL_PROBLEM_STATUS, p.Status)
	assert.True(t, p.IsLocal())
	assert.Equal(t, "", p.ACMEErrorName())
}

func TestExceptionProblem(t *testing.T) {
	p := ExceptionProblem("finalize", errors.New("boom"))
	assert.Equal(t, "bac:exception:finalize", p.Type)
	assert.Equal(t, "boom", p.Detail)
	assert.Equal(t, LOCAL_PROBLEM_STATUS, p.Status)
	assert.True(t, p.IsLocal())

	p = ExceptionProblem("finalize", nil)
	assert.Equal(t, "", p.Detail)
}

func TestProblemError(t *testing.T) {
	p := &Problem{Type: "urn:ietf:params:acme:error:malformed", Detail: "bad CSR"}
	assert.Equal(t, "urn:ietf:params:acme:error:malformed: bad CSR", p.Error())

	p = &Problem{Type: "urn:ietf:params:acme:error:malformed"}
	assert.Equal(t, "urn:ietf:params:acme:error:malformed", p.Error())
}
