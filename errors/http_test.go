package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeOutOfRange, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodePermissionDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeAborted, http.StatusConflict},
		{CodeFailedPrecondition, http.StatusPreconditionFailed},
		{CodeResourceExhausted, http.StatusTooManyRequests},
		{CodeUnimplemented, http.StatusNotImplemented},
		{CodeUnknown, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeDeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestHTTPStatusUnknownCode(t *testing.T) {
	// Codes a newer downstream may send that the gateway does not know yet.
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("SOMETHING_NEW")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("")))
}

func TestRetryAfterSeconds(t *testing.T) {
	secs, ok := RetryAfterSeconds(CodeResourceExhausted)
	assert.True(t, ok)
	assert.Equal(t, RetryAfterExhausted, secs)

	secs, ok = RetryAfterSeconds(CodeUnavailable)
	assert.True(t, ok)
	assert.Equal(t, RetryAfterUnavailable, secs)

	_, ok = RetryAfterSeconds(CodeNotFound)
	assert.False(t, ok)
	_, ok = RetryAfterSeconds(CodeInternal)
	assert.False(t, ok)
}

func TestDomainError(t *testing.T) {
	err := NewDomain(CodeNotFound, "model %q not loaded", "llama-7b")
	assert.Equal(t, `NOT_FOUND: model "llama-7b" not loaded`, err.Error())
	assert.False(t, err.IsZero())

	var zero *DomainError
	assert.True(t, zero.IsZero())
	assert.True(t, (&DomainError{}).IsZero())
}

func TestAsDomain(t *testing.T) {
	de := NewDomain(CodeConflict, "already loading")
	wrapped := WrapInternal(de, "Gateway", "serveUnary", "dispatch")

	got, ok := AsDomain(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeConflict, got.Code)

	_, ok = AsDomain(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsDomain(nil)
	assert.False(t, ok)
}

func TestDomainify(t *testing.T) {
	// Domain errors pass through untouched.
	de := NewDomain(CodePermissionDenied, "denied")
	assert.Same(t, de, Domainify(de))

	// Client faults become INVALID_ARGUMENT.
	got := Domainify(WrapClient(stderrors.New("bad json"), "Codec", "EncodeRequest", "decode body"))
	assert.Equal(t, CodeInvalidArgument, got.Code)

	// Reply timeouts become DEADLINE_EXCEEDED, other transport failures
	// become UNAVAILABLE.
	got = Domainify(WrapTransport(ErrReplyTimeout, "Client", "Request", "await reply"))
	assert.Equal(t, CodeDeadlineExceeded, got.Code)
	got = Domainify(WrapTransport(ErrNoResponders, "Client", "Request", "publish"))
	assert.Equal(t, CodeUnavailable, got.Code)

	// Everything else is internal, with no detail leaked.
	got = Domainify(stderrors.New("nil pointer somewhere"))
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "internal server error", got.Message)
}
