package errors

import (
	"errors"
	"fmt"
)

// Code is the stable name of a domain error condition. Downstream services
// put codes on the wire, so the names here are part of the bus contract and
// must not change meaning between versions.
type Code string

// Domain error codes.
const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeOutOfRange         Code = "OUT_OF_RANGE"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeAborted            Code = "ABORTED"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeResourceExhausted  Code = "RESOURCE_EXHAUSTED"
	CodeUnimplemented      Code = "UNIMPLEMENTED"
	CodeInternal           Code = "INTERNAL"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeDeadlineExceeded   Code = "DEADLINE_EXCEEDED"
)

// DomainError is the structured error produced by downstream services and by
// the gateway's own transport failures. It serializes identically on the bus
// (CBOR) and in HTTP error bodies (JSON).
type DomainError struct {
	Code    Code              `json:"code" cbor:"code"`
	Message string            `json:"message" cbor:"message"`
	Details map[string]string `json:"details,omitempty" cbor:"details,omitempty"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsZero reports whether the error carries no information. Replies embed an
// optional error slot, so a zero value means "no error".
func (e *DomainError) IsZero() bool {
	return e == nil || (e.Code == "" && e.Message == "")
}

// NewDomain creates a DomainError with the given code and message.
func NewDomain(code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsDomain extracts a DomainError from an error chain.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) && !de.IsZero() {
		return de, true
	}
	return nil, false
}

// Domainify converts any gateway error into the DomainError presented to the
// HTTP client. Domain errors pass through untouched; classified errors map by
// class; everything else is internal.
func Domainify(err error) *DomainError {
	if de, ok := AsDomain(err); ok {
		return de
	}
	switch Classify(err) {
	case ClassClient:
		return &DomainError{Code: CodeInvalidArgument, Message: "invalid request"}
	case ClassTransport:
		if errors.Is(err, ErrReplyTimeout) {
			return &DomainError{Code: CodeDeadlineExceeded, Message: "timed out waiting for reply"}
		}
		return &DomainError{Code: CodeUnavailable, Message: "service temporarily unavailable"}
	default:
		return &DomainError{Code: CodeInternal, Message: "internal server error"}
	}
}
