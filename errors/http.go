package errors

import "net/http"

// Retry-After hints in seconds. 429 frees up as soon as a stream completes,
// 503 tracks the bus reconnect wait.
const (
	RetryAfterExhausted   = 1
	RetryAfterUnavailable = 2
)

// statusByCode is the pure lookup table from domain code to HTTP status.
var statusByCode = map[Code]int{
	CodeInvalidArgument:    http.StatusBadRequest,
	CodeOutOfRange:         http.StatusBadRequest,
	CodeUnauthenticated:    http.StatusUnauthorized,
	CodePermissionDenied:   http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeAborted:            http.StatusConflict,
	CodeFailedPrecondition: http.StatusPreconditionFailed,
	CodeResourceExhausted:  http.StatusTooManyRequests,
	CodeUnimplemented:      http.StatusNotImplemented,
	CodeUnknown:            http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeDeadlineExceeded:   http.StatusGatewayTimeout,
}

// HTTPStatus maps a domain code to an HTTP status. Unknown or unset codes map
// to 500.
func HTTPStatus(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RetryAfterSeconds returns the Retry-After hint for a domain code and whether
// one applies. Only 429 and 503 responses carry the header.
func RetryAfterSeconds(code Code) (int, bool) {
	switch code {
	case CodeResourceExhausted:
		return RetryAfterExhausted, true
	case CodeUnavailable:
		return RetryAfterUnavailable, true
	default:
		return 0, false
	}
}
