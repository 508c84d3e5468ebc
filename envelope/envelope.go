// Package envelope derives per-request metadata from HTTP headers. The
// envelope rides with the domain payload on the bus so downstream services can
// correlate, trace, and deduplicate without the gateway interpreting any of it.
package envelope

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recognized inbound headers.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
	HeaderClientID  = "X-Client-ID"
	HeaderUserID    = "X-User-ID"
	HeaderTenantID  = "X-Tenant-ID"

	// LabelPrefix marks headers copied into Labels with the prefix stripped
	// and the key lower-cased.
	LabelPrefix = "X-Custom-"
)

// Envelope is the request metadata attached to every outbound bus message.
// Immutable after construction; never persisted.
type Envelope struct {
	RequestID      string            `json:"request_id" cbor:"request_id"`
	TraceID        string            `json:"trace_id,omitempty" cbor:"trace_id,omitempty"`
	ClientID       string            `json:"client_id,omitempty" cbor:"client_id,omitempty"`
	UserID         string            `json:"user_id,omitempty" cbor:"user_id,omitempty"`
	TenantID       string            `json:"tenant_id,omitempty" cbor:"tenant_id,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty" cbor:"idempotency_key,omitempty"`
	Timestamp      time.Time         `json:"timestamp" cbor:"timestamp"`
	Labels         map[string]string `json:"labels,omitempty" cbor:"labels,omitempty"`
}

// Build derives an envelope from request headers and the idempotency key
// lifted from the body. Always succeeds: missing ids are generated, all other
// fields default to empty.
func Build(h http.Header, idempotencyKey string) Envelope {
	env := Envelope{
		RequestID:      headerOrNewID(h, HeaderRequestID),
		TraceID:        headerOrNewID(h, HeaderTraceID),
		ClientID:       h.Get(HeaderClientID),
		UserID:         h.Get(HeaderUserID),
		TenantID:       h.Get(HeaderTenantID),
		IdempotencyKey: idempotencyKey,
		Timestamp:      time.Now().UTC(),
	}

	for key, values := range h {
		if !strings.HasPrefix(key, LabelPrefix) || len(values) == 0 {
			continue
		}
		if env.Labels == nil {
			env.Labels = make(map[string]string)
		}
		env.Labels[strings.ToLower(strings.TrimPrefix(key, LabelPrefix))] = values[0]
	}

	return env
}

func headerOrNewID(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	return uuid.NewString()
}
