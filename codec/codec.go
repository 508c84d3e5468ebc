// Package codec converts between HTTP JSON bodies and the CBOR payloads used
// on the bus, in both directions. Encoding is deterministic; decoding ignores
// unknown fields for forward compatibility in both formats.
package codec

import (
	"encoding/json"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/c360/busbridge/envelope"
	"github.com/c360/busbridge/errors"
)

// MetaField is the reserved top-level key carrying the request envelope on
// outbound bus messages. Downstream services must not define a domain field
// with this name.
const MetaField = "_meta"

// IdempotencyField is the optional top-level JSON key lifted from request
// bodies into the envelope. It never appears among the outbound domain fields
// because no schema type declares it.
const IdempotencyField = "idempotency_key"

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	// Core Deterministic Encoding: same logical data always produces
	// identical bytes, which keeps stub-based tests and dedup sane.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Replies may contain any-typed values (state maps). CBOR's
		// default map type for any targets is map[interface{}]interface{},
		// which encoding/json refuses to marshal.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// LiftIdempotencyKey extracts the optional top-level idempotency_key from a
// JSON body. Structural problems are ignored here; they surface as decode
// errors in EncodeRequest.
func LiftIdempotencyKey(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var probe struct {
		Key string `json:"idempotency_key"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.Key
}

// EncodeRequest validates a JSON body against the route's request type and
// produces the outbound bus payload with the envelope merged under MetaField.
// Unknown JSON fields are tolerated and discarded. A required field of the
// wrong structural type is a client error, never an internal one.
func EncodeRequest(body []byte, env envelope.Envelope, newRequest func() any) ([]byte, error) {
	req := newRequest()
	if len(body) > 0 {
		if err := json.Unmarshal(body, req); err != nil {
			return nil, errors.WrapClient(err, "Codec", "EncodeRequest", "decode request body")
		}
	}

	// Round-trip through a map so the envelope can ride at the top level
	// next to the domain fields.
	raw, err := encMode.Marshal(req)
	if err != nil {
		return nil, errors.WrapInternal(err, "Codec", "EncodeRequest", "marshal request")
	}
	var fields map[string]any
	if err := decMode.Unmarshal(raw, &fields); err != nil {
		return nil, errors.WrapInternal(err, "Codec", "EncodeRequest", "flatten request")
	}
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields[MetaField] = env

	payload, err := encMode.Marshal(fields)
	if err != nil {
		return nil, errors.WrapInternal(err, "Codec", "EncodeRequest", "marshal payload")
	}
	return payload, nil
}

// replyHeader sniffs the standard error slot present on every reply. CBOR
// decoding ignores the domain fields.
type replyHeader struct {
	Error *errors.DomainError `cbor:"error"`
}

// DecodeReply converts a unary bus reply into a compact JSON body. A reply
// carrying a non-trivial domain error is returned as that error. A reply that
// cannot be parsed as the expected type indicates a downstream contract
// violation and is reported as internal.
func DecodeReply(data []byte, newResponse func() any) ([]byte, error) {
	var hdr replyHeader
	if err := decMode.Unmarshal(data, &hdr); err != nil {
		return nil, errors.WrapInternal(err, "Codec", "DecodeReply", "parse reply")
	}
	if !hdr.Error.IsZero() {
		return nil, hdr.Error
	}

	resp := newResponse()
	if err := decMode.Unmarshal(data, resp); err != nil {
		return nil, errors.WrapInternal(err, "Codec", "DecodeReply", "decode reply payload")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, errors.WrapInternal(err, "Codec", "DecodeReply", "marshal response body")
	}
	return body, nil
}

// StreamChunk is one unit of a streaming reply. A chunk with Error set is
// always terminal regardless of Final.
type StreamChunk struct {
	Payload cbor.RawMessage     `cbor:"payload,omitempty"`
	Error   *errors.DomainError `cbor:"error,omitempty"`
	Final   bool                `cbor:"final,omitempty"`
}

// Terminal reports whether this chunk ends the stream.
func (c *StreamChunk) Terminal() bool {
	return c.Final || !c.Error.IsZero()
}

// DecodeChunk parses one inbound stream message.
func DecodeChunk(data []byte) (*StreamChunk, error) {
	var chunk StreamChunk
	if err := decMode.Unmarshal(data, &chunk); err != nil {
		return nil, errors.WrapInternal(err, "Codec", "DecodeChunk", "decode stream chunk")
	}
	return &chunk, nil
}

// ChunkJSON converts a chunk's payload into the JSON emitted as one SSE data
// event, using the route's chunk type. An empty payload yields nil.
func ChunkJSON(chunk *StreamChunk, newChunk func() any) ([]byte, error) {
	if len(chunk.Payload) == 0 {
		return nil, nil
	}
	out := newChunk()
	if err := decMode.Unmarshal(chunk.Payload, out); err != nil {
		return nil, errors.WrapInternal(err, "Codec", "ChunkJSON", "decode chunk payload")
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, errors.WrapInternal(err, "Codec", "ChunkJSON", "marshal chunk body")
	}
	return body, nil
}

// Marshal encodes v to deterministic CBOR. Exposed for stub services and
// tests so they share the gateway's encoder configuration.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v with the gateway's decoder configuration.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
