package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/busbridge/codec"
	"github.com/c360/busbridge/envelope"
	"github.com/c360/busbridge/errors"
	"github.com/c360/busbridge/gateway"
	"github.com/c360/busbridge/schema"
)

// fakeStream feeds pre-encoded chunks to the gateway's reader.
type fakeStream struct {
	msgs         chan []byte
	unsubscribed chan struct{}
}

func newFakeStream(msgs ...[]byte) *fakeStream {
	s := &fakeStream{
		msgs:         make(chan []byte, len(msgs)+1),
		unsubscribed: make(chan struct{}),
	}
	for _, m := range msgs {
		s.msgs <- m
	}
	return s
}

func (s *fakeStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case m, ok := <-s.msgs:
		if !ok {
			return nil, errors.ErrStreamClosed
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeStream) Unsubscribe() error {
	select {
	case <-s.unsubscribed:
	default:
		close(s.unsubscribed)
	}
	return nil
}

func streamingBus(stream BusStream) *fakeBus {
	return &fakeBus{
		connected: true,
		openStreamFn: func(_ string, _ []byte, _, _ int) (BusStream, error) {
			return stream, nil
		},
	}
}

func encodeChunk(t *testing.T, payload any, final bool) []byte {
	t.Helper()
	chunk := codec.StreamChunk{Final: final}
	if payload != nil {
		raw, err := codec.Marshal(payload)
		require.NoError(t, err)
		chunk.Payload = raw
	}
	return mustMarshal(t, chunk)
}

func encodeErrorChunk(t *testing.T, de *errors.DomainError) []byte {
	t.Helper()
	return mustMarshal(t, codec.StreamChunk{Error: de})
}

func postChat(g *Gateway) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`))
	g.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStreamHappyPath(t *testing.T) {
	stream := newFakeStream(
		encodeChunk(t, schema.ChatChunk{Text: "hel", Index: 0}, false),
		encodeChunk(t, schema.ChatChunk{Text: "lo", Index: 1}, false),
		encodeChunk(t, schema.ChatChunk{FinishReason: "stop", Index: 2}, true),
	)
	g := newTestGateway(t, Config{}, streamingBus(stream))

	rec := postChat(g)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	events := sseEvents(rec.Body.String())
	require.Len(t, events, 3)
	assert.Contains(t, events[0], `"text":"hel"`)
	assert.Contains(t, events[1], `"text":"lo"`)
	assert.Contains(t, events[2], `"finish_reason":"stop"`)

	select {
	case <-stream.unsubscribed:
	default:
		t.Fatal("stream must be unsubscribed after completion")
	}
}

func TestStreamBareFinalMarker(t *testing.T) {
	stream := newFakeStream(
		encodeChunk(t, schema.ChatChunk{Text: "all"}, false),
		encodeChunk(t, nil, true),
	)
	g := newTestGateway(t, Config{}, streamingBus(stream))

	rec := postChat(g)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The bare final marker carries no data event.
	events := sseEvents(rec.Body.String())
	require.Len(t, events, 1)
	assert.Contains(t, events[0], `"text":"all"`)
}

func TestStreamFirstChunkError(t *testing.T) {
	stream := newFakeStream(
		encodeErrorChunk(t, errors.NewDomain(errors.CodePermissionDenied, "not yours")),
	)
	g := newTestGateway(t, Config{}, streamingBus(stream))

	rec := postChat(g)

	// The status line was held back, so the error maps to its real status.
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "PERMISSION_DENIED")

	select {
	case <-stream.unsubscribed:
	default:
		t.Fatal("stream must be unsubscribed after an error")
	}
}

func TestStreamMidStreamError(t *testing.T) {
	stream := newFakeStream(
		encodeChunk(t, schema.ChatChunk{Text: "par"}, false),
		encodeErrorChunk(t, errors.NewDomain(errors.CodeInternal, "inference crashed")),
	)
	g := newTestGateway(t, Config{}, streamingBus(stream))

	rec := postChat(g)

	// Status is already committed; the error arrives in-band and ends
	// the stream.
	assert.Equal(t, http.StatusOK, rec.Code)
	events := sseEvents(rec.Body.String())
	require.Len(t, events, 2)
	assert.Contains(t, events[0], `"text":"par"`)
	assert.Contains(t, events[1], `"code":"INTERNAL"`)
}

func TestStreamPrimeTimeout(t *testing.T) {
	stream := newFakeStream() // never yields
	g := newTestGateway(t, Config{FirstChunkTimeout: 20 * time.Millisecond}, streamingBus(stream))

	rec := postChat(g)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "DEADLINE_EXCEEDED")
}

func TestStreamClosedBeforeFirstChunk(t *testing.T) {
	stream := newFakeStream()
	close(stream.msgs)
	g := newTestGateway(t, Config{}, streamingBus(stream))

	rec := postChat(g)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAVAILABLE")
}

func TestStreamMalformedChunk(t *testing.T) {
	stream := newFakeStream([]byte{0xff, 0x00, 0x01})
	g := newTestGateway(t, Config{}, streamingBus(stream))

	rec := postChat(g)

	// A malformed first chunk surfaces as a synthesized internal error
	// before the status line is committed.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed stream chunk")
}

func TestStreamOpenFailure(t *testing.T) {
	bus := &fakeBus{
		connected: true,
		openStreamFn: func(_ string, _ []byte, _, _ int) (BusStream, error) {
			return nil, errors.WrapTransport(errors.ErrNoResponders, "Client", "OpenStream", "publish request")
		},
	}
	g := newTestGateway(t, Config{}, bus)

	rec := postChat(g)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestStreamAdmissionCap(t *testing.T) {
	stream := newFakeStream(encodeChunk(t, schema.ChatChunk{Text: "ok"}, true))
	g := newTestGateway(t, Config{MaxStreams: 1}, streamingBus(stream))

	// Occupy the only slot.
	g.streams.Add(1)

	rec := postChat(g)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RESOURCE_EXHAUSTED")

	// Releasing the slot readmits immediately.
	g.streams.Add(-1)
	rec = postChat(g)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), g.streams.Load(), "slot must be released on completion")
}

func TestReadChunksSlowConsumer(t *testing.T) {
	// Three chunks into a queue of one that nobody drains: the reader
	// must give up after the slow-consumer timeout and close the queue.
	stream := newFakeStream(
		encodeChunk(t, schema.ChatChunk{Text: "a"}, false),
		encodeChunk(t, schema.ChatChunk{Text: "b"}, false),
		encodeChunk(t, schema.ChatChunk{Text: "c"}, false),
	)
	g := newTestGateway(t, Config{SlowConsumerTimeout: 20 * time.Millisecond}, streamingBus(stream))

	out := make(chan *codec.StreamChunk, 1)
	done := make(chan struct{})
	go func() {
		g.readChunks(context.Background(), stream, out, gateway.Route{Subject: "svc.ai.inference.v1.chat"}, envelope.Envelope{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not terminate on slow consumer")
	}

	// The queued chunk is still deliverable, then the channel is closed.
	chunk, ok := <-out
	require.True(t, ok)
	assert.False(t, chunk.Terminal())
	_, ok = <-out
	assert.False(t, ok, "queue must be closed after the reader exits")
}

func TestReadChunksStopsAtTerminal(t *testing.T) {
	stream := newFakeStream(
		encodeChunk(t, schema.ChatChunk{Text: "a"}, false),
		encodeChunk(t, nil, true),
		encodeChunk(t, schema.ChatChunk{Text: "never read"}, false),
	)
	g := newTestGateway(t, Config{}, streamingBus(stream))

	out := make(chan *codec.StreamChunk, 8)
	g.readChunks(context.Background(), stream, out, gateway.Route{Subject: "svc.ai.inference.v1.chat"}, envelope.Envelope{})

	var got []*codec.StreamChunk
	for c := range out {
		got = append(got, c)
	}
	require.Len(t, got, 2)
	assert.True(t, got[1].Terminal())
	assert.Len(t, stream.msgs, 1, "reader must not consume past the terminal chunk")
}

func TestStreamKeepalive(t *testing.T) {
	first := encodeChunk(t, schema.ChatChunk{Text: "hi"}, false)
	stream := newFakeStream(first)
	g := newTestGateway(t, Config{KeepaliveInterval: 10 * time.Millisecond}, streamingBus(stream))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"m"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `"text":"hi"`)
	assert.Contains(t, body, ":keepalive\n\n")
}

// sseEvents extracts the payload of each data event from an SSE body,
// skipping comment keepalives.
func sseEvents(body string) []string {
	var events []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}
	return events
}
