package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/c360/busbridge/codec"
	"github.com/c360/busbridge/envelope"
	"github.com/c360/busbridge/errors"
	"github.com/c360/busbridge/gateway"
)

// serveStream bridges one streaming route invocation. A reader goroutine
// pulls chunks off the reply inbox into a bounded queue; this goroutine is
// the writer, emitting SSE. They share nothing but the queue.
//
// The HTTP status line is not committed until the first chunk is known, so an
// early domain error still maps to its proper status code.
func (g *Gateway) serveStream(w http.ResponseWriter, r *http.Request, route gateway.Route, env envelope.Envelope, payload []byte) {
	// Admission: increment first, back out if over the cap. Checking
	// before incrementing would over-admit under concurrent entry.
	if n := g.streams.Add(1); n > int64(g.config.MaxStreams) {
		g.streams.Add(-1)
		if g.metrics != nil {
			g.metrics.StreamsRejected.Inc()
		}
		g.writeError(w, route, env.RequestID,
			errors.NewDomain(errors.CodeResourceExhausted, "too many concurrent streams"))
		return
	}
	defer g.streams.Add(-1)
	if g.metrics != nil {
		g.metrics.ActiveStreams.Inc()
		defer g.metrics.ActiveStreams.Dec()
	}

	stream, err := g.bus.OpenStream(route.Subject, payload, g.config.PendingMsgLimit, g.config.PendingByteLimit)
	if err != nil {
		g.writeError(w, route, env.RequestID, err)
		return
	}
	// Cleanup is guaranteed, not best-effort: the subscription dies with
	// this invocation no matter how it exits.
	defer func() {
		if err := stream.Unsubscribe(); err != nil {
			g.logger.Warn("unsubscribe failed",
				"subject", route.Subject, "request_id", env.RequestID, "error", err)
		}
	}()

	ctx := r.Context()
	chunks := make(chan *codec.StreamChunk, g.config.ChunkQueueSize)
	go g.readChunks(ctx, stream, chunks, route, env)

	// Prime read: hold the status line until the first chunk tells us
	// whether this stream starts with data or with an error.
	var first *codec.StreamChunk
	primeTimer := time.NewTimer(g.config.FirstChunkTimeout)
	defer primeTimer.Stop()
	select {
	case c, ok := <-chunks:
		if !ok {
			g.writeError(w, route, env.RequestID,
				errors.WrapTransport(errors.ErrStreamClosed, "Gateway", "serveStream", "await first chunk"))
			return
		}
		first = c
	case <-primeTimer.C:
		g.writeError(w, route, env.RequestID,
			errors.WrapTransport(errors.ErrReplyTimeout, "Gateway", "serveStream", "await first chunk"))
		return
	case <-ctx.Done():
		return
	}

	if !first.Error.IsZero() {
		g.writeError(w, route, env.RequestID, first.Error)
		return
	}

	// First chunk is clean: commit to SSE.
	flusher, ok := w.(http.Flusher)
	if !ok {
		g.writeError(w, route, env.RequestID,
			errors.NewDomain(errors.CodeInternal, "response writer does not support streaming"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	g.count(route, http.StatusOK)

	if !g.emitChunk(w, flusher, route, env, first) {
		return
	}
	if first.Terminal() {
		return
	}

	keepalive := time.NewTicker(g.config.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// Reader ended without a terminal chunk: slow
				// consumer or subscription loss. Nothing more
				// can be said in-band.
				return
			}
			keepalive.Reset(g.config.KeepaliveInterval)
			if !chunk.Error.IsZero() {
				// Status line is committed, so the error goes
				// in-band as a terminal event.
				g.emitError(w, flusher, chunk.Error)
				return
			}
			if !g.emitChunk(w, flusher, route, env, chunk) {
				return
			}
			if chunk.Terminal() {
				return
			}
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// readChunks is the reader task: it decodes inbound messages into chunks and
// pushes them onto the bounded queue. A full queue for longer than the
// slow-consumer timeout terminates the stream rather than growing memory.
// Always closes the queue on exit.
func (g *Gateway) readChunks(ctx context.Context, stream BusStream, out chan<- *codec.StreamChunk, route gateway.Route, env envelope.Envelope) {
	defer close(out)

	for {
		data, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() == nil && err != errors.ErrStreamClosed {
				g.logger.Warn("stream receive failed",
					"subject", route.Subject, "request_id", env.RequestID, "error", err)
			}
			return
		}

		chunk, err := codec.DecodeChunk(data)
		if err != nil {
			// Contract violation from downstream; surface in-band so
			// the writer can end the stream deterministically.
			g.logger.Error("malformed stream chunk",
				"subject", route.Subject, "request_id", env.RequestID, "error", err)
			chunk = &codec.StreamChunk{
				Error: errors.NewDomain(errors.CodeInternal, "malformed stream chunk"),
			}
		}

		slow := time.NewTimer(g.config.SlowConsumerTimeout)
		select {
		case out <- chunk:
			slow.Stop()
		case <-slow.C:
			if g.metrics != nil {
				g.metrics.SlowConsumerDrops.Inc()
			}
			g.logger.Warn("slow consumer, terminating stream",
				"subject", route.Subject, "request_id", env.RequestID)
			return
		case <-ctx.Done():
			slow.Stop()
			return
		}

		if chunk.Terminal() {
			return
		}
	}
}

// emitChunk writes one chunk as an SSE data event. Chunks without a payload
// (a bare final marker) emit nothing. Returns false when the write path is
// broken and the stream should end.
func (g *Gateway) emitChunk(w http.ResponseWriter, flusher http.Flusher, route gateway.Route, env envelope.Envelope, chunk *codec.StreamChunk) bool {
	body, err := codec.ChunkJSON(chunk, route.NewChunk)
	if err != nil {
		g.logger.Error("malformed chunk payload",
			"subject", route.Subject, "request_id", env.RequestID, "error", err)
		g.emitError(w, flusher, errors.NewDomain(errors.CodeInternal, "malformed chunk payload"))
		return false
	}
	if body == nil {
		return true
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", body); err != nil {
		return false
	}
	flusher.Flush()
	if g.metrics != nil {
		g.metrics.BytesSent.Add(float64(len(body)))
	}
	return true
}

// emitError delivers a terminal error in-band after the stream has started.
func (g *Gateway) emitError(w http.ResponseWriter, flusher http.Flusher, de *errors.DomainError) {
	body, err := json.Marshal(map[string]*errors.DomainError{"error": de})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", body)
	flusher.Flush()
}
