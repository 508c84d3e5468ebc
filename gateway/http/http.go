// Package http implements the HTTP side of the gateway: it accepts JSON
// requests, bridges them onto the bus as request/reply or request/stream
// calls, and renders replies as JSON bodies or SSE streams.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/c360/busbridge/codec"
	"github.com/c360/busbridge/envelope"
	"github.com/c360/busbridge/errors"
	"github.com/c360/busbridge/gateway"
	"github.com/c360/busbridge/health"
	"github.com/c360/busbridge/metric"
)

// Config holds the gateway's HTTP and bridging settings.
type Config struct {
	// ListenAddr is the host:port the gateway serves on.
	ListenAddr string

	// MaxRequestSize limits request body size in bytes.
	MaxRequestSize int64

	// RequestTimeout bounds each bus call.
	RequestTimeout time.Duration

	// FirstChunkTimeout bounds the wait for a stream's first chunk before
	// the HTTP status is committed. Zero means use RequestTimeout.
	FirstChunkTimeout time.Duration

	// MaxStreams caps simultaneous streaming responses per process.
	MaxStreams int

	// ChunkQueueSize bounds the per-stream chunk queue between the reader
	// and the SSE writer.
	ChunkQueueSize int

	// PendingMsgLimit and PendingByteLimit bound the reply-inbox
	// subscription, protecting the gateway from an unbounded publisher.
	PendingMsgLimit  int
	PendingByteLimit int

	// SlowConsumerTimeout is how long the reader blocks on a full chunk
	// queue before terminating the stream.
	SlowConsumerTimeout time.Duration

	// KeepaliveInterval is how long the writer waits without a chunk
	// before emitting an SSE comment keepalive.
	KeepaliveInterval time.Duration
}

// Validate checks the configuration and fills defaults for unset values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.MaxRequestSize <= 0 {
		c.MaxRequestSize = 10 << 20
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.FirstChunkTimeout <= 0 {
		c.FirstChunkTimeout = c.RequestTimeout
	}
	if c.MaxStreams <= 0 {
		c.MaxStreams = 100
	}
	if c.ChunkQueueSize <= 0 {
		c.ChunkQueueSize = 50
	}
	if c.PendingMsgLimit <= 0 {
		c.PendingMsgLimit = 512
	}
	if c.PendingByteLimit <= 0 {
		c.PendingByteLimit = 8 << 20
	}
	if c.SlowConsumerTimeout <= 0 {
		c.SlowConsumerTimeout = 5 * time.Second
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = 10 * time.Second
	}
	return nil
}

// BusStream is one open reply-inbox subscription.
type BusStream interface {
	// Next returns the next raw chunk, the context error on cancellation,
	// or errors.ErrStreamClosed when the subscription ended.
	Next(ctx context.Context) ([]byte, error)
	// Unsubscribe cancels the subscription. Idempotent.
	Unsubscribe() error
}

// Bus is the part of the shared bus client the gateway borrows. The gateway
// never owns the connection lifecycle.
type Bus interface {
	Request(ctx context.Context, subject string, data []byte) ([]byte, error)
	OpenStream(subject string, data []byte, pendingMsgs, pendingBytes int) (BusStream, error)
	IsConnected() bool
}

// Gateway bridges HTTP requests onto the bus. Construct with New; all state
// is explicit, nothing lives at package level.
type Gateway struct {
	config  Config
	table   *gateway.Table
	bus     Bus
	logger  *slog.Logger
	metrics *metric.GatewayMetrics

	// streams counts active streaming requests against MaxStreams.
	streams atomic.Int64

	startTime time.Time
	server    *http.Server
}

// New creates a gateway over the given route table and bus client.
func New(cfg Config, table *gateway.Table, bus Bus, logger *slog.Logger, metrics *metric.GatewayMetrics) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil || table.Len() == 0 {
		return nil, errors.WrapClient(errors.ErrMissingConfig, "Gateway", "New", "route table required")
	}
	if bus == nil {
		return nil, errors.WrapClient(errors.ErrMissingConfig, "Gateway", "New", "bus client required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:    cfg,
		table:     table,
		bus:       bus,
		logger:    logger,
		metrics:   metrics,
		startTime: time.Now(),
	}, nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /ready", g.handleReady)
	mux.HandleFunc("GET /status", g.handleStatus)
	for _, path := range g.table.Paths() {
		mux.HandleFunc("POST "+path, g.handleRoute)
	}
	return mux
}

// Start serves HTTP until the listener fails or Shutdown is called.
func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:              g.config.ListenAddr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

// Shutdown stops accepting new work and waits for in-flight requests.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// handleRoute serves one configured POST route, unary or streaming.
func (g *Gateway) handleRoute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	route, ok := g.table.Lookup(r.URL.Path)
	if !ok {
		// Paths are registered from the table, so this only triggers if
		// the mux and table disagree.
		g.writeError(w, route, "", errors.NewDomain(errors.CodeNotFound, "no route for %s", r.URL.Path))
		return
	}

	defer r.Body.Close()

	// Read one byte past the limit to distinguish at-limit from over-limit.
	body, err := io.ReadAll(io.LimitReader(r.Body, g.config.MaxRequestSize+1))
	if err != nil {
		g.writeError(w, route, "", errors.NewDomain(errors.CodeInvalidArgument, "failed to read request body"))
		return
	}
	if int64(len(body)) > g.config.MaxRequestSize {
		g.count(route, http.StatusRequestEntityTooLarge)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		fmt.Fprintf(w, `{"error":{"code":"INVALID_ARGUMENT","message":"request body exceeds %d bytes"}}`,
			g.config.MaxRequestSize)
		return
	}
	if g.metrics != nil {
		g.metrics.BytesReceived.Add(float64(len(body)))
	}

	env := envelope.Build(r.Header, codec.LiftIdempotencyKey(body))
	w.Header().Set(envelope.HeaderRequestID, env.RequestID)

	payload, err := codec.EncodeRequest(body, env, route.NewRequest)
	if err != nil {
		g.writeError(w, route, env.RequestID, err)
		return
	}

	if route.Streaming() {
		g.serveStream(w, r, route, env, payload)
	} else {
		g.serveUnary(w, r, route, env, payload)
	}

	if g.metrics != nil {
		g.metrics.RequestDuration.WithLabelValues(route.Path).Observe(time.Since(start).Seconds())
	}
}

// serveUnary publishes the request and awaits a single reply within the
// route's deadline.
func (g *Gateway) serveUnary(w http.ResponseWriter, r *http.Request, route gateway.Route, env envelope.Envelope, payload []byte) {
	ctx, cancel := context.WithTimeout(r.Context(), g.timeoutFor(route))
	defer cancel()

	reply, err := g.bus.Request(ctx, route.Subject, payload)
	if err != nil {
		g.writeError(w, route, env.RequestID, err)
		return
	}

	body, err := codec.DecodeReply(reply, route.NewResponse)
	if err != nil {
		g.writeError(w, route, env.RequestID, err)
		return
	}

	g.count(route, http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		return
	}
	if g.metrics != nil {
		g.metrics.BytesSent.Add(float64(len(body)))
	}
}

func (g *Gateway) timeoutFor(route gateway.Route) time.Duration {
	if route.Timeout > 0 {
		return route.Timeout
	}
	return g.config.RequestTimeout
}

// writeError renders any gateway error as the structured JSON error body,
// with Retry-After on 429/503. Internal errors are logged with enough context
// to diagnose downstream contract bugs.
func (g *Gateway) writeError(w http.ResponseWriter, route gateway.Route, requestID string, err error) {
	de := errors.Domainify(err)
	status := errors.HTTPStatus(de.Code)

	if errors.IsInternal(err) || de.Code == errors.CodeInternal {
		g.logger.Error("request failed",
			"subject", route.Subject,
			"request_id", requestID,
			"error", err)
	} else {
		g.logger.Debug("request rejected",
			"subject", route.Subject,
			"request_id", requestID,
			"code", de.Code,
			"error", err)
	}

	g.count(route, status)
	if seconds, ok := errors.RetryAfterSeconds(de.Code); ok {
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body, marshalErr := json.Marshal(map[string]*errors.DomainError{"error": de})
	if marshalErr != nil {
		return
	}
	w.Write(body)
}

func (g *Gateway) count(route gateway.Route, status int) {
	if g.metrics == nil {
		return
	}
	g.metrics.RequestsTotal.WithLabelValues(route.Path, strconv.Itoa(status)).Inc()
}

// handleHealth reports liveness only: the process is up.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

// handleReady reports readiness: the bus must be connected to serve traffic.
func (g *Gateway) handleReady(w http.ResponseWriter, _ *http.Request) {
	connected := g.bus.IsConnected()

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	state := "ready"
	if !connected {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":        state,
		"bus_connected": connected,
		"routes":        g.table.Len(),
	})
}

// handleStatus reports aggregated component health for operators.
func (g *Gateway) handleStatus(w http.ResponseWriter, _ *http.Request) {
	bus := health.NewHealthy("bus", "connected")
	if !g.bus.IsConnected() {
		bus = health.NewUnhealthy("bus", "disconnected")
	}
	gw := health.NewHealthy("gateway",
		fmt.Sprintf("%d routes, %d active streams, up %s",
			g.table.Len(), g.streams.Load(), time.Since(g.startTime).Round(time.Second)))

	agg := health.Aggregate("busbridge", []health.Status{bus, gw})

	w.Header().Set("Content-Type", "application/json")
	if !agg.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(agg)
}
