// Package natsclient manages the single shared NATS connection the gateway
// borrows for every request. The client owns connect, reconnect, and drain;
// bridges never close it.
package natsclient

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/busbridge/errors"
)

// Client wraps a NATS connection with lifecycle management. Safe for
// concurrent publish and subscribe from arbitrarily many in-flight requests.
type Client struct {
	url    string
	logger Logger

	conn *nats.Conn

	// Connection options
	maxReconnects int
	reconnectWait time.Duration
	pingInterval  time.Duration
	maxPingsOut   int
	timeout       time.Duration
	drainTimeout  time.Duration
	flushTimeout  time.Duration

	// TLS
	tlsCertFile string
	tlsKeyFile  string
	tlsCAFile   string

	clientName string

	reconnects atomic.Int64

	// Callbacks
	onReconnect  func()
	onDisconnect func(error)

	mu      sync.RWMutex
	closeMu sync.Mutex
	closed  atomic.Bool
}

// NewClient creates a NATS client with optional configuration.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		url:    url,
		logger: &defaultLogger{},
		// Reconnect forever with a fixed wait; the gateway is useless
		// without the bus, so giving up is never the right move.
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		pingInterval:  30 * time.Second,
		maxPingsOut:   3,
		timeout:       5 * time.Second,
		drainTimeout:  30 * time.Second,
		flushTimeout:  2 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapClient(err, "Client", "NewClient", "apply option")
		}
	}

	return c, nil
}

// URL returns the NATS server URL.
func (c *Client) URL() string {
	return c.url
}

// IsConnected reports whether the connection is currently usable. Used by the
// readiness probe.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	return conn != nil && conn.IsConnected()
}

// Reconnects returns how many times the connection has been re-established.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// buildConnectionOptions assembles nats.Options from client configuration.
func (c *Client) buildConnectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.PingInterval(c.pingInterval),
		nats.MaxPingsOutstanding(c.maxPingsOut),
		nats.Timeout(c.timeout),
		nats.DrainTimeout(c.drainTimeout),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ReconnectHandler(c.handleReconnect),
		nats.ErrorHandler(c.handleError),
	}

	if c.tlsCertFile != "" && c.tlsKeyFile != "" {
		opts = append(opts, nats.ClientCert(c.tlsCertFile, c.tlsKeyFile))
	}
	if c.tlsCAFile != "" {
		opts = append(opts, nats.RootCAs(c.tlsCAFile))
	}
	if c.clientName != "" {
		opts = append(opts, nats.Name(c.clientName))
	}

	return opts
}

// Connect establishes the connection. With RetryOnFailedConnect the initial
// attempt also retries on the reconnect schedule, so a gateway started before
// the bus comes up will connect once the bus does.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Printf("Connecting to NATS at %s", c.url)

	conn, err := nats.Connect(c.url, c.buildConnectionOptions()...)
	if err != nil {
		return errors.WrapTransport(err, "Client", "Connect", "establish connection")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	// RetryOnFailedConnect returns immediately with a reconnecting
	// connection; wait here so callers see a usable bus or a timeout.
	if !conn.IsConnected() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for !conn.IsConnected() {
			select {
			case <-ctx.Done():
				return errors.WrapTransport(ctx.Err(), "Client", "Connect", "wait for connection")
			case <-ticker.C:
			}
		}
	}

	c.logger.Printf("Connected to NATS at %s", c.url)
	return nil
}

// Close drains the connection, letting in-flight replies complete, then
// closes it. Drain errors are logged but never fatal to shutdown.
func (c *Client) Close(ctx context.Context) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed.Load() {
		return nil
	}
	c.closed.Store(true)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	drainTimeout := c.drainTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < drainTimeout {
			drainTimeout = remaining
		}
	}

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- conn.Drain()
	}()

	select {
	case err := <-drainDone:
		if err != nil {
			c.logger.Errorf("Drain error: %v", err)
		}
	case <-time.After(drainTimeout):
		c.logger.Errorf("Drain timeout after %v, force closing", drainTimeout)
	case <-ctx.Done():
		c.logger.Errorf("Context cancelled during drain, force closing")
	}

	conn.Close()
	return nil
}

// Request publishes data with a reply subject and awaits exactly one reply
// within the context deadline.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return nil, errors.WrapTransport(errors.ErrNotConnected, "Client", "Request", "check connection")
	}

	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		switch {
		case stderrors.Is(err, nats.ErrNoResponders):
			return nil, errors.WrapTransport(errors.ErrNoResponders, "Client", "Request", "reach responder")
		case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, nats.ErrTimeout):
			return nil, errors.WrapTransport(errors.ErrReplyTimeout, "Client", "Request", "await reply")
		default:
			return nil, errors.WrapTransport(err, "Client", "Request", "send request")
		}
	}
	return msg.Data, nil
}

func (c *Client) handleDisconnect(_ *nats.Conn, err error) {
	if err != nil {
		c.logger.Errorf("Disconnected from NATS: %v", err)
	} else {
		c.logger.Printf("Disconnected from NATS")
	}

	c.mu.RLock()
	onDisconnect := c.onDisconnect
	c.mu.RUnlock()
	if onDisconnect != nil {
		go onDisconnect(err)
	}
}

func (c *Client) handleReconnect(conn *nats.Conn) {
	c.reconnects.Add(1)
	c.logger.Printf("Reconnected to NATS at %s", conn.ConnectedUrl())

	c.mu.RLock()
	onReconnect := c.onReconnect
	c.mu.RUnlock()
	if onReconnect != nil {
		go onReconnect()
	}
}

func (c *Client) handleError(_ *nats.Conn, sub *nats.Subscription, err error) {
	if sub != nil {
		c.logger.Errorf("NATS error on %s: %v", sub.Subject, err)
		return
	}
	c.logger.Errorf("NATS error: %v", err)
}
