package natsclient

import (
	"context"
	stderrors "errors"

	"github.com/nats-io/nats.go"

	"github.com/c360/busbridge/errors"
)

// Inbox is a private reply subscription for one streaming request. Owned
// exclusively by the bridge invocation that opened it.
type Inbox struct {
	subject string
	sub     *nats.Subscription
}

// Subject returns the inbox subject used as the request's return address.
func (i *Inbox) Subject() string {
	return i.subject
}

// Next waits for the next inbound message. Returns the context error when the
// request is cancelled and errors.ErrStreamClosed when the subscription is
// gone.
func (i *Inbox) Next(ctx context.Context) ([]byte, error) {
	msg, err := i.sub.NextMsgWithContext(ctx)
	if err != nil {
		switch {
		case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
			return nil, err
		case stderrors.Is(err, nats.ErrBadSubscription), stderrors.Is(err, nats.ErrConnectionClosed):
			return nil, errors.ErrStreamClosed
		default:
			return nil, errors.WrapTransport(err, "Inbox", "Next", "receive chunk")
		}
	}
	return msg.Data, nil
}

// Unsubscribe cancels the subscription. Safe to call after the subscription
// already ended.
func (i *Inbox) Unsubscribe() error {
	err := i.sub.Unsubscribe()
	if err != nil && !stderrors.Is(err, nats.ErrBadSubscription) {
		return errors.WrapTransport(err, "Inbox", "Unsubscribe", "cancel subscription")
	}
	return nil
}

// OpenStream creates a private reply inbox with bounded pending limits,
// flushes the subscription registration to the server, then publishes the
// request with the inbox as its return address.
//
// The flush before publish is mandatory: publishing first risks the reply
// arriving before the subscription is visible, silently dropping the first
// chunk.
func (c *Client) OpenStream(subject string, data []byte, pendingMsgs, pendingBytes int) (*Inbox, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return nil, errors.WrapTransport(errors.ErrNotConnected, "Client", "OpenStream", "check connection")
	}

	inbox := nats.NewInbox()
	sub, err := conn.SubscribeSync(inbox)
	if err != nil {
		return nil, errors.WrapTransport(err, "Client", "OpenStream", "subscribe reply inbox")
	}
	if err := sub.SetPendingLimits(pendingMsgs, pendingBytes); err != nil {
		_ = sub.Unsubscribe()
		return nil, errors.WrapTransport(err, "Client", "OpenStream", "bound pending limits")
	}

	if err := conn.FlushTimeout(c.flushTimeout); err != nil {
		_ = sub.Unsubscribe()
		return nil, errors.WrapTransport(err, "Client", "OpenStream", "flush subscription")
	}

	if err := conn.PublishRequest(subject, inbox, data); err != nil {
		_ = sub.Unsubscribe()
		return nil, errors.WrapTransport(err, "Client", "OpenStream", "publish request")
	}

	return &Inbox{subject: inbox, sub: sub}, nil
}
