package http

import (
	"context"

	"github.com/c360/busbridge/natsclient"
)

// natsBus adapts the concrete bus client to the Bus interface. The adapter
// exists so bridge tests can substitute a fake without a live server.
type natsBus struct {
	client *natsclient.Client
}

// NewBus wraps the shared NATS client for use by the gateway.
func NewBus(client *natsclient.Client) Bus {
	return &natsBus{client: client}
}

func (b *natsBus) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	return b.client.Request(ctx, subject, data)
}

func (b *natsBus) OpenStream(subject string, data []byte, pendingMsgs, pendingBytes int) (BusStream, error) {
	inbox, err := b.client.OpenStream(subject, data, pendingMsgs, pendingBytes)
	if err != nil {
		return nil, err
	}
	return inbox, nil
}

func (b *natsBus) IsConnected() bool {
	return b.client.IsConnected()
}
