package agent

import (
	"context"

	"github.com/quantumauth-io/tba-chat-agent/internal/messaging"
	"github.com/quantumauth-io/tba-chat-agent/internal/router"
)

// Stream is an open inbound message stream.
type Stream interface {
	Next(ctx context.Context) (messaging.Message, error)
	Close()
}

// Relay is the slice of the messaging client the loop drives.
type Relay interface {
	InboxID() string
	Sync(ctx context.Context) (int, error)
	OpenStream(ctx context.Context) (Stream, error)
	Conversation(ctx context.Context, id string) (router.Conversation, error)
	SenderAddress(ctx context.Context, inboxID string) (string, error)
}

type clientRelay struct {
	*messaging.Client
}

// NewRelay adapts a messaging client to Relay.
func NewRelay(c *messaging.Client) Relay {
	return clientRelay{Client: c}
}

func (r clientRelay) OpenStream(ctx context.Context) (Stream, error) {
	s, err := r.Client.StreamAllMessages(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r clientRelay) Conversation(ctx context.Context, id string) (router.Conversation, error) {
	conv, err := r.Client.Conversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return conv, nil
}
