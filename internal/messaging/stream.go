package messaging

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Stream yields inbound messages newer than the client's cursor.
type Stream struct {
	c    *Client
	ch   chan frame
	done <-chan struct{}
}

// StreamAllMessages opens the message stream across all conversations,
// resuming after the last message the agent consumed.
func (c *Client) StreamAllMessages(ctx context.Context) (*Stream, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, errors.Mark(err, ErrStreamFailed)
	}

	ch := make(chan frame, streamBuffer)
	c.mu.Lock()
	c.stream = ch
	done := c.done
	since := c.cursor
	c.mu.Unlock()

	s := &Stream{c: c, ch: ch, done: done}
	if err := c.request(ctx, MethodStream, sinceParams{Since: since}, nil); err != nil {
		s.Close()
		return nil, errors.Mark(errors.Wrap(err, "open stream"), ErrStreamFailed)
	}
	return s, nil
}

// Next blocks for the next message. Messages before the cursor, or at the cursor
// with an id already returned, are skipped. The cursor advances as each message is returned.
func (s *Stream) Next(ctx context.Context) (Message, error) {
	for {
		select {
		case f, ok := <-s.ch:
			if !ok {
				return Message{}, errors.Wrap(ErrStreamFailed, "stream closed by client")
			}
			if f.Event == EventStreamError {
				var p streamErrorPayload
				_ = json.Unmarshal(f.Payload, &p)
				return Message{}, errors.Wrapf(ErrStreamFailed, "relay: %s", p.Message)
			}

			var msg Message
			if err := json.Unmarshal(f.Payload, &msg); err != nil {
				return Message{}, errors.Mark(errors.Wrap(err, "decode message"), ErrStreamFailed)
			}
			if msg.SentAtNs != 0 && s.c.consumed(msg) {
				continue
			}
			s.c.advanceCursor(msg)
			return msg, nil
		case <-s.done:
			return Message{}, errors.Wrap(ErrStreamFailed, "relay connection closed")
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Close detaches the stream from the client. It does not close the connection.
func (s *Stream) Close() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.stream == s.ch {
		s.c.stream = nil
	}
}
