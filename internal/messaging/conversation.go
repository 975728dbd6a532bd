package messaging

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/coocood/freecache"
	"github.com/google/uuid"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
)

// Conversation is a handle for replying into one conversation.
type Conversation struct {
	c            *Client
	id           string
	participants []string
}

func (cv *Conversation) ID() string { return cv.id }

func (cv *Conversation) Participants() []string {
	return append([]string(nil), cv.participants...)
}

func (cv *Conversation) Send(ctx context.Context, body content.Content) error {
	return cv.c.Send(ctx, cv.id, body)
}

// Conversation looks up a conversation by id. A missing one matches ErrConversationNotFound.
func (c *Client) Conversation(ctx context.Context, id string) (*Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.Wrap(ErrConversationNotFound, "empty id")
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	var res conversationResult
	if err := c.request(ctx, MethodGetConversation, getConversationParams{ConversationID: id}, &res); err != nil {
		return nil, err
	}
	if res.ID == "" {
		return nil, errors.Wrapf(ErrConversationNotFound, "%s", id)
	}
	return &Conversation{c: c, id: res.ID, participants: res.Participants}, nil
}

// SenderAddress resolves the first wallet address bound to inboxID.
// It returns "" without error when the inbox has no identifiers.
func (c *Client) SenderAddress(ctx context.Context, inboxID string) (string, error) {
	key := []byte(strings.ToLower(inboxID))
	if v, err := c.inboxes.Get(key); err == nil {
		return string(v), nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Warn("inbox cache read failed", "inboxId", inboxID, "error", err)
	}

	if err := c.Connect(ctx); err != nil {
		return "", err
	}
	var res inboxStateResult
	if err := c.request(ctx, MethodInboxState, inboxStateParams{InboxIDs: []string{inboxID}}, &res); err != nil {
		return "", err
	}
	if len(res.States) == 0 || len(res.States[0].Identifiers) == 0 {
		return "", nil
	}

	addr := res.States[0].Identifiers[0].Identifier
	if addr != "" {
		if err := c.inboxes.Set(key, []byte(addr), int(c.cfg.InboxCacheTTL.Seconds())); err != nil {
			log.Warn("inbox cache write failed", "inboxId", inboxID, "error", err)
		}
	}
	return addr, nil
}

// Send delivers body to a conversation. Sends are rate limited; failures match ErrSendFailed.
func (c *Client) Send(ctx context.Context, conversationID string, body content.Content) error {
	raw, err := content.Encode(body)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "encode"), ErrSendFailed)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Mark(errors.Wrap(err, "rate limit"), ErrSendFailed)
	}
	if err := c.Connect(ctx); err != nil {
		return errors.Mark(err, ErrSendFailed)
	}

	var res sendResult
	err = c.request(ctx, MethodSend, sendParams{
		ConversationID: conversationID,
		ContentType:    body.ContentType(),
		Content:        raw,
		IdempotencyKey: uuid.NewString(),
	}, &res)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "send %s to %s", body.ContentType().TypeID, conversationID), ErrSendFailed)
	}
	return nil
}
