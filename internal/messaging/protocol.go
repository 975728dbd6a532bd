package messaging

import (
	"encoding/json"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
)

// Frame types on the relay socket.
const (
	FrameRequest  = "req"
	FrameResponse = "res"
	FrameEvent    = "event"
)

const (
	MethodConnect         = "connect"
	MethodSync            = "conversations.sync"
	MethodStream          = "conversations.stream"
	MethodGetConversation = "conversations.get"
	MethodSend            = "conversations.send"
	MethodInboxState      = "inbox.state"
)

const (
	EventChallenge   = "connect.challenge"
	EventMessage     = "message"
	EventStreamError = "stream.error"
)

// Error codes the relay reports.
const (
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
)

type frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *frameError     `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
}

type frameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type challengePayload struct {
	Nonce string `json:"nonce"`
}

type connectParams struct {
	Address   string `json:"address"`
	Env       string `json:"env"`
	SignedAt  int64  `json:"signedAt"`
	Signature string `json:"signature"`
}

type connectResult struct {
	InboxID string `json:"inboxId"`
}

// sinceParams asks for messages sent at or after Since (ns).
type sinceParams struct {
	Since int64 `json:"since"`
}

type syncResult struct {
	Conversations int `json:"conversations"`
}

type getConversationParams struct {
	ConversationID string `json:"conversationId"`
}

type conversationResult struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
}

type inboxStateParams struct {
	InboxIDs []string `json:"inboxIds"`
}

type Identifier struct {
	Identifier string `json:"identifier"`
	Kind       string `json:"kind"`
}

type InboxState struct {
	InboxID     string       `json:"inboxId"`
	Identifiers []Identifier `json:"identifiers"`
}

type inboxStateResult struct {
	States []InboxState `json:"states"`
}

type sendParams struct {
	ConversationID string              `json:"conversationId"`
	ContentType    content.ContentType `json:"contentType"`
	Content        json.RawMessage     `json:"content"`
	IdempotencyKey string              `json:"idempotencyKey"`
}

type sendResult struct {
	MessageID string `json:"messageId"`
}

type streamErrorPayload struct {
	Message string `json:"message"`
}

// Message is one inbound message from any conversation the agent belongs to.
type Message struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversationId"`
	SenderInboxID  string              `json:"senderInboxId"`
	ContentType    content.ContentType `json:"contentType"`
	Content        json.RawMessage     `json:"content"`
	SentAtNs       int64               `json:"sentAtNs"`
}
