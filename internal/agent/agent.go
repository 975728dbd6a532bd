// Package agent runs the inbound message loop: it reads the relay stream,
// routes each message by content type and keeps the stream open.
package agent

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
	"github.com/quantumauth-io/tba-chat-agent/internal/content"
	"github.com/quantumauth-io/tba-chat-agent/internal/messaging"
	"github.com/quantumauth-io/tba-chat-agent/internal/metrics"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
	"github.com/quantumauth-io/tba-chat-agent/internal/receipts"
	"github.com/quantumauth-io/tba-chat-agent/internal/router"
)

// Commands answers text commands and action selections. *router.Router implements it.
type Commands interface {
	HandleText(ctx context.Context, conv router.Conversation, senderAddress, text string) error
	HandleIntent(ctx context.Context, conv router.Conversation, senderAddress string, intent content.Intent) error
}

type Config struct {
	Relay     Relay
	Commands  Commands
	Registry  *networks.Registry
	Network   networks.NetworkConfig
	Reconnect ReconnectPolicy
}

type Agent struct {
	relay     Relay
	commands  Commands
	registry  *networks.Registry
	network   networks.NetworkConfig
	reconnect ReconnectPolicy

	streaming     atomic.Bool
	reconnects    atomic.Int64
	handled       atomic.Int64
	lastMessageAt atomic.Int64
}

func New(cfg Config) (*Agent, error) {
	if cfg.Relay == nil {
		return nil, errors.New("agent: relay is required")
	}
	if cfg.Commands == nil {
		return nil, errors.New("agent: commands are required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("agent: registry is required")
	}
	cfg.Reconnect = cfg.Reconnect.WithDefaults()
	return &Agent{
		relay:     cfg.Relay,
		commands:  cfg.Commands,
		registry:  cfg.Registry,
		network:   cfg.Network,
		reconnect: cfg.Reconnect,
	}, nil
}

// Status is a point-in-time view of the loop.
type Status struct {
	InboxID       string
	Streaming     bool
	Reconnects    int64
	Handled       int64
	LastMessageAt time.Time
}

func (a *Agent) Status() Status {
	st := Status{
		InboxID:    a.relay.InboxID(),
		Streaming:  a.streaming.Load(),
		Reconnects: a.reconnects.Load(),
		Handled:    a.handled.Load(),
	}
	if ns := a.lastMessageAt.Load(); ns > 0 {
		st.LastMessageAt = time.Unix(0, ns).UTC()
	}
	return st
}

// Run syncs conversations, then consumes the message stream until ctx is done.
// It returns nil on cancellation and an ErrStreamFailed error once the reconnect budget is spent.
func (a *Agent) Run(ctx context.Context) error {
	log.Info("syncing conversations")
	n, err := a.relay.Sync(ctx)
	if err != nil {
		return errors.Wrap(err, "initial conversation sync")
	}
	log.Info("listening for messages", "conversations", n, "inboxId", a.relay.InboxID(), "network", a.network.ID)

	failures := 0
	for {
		delivered, err := a.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if delivered {
			failures = 0
		}
		failures++

		if a.reconnect.Exhausted(failures) {
			return errors.Mark(errors.Wrapf(err, "giving up after %d reconnect attempts", a.reconnect.MaxAttempts), messaging.ErrStreamFailed)
		}

		delay := a.reconnect.Delay(failures)
		log.Error("stream error occurred", "error", err, "attempt", failures, "retryIn", delay.String())
		if !sleep(ctx, delay) {
			return nil
		}

		a.reconnects.Add(1)
		metrics.RecordReconnect()
		if _, err := a.relay.Sync(ctx); err != nil {
			log.Error("failed to sync conversations", "error", err)
		} else {
			log.Info("conversations re-synced")
		}
	}
}

func (a *Agent) consume(ctx context.Context) (delivered bool, err error) {
	stream, err := a.relay.OpenStream(ctx)
	if err != nil {
		return false, err
	}
	defer stream.Close()

	a.streaming.Store(true)
	defer a.streaming.Store(false)

	for {
		msg, err := stream.Next(ctx)
		if err != nil {
			return delivered, err
		}
		delivered = true
		a.HandleMessage(ctx, msg)
	}
}

// HandleMessage processes one inbound message to completion. Failures are
// reported into the conversation and never stop the loop.
func (a *Agent) HandleMessage(ctx context.Context, msg messaging.Message) {
	typeID := msg.ContentType.TypeID
	if strings.EqualFold(msg.SenderInboxID, a.relay.InboxID()) {
		return
	}

	start := time.Now()
	defer func() { metrics.RecordHandleDuration(typeID, time.Since(start)) }()
	a.handled.Add(1)
	a.lastMessageAt.Store(start.UnixNano())
	metrics.RecordMessage(typeID)
	log.Info("message received", "type", typeID, "sender", msg.SenderInboxID, "conversation", msg.ConversationID)

	conv, err := a.relay.Conversation(ctx, msg.ConversationID)
	if err != nil {
		log.Warn("unable to find conversation, skipping", "conversation", msg.ConversationID, "error", err)
		return
	}

	sender, err := a.relay.SenderAddress(ctx, msg.SenderInboxID)
	if err != nil || sender == "" {
		log.Warn("unable to find sender address, skipping", "inboxId", msg.SenderInboxID, "error", err)
		return
	}

	if err := a.dispatch(ctx, conv, sender, msg); err != nil {
		log.Error("error processing message", "id", msg.ID, "type", typeID, "error", err)
		reply := content.Text(constants.ErrorPrefix + "Error processing message: " + err.Error())
		if sendErr := conv.Send(ctx, reply); sendErr != nil {
			log.Error("failed to send error message to conversation", "conversation", conv.ID(), "error", sendErr)
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, conv router.Conversation, sender string, msg messaging.Message) error {
	switch msg.ContentType.TypeID {
	case content.TypeText:
		text, err := content.DecodeText(msg.Content)
		if err != nil {
			return err
		}
		return a.commands.HandleText(ctx, conv, sender, text)

	case content.TypeTransactionReference:
		ref, err := content.DecodeTransactionReference(msg.Content)
		if err != nil {
			return err
		}
		return a.acknowledgeReceipt(ctx, conv, sender, ref)

	case content.TypeIntent:
		intent, err := content.DecodeIntent(msg.Content)
		if err != nil {
			return err
		}
		if err := a.commands.HandleIntent(ctx, conv, sender, intent); err != nil {
			log.Error("error processing intent", "actionId", intent.ActionID, "error", err)
			reply := content.Text(constants.ErrorPrefix + "Error processing action: " + err.Error())
			if sendErr := conv.Send(ctx, reply); sendErr != nil {
				log.Error("failed to send error message to conversation", "conversation", conv.ID(), "error", sendErr)
			}
		}
		return nil

	default:
		return nil
	}
}

func (a *Agent) acknowledgeReceipt(ctx context.Context, conv router.Conversation, sender string, ref content.TransactionReference) error {
	networkRef := string(ref.NetworkID)
	if networkRef == "" {
		networkRef = a.network.ID
	}
	if _, known := receipts.ExplorerURL(a.registry, ref.Reference, networkRef); !known {
		log.Warn("unknown network for transaction reference, defaulting to etherscan", "networkId", networkRef)
	}
	log.Info("transaction reference received", "hash", ref.Reference, "networkId", ref.NetworkID, "sender", sender)

	return conv.Send(ctx, content.Text(receipts.Format(ref, sender, a.network, a.registry)))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
