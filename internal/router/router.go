package router

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/tba-chat-agent/internal/calls"
	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
	"github.com/quantumauth-io/tba-chat-agent/internal/content"
	"github.com/quantumauth-io/tba-chat-agent/internal/metrics"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

// Conversation is the reply channel a command is answered on.
type Conversation interface {
	ID() string
	Participants() []string
	Send(ctx context.Context, c content.Content) error
}

// BalanceSource reads formatted balances. *assets.Service implements it.
type BalanceSource interface {
	QueryBalance(ctx context.Context, address string, tokenSymbol string) (string, error)
}

type Options struct {
	AgentName string
	ChatURL   string

	// SponsorFees attaches the paymaster capability to every transfer request.
	SponsorFees     bool
	IncludeMetadata bool
}

type Config struct {
	Registry     *networks.Registry
	Network      networks.NetworkConfig
	Builder      *calls.Builder
	Balances     BalanceSource
	AgentAddress string
	Options      Options
}

type Router struct {
	registry     *networks.Registry
	network      networks.NetworkConfig
	builder      *calls.Builder
	balances     BalanceSource
	agentAddress string
	opts         Options

	newID func() string
}

func New(cfg Config) (*Router, error) {
	if cfg.Registry == nil {
		return nil, errors.New("router: registry is required")
	}
	if cfg.Builder == nil {
		return nil, errors.New("router: builder is required")
	}
	if cfg.Balances == nil {
		return nil, errors.New("router: balance source is required")
	}
	if cfg.Network.ID == "" {
		return nil, errors.New("router: network is required")
	}
	if strings.TrimSpace(cfg.AgentAddress) == "" {
		return nil, errors.New("router: agent address is required")
	}
	return &Router{
		registry:     cfg.Registry,
		network:      cfg.Network,
		builder:      cfg.Builder,
		balances:     cfg.Balances,
		agentAddress: cfg.AgentAddress,
		opts:         cfg.Options,
		newID:        func() string { return uuid.NewString() },
	}, nil
}

// HandleText parses text and dispatches it. Text that is not a command is ignored.
func (r *Router) HandleText(ctx context.Context, conv Conversation, senderAddress, text string) error {
	cmd := ParseCommand(text)
	if cmd == nil {
		return nil
	}
	return r.Dispatch(ctx, conv, senderAddress, cmd)
}

// HandleIntent dispatches the command behind a selected action.
func (r *Router) HandleIntent(ctx context.Context, conv Conversation, senderAddress string, intent content.Intent) error {
	cmd, err := IntentCommand(intent.ActionID)
	if err != nil {
		var unknown *UnknownIntentError
		if errors.As(err, &unknown) {
			log.Warn("unknown intent action", "actionId", intent.ActionID, "conversation", conv.ID())
			metrics.RecordCommandError("intent")
			return r.send(ctx, conv, content.Text(constants.ErrorPrefix+unknown.Error()))
		}
		return err
	}
	log.Info("intent received", "actionId", intent.ActionID, "command", cmd.Kind(), "sender", senderAddress)
	return r.Dispatch(ctx, conv, senderAddress, cmd)
}

// Dispatch answers cmd on conv. Domain failures are reported to the user and
// not returned; the returned error means the conversation could not be written to.
func (r *Router) Dispatch(ctx context.Context, conv Conversation, senderAddress string, cmd Command) error {
	metrics.RecordCommand(cmd.Kind())

	switch c := cmd.(type) {
	case HelpCommand:
		return r.send(ctx, conv, r.helpActions())
	case ActionsCommand:
		return r.send(ctx, conv, r.quickActions(c.WithImages))
	case SendCommand:
		return r.handleSend(ctx, conv, senderAddress, c)
	case BalanceCommand:
		return r.handleBalance(ctx, conv, c)
	case InfoCommand:
		return r.send(ctx, conv, content.Text(infoReply(r.network, r.registry.ListNetworks(), r.opts.ChatURL)))
	case UsageError:
		metrics.RecordCommandError(c.Kind())
		return r.send(ctx, conv, content.Text(c.Reply))
	default:
		return errors.Wrapf(ErrInvalidCommandFormat, "unhandled command %T", cmd)
	}
}

func (r *Router) handleSend(ctx context.Context, conv Conversation, senderAddress string, c SendCommand) error {
	payload, err := r.builder.Build(calls.TransferRequest{
		From:            senderAddress,
		To:              r.agentAddress,
		Amount:          c.Amount,
		Token:           c.Token,
		NetworkID:       r.network.ID,
		IncludeMetadata: c.IncludeMetadata || r.opts.IncludeMetadata,
		UsePaymaster:    r.opts.SponsorFees,
	})
	if err != nil {
		return r.replyError(ctx, conv, c.Kind(), err)
	}

	log.Info("created transfer request",
		"amount", c.Amount.String(),
		"token", c.Token,
		"from", senderAddress,
		"network", r.network.ID,
	)
	if err := r.send(ctx, conv, payload); err != nil {
		return err
	}
	return r.send(ctx, conv, content.Text(sendConfirmation(c.Amount.String(), c.Token, r.agentAddress, r.network)))
}

func (r *Router) handleBalance(ctx context.Context, conv Conversation, c BalanceCommand) error {
	balance, err := r.balances.QueryBalance(ctx, r.agentAddress, c.Token)
	if err != nil {
		return r.replyError(ctx, conv, c.Kind(), err)
	}
	return r.send(ctx, conv, content.Text(balanceReply(c.Token, balance, r.network)))
}

// replyError reports err to the user. A failure to deliver the report is logged, not returned.
func (r *Router) replyError(ctx context.Context, conv Conversation, kind string, err error) error {
	metrics.RecordCommandError(kind)
	log.Warn("command failed", "kind", kind, "conversation", conv.ID(), "error", err)

	if sendErr := r.send(ctx, conv, content.Text(constants.ErrorPrefix+err.Error())); sendErr != nil {
		log.Error("failed to report command error", "conversation", conv.ID(), "error", sendErr)
	}
	return nil
}

func (r *Router) send(ctx context.Context, conv Conversation, c content.Content) error {
	err := conv.Send(ctx, c)
	metrics.RecordSend(c.ContentType().TypeID, err)
	return err
}
