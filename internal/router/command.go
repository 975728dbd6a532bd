// Package router turns chat text and action selections into commands and answers them.
package router

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/tba-chat-agent/internal/calls"
	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

const (
	sendUsage    = constants.ErrorPrefix + "Invalid format\n\nUse: /send <AMOUNT> <TOKEN>\nExample: /send 0.1 USDC"
	balanceUsage = constants.ErrorPrefix + "Invalid format\n\nUse: /balance <TOKEN>\nExample: /balance USDC"
	badAmount    = constants.ErrorPrefix + "Invalid amount. Please provide a positive number."
)

// Command is a parsed user request. The set of implementations is closed.
type Command interface {
	Kind() string
	command()
}

type HelpCommand struct{}

type ActionsCommand struct {
	WithImages bool
}

type SendCommand struct {
	Amount          decimal.Decimal
	Token           string
	IncludeMetadata bool
}

type BalanceCommand struct {
	Token string
}

type InfoCommand struct{}

// UsageError carries the reply for a recognized but malformed command.
type UsageError struct {
	Reply string
}

func (HelpCommand) Kind() string { return "help" }
func (c ActionsCommand) Kind() string {
	if c.WithImages {
		return "actions-with-images"
	}
	return "actions"
}
func (SendCommand) Kind() string    { return "send" }
func (BalanceCommand) Kind() string { return "balance" }
func (InfoCommand) Kind() string    { return "info" }
func (UsageError) Kind() string     { return "usage" }

func (HelpCommand) command()    {}
func (ActionsCommand) command() {}
func (SendCommand) command()    {}
func (BalanceCommand) command() {}
func (InfoCommand) command()    {}
func (UsageError) command()     {}

// ParseCommand classifies text. It returns nil for text that is not a command.
func ParseCommand(text string) Command {
	line := strings.ToLower(strings.TrimSpace(text))
	if line == "" {
		return nil
	}
	if line == "/help" || line == "gm" {
		return HelpCommand{}
	}

	fields := strings.Fields(line)
	head := fields[0]

	switch {
	// the longer prefix first, otherwise it is never reached
	case strings.HasPrefix(head, "/actions-with-images"):
		return ActionsCommand{WithImages: true}
	case strings.HasPrefix(head, "/actions"):
		return ActionsCommand{}
	case head == "/send":
		return parseSend(fields)
	case head == "/balance":
		if len(fields) != 2 {
			return UsageError{Reply: balanceUsage}
		}
		return BalanceCommand{Token: strings.ToUpper(fields[1])}
	case line == "/info":
		return InfoCommand{}
	default:
		return nil
	}
}

func parseSend(fields []string) Command {
	if len(fields) != 3 {
		return UsageError{Reply: sendUsage}
	}
	amount, err := decimal.NewFromString(fields[1])
	if err != nil || !amount.IsPositive() || !calls.AmountInRange(amount) {
		return UsageError{Reply: badAmount}
	}
	return SendCommand{Amount: amount, Token: strings.ToUpper(fields[2])}
}

// intentCommands maps action ids offered in our actions payloads onto command text.
var intentCommands = map[string]string{
	"show-actions":              "/actions",
	"show-actions-with-images":  "/actions-with-images",
	"transaction-with-metadata": "/send 0.005 USDC",
	"check-balance":             "/balance USDC",
	"more-info":                 "/info",
	"send-small":                "/send 0.005 USDC",
	"send-large":                "/send 1 USDC",
}

// IntentCommand resolves a selected action id to the command it stands for.
func IntentCommand(actionID string) (Command, error) {
	text, ok := intentCommands[actionID]
	if !ok {
		return nil, &UnknownIntentError{ActionID: actionID}
	}
	cmd := ParseCommand(text)
	if send, ok := cmd.(SendCommand); ok && actionID == "transaction-with-metadata" {
		send.IncludeMetadata = true
		return send, nil
	}
	return cmd, nil
}
