// Package calls builds unsigned wallet send-calls payloads for token transfers.
package calls

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const (
	PayloadVersion      = "1.0"
	TransactionTransfer = "transfer"
)

var ErrInvalidRequest = errors.New("invalid transfer request")

// maxAmountDigits bounds both the exponent and the coefficient of a human amount.
// A uint256 has 78 decimal digits.
const maxAmountDigits = 78

// AmountInRange reports whether amount can be scaled to base units without
// building an unbounded number. It does not check the uint256 limit itself.
func AmountInRange(amount decimal.Decimal) bool {
	exp := amount.Exponent()
	return exp >= -maxAmountDigits && exp <= maxAmountDigits && amount.NumDigits() <= maxAmountDigits
}

// TransferRequest asks for Amount of Token to move From -> To on NetworkID.
type TransferRequest struct {
	From      string
	To        string
	Amount    decimal.Decimal
	Token     string
	NetworkID string

	IncludeMetadata bool
	UsePaymaster    bool
}

func (r TransferRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidRequest, "amount must be positive, got %s", r.Amount)
	}
	if !AmountInRange(r.Amount) {
		return errors.Wrap(ErrInvalidRequest, "amount is out of range")
	}
	if !common.IsHexAddress(r.From) {
		return errors.Wrapf(ErrInvalidRequest, "invalid sender address %q", r.From)
	}
	if !common.IsHexAddress(r.To) {
		return errors.Wrapf(ErrInvalidRequest, "invalid recipient address %q", r.To)
	}
	if strings.TrimSpace(r.Token) == "" {
		return errors.Wrap(ErrInvalidRequest, "token is required")
	}
	return nil
}

// Presentation is shown by wallets that render rich call metadata.
type Presentation struct {
	Hostname   string
	Title      string
	FaviconURL string
}

type Options struct {
	Presentation Presentation
	PaymasterURL string
}

type Builder struct {
	registry *networks.Registry
	opts     Options
}

func NewBuilder(registry *networks.Registry, opts Options) *Builder {
	return &Builder{registry: registry, opts: opts}
}

// ScaleAmount converts a human amount to base units, truncating sub-unit digits.
func ScaleAmount(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Floor().BigInt()
}

// Build turns a transfer request into a wallet send-calls payload. It does no I/O.
func (b *Builder) Build(req TransferRequest) (content.WalletSendCalls, error) {
	if err := req.Validate(); err != nil {
		return content.WalletSendCalls{}, err
	}

	network, err := b.registry.ResolveNetwork(req.NetworkID)
	if err != nil {
		return content.WalletSendCalls{}, err
	}
	token, err := network.ResolveToken(req.Token)
	if err != nil {
		return content.WalletSendCalls{}, err
	}

	scaled := ScaleAmount(req.Amount, token.Decimals)
	if scaled.BitLen() > 256 {
		return content.WalletSendCalls{}, errors.Wrapf(ErrInvalidRequest, "amount %s %s exceeds uint256", req.Amount, token.Symbol)
	}

	meta := content.CallMetadata{
		Description:     fmt.Sprintf("Transfer %s %s on %s", req.Amount.String(), token.Symbol, network.Name),
		TransactionType: TransactionTransfer,
		Currency:        token.Symbol,
		Amount:          json.Number(scaled.String()),
		Decimals:        token.Decimals,
		NetworkID:       network.ID,
	}

	// Sponsored sends always carry presentation metadata, even if the caller did not ask for it.
	if req.IncludeMetadata || req.UsePaymaster {
		meta.Hostname = b.opts.Presentation.Hostname
		meta.FaviconURL = b.opts.Presentation.FaviconURL
		meta.Title = b.opts.Presentation.Title
	}

	var call content.Call
	if token.IsNative() {
		call = content.Call{
			To:       req.To,
			Value:    hexutil.EncodeBig(scaled),
			Data:     "0x",
			Metadata: meta,
		}
	} else {
		data, err := EncodeTransfer(common.HexToAddress(req.To), scaled)
		if err != nil {
			return content.WalletSendCalls{}, err
		}
		call = content.Call{
			To:       token.Address,
			Data:     hexutil.Encode(data),
			Metadata: meta,
		}
	}

	out := content.WalletSendCalls{
		Version: PayloadVersion,
		From:    req.From,
		ChainID: network.ChainIDHex,
		Calls:   []content.Call{call},
	}
	if req.UsePaymaster {
		if b.opts.PaymasterURL == "" {
			return content.WalletSendCalls{}, errors.Wrap(ErrInvalidRequest, "fee sponsorship requested but no paymaster url configured")
		}
		out.Capabilities = &content.Capabilities{
			PaymasterService: &content.PaymasterService{URL: b.opts.PaymasterURL, Optional: true},
		}
	}
	return out, nil
}
