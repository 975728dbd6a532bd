package assets

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

var ErrChainQueryFailed = errors.New("chain query failed")

// ChainReader is the read-only slice of an EVM client balance queries need.
// *ethclient.Client and qa_evm.BlockchainClient satisfy it.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Service reads balances on one network.
type Service struct {
	network networks.NetworkConfig
	client  ChainReader
}

func NewService(network networks.NetworkConfig, client ChainReader) *Service {
	return &Service{network: network, client: client}
}

// QueryBalance returns the balance of address in tokenSymbol as a decimal string.
func (s *Service) QueryBalance(ctx context.Context, address string, tokenSymbol string) (string, error) {
	b, err := s.Balance(ctx, address, tokenSymbol)
	if err != nil {
		return "", err
	}
	return b.Formatted, nil
}

// Balance is QueryBalance with the raw amount kept.
func (s *Service) Balance(ctx context.Context, address string, tokenSymbol string) (Balance, error) {
	token, err := s.network.ResolveToken(tokenSymbol)
	if err != nil {
		return Balance{}, err
	}
	if !common.IsHexAddress(address) {
		return Balance{}, errors.Newf("invalid address %q", address)
	}

	raw, err := s.BalanceOf(ctx, token, common.HexToAddress(address))
	if err != nil {
		return Balance{}, err
	}

	return Balance{
		Owner:     address,
		Symbol:    token.Symbol,
		Network:   s.network.ID,
		Decimals:  token.Decimals,
		Raw:       raw,
		Formatted: FormatUnits(raw, token.Decimals),
	}, nil
}
