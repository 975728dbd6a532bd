package assets

import (
	"context"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const erc20BalanceOfABI = `[{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var balanceOfABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20BalanceOfABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// BalanceOf returns the raw balance of owner for token.
// - native sentinel token: chain balance (wei)
// - otherwise: ERC20 balanceOf (raw units)
func (s *Service) BalanceOf(ctx context.Context, token networks.TokenConfig, owner common.Address) (*big.Int, error) {
	if s.client == nil {
		return nil, errors.Wrap(ErrChainQueryFailed, "chain client not initialized")
	}

	// zero address always holds nothing; skip the RPC round trip
	if owner == (common.Address{}) {
		return big.NewInt(0), nil
	}

	if token.IsNative() {
		wei, err := s.client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "native balance"), ErrChainQueryFailed)
		}
		return wei, nil
	}

	input, err := balanceOfABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, errors.Wrap(err, "pack balanceOf")
	}

	contract := token.ContractAddress()
	out, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "erc20 balanceOf %s", token.Symbol), ErrChainQueryFailed)
	}

	vals, err := balanceOfABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "unpack balanceOf %s", token.Symbol), ErrChainQueryFailed)
	}
	if len(vals) != 1 {
		return nil, errors.Mark(errors.Newf("balanceOf %s returned %d values", token.Symbol, len(vals)), ErrChainQueryFailed)
	}
	bal, ok := vals[0].(*big.Int)
	if !ok {
		return nil, errors.Mark(errors.Newf("balanceOf %s returned %T", token.Symbol, vals[0]), ErrChainQueryFailed)
	}
	return bal, nil
}
