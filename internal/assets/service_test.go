package assets

import (
	"context"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const owner = "0x3333333333333333333333333333333333333333"

type fakeChain struct {
	native    *big.Int
	erc20     *big.Int
	err       error
	lastCall  ethereum.CallMsg
	nCalls    int
	nBalances int
}

func (f *fakeChain) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	f.nBalances++
	if f.err != nil {
		return nil, f.err
	}
	return f.native, nil
}

func (f *fakeChain) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.nCalls++
	f.lastCall = call
	if f.err != nil {
		return nil, f.err
	}
	return common.LeftPadBytes(f.erc20.Bytes(), 32), nil
}

func baseSepolia(t *testing.T) networks.NetworkConfig {
	t.Helper()
	n, err := networks.Default().ResolveNetwork("base-sepolia")
	require.NoError(t, err)
	return n
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		raw      string
		decimals uint8
		want     string
	}{
		{"0", 18, "0"},
		{"1234500000000000000", 18, "1.2345"},
		{"1000000000000000000", 18, "1"},
		{"1", 18, "0.000000000000000001"},
		{"5500", 6, "0.0055"},
		{"123456789", 6, "123.456789"},
		{"42", 0, "42"},
		{"-1500000", 6, "-1.5"},
	}
	for _, tc := range cases {
		raw, ok := new(big.Int).SetString(tc.raw, 10)
		require.True(t, ok)
		assert.Equal(t, tc.want, FormatUnits(raw, tc.decimals), tc.raw)
	}
	assert.Equal(t, "0", FormatUnits(nil, 6))
}

func TestQueryNativeBalanceMatchesDirectDivision(t *testing.T) {
	raw, _ := new(big.Int).SetString("1234567890123456789", 10)
	chain := &fakeChain{native: raw}
	svc := NewService(baseSepolia(t), chain)

	got, err := svc.QueryBalance(context.Background(), owner, "eth")
	require.NoError(t, err)
	assert.Equal(t, "1.234567890123456789", got)
	assert.Equal(t, 1, chain.nBalances)
	assert.Zero(t, chain.nCalls)

	want := decimal.NewFromBigInt(raw, -18)
	parsed, err := decimal.NewFromString(got)
	require.NoError(t, err)
	assert.True(t, want.Equal(parsed))
}

func TestQueryERC20Balance(t *testing.T) {
	chain := &fakeChain{erc20: big.NewInt(2_500_000)}
	svc := NewService(baseSepolia(t), chain)

	b, err := svc.Balance(context.Background(), owner, "USDC")
	require.NoError(t, err)
	assert.Equal(t, "2.5", b.Formatted)
	assert.Equal(t, uint8(6), b.Decimals)
	assert.Equal(t, "base-sepolia", b.Network)

	require.NotNil(t, chain.lastCall.To)
	assert.Equal(t, common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"), *chain.lastCall.To)
	assert.Equal(t, []byte{0x70, 0xa0, 0x82, 0x31}, chain.lastCall.Data[:4])
	assert.Equal(t, common.HexToAddress(owner).Bytes(), chain.lastCall.Data[16:36])
}

func TestQueryBalanceErrors(t *testing.T) {
	chain := &fakeChain{err: errors.New("connection refused")}
	svc := NewService(baseSepolia(t), chain)

	_, err := svc.QueryBalance(context.Background(), owner, "USDC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChainQueryFailed))
	assert.Contains(t, err.Error(), "connection refused")

	_, err = svc.QueryBalance(context.Background(), owner, "ETH")
	assert.True(t, errors.Is(err, ErrChainQueryFailed))

	_, err = svc.QueryBalance(context.Background(), owner, "DOGE")
	require.ErrorIs(t, err, networks.ErrUnsupportedToken)

	_, err = svc.QueryBalance(context.Background(), "nope", "ETH")
	require.Error(t, err)
}

func TestZeroOwnerSkipsRPC(t *testing.T) {
	chain := &fakeChain{err: errors.New("should not be called")}
	svc := NewService(baseSepolia(t), chain)

	got, err := svc.QueryBalance(context.Background(), "0x0000000000000000000000000000000000000000", "USDC")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
	assert.Zero(t, chain.nCalls)
}

func TestNilClient(t *testing.T) {
	svc := NewService(baseSepolia(t), nil)
	_, err := svc.QueryBalance(context.Background(), owner, "ETH")
	assert.True(t, errors.Is(err, ErrChainQueryFailed))
}
