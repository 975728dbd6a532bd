package calls

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const (
	sender = "0x1111111111111111111111111111111111111111"
	agent  = "0x2222222222222222222222222222222222222222"
)

func testBuilder() *Builder {
	return NewBuilder(networks.Default(), Options{
		Presentation: Presentation{Hostname: "tba.chat", Title: "TBA Chat Agent", FaviconURL: "https://example.com/favicon.png"},
		PaymasterURL: "https://paymaster.example.com/rpc",
	})
}

func request(amount, token, network string) TransferRequest {
	return TransferRequest{
		From:      sender,
		To:        agent,
		Amount:    decimal.RequireFromString(amount),
		Token:     token,
		NetworkID: network,
	}
}

func TestScaleAmountFloors(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"0.0055", 6, "5500"},
		{"0.005", 6, "5000"},
		{"1", 6, "1000000"},
		{"0.0000019", 6, "1"},
		{"0.0000001", 6, "0"},
		{"1.5", 18, "1500000000000000000"},
		{"0.1", 0, "0"},
	}
	for _, tc := range cases {
		got := ScaleAmount(decimal.RequireFromString(tc.amount), tc.decimals)
		assert.Equal(t, tc.want, got.String(), "%s @ %d", tc.amount, tc.decimals)
	}
}

func TestBuildERC20Transfer(t *testing.T) {
	payload, err := testBuilder().Build(request("0.0055", "usdc", "base-sepolia"))
	require.NoError(t, err)

	assert.Equal(t, PayloadVersion, payload.Version)
	assert.Equal(t, sender, payload.From)
	assert.Equal(t, "0x14a34", payload.ChainID)
	assert.Nil(t, payload.Capabilities)
	require.Len(t, payload.Calls, 1)

	call := payload.Calls[0]
	assert.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", call.To)
	assert.Empty(t, call.Value)
	assert.True(t, strings.HasPrefix(call.Data, "0xa9059cbb"))
	assert.Len(t, call.Data, 2+2*(4+32+32))

	to, amount, err := DecodeTransfer(call.Data)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(agent), to)
	assert.Equal(t, big.NewInt(5500), amount)

	md := call.Metadata
	assert.Equal(t, "Transfer 0.0055 USDC on Base Sepolia", md.Description)
	assert.Equal(t, "transfer", md.TransactionType)
	assert.Equal(t, "USDC", md.Currency)
	assert.Equal(t, json.Number("5500"), md.Amount)
	assert.Equal(t, uint8(6), md.Decimals)
	assert.Equal(t, "base-sepolia", md.NetworkID)
	assert.Empty(t, md.Hostname)
	assert.Empty(t, md.Title)
}

func TestTransferCallDataLayout(t *testing.T) {
	payload, err := testBuilder().Build(request("1", "USDC", "base-mainnet"))
	require.NoError(t, err)

	data := common.FromHex(payload.Calls[0].Data)
	require.Len(t, data, 68)
	assert.Equal(t, TransferSelector, data[:4])
	assert.Equal(t, make([]byte, 12), data[4:16])
	assert.Equal(t, common.HexToAddress(agent).Bytes(), data[16:36])
	assert.Equal(t, big.NewInt(1_000_000), new(big.Int).SetBytes(data[36:68]))
}

func TestBuildNativeTransfer(t *testing.T) {
	payload, err := testBuilder().Build(request("0.01", "ETH", "ethereum-sepolia"))
	require.NoError(t, err)

	call := payload.Calls[0]
	assert.Equal(t, agent, call.To)
	assert.Equal(t, "0x2386f26fc10000", call.Value) // 10^16
	assert.Equal(t, "0x", call.Data)
	assert.Equal(t, json.Number("10000000000000000"), call.Metadata.Amount)
	assert.Equal(t, "0xaa36a7", payload.ChainID)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := testBuilder()
	req := request("0.005", "USDC", "base-sepolia")
	req.IncludeMetadata = true

	first, err := b.Build(req)
	require.NoError(t, err)
	second, err := b.Build(req)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	c, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestBuildMetadataAndPaymaster(t *testing.T) {
	b := testBuilder()

	withMeta := request("1", "USDC", "base-sepolia")
	withMeta.IncludeMetadata = true
	payload, err := b.Build(withMeta)
	require.NoError(t, err)
	assert.Equal(t, "tba.chat", payload.Calls[0].Metadata.Hostname)
	assert.Equal(t, "TBA Chat Agent", payload.Calls[0].Metadata.Title)
	assert.Nil(t, payload.Capabilities)

	sponsored := request("1", "USDC", "base-sepolia")
	sponsored.UsePaymaster = true
	payload, err = b.Build(sponsored)
	require.NoError(t, err)
	require.NotNil(t, payload.Capabilities)
	assert.Equal(t, "https://paymaster.example.com/rpc", payload.Capabilities.PaymasterService.URL)
	assert.True(t, payload.Capabilities.PaymasterService.Optional)
	assert.Equal(t, "tba.chat", payload.Calls[0].Metadata.Hostname, "sponsored sends carry presentation metadata")

	noPaymaster := NewBuilder(networks.Default(), Options{})
	_, err = noPaymaster.Build(sponsored)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuildRejectsInvalidRequests(t *testing.T) {
	b := testBuilder()

	_, err := b.Build(request("0.1", "USDC", "ethereum-sepolia"))
	require.ErrorIs(t, err, networks.ErrUnsupportedToken)
	assert.EqualError(t, err, "Token USDC not supported on Ethereum Sepolia")

	_, err = b.Build(request("0.1", "USDC", "nowhere"))
	require.ErrorIs(t, err, networks.ErrUnknownNetwork)

	_, err = b.Build(request("0", "USDC", "base-sepolia"))
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = b.Build(request("-1", "USDC", "base-sepolia"))
	require.ErrorIs(t, err, ErrInvalidRequest)

	bad := request("1", "USDC", "base-sepolia")
	bad.To = "not-an-address"
	_, err = b.Build(bad)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBuildRejectsOutOfRangeAmounts(t *testing.T) {
	b := testBuilder()

	for _, amount := range []string{"1e2000000000", "1e-2000000000", "1e75", strings.Repeat("9", 79)} {
		t.Run(amount, func(t *testing.T) {
			_, err := b.Build(request(amount, "USDC", "base-sepolia"))
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	_, err := b.Build(request("1e60", "USDC", "base-sepolia"))
	require.NoError(t, err)
}

func TestAmountInRange(t *testing.T) {
	assert.True(t, AmountInRange(decimal.RequireFromString("0.005")))
	assert.True(t, AmountInRange(decimal.RequireFromString("1e78")))
	assert.False(t, AmountInRange(decimal.RequireFromString("1e79")))
	assert.False(t, AmountInRange(decimal.RequireFromString("1e-79")))
	assert.False(t, AmountInRange(decimal.RequireFromString("1"+strings.Repeat("0", 78)+".5")))
}

func TestDecodeTransferRejectsOtherCalls(t *testing.T) {
	_, _, err := DecodeTransfer("0x")
	require.Error(t, err)
	_, _, err = DecodeTransfer("0x095ea7b3" + strings.Repeat("00", 64))
	require.Error(t, err)
}
