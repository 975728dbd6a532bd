package receipts

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const txHash = "0xabc123"

func current(t *testing.T) (networks.NetworkConfig, *networks.Registry) {
	t.Helper()
	reg := networks.Default()
	n, err := reg.ResolveNetwork("base-sepolia")
	require.NoError(t, err)
	return n, reg
}

func TestFormatWithoutMetadata(t *testing.T) {
	n, reg := current(t)
	ref := content.TransactionReference{NetworkID: "84532", Reference: txHash}

	got := Format(ref, "0xSender", n, reg)

	want := "📋 Transaction Reference Received\n\n" +
		"TRANSACTION DETAILS:\n" +
		"• Transaction Hash: 0xabc123\n" +
		"• Network ID: 84532\n" +
		"• Transaction Type: Unknown\n" +
		"• From Address: 0xSender\n" +
		"• Current Network: Base Sepolia (base-sepolia)" +
		"\n\n🔗 View on explorer:\nhttps://sepolia.basescan.org/tx/0xabc123" +
		"\n\n✅ Thank you for sharing the transaction details!"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "ADDITIONAL INFO")
}

func TestFormatWithMetadata(t *testing.T) {
	n, reg := current(t)
	raw := json.RawMessage(`{
		"networkId": "0x2105",
		"reference": "0xabc123",
		"metadata": {
			"transactionType": "transfer",
			"fromAddress": "0xFrom",
			"currency": "USDC",
			"amount": 5000,
			"decimals": 6,
			"toAddress": "0xTo",
			"zeta": "last",
			"alpha": true
		}
	}`)
	ref, err := content.DecodeTransactionReference(raw)
	require.NoError(t, err)

	got := Format(ref, "0xSender", n, reg)

	assert.Contains(t, got, "• Transaction Type: transfer\n")
	assert.Contains(t, got, "• From Address: 0xFrom\n")
	assert.Contains(t, got, "\n\nADDITIONAL INFO:\n• Amount: 0.005 USDC\n• To Address: 0xTo\n• alpha: true\n• zeta: last")
	assert.Contains(t, got, "https://basescan.org/tx/0xabc123")
	assert.NotContains(t, got, "• decimals")
}

func TestFormatOmitsAmountWhenIncomplete(t *testing.T) {
	n, reg := current(t)
	ref := content.TransactionReference{
		NetworkID: "base-sepolia",
		Reference: txHash,
		Metadata: map[string]any{
			"currency": "USDC",
			"amount":   json.Number("5000"),
		},
	}

	got := Format(ref, "0xSender", n, reg)

	assert.Contains(t, got, "ADDITIONAL INFO:")
	assert.NotContains(t, got, "• Amount:")
	assert.NotContains(t, got, "• To Address:")
}

func TestFormatSkipsAmountOutOfRange(t *testing.T) {
	n, reg := current(t)
	cases := []struct {
		name     string
		amount   any
		decimals any
	}{
		{"negative decimals", json.Number("1"), json.Number("-2000000000")},
		{"decimals past uint32", json.Number("1"), json.Number("4294967302")},
		{"decimals past uint8", json.Number("1"), json.Number("256")},
		{"fractional decimals", json.Number("1"), json.Number("6.5")},
		{"huge amount exponent", json.Number("1e2000000000"), json.Number("6")},
		{"tiny amount exponent", json.Number("1e-2000000000"), json.Number("6")},
		{"too many digits", json.Number(strings.Repeat("9", 79)), json.Number("6")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref := content.TransactionReference{
				NetworkID: "base-sepolia",
				Reference: txHash,
				Metadata: map[string]any{
					"currency": "USDC",
					"amount":   tc.amount,
					"decimals": tc.decimals,
				},
			}

			done := make(chan string, 1)
			go func() { done <- Format(ref, "0xSender", n, reg) }()

			select {
			case got := <-done:
				assert.Contains(t, got, "ADDITIONAL INFO:")
				assert.NotContains(t, got, "• Amount:")
			case <-time.After(5 * time.Second):
				t.Fatal("Format did not return")
			}
		})
	}
}

func TestFormatFallsBackToCurrentNetwork(t *testing.T) {
	n, reg := current(t)
	got := Format(content.TransactionReference{Reference: txHash}, "0xSender", n, reg)
	assert.True(t, strings.HasSuffix(got, "https://sepolia.basescan.org/tx/0xabc123\n\n✅ Thank you for sharing the transaction details!"))
}

func TestExplorerURL(t *testing.T) {
	reg := networks.Default()
	cases := []struct {
		ref   string
		want  string
		known bool
	}{
		{"base-mainnet", "https://basescan.org/tx/0xabc123", true},
		{"0x14a34", "https://sepolia.basescan.org/tx/0xabc123", true},
		{"1", "https://etherscan.io/tx/0xabc123", true},
		{"11155111", "https://sepolia.etherscan.io/tx/0xabc123", true},
		{"polygon", "https://etherscan.io/tx/0xabc123", false},
		{"", "https://etherscan.io/tx/0xabc123", false},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			url, known := ExplorerURL(reg, txHash, tc.ref)
			assert.Equal(t, tc.want, url)
			assert.Equal(t, tc.known, known)
		})
	}
}
