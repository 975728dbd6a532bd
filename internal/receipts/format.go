// Package receipts renders acknowledgments for transaction references shared by users.
package receipts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

var knownMetadataFields = map[string]struct{}{
	"transactionType": {},
	"fromAddress":     {},
	"currency":        {},
	"amount":          {},
	"decimals":        {},
	"toAddress":       {},
}

// Format renders a multi-line summary of ref. It never fails; absent fields fall back to defaults.
func Format(ref content.TransactionReference, senderAddress string, current networks.NetworkConfig, registry *networks.Registry) string {
	meta := ref.Metadata

	txType := stringField(meta, "transactionType")
	if txType == "" {
		txType = "Unknown"
	}
	from := stringField(meta, "fromAddress")
	if from == "" {
		from = senderAddress
	}

	var sb strings.Builder
	sb.WriteString("📋 Transaction Reference Received\n\n")
	sb.WriteString("TRANSACTION DETAILS:\n")
	fmt.Fprintf(&sb, "• Transaction Hash: %s\n", ref.Reference)
	fmt.Fprintf(&sb, "• Network ID: %s\n", ref.NetworkID)
	fmt.Fprintf(&sb, "• Transaction Type: %s\n", txType)
	fmt.Fprintf(&sb, "• From Address: %s\n", from)
	fmt.Fprintf(&sb, "• Current Network: %s (%s)", current.Name, current.ID)

	if meta != nil {
		sb.WriteString("\n\nADDITIONAL INFO:")
		if amount, ok := displayAmount(meta); ok {
			fmt.Fprintf(&sb, "\n• Amount: %s %s", amount, stringField(meta, "currency"))
		}
		if to := stringField(meta, "toAddress"); to != "" {
			fmt.Fprintf(&sb, "\n• To Address: %s", to)
		}

		keys := make([]string, 0, len(meta))
		for k, v := range meta {
			if _, skip := knownMetadataFields[k]; skip || v == nil {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "\n• %s: %s", k, renderValue(meta[k]))
		}
	}

	networkRef := string(ref.NetworkID)
	if networkRef == "" {
		networkRef = current.ID
	}
	url, _ := ExplorerURL(registry, ref.Reference, networkRef)
	fmt.Fprintf(&sb, "\n\n🔗 View on explorer:\n%s", url)
	sb.WriteString("\n\n✅ Thank you for sharing the transaction details!")

	return sb.String()
}

// maxAmountDigits bounds the amount coefficient and exponent; a uint256 has 78 decimal digits.
const maxAmountDigits = 78

var maxDecimals = decimal.NewFromInt(255)

// displayAmount derives amount / 10^decimals when currency, amount and decimals are all set and non-zero.
// Decimals must be a whole number in 1..255 and amount must fit a uint256-sized range, otherwise the line is skipped.
func displayAmount(meta map[string]any) (string, bool) {
	if stringField(meta, "currency") == "" {
		return "", false
	}
	amount, ok := numberField(meta, "amount")
	if !ok || amount.IsZero() {
		return "", false
	}
	if exp := amount.Exponent(); exp < -maxAmountDigits || exp > maxAmountDigits || amount.NumDigits() > maxAmountDigits {
		return "", false
	}
	decimals, ok := numberField(meta, "decimals")
	if !ok || !decimals.IsPositive() || !decimals.IsInteger() || decimals.GreaterThan(maxDecimals) {
		return "", false
	}
	return amount.Shift(-int32(decimals.IntPart())).String(), true
}

func stringField(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	switch v := meta[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func numberField(meta map[string]any, key string) (decimal.Decimal, bool) {
	if meta == nil {
		return decimal.Decimal{}, false
	}
	switch v := meta[key].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Decimal{}, false
	}
}

func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool, float64, int, int64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
