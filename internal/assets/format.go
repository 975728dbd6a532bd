package assets

import (
	"math/big"
	"strings"
)

// FormatUnits converts a base-unit amount to a human string:
// - divides by 10^decimals exactly
// - removes trailing zeros of the fractional part
//
// Examples:
//
//	amount=1234500000000000000, decimals=18 -> "1.2345"
//	amount=1000000, decimals=6 -> "1"
//	amount=1, decimals=18 -> "0.000000000000000001"
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	intPart, fracPart := new(big.Int).QuoRem(abs, base, new(big.Int))

	out := intPart.String()
	if fracPart.Sign() != 0 {
		fracStr := fracPart.String()
		if len(fracStr) < int(decimals) {
			fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
		}
		out += "." + strings.TrimRight(fracStr, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
