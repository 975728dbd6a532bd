package assets

import "math/big"

// Balance is a token balance read from chain.
type Balance struct {
	Owner     string   `json:"owner"`
	Symbol    string   `json:"symbol"`
	Network   string   `json:"network"`
	Decimals  uint8    `json:"decimals"`
	Raw       *big.Int `json:"-"`
	Formatted string   `json:"formatted"`
}
