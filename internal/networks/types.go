package networks

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

// TokenConfig describes one transferable asset on a network.
// Address is either a contract address or constants.NativeAddr for the chain's native asset.
type TokenConfig struct {
	Symbol   string   `json:"symbol" yaml:"symbol"`
	Name     string   `json:"name" yaml:"name"`
	Address  string   `json:"address" yaml:"address"`
	Decimals uint8    `json:"decimals" yaml:"decimals"`
	Networks []string `json:"networks" yaml:"networks"`
}

// IsNative reports whether the token is the chain's native asset (zero sentinel address).
func (t TokenConfig) IsNative() bool {
	return common.HexToAddress(t.Address) == common.HexToAddress(constants.NativeAddr)
}

// ContractAddress returns the token contract as a go-ethereum address.
func (t TokenConfig) ContractAddress() common.Address {
	return common.HexToAddress(t.Address)
}

// NetworkConfig describes a network the agent can target.
type NetworkConfig struct {
	ID          string                 `json:"id" yaml:"id"`
	Name        string                 `json:"name" yaml:"name"`
	ChainID     uint64                 `json:"chainId" yaml:"chainId"`
	ChainIDHex  string                 `json:"chainIdHex" yaml:"chainIdHex"`
	NativeToken string                 `json:"nativeToken" yaml:"nativeToken"`
	Explorer    string                 `json:"explorer" yaml:"explorer"`
	Tokens      map[string]TokenConfig `json:"tokens" yaml:"tokens"`
}

// SupportedTokens returns the token symbols of the network in stable order.
func (n NetworkConfig) SupportedTokens() []string {
	out := make([]string, 0, len(n.Tokens))
	for sym := range n.Tokens {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (n NetworkConfig) clone() NetworkConfig {
	out := n
	out.Tokens = make(map[string]TokenConfig, len(n.Tokens))
	for sym, t := range n.Tokens {
		t.Networks = append([]string(nil), t.Networks...)
		out.Tokens[sym] = t
	}
	return out
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeNetworkKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
