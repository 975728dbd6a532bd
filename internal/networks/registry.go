package networks

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

// Registry is the read-only network/token table. Build it once and pass it around.
type Registry struct {
	order    []string
	networks map[string]NetworkConfig
}

// NewRegistry builds a registry from the given networks, keeping their order for listing.
// ChainIDHex is derived from ChainID when empty.
func NewRegistry(list ...NetworkConfig) *Registry {
	r := &Registry{networks: make(map[string]NetworkConfig, len(list))}
	for _, n := range list {
		n.ID = normalizeNetworkKey(n.ID)
		if n.ChainIDHex == "" {
			n.ChainIDHex = hexutil.EncodeUint64(n.ChainID)
		}
		n = n.clone()
		if _, dup := r.networks[n.ID]; !dup {
			r.order = append(r.order, n.ID)
		}
		r.networks[n.ID] = n
	}
	return r
}

// ResolveNetwork returns the configuration for id.
func (r *Registry) ResolveNetwork(id string) (NetworkConfig, error) {
	n, ok := r.networks[normalizeNetworkKey(id)]
	if !ok {
		return NetworkConfig{}, &UnknownNetworkError{ID: id}
	}
	return n.clone(), nil
}

// ResolveToken looks up symbol (case-insensitive) in the token table of network.
func (r *Registry) ResolveToken(network, symbol string) (TokenConfig, error) {
	n, err := r.ResolveNetwork(network)
	if err != nil {
		return TokenConfig{}, err
	}
	return n.ResolveToken(symbol)
}

// ResolveToken looks up symbol (case-insensitive) in the network's token table.
func (n NetworkConfig) ResolveToken(symbol string) (TokenConfig, error) {
	sym := normalizeSymbol(symbol)
	t, ok := n.Tokens[sym]
	if !ok {
		return TokenConfig{}, &UnsupportedTokenError{Symbol: sym, NetworkName: n.Name}
	}
	t.Networks = append([]string(nil), t.Networks...)
	return t, nil
}

// ListNetworks returns network ids in registry order.
func (r *Registry) ListNetworks() []string {
	return append([]string(nil), r.order...)
}

// ResolveChainRef finds a network by id, hex chain id ("0x2105") or decimal chain id ("8453").
func (r *Registry) ResolveChainRef(ref string) (NetworkConfig, error) {
	ref = strings.TrimSpace(ref)
	if n, ok := r.networks[normalizeNetworkKey(ref)]; ok {
		return n.clone(), nil
	}

	var want uint64
	switch {
	case strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X"):
		bi, ok := new(big.Int).SetString(ref[2:], 16)
		if !ok || !bi.IsUint64() {
			return NetworkConfig{}, &UnknownNetworkError{ID: ref}
		}
		want = bi.Uint64()
	default:
		v, err := strconv.ParseUint(ref, 10, 64)
		if err != nil {
			return NetworkConfig{}, &UnknownNetworkError{ID: ref}
		}
		want = v
	}

	for _, id := range r.order {
		if n := r.networks[id]; n.ChainID == want {
			return n.clone(), nil
		}
	}
	return NetworkConfig{}, &UnknownNetworkError{ID: ref}
}

func native(networkID string) TokenConfig {
	return TokenConfig{
		Symbol:   "ETH",
		Name:     "Ethereum",
		Address:  constants.NativeAddr,
		Decimals: 18,
		Networks: []string{networkID},
	}
}

func usdc(networkID, address string) TokenConfig {
	return TokenConfig{
		Symbol:   "USDC",
		Name:     "USD Coin",
		Address:  address,
		Decimals: 6,
		Networks: []string{networkID},
	}
}

// Default returns the registry of networks the agent ships with.
func Default() *Registry {
	return NewRegistry(
		NetworkConfig{
			ID:          "base-sepolia",
			Name:        "Base Sepolia",
			ChainID:     84532,
			NativeToken: "ETH",
			Explorer:    "https://sepolia.basescan.org",
			Tokens: map[string]TokenConfig{
				"USDC": usdc("base-sepolia", "0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
				"ETH":  native("base-sepolia"),
			},
		},
		NetworkConfig{
			ID:          "base-mainnet",
			Name:        "Base Mainnet",
			ChainID:     8453,
			NativeToken: "ETH",
			Explorer:    "https://basescan.org",
			Tokens: map[string]TokenConfig{
				"USDC": usdc("base-mainnet", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
				"ETH":  native("base-mainnet"),
			},
		},
		NetworkConfig{
			ID:          "ethereum-sepolia",
			Name:        "Ethereum Sepolia",
			ChainID:     11155111,
			NativeToken: "ETH",
			Explorer:    "https://sepolia.etherscan.io",
			Tokens: map[string]TokenConfig{
				"ETH": native("ethereum-sepolia"),
			},
		},
		NetworkConfig{
			ID:          "ethereum-mainnet",
			Name:        "Ethereum Mainnet",
			ChainID:     1,
			NativeToken: "ETH",
			Explorer:    "https://etherscan.io",
			Tokens: map[string]TokenConfig{
				"USDC": usdc("ethereum-mainnet", "0xA0b86a33E6441d548b64E4a9d0C9C92C8c7e8E1b"),
				"ETH":  native("ethereum-mainnet"),
			},
		},
	)
}
