package receipts

import (
	"strings"

	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const DefaultExplorer = "https://etherscan.io"

// ExplorerURL links txHash on the explorer of the network named by networkRef
// (network id, hex chain id or decimal chain id). known is false when the
// reference did not match a registry network and the default explorer was used.
func ExplorerURL(registry *networks.Registry, txHash, networkRef string) (url string, known bool) {
	base := DefaultExplorer
	if registry != nil {
		if n, err := registry.ResolveChainRef(networkRef); err == nil && n.Explorer != "" {
			base = n.Explorer
			known = true
		}
	}
	return strings.TrimRight(base, "/") + "/tx/" + txHash, known
}
