package router

import (
	"fmt"
	"strings"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

const catImageURL = "https://cataas.com/cat"

func (r *Router) helpActions() content.Actions {
	return content.Actions{
		ID: r.payloadID(),
		Description: fmt.Sprintf("👋 Welcome to %s!\n\n"+
			"I'm here to help you interact with %s blockchain. I can help you send tokens, check balances, and more!\n\n"+
			"✨ Choose an action below to get started:", r.opts.AgentName, r.network.Name),
		Actions: []content.Action{
			{ID: "show-actions", Label: "🚀 Show me actions", Style: content.StylePrimary},
			{ID: "show-actions-with-images", Label: "🖼️ Show me actions with images", Style: content.StylePrimary},
			{ID: "check-balance", Label: "💰 Check balance", Style: content.StylePrimary},
			{ID: "more-info", Label: "ℹ️ More info", Style: content.StyleSecondary},
		},
	}
}

func (r *Router) quickActions(withImages bool) content.Actions {
	desc := "Glad to help you out! Here are some actions you can take:"
	image := ""
	if withImages {
		desc = "Glad to help you out! Here are some actions you can take with images:"
		image = catImageURL
	}
	return content.Actions{
		ID:          r.payloadID(),
		Description: desc,
		Actions: []content.Action{
			{ID: "send-small", Label: "Send 0.005 USDC", ImageURL: image, Style: content.StylePrimary},
			{ID: "send-large", Label: "Send 1 usdc", ImageURL: image, Style: content.StylePrimary},
			{ID: "check-balance", Label: "Check balance", ImageURL: image, Style: content.StylePrimary},
		},
	}
}

func (r *Router) payloadID() string {
	return "help-" + r.newID()
}

func sendConfirmation(amount, token, agentAddress string, network networks.NetworkConfig) string {
	return fmt.Sprintf("✅ Transaction request created!\n\n"+
		"DETAILS:\n"+
		"• Amount: %s %s\n"+
		"• To: %s\n"+
		"• Network: %s\n\n"+
		"💡 Please approve the transaction in your wallet.\n"+
		"📋 Optionally share the transaction reference when complete.", amount, token, agentAddress, network.Name)
}

func balanceReply(token, balance string, network networks.NetworkConfig) string {
	return fmt.Sprintf("💰 Bot Balance\n\nToken: %s\nBalance: %s %s\nNetwork: %s", token, balance, token, network.Name)
}

func infoReply(network networks.NetworkConfig, available []string, chatURL string) string {
	var sb strings.Builder
	sb.WriteString("ℹ️ Network Information\n\n")
	sb.WriteString("CURRENT NETWORK:\n")
	fmt.Fprintf(&sb, "• Name: %s\n", network.Name)
	fmt.Fprintf(&sb, "• ID: %s\n", network.ID)
	fmt.Fprintf(&sb, "• Chain ID: %s\n\n", network.ChainIDHex)

	sb.WriteString("SUPPORTED TOKENS:\n")
	sb.WriteString(bulleted(network.SupportedTokens()))
	sb.WriteString("\n\nAVAILABLE NETWORKS:\n")
	sb.WriteString(bulleted(available))

	sb.WriteString("\n\nCONTENT TYPES:\n")
	sb.WriteString("• Wallet Send Calls (EIP-5792)\n")
	sb.WriteString("• Transaction Reference\n")
	sb.WriteString("• Inline Actions\n\n")
	fmt.Fprintf(&sb, "🔗 Test at: %s", chatURL)
	return sb.String()
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "• " + it
	}
	return strings.Join(lines, "\n")
}
