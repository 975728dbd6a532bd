package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

func newNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List supported networks and tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printNetworks(cmd, networks.Default())
		},
	}
}

func printNetworks(cmd *cobra.Command, registry *networks.Registry) error {
	w := cmd.OutOrStdout()
	for _, id := range registry.ListNetworks() {
		n, err := registry.ResolveNetwork(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-18s %-18s chain %-9d (%s)  tokens: %s\n",
			n.ID, n.Name, n.ChainID, n.ChainIDHex, strings.Join(n.SupportedTokens(), ", "))
	}
	return nil
}
