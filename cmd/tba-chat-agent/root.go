package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tba-chat-agent",
		Short: "Chat agent that turns messages into wallet transfer requests",
		Long: `tba-chat-agent listens on an end-to-end encrypted messaging network and answers
slash commands and quick actions with wallet send-calls payloads, balances and receipts.

Required environment (or .env):
  WALLET_KEY       agent wallet private key (hex)
  ENCRYPTION_KEY   32-byte hex key for local state
  XMTP_ENV         local, dev or production
  NETWORK_ID       base-sepolia, base-mainnet, ethereum-sepolia or ethereum-mainnet`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAgent,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the agent (default)",
			RunE:  runAgent,
		},
		newKeygenCmd(),
		newNetworksCmd(),
	)
	return root
}
