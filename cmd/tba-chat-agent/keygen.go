package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumauth-io/tba-chat-agent/internal/identity"
)

func newKeygenCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a wallet key and an encryption key",
		Long: `Generate WALLET_KEY and ENCRYPTION_KEY and append them, with default XMTP_ENV and
NETWORK_ID, to the dotenv file. The file is created when missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := identity.GenerateKeys()
			if err != nil {
				return err
			}

			created, err := identity.AppendEnvFile(out, keys, time.Now())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(w, "Created %s\n", out)
			} else {
				fmt.Fprintf(w, "Appended keys to %s\n", out)
			}
			fmt.Fprintf(w, "Agent address: %s\n", keys.Address)

			if identity.IsTerminal(os.Stdout) {
				fmt.Fprintln(w, "Keep this file private. Anyone holding WALLET_KEY controls the agent wallet.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", ".env", "dotenv file to write")
	return cmd
}
