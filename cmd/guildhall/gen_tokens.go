// The gen-tokens subcommand: mints fresh signing and sealing keys.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberguild/guildhall/internal/token"
)

var genTokensCmd = &cobra.Command{
	Use:   "gen-tokens",
	Short: "Generate fresh token and email keys for the config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := token.GenerateKey()
		if err != nil {
			return err
		}
		emailKey, err := token.GenerateKey()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "TOKEN_SECRET=%s\n", secret)
		fmt.Fprintf(cmd.OutOrStdout(), "EMAIL_KEY=%s\n", emailKey)
		return nil
	},
}
