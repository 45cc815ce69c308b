// Version command for the guildhall CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberguild/guildhall/pkg/guildhall"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the guildhall version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "guildhall", guildhall.Version)
	},
}
