// The export-writeups subcommand: dumps every writeup as JSON.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberguild/guildhall/internal/export"
)

var flagExportOutput string

var exportWriteupsCmd = &cobra.Command{
	Use:   "export-writeups",
	Short: "Export all writeups as a JSON array",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		if flagExportOutput != "" {
			f, err := os.Create(flagExportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return export.Writeups(st, out)
	},
}

func init() {
	exportWriteupsCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "write to a file instead of stdout")
}
