// Root command for the guildhall CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/internal/config"
	"github.com/cyberguild/guildhall/internal/paths"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
)

// cfg and dataDir are loaded by PersistentPreRunE for all subcommands.
var (
	cfg     *config.Config
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:          "guildhall",
	Short:        "Guildhall runs the guild's Discord bot and web site",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		cfg, err = config.Load(configDir)
		if err != nil {
			return err
		}

		dataDir, err = paths.ResolveDataDir(flagDataDir, cfg.DataDir)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: platform data dir)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(genTokensCmd)
	rootCmd.AddCommand(exportWriteupsCmd)
}

// newLogger builds the process logger for the long-running commands.
func newLogger() (*zap.Logger, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}
