// The web subcommand: the guild site.
package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cyberguild/guildhall/internal/announce"
	"github.com/cyberguild/guildhall/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the guild web site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWeb(); err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		issuer, err := newIssuer()
		if err != nil {
			return err
		}

		announcer, err := announce.New(cfg.Web.LogWebhook, log)
		if err != nil {
			return err
		}

		srv, err := web.New(web.Options{
			Config:    cfg.Web,
			OAuth:     cfg.OAuth,
			Store:     st,
			Issuer:    issuer,
			Announcer: announcer,
			Log:       log,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}
