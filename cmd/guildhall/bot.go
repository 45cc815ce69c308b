// The bot subcommand: the long-running Discord bot process.
package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cyberguild/guildhall/internal/announce"
	"github.com/cyberguild/guildhall/internal/bot"
	"github.com/cyberguild/guildhall/internal/mail"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateBot(); err != nil {
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

		mailer := mail.New(mail.Config{
			Host:           cfg.SMTP.Host,
			Port:           cfg.SMTP.Port,
			From:           cfg.SMTP.From,
			AllowedDomains: cfg.SMTP.AllowedDomains,
		})

		b, err := bot.New(bot.Options{
			Config:    cfg.Bot,
			Store:     st,
			Issuer:    issuer,
			Mailer:    mailer,
			Announcer: announcer,
			Log:       log,
			BaseURL:   cfg.Web.BaseURL,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return b.Run(ctx)
	},
}
