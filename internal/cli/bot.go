package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"arb-profit-bot/internal/app"
	"arb-profit-bot/internal/bot"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord command surface",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		token := app.GetRequiredEnv("DISCORD_TOKEN")
		clients := app.InitializeClients(ctx)

		b, err := bot.New(token, clients)
		if err != nil {
			return err
		}
		log.Info().Msg("Starting bot")
		return b.Run(ctx)
	},
}
