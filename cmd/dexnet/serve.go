package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gerardo115pp/Dexnet/internal/config"
	"github.com/Gerardo115pp/Dexnet/internal/discord"
	"github.com/Gerardo115pp/Dexnet/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and answer commands",
	Long: `Connect to the Discord gateway and answer commands posted in enabled
channels. Runs until interrupted; SIGINT or SIGTERM closes the session and
the command journal.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(cmd, config.ModeServe)
		if err != nil {
			return err
		}

		gw, err := discord.New(cfg.BotToken, log)
		if err != nil {
			return err
		}

		app, cleanup, err := server.New(cfg, log, gw.Responder())
		if err != nil {
			return fmt.Errorf("creating app: %w", err)
		}
		defer cleanup()

		log.Info("serving", "prefix", app.Dispatcher.Prefix(), "version", server.Version)
		return gw.Run(cmd.Context(), app.Dispatcher, app.Servers)
	},
}
