package main

import (
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/Gerardo115pp/Dexnet/internal/config"
	"github.com/Gerardo115pp/Dexnet/internal/server"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Operator console (MCP over stdio)",
	Long: `Serve the operator console as an MCP server on stdin/stdout. The
console runs commands against the same data directory without a chat
connection, so it needs no BOT_TOKEN. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(cmd, config.ModeConsole)
		if err != nil {
			return err
		}

		app, cleanup, err := server.New(cfg, log, nil)
		if err != nil {
			return fmt.Errorf("creating app: %w", err)
		}
		defer cleanup()

		stdio := mcpserver.NewStdioServer(app.Console())
		return stdio.Listen(cmd.Context(), os.Stdin, os.Stdout)
	},
}
