// Dexnet: chat-driven project coordination bot.
//
// Usage:
//
//	dexnet serve     # Connect to Discord and answer commands
//	dexnet console   # Operator console (MCP over stdio)
//	dexnet version   # Print the version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gerardo115pp/Dexnet/internal/config"
	"github.com/Gerardo115pp/Dexnet/internal/server"
)

var (
	envFile  string
	botName  string
	dataPath string
	logLevel string
	journal  bool
)

var rootCmd = &cobra.Command{
	Use:           "dexnet",
	Short:         "Chat-driven project coordination bot",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	flags.StringVar(&botName, "bot-name", "", "bot name used in the command prefix (BOT_NAME)")
	flags.StringVar(&dataPath, "data-path", "", "directory holding the JSON documents (BOT_DATA_PATH)")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.BoolVar(&journal, "journal", true, "record commands in the SQLite journal (JOURNAL_ENABLED)")

	rootCmd.AddCommand(serveCmd, consoleCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dexnet v%s\n", server.Version)
	},
}

// loadConfig merges flags over the environment and validates the result
// for mode. The logger always writes to stderr.
func loadConfig(cmd *cobra.Command, mode config.Mode) (*config.Config, *slog.Logger, error) {
	overrides := map[string]string{
		"BOT_NAME":      botName,
		"BOT_DATA_PATH": dataPath,
		"LOG_LEVEL":     logLevel,
	}
	if cmd.Flags().Changed("journal") {
		overrides["JOURNAL_ENABLED"] = strconv.FormatBool(journal)
	}

	cfg, err := config.Load(envFile, overrides)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(mode); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.With("mode", string(mode)), nil
}
