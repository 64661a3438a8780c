// Package commands implements the lana CLI using cobra.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanatodoo/lana/pkg/lana/assistant"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lana",
		Short: "Lana - Personal Assistant",
		Long: `Lana is a personal assistant that turns free-form messages into
tasks, transactions, events and notes.

Examples:
  lana serve
  lana chat "Потратил 500 на такси"
  lana chat --user 42 "Встреча с командой завтра в 15:00"`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// resolveConfig loads the config honoring the --config flag.
func resolveConfig(cmd *cobra.Command) (*assistant.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	return assistant.LoadConfig(path)
}

// newLogger builds the slog logger per config and the --verbose flag.
func newLogger(cmd *cobra.Command, cfg *assistant.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}
