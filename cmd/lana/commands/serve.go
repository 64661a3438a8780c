package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lanatodoo/lana/pkg/lana/api"
	"github.com/lanatodoo/lana/pkg/lana/assistant"
	"github.com/lanatodoo/lana/pkg/lana/channels/telegram"
	"github.com/lanatodoo/lana/pkg/lana/llm"
	"github.com/lanatodoo/lana/pkg/lana/scheduler"
	"github.com/lanatodoo/lana/pkg/lana/store"
)

// newServeCmd creates the `lana serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the Telegram bot",
		Long: `Start Lana as a daemon: the HTTP API for the web client, the
Telegram channel, and the morning digest scheduler.

Examples:
  lana serve
  lana serve --config ./lana.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := llm.New(cfg.API.BaseURL, cfg.API.APIKey, cfg.Model, logger)
	a := assistant.New(cfg, st, client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// HTTP surface.
	server := api.New(cfg.Server, a, logger)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer server.Stop()

	// Telegram surface.
	var tg *telegram.Telegram
	if cfg.Telegram.Token != "" {
		tg = telegram.New(cfg.Telegram, logger)
		if err := tg.Connect(ctx); err != nil {
			return fmt.Errorf("connecting telegram: %w", err)
		}
		defer tg.Disconnect()
		go a.RunChannel(ctx, tg)

		digest := scheduler.New(cfg.Scheduler, a, tg, logger)
		if err := digest.Start(ctx); err != nil {
			logger.Error("morning digest not started", "error", err)
		} else {
			defer digest.Stop()
		}
	} else {
		logger.Warn("no bot token configured, Telegram channel disabled")
	}

	logger.Info("lana is running", "address", cfg.Server.Address, "telegram", tg != nil)

	// Block until interrupted.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
	return nil
}

// openStore builds the configured store backend.
func openStore(cfg *assistant.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Storage.Type {
	case "", "file":
		return store.NewFileStore(cfg.Storage.Path, logger), nil
	case "sqlite":
		st, err := store.NewSQLiteStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
