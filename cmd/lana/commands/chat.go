package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanatodoo/lana/pkg/lana/assistant"
	"github.com/lanatodoo/lana/pkg/lana/llm"
)

// newChatCmd creates the `lana chat` command: a one-shot run of the
// classify+dispatch pipeline from the terminal.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message through the pipeline",
		Long: `Classify a message and execute the resulting action against the
local store, exactly as the bot would.

Examples:
  lana chat "Купить молоко завтра"
  lana chat --user 42 "Потратил 500 на такси"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}
	cmd.Flags().String("user", "cli", "user identifier to act as")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
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

	userID, _ := cmd.Flags().GetString("user")
	text := strings.Join(args, " ")

	action, reply := a.HandleMessage(cmd.Context(), userID, text)
	fmt.Printf("[%s] %s\n", action.Kind, reply)
	return nil
}
