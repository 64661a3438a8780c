package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/llm"
	"github.com/lanatodoo/lana/pkg/lana/store"
)

// FallbackMessage is the apology returned whenever classification fails.
// It is the sole error-recovery mechanism for the classification step.
const FallbackMessage = "Прости, я немного запуталась 😔. Попробуй еще раз."

// Completer is the slice of the LLM client the pipeline needs. Satisfied by
// *llm.Client; tests substitute stubs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)
}

// Classifier turns free-form user text plus the user's current data into a
// structured Action.
type Classifier struct {
	llm    Completer
	cfg    *Config
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// NewClassifier creates a classifier. An unknown timezone falls back to UTC.
func NewClassifier(cfg *Config, completer Completer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", "timezone", cfg.Timezone)
		loc = time.UTC
	}
	return &Classifier{
		llm:    completer,
		cfg:    cfg,
		loc:    loc,
		logger: logger.With("component", "classifier"),
		now:    time.Now,
	}
}

// Classify sends the context-aware prompt to the completion service and
// parses the JSON reply into an Action. It never returns an error: any
// failure (network, service, malformed reply, unknown action tag) degrades
// to a Chat action carrying the fixed apology.
func (c *Classifier) Classify(ctx context.Context, text string, user *store.UserRecord) *Action {
	now := c.now()
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt(c.cfg, now, c.loc, formatUserContext(user, now, c.loc))},
		{Role: "user", Content: text},
	}

	reply, err := c.llm.Complete(ctx, messages, llm.Options{JSONOnly: true})
	if err != nil {
		c.logger.Error("classification failed", "error", err)
		return ChatFallback()
	}

	action, err := ParseAction(reply)
	if err != nil {
		c.logger.Error("classification reply rejected", "error", err)
		return ChatFallback()
	}
	return action
}

// ChatFallback returns the Chat action substituted on classification failure.
func ChatFallback() *Action {
	return &Action{
		Kind:            KindChat,
		ResponseMessage: FallbackMessage,
	}
}
