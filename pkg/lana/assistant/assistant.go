package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/channels"
	"github.com/lanatodoo/lana/pkg/lana/store"
)

// Assistant ties the classifier and dispatcher into the single pipeline both
// transports invoke. Transports only extract a user identifier and render
// the reply on their own channel; everything in between lives here.
type Assistant struct {
	cfg        *Config
	store      store.Store
	llm        Completer
	classifier *Classifier
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// New creates an assistant over the given store and completion client.
func New(cfg *Config, st store.Store, completer Completer, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		cfg:        cfg,
		store:      st,
		llm:        completer,
		classifier: NewClassifier(cfg, completer, logger),
		dispatcher: NewDispatcher(st, logger),
		logger:     logger.With("component", "assistant"),
	}
}

// Config returns the assistant configuration.
func (a *Assistant) Config() *Config { return a.cfg }

// Store returns the persistent store.
func (a *Assistant) Store() store.Store { return a.store }

// Location returns the reference timezone.
func (a *Assistant) Location() *time.Location { return a.classifier.loc }

// Classify runs classification only, without executing the action. The user
// record is read for prompt context but not persisted.
func (a *Assistant) Classify(ctx context.Context, userID, text string) *Action {
	doc, err := a.store.Load()
	if err != nil {
		a.logger.Error("store load failed, classifying without context", "error", err)
		doc = store.NewDocument()
	}
	return a.classifier.Classify(ctx, text, doc.GetOrCreateUser(userID))
}

// HandleMessage runs the full classify+dispatch cycle and returns the
// classified action alongside the response message.
func (a *Assistant) HandleMessage(ctx context.Context, userID, text string) (*Action, string) {
	action := a.Classify(ctx, userID, text)
	return action, a.dispatcher.Dispatch(userID, action)
}

// EnsureUser provisions the user record without invoking classification.
func (a *Assistant) EnsureUser(userID string) error {
	return a.store.Update(userID, func(*store.UserRecord) error { return nil })
}

// RunChannel consumes a message transport until ctx is done. Messages are
// processed sequentially; the pipeline has no per-message cancellation.
func (a *Assistant) RunChannel(ctx context.Context, ch channels.Channel) {
	a.logger.Info("channel loop started", "channel", ch.Name())
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("channel loop stopped", "channel", ch.Name())
			return
		case msg, ok := <-ch.Receive():
			if !ok {
				return
			}
			a.handleChannelMessage(ctx, ch, msg)
		}
	}
}

// handleChannelMessage processes one incoming chat message.
func (a *Assistant) handleChannelMessage(ctx context.Context, ch channels.Channel, msg *channels.IncomingMessage) {
	if msg.IsCommand {
		if msg.Content == "/start" || msg.Content == "/start@"+a.cfg.Name {
			a.handleStart(ctx, ch, msg)
		}
		// Other commands are ignored, matching the free-text contract.
		return
	}

	_ = ch.SendTyping(ctx, msg.ChatID)

	action, reply := a.HandleMessage(ctx, msg.ChatID, msg.Content)

	out := &channels.OutgoingMessage{
		Content:  reply,
		Markdown: true,
	}
	if action.Kind == KindSendLink && a.cfg.WebAppURL != "" {
		out.Buttons = []channels.Button{{Text: "🚀 Открыть приложение", WebAppURL: a.cfg.WebAppURL}}
	}

	if err := ch.Send(ctx, msg.ChatID, out); err != nil {
		a.logger.Error("reply send failed", "channel", ch.Name(), "chat", msg.ChatID, "error", err)
	}
}

// handleStart provisions the user record and offers the web app entry point.
func (a *Assistant) handleStart(ctx context.Context, ch channels.Channel, msg *channels.IncomingMessage) {
	if err := a.EnsureUser(msg.ChatID); err != nil {
		a.logger.Error("user provisioning failed", "chat", msg.ChatID, "error", err)
	}

	name := msg.FromName
	if name == "" {
		name = "друг"
	}
	out := &channels.OutgoingMessage{
		Content:  fmt.Sprintf("Привет, %s! 👋", name),
		Markdown: true,
	}
	if a.cfg.WebAppURL != "" {
		out.Buttons = []channels.Button{{Text: "🚀 Открыть " + a.cfg.Name, WebAppURL: a.cfg.WebAppURL}}
	}

	if err := ch.Send(ctx, msg.ChatID, out); err != nil {
		a.logger.Error("greeting send failed", "chat", msg.ChatID, "error", err)
	}
}
