package assistant

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lanatodoo/lana/pkg/lana/store"
)

// Response fallbacks when the model supplied no responseMessage.
const (
	confirmMessage  = "Готово! ✅"
	chatMessage     = "Что-то я не поняла."
	sendLinkMessage = "Держи ссылку:"
)

// Dispatcher executes Actions against the store and produces the
// user-facing response message. Field defaulting is best-effort: creation
// actions are never rejected for missing optional fields.
type Dispatcher struct {
	store  store.Store
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// NewDispatcher creates a dispatcher bound to the given store.
func NewDispatcher(st store.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:  st,
		logger: logger.With("component", "dispatcher"),
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Dispatch applies the action to userID's record and returns the response
// message. Store failures are logged, not surfaced: the reply may claim
// success while the mutation did not persist, matching the pipeline's
// no-rollback contract.
func (d *Dispatcher) Dispatch(userID string, action *Action) string {
	switch action.Kind {
	case KindCreateTask:
		d.mutate(userID, action, func(user *store.UserRecord) {
			user.Todos = append(user.Todos, store.Todo{
				ID:          d.newID(),
				Title:       action.Task.Title,
				Description: action.Task.Description,
				Priority:    normalizePriority(action.Task.Priority),
				Completed:   false,
				CreatedAt:   d.now().UnixMilli(),
			})
		})
		return respond(action, confirmMessage)

	case KindCreateTransaction:
		d.mutate(userID, action, func(user *store.UserRecord) {
			date := action.Transaction.Date
			if strings.TrimSpace(date) == "" {
				date = d.now().UTC().Format(time.RFC3339)
			}
			user.Transactions = append(user.Transactions, store.Transaction{
				ID:          d.newID(),
				Amount:      action.Transaction.Amount,
				Category:    action.Transaction.Category,
				Description: action.Transaction.Description,
				Date:        date,
				Type:        normalizeTransactionType(action.Transaction.Type),
			})
		})
		return respond(action, confirmMessage)

	case KindCreateEvent:
		d.mutate(userID, action, func(user *store.UserRecord) {
			date := action.Event.Date
			if strings.TrimSpace(date) == "" {
				date = d.now().UTC().Format(time.RFC3339)
			}
			user.Events = append(user.Events, store.Event{
				ID:        d.newID(),
				Title:     action.Event.Title,
				Date:      date,
				Completed: false,
			})
		})
		return respond(action, confirmMessage)

	case KindCreateNote:
		d.mutate(userID, action, func(user *store.UserRecord) {
			user.Notes = append(user.Notes, store.Note{
				ID:        d.newID(),
				Content:   action.Note.Content,
				CreatedAt: d.now().UnixMilli(),
			})
		})
		return respond(action, confirmMessage)

	case KindSendLink:
		return respond(action, sendLinkMessage)

	default:
		// Chat and anything unrecognized: no store mutation.
		return respond(action, chatMessage)
	}
}

// mutate runs fn against userID's record, logging (not raising) failures.
func (d *Dispatcher) mutate(userID string, action *Action, fn func(*store.UserRecord)) {
	err := d.store.Update(userID, func(user *store.UserRecord) error {
		fn(user)
		return nil
	})
	if err != nil {
		d.logger.Error("store update failed, mutation lost",
			"user", userID,
			"action", action.Kind,
			"error", err,
		)
	}
}

// respond picks the model's response message or the generic fallback.
func respond(action *Action, fallback string) string {
	if action.ResponseMessage != "" {
		return action.ResponseMessage
	}
	return fallback
}

// normalizePriority clamps free-form priority text to the known levels,
// defaulting to Medium.
func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "высокий":
		return store.PriorityHigh
	case "low", "низкий":
		return store.PriorityLow
	default:
		return store.PriorityMedium
	}
}

// normalizeTransactionType clamps the direction to exactly "expense" or
// "income", defaulting to expense when ambiguous.
func normalizeTransactionType(t string) string {
	if strings.ToLower(strings.TrimSpace(t)) == store.TypeIncome {
		return store.TypeIncome
	}
	return store.TypeExpense
}
