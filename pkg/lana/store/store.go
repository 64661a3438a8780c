// Package store implements the per-user persistent document store for Lana.
// Every user owns five flat collections (todos, transactions, events, notes,
// goals) plus a settings block. The whole user mapping is the unit of
// durability: backends load and save the complete document.
package store

import "time"

// Task priorities as stored and rendered to the user.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Transaction directions.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Todo is a task item. Mutated only by toggling Completed or deletion.
type Todo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Completed   bool   `json:"completed"`
	CreatedAt   int64  `json:"createdAt"` // unix milliseconds
}

// Transaction is a single income or expense entry. Immutable once created
// except for deletion. Amount is sign-free; Type carries the direction.
type Transaction struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"` // ISO timestamp as received
	Type        string  `json:"type"` // "expense" or "income"
}

// Event is a scheduled item with a point-in-time date.
type Event struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// Note holds free text. Content is the only mutable field (full replace).
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// Goal is a toggleable objective.
type Goal struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Settings holds per-user preferences.
type Settings struct {
	Notifications bool `json:"notifications"`
}

// UserRecord is one user's complete data set.
type UserRecord struct {
	Todos        []Todo        `json:"todos"`
	Transactions []Transaction `json:"transactions"`
	Events       []Event       `json:"events"`
	Notes        []Note        `json:"notes"`
	Goals        []Goal        `json:"goals"`
	Settings     Settings      `json:"settings"`
}

// NewUserRecord returns a fresh record with five empty collections, so that
// a brand-new user serializes to arrays rather than nulls.
func NewUserRecord() *UserRecord {
	return &UserRecord{
		Todos:        []Todo{},
		Transactions: []Transaction{},
		Events:       []Event{},
		Notes:        []Note{},
		Goals:        []Goal{},
		Settings:     Settings{Notifications: true},
	}
}

// Document is the full mapping of all users.
type Document struct {
	Users map[string]*UserRecord `json:"users"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Users: map[string]*UserRecord{}}
}

// GetOrCreateUser returns the record for userID, inserting a fresh empty
// record into the document if absent.
func (d *Document) GetOrCreateUser(userID string) *UserRecord {
	if d.Users == nil {
		d.Users = map[string]*UserRecord{}
	}
	user, ok := d.Users[userID]
	if !ok {
		user = NewUserRecord()
		d.Users[userID] = user
	}
	return user
}

// Store is the persistence contract shared by all backends. Update serializes
// the load-modify-save window so concurrent in-process mutations cannot lose
// each other's writes; isolation across processes is backend-specific.
type Store interface {
	// Load reads the full document. Backends recover from a missing or
	// unreadable document by returning an empty one.
	Load() (*Document, error)

	// Save persists the full document as a complete snapshot.
	Save(doc *Document) error

	// Update runs fn against userID's record (created if absent) and
	// persists the result. The whole cycle holds the writer lock.
	Update(userID string, fn func(*UserRecord) error) error

	// UserIDs lists every provisioned user.
	UserIDs() ([]string, error)

	// Close releases backend resources.
	Close() error
}

// NowMillis returns the current time as unix milliseconds, the creation
// timestamp format used across collections.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
