package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lanatodoo/lana/pkg/lana/store"
)

// ---------- AI endpoints ----------

// handleAnalyze classifies text without executing the action. Classification
// never raises, so this endpoint always answers 200 — a dead completion
// service yields a Chat-shaped fallback body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, userID string) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	action := s.assistant.Classify(r.Context(), userID, body.Text)
	writeJSON(w, http.StatusOK, action)
}

// handleBudgetAnalyze extracts a transaction shape from free text, replying
// with an empty object on failure.
func (s *Server) handleBudgetAnalyze(w http.ResponseWriter, r *http.Request, userID string) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	result := s.assistant.AnalyzeBudget(r.Context(), body.Text)
	if result == nil {
		result = map[string]any{}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTipsGenerate produces a short dashboard tip from a summary string.
func (s *Server) handleTipsGenerate(w http.ResponseWriter, r *http.Request, userID string) {
	var body struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tip": s.assistant.GenerateTip(r.Context(), body.Summary)})
}

// handleSync returns the user's full record. A brand-new identifier gets
// five empty collections; the lazily-created record is not persisted by a
// pure read.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request, userID string) {
	doc, err := s.assistant.Store().Load()
	if err != nil {
		s.logger.Error("sync load failed", "user", userID, "error", err)
		doc = store.NewDocument()
	}
	writeJSON(w, http.StatusOK, doc.GetOrCreateUser(userID))
}

// ---------- Todos ----------

func (s *Server) handleTodoCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var todo store.Todo
	if err := json.NewDecoder(r.Body).Decode(&todo); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	todo.ID = uuid.NewString()
	todo.CreatedAt = time.Now().UnixMilli()
	if todo.Priority == "" {
		todo.Priority = store.PriorityMedium
	}

	s.mutate(w, userID, func(user *store.UserRecord) {
		user.Todos = append(user.Todos, todo)
	}, todo)
}

func (s *Server) handleTodoToggle(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		for i := range user.Todos {
			if user.Todos[i].ID == id {
				user.Todos[i].Completed = !user.Todos[i].Completed
				break
			}
		}
	}, nil)
}

func (s *Server) handleTodoDelete(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		kept := user.Todos[:0]
		for _, t := range user.Todos {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		user.Todos = kept
	}, nil)
}

// ---------- Transactions ----------

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var tx store.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	tx.ID = uuid.NewString()

	s.mutate(w, userID, func(user *store.UserRecord) {
		user.Transactions = append(user.Transactions, tx)
	}, tx)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		kept := user.Transactions[:0]
		for _, t := range user.Transactions {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		user.Transactions = kept
	}, nil)
}

// ---------- Events ----------

func (s *Server) handleEventCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var event store.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	event.ID = uuid.NewString()
	event.Completed = false

	s.mutate(w, userID, func(user *store.UserRecord) {
		user.Events = append(user.Events, event)
	}, event)
}

func (s *Server) handleEventDelete(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		kept := user.Events[:0]
		for _, e := range user.Events {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		user.Events = kept
	}, nil)
}

// ---------- Goals ----------

func (s *Server) handleGoalCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var goal store.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	goal.ID = uuid.NewString()
	goal.Completed = false

	s.mutate(w, userID, func(user *store.UserRecord) {
		user.Goals = append(user.Goals, goal)
	}, goal)
}

func (s *Server) handleGoalToggle(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		for i := range user.Goals {
			if user.Goals[i].ID == id {
				user.Goals[i].Completed = !user.Goals[i].Completed
				break
			}
		}
	}, nil)
}

func (s *Server) handleGoalDelete(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		kept := user.Goals[:0]
		for _, g := range user.Goals {
			if g.ID != id {
				kept = append(kept, g)
			}
		}
		user.Goals = kept
	}, nil)
}

// ---------- Notes ----------

func (s *Server) handleNoteCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var note store.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	note.ID = uuid.NewString()
	note.CreatedAt = time.Now().UnixMilli()

	s.mutate(w, userID, func(user *store.UserRecord) {
		user.Notes = append(user.Notes, note)
	}, note)
}

// handleNoteUpdate replaces the note content in full; there are no patch
// semantics and an empty content leaves the note untouched.
func (s *Server) handleNoteUpdate(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.mutate(w, userID, func(user *store.UserRecord) {
		if body.Content == "" {
			return
		}
		for i := range user.Notes {
			if user.Notes[i].ID == id {
				user.Notes[i].Content = body.Content
				break
			}
		}
	}, nil)
}

func (s *Server) handleNoteDelete(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	s.mutate(w, userID, func(user *store.UserRecord) {
		kept := user.Notes[:0]
		for _, n := range user.Notes {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		user.Notes = kept
	}, nil)
}

// ---------- Shared ----------

// mutate applies fn to the user's record and writes either the created
// entity or a success acknowledgment. Toggles and deletes against missing
// ids are no-ops that still acknowledge success.
func (s *Server) mutate(w http.ResponseWriter, userID string, fn func(*store.UserRecord), created any) {
	err := s.assistant.Store().Update(userID, func(user *store.UserRecord) error {
		fn(user)
		return nil
	})
	if err != nil {
		s.logger.Error("store update failed", "user", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
		return
	}
	if created != nil {
		writeJSON(w, http.StatusOK, created)
		return
	}
	writeSuccess(w)
}
