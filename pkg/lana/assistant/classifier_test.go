package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/llm"
	"github.com/lanatodoo/lana/pkg/lana/store"
)

type stubCompleter struct {
	reply    string
	err      error
	lastMsgs []llm.Message
	lastOpts llm.Options
}

func (s *stubCompleter) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	s.lastMsgs = messages
	s.lastOpts = opts
	return s.reply, s.err
}

func newTestClassifier(completer Completer) *Classifier {
	cfg := DefaultConfig()
	c := NewClassifier(cfg, completer, nil)
	c.now = func() time.Time {
		return time.Date(2026, 8, 31, 12, 0, 0, 0, c.loc)
	}
	return c
}

func TestClassifyParsesModelReply(t *testing.T) {
	stub := &stubCompleter{
		reply: `{"action":"create_task","responseMessage":"Добавила!","data":{"title":"Купить молоко"}}`,
	}
	c := newTestClassifier(stub)

	action := c.Classify(context.Background(), "купи молоко", store.NewUserRecord())
	if action.Kind != KindCreateTask {
		t.Fatalf("Kind = %s, want %s", action.Kind, KindCreateTask)
	}
	if action.Task.Title != "Купить молоко" {
		t.Errorf("Title = %q", action.Task.Title)
	}
	if !stub.lastOpts.JSONOnly {
		t.Error("classification must request JSON-only output")
	}
}

func TestClassifyCompleterErrorFallsBackToChat(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	c := newTestClassifier(stub)

	action := c.Classify(context.Background(), "привет", store.NewUserRecord())
	if action.Kind != KindChat {
		t.Fatalf("Kind = %s, want chat", action.Kind)
	}
	if action.ResponseMessage != FallbackMessage {
		t.Errorf("ResponseMessage = %q, want fallback apology", action.ResponseMessage)
	}
}

func TestClassifyMalformedReplyFallsBackToChat(t *testing.T) {
	tests := []string{
		`not json at all`,
		`{"action":"destroy_world"}`,
		`{"action":"create_task","data":{}}`,
	}
	for _, reply := range tests {
		c := newTestClassifier(&stubCompleter{reply: reply})
		action := c.Classify(context.Background(), "что-то", store.NewUserRecord())
		if action.Kind != KindChat || action.ResponseMessage != FallbackMessage {
			t.Errorf("reply %q: got %s/%q, want chat fallback", reply, action.Kind, action.ResponseMessage)
		}
	}
}

func TestClassifyPromptCarriesUserContext(t *testing.T) {
	stub := &stubCompleter{reply: `{"action":"chat","responseMessage":"ок"}`}
	c := newTestClassifier(stub)

	user := store.NewUserRecord()
	user.Todos = append(user.Todos, store.Todo{ID: "t1", Title: "Оплатить счета", Priority: store.PriorityHigh})

	c.Classify(context.Background(), "что у меня по делам?", user)

	if len(stub.lastMsgs) != 2 {
		t.Fatalf("got %d messages, want system+user", len(stub.lastMsgs))
	}
	system := stub.lastMsgs[0]
	if system.Role != "system" {
		t.Errorf("first message role = %q", system.Role)
	}
	if !strings.Contains(system.Content, "Оплатить счета") {
		t.Error("system prompt should embed the user's open tasks")
	}
	if !strings.Contains(system.Content, "Europe/Moscow") {
		t.Error("system prompt should name the reference timezone")
	}
	if stub.lastMsgs[1].Content != "что у меня по делам?" {
		t.Errorf("user message = %q", stub.lastMsgs[1].Content)
	}
}

func TestNewClassifierUnknownTimezoneFallsBackToUTC(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	c := NewClassifier(cfg, &stubCompleter{}, nil)
	if c.loc != time.UTC {
		t.Errorf("loc = %v, want UTC", c.loc)
	}
}
