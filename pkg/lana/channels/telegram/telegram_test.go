package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/channels"
)

// fakeBotAPI serves just enough of the Bot API for the channel: getMe
// succeeds, getUpdates blocks briefly and returns nothing, and sendMessage
// behavior is pluggable.
type fakeBotAPI struct {
	mu       sync.Mutex
	sends    []map[string]any
	rejectMD bool
}

func (f *fakeBotAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"username":"lana_bot"}}`))

		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			time.Sleep(50 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))

		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			f.mu.Lock()
			f.sends = append(f.sends, payload)
			f.mu.Unlock()
			if f.rejectMD && payload["parse_mode"] == "Markdown" {
				w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":{}}`))

		case strings.HasSuffix(r.URL.Path, "/sendChatAction"):
			w.Write([]byte(`{"ok":true,"result":true}`))

		default:
			w.Write([]byte(`{"ok":false,"description":"unknown method"}`))
		}
	})
}

func (f *fakeBotAPI) sent() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.sends...)
}

func newConnectedChannel(t *testing.T, api *fakeBotAPI) *Telegram {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Token = "123:test"
	cfg.BaseURL = srv.URL

	tg := New(cfg, nil)
	if err := tg.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { tg.Disconnect() })
	return tg
}

func TestConnectRequiresToken(t *testing.T) {
	tg := New(DefaultConfig(), nil)
	if err := tg.Connect(context.Background()); err == nil {
		t.Fatal("expected error without a token")
	}
}

func TestSendMarkdown(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newConnectedChannel(t, api)

	err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{
		Content:  "*Готово!*",
		Markdown: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	sends := api.sent()
	if len(sends) != 1 {
		t.Fatalf("got %d sends, want 1", len(sends))
	}
	if sends[0]["parse_mode"] != "Markdown" {
		t.Error("markdown flag should set parse_mode")
	}
	if sends[0]["chat_id"] != float64(42) {
		t.Errorf("chat_id = %v", sends[0]["chat_id"])
	}
}

func TestSendMarkdownRejectedFallsBackToPlain(t *testing.T) {
	api := &fakeBotAPI{rejectMD: true}
	tg := newConnectedChannel(t, api)

	err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{
		Content:  "_unbalanced",
		Markdown: true,
	})
	if err != nil {
		t.Fatalf("Send should succeed via plain retry: %v", err)
	}

	sends := api.sent()
	if len(sends) != 2 {
		t.Fatalf("got %d sends, want markdown attempt + plain retry", len(sends))
	}
	if _, ok := sends[1]["parse_mode"]; ok {
		t.Error("retry must drop parse_mode")
	}
	if sends[1]["text"] != "_unbalanced" {
		t.Errorf("retry text = %v", sends[1]["text"])
	}
}

func TestSendWebAppButton(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newConnectedChannel(t, api)

	err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{
		Content: "Держи ссылку:",
		Buttons: []channels.Button{{Text: "🚀 Открыть приложение", WebAppURL: "https://app.example"}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	sends := api.sent()
	markup, ok := sends[0]["reply_markup"].(map[string]any)
	if !ok {
		t.Fatal("reply_markup missing")
	}
	rows := markup["inline_keyboard"].([]any)
	btn := rows[0].([]any)[0].(map[string]any)
	webApp, ok := btn["web_app"].(map[string]any)
	if !ok || webApp["url"] != "https://app.example" {
		t.Errorf("unexpected button: %v", btn)
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	tg := New(Config{Token: "123:test"}, nil)
	err := tg.Send(context.Background(), "42", &channels.OutgoingMessage{Content: "hi"})
	if err != channels.ErrChannelDisconnected {
		t.Errorf("err = %v, want ErrChannelDisconnected", err)
	}
}

func TestProcessUpdateCommandDetection(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newConnectedChannel(t, api)

	tg.processUpdate(tgUpdate{
		UpdateID: 1,
		Message: &tgMessage{
			MessageID: 7,
			From:      &tgUser{ID: 42, FirstName: "Анна"},
			Chat:      tgChat{ID: 42, Type: "private"},
			Date:      1756600000,
			Text:      "/start",
		},
	})

	select {
	case msg := <-tg.Receive():
		if !msg.IsCommand {
			t.Error("/start should be flagged as a command")
		}
		if msg.From != "42" || msg.ChatID != "42" {
			t.Errorf("From = %q, ChatID = %q", msg.From, msg.ChatID)
		}
		if msg.FromName != "Анна" {
			t.Errorf("FromName = %q", msg.FromName)
		}
	case <-time.After(time.Second):
		t.Fatal("no message forwarded")
	}
}

func TestProcessUpdateSkipsNonText(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newConnectedChannel(t, api)

	tg.processUpdate(tgUpdate{UpdateID: 2, Message: nil})
	tg.processUpdate(tgUpdate{UpdateID: 3, Message: &tgMessage{MessageID: 8, Chat: tgChat{ID: 1}}})

	select {
	case msg := <-tg.Receive():
		t.Errorf("unexpected message forwarded: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
