package assistant

import (
	"encoding/json"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Kind
		wantErr bool
	}{
		{
			name: "task with data",
			raw:  `{"action":"create_task","responseMessage":"Добавила!","data":{"title":"Купить молоко","priority":"High"}}`,
			want: KindCreateTask,
		},
		{
			name: "transaction with numeric amount",
			raw:  `{"action":"create_transaction","data":{"amount":500,"category":"Такси","type":"expense"}}`,
			want: KindCreateTransaction,
		},
		{
			name: "transaction with quoted amount",
			raw:  `{"action":"create_transaction","data":{"amount":"1500.50","category":"Еда","type":"expense"}}`,
			want: KindCreateTransaction,
		},
		{
			name: "fields flattened to top level",
			raw:  `{"action":"create_note","responseMessage":"Записала","content":"идея для подарка"}`,
			want: KindCreateNote,
		},
		{
			name: "event",
			raw:  `{"action":"create_event","data":{"title":"Встреча","date":"2026-09-01T15:00:00"}}`,
			want: KindCreateEvent,
		},
		{
			name: "chat",
			raw:  `{"action":"chat","responseMessage":"Привет!"}`,
			want: KindChat,
		},
		{
			name: "send_link",
			raw:  `{"action":"send_link","responseMessage":"Держи"}`,
			want: KindSendLink,
		},
		{
			name:    "unknown action tag",
			raw:     `{"action":"delete_everything","data":{}}`,
			wantErr: true,
		},
		{
			name:    "task without title",
			raw:     `{"action":"create_task","data":{"priority":"High"}}`,
			wantErr: true,
		},
		{
			name:    "note without content",
			raw:     `{"action":"create_note","data":{}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `sure, here is your JSON: {...}`,
			wantErr: true,
		},
		{
			name:    "empty action tag",
			raw:     `{"responseMessage":"hm"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", action)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if action.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", action.Kind, tt.want)
			}
		})
	}
}

func TestParseActionAmountDefaultsToZero(t *testing.T) {
	action, err := ParseAction(`{"action":"create_transaction","data":{"category":"Прочее","type":"expense"}}`)
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if action.Transaction.Amount != 0 {
		t.Errorf("Amount = %v, want 0", action.Transaction.Amount)
	}
}

func TestActionMarshalRoundTrip(t *testing.T) {
	action := &Action{
		Kind:            KindCreateTransaction,
		ResponseMessage: "Записала расход",
		Transaction:     &TransactionData{Amount: 500, Category: "Такси", Type: "expense"},
	}
	data, err := json.Marshal(action)
	if err != nil {
		t.Fatal(err)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if string(env["action"]) != `"create_transaction"` {
		t.Errorf("action tag = %s", env["action"])
	}
	if _, ok := env["data"]; !ok {
		t.Error("data payload missing")
	}

	parsed, err := ParseAction(string(data))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if parsed.Transaction.Amount != 500 || parsed.Transaction.Category != "Такси" {
		t.Errorf("round trip lost fields: %+v", parsed.Transaction)
	}
}
