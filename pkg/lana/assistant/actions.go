package assistant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the action variants the classifier can produce.
type Kind string

const (
	KindCreateTask        Kind = "create_task"
	KindCreateTransaction Kind = "create_transaction"
	KindCreateEvent       Kind = "create_event"
	KindCreateNote        Kind = "create_note"
	KindSendLink          Kind = "send_link"
	KindChat              Kind = "chat"
)

// Action is the classified, structured representation of user intent.
// Exactly one payload field is set, matching Kind; Chat and SendLink carry
// only the response message.
type Action struct {
	Kind            Kind
	ResponseMessage string

	Task        *TaskData
	Transaction *TransactionData
	Event       *EventData
	Note        *NoteData
}

// TaskData is the payload for create_task.
type TaskData struct {
	Title       string `json:"title"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description,omitempty"`
}

// TransactionData is the payload for create_transaction.
type TransactionData struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
	Type        string  `json:"type"`
}

// EventData is the payload for create_event.
type EventData struct {
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
}

// NoteData is the payload for create_note.
type NoteData struct {
	Content string `json:"content"`
}

// actionEnvelope is the wire shape the model replies with. Payload fields
// normally live under "data", but some models flatten them to the top level,
// so the raw object is kept as a fallback payload source.
type actionEnvelope struct {
	Action          string          `json:"action"`
	ResponseMessage string          `json:"responseMessage"`
	Data            json.RawMessage `json:"data"`
}

// flexNumber accepts a JSON number, a numeric string, or null.
// The model is not reliable about quoting amounts.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("amount is not a number: %q", s)
	}
	*n = flexNumber(v)
	return nil
}

// ParseAction validates a model reply against the closed set of action
// variants. Unrecognized tags and missing mandatory fields are errors —
// callers fall back to a Chat action rather than trusting the shape.
func ParseAction(raw string) (*Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}

	payload := env.Data
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage(raw)
	}

	action := &Action{
		Kind:            Kind(strings.TrimSpace(env.Action)),
		ResponseMessage: env.ResponseMessage,
	}

	switch action.Kind {
	case KindCreateTask:
		var data struct {
			Title       string `json:"title"`
			Priority    string `json:"priority"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("decoding task payload: %w", err)
		}
		if strings.TrimSpace(data.Title) == "" {
			return nil, fmt.Errorf("create_task: title is required")
		}
		action.Task = &TaskData{
			Title:       strings.TrimSpace(data.Title),
			Priority:    data.Priority,
			Description: data.Description,
		}

	case KindCreateTransaction:
		var data struct {
			Amount      flexNumber `json:"amount"`
			Category    string     `json:"category"`
			Description string     `json:"description"`
			Date        string     `json:"date"`
			Type        string     `json:"type"`
		}
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("decoding transaction payload: %w", err)
		}
		action.Transaction = &TransactionData{
			Amount:      float64(data.Amount),
			Category:    data.Category,
			Description: data.Description,
			Date:        data.Date,
			Type:        data.Type,
		}

	case KindCreateEvent:
		var data struct {
			Title string `json:"title"`
			Date  string `json:"date"`
		}
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("decoding event payload: %w", err)
		}
		if strings.TrimSpace(data.Title) == "" {
			return nil, fmt.Errorf("create_event: title is required")
		}
		action.Event = &EventData{
			Title: strings.TrimSpace(data.Title),
			Date:  data.Date,
		}

	case KindCreateNote:
		var data struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("decoding note payload: %w", err)
		}
		if strings.TrimSpace(data.Content) == "" {
			return nil, fmt.Errorf("create_note: content is required")
		}
		action.Note = &NoteData{Content: data.Content}

	case KindSendLink, KindChat:
		// Message-only variants.

	default:
		return nil, fmt.Errorf("unrecognized action tag %q", env.Action)
	}

	return action, nil
}

// MarshalJSON renders the action back into the wire envelope, so /api/analyze
// returns the same shape the web client already consumes.
func (a *Action) MarshalJSON() ([]byte, error) {
	env := map[string]any{
		"action": a.Kind,
	}
	if a.ResponseMessage != "" {
		env["responseMessage"] = a.ResponseMessage
	}
	switch {
	case a.Task != nil:
		env["data"] = a.Task
	case a.Transaction != nil:
		env["data"] = a.Transaction
	case a.Event != nil:
		env["data"] = a.Event
	case a.Note != nil:
		env["data"] = a.Note
	}
	return json.Marshal(env)
}
