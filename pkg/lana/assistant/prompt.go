package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/store"
)

// whenLayouts are the timestamp shapes the model produces for dates. Entity
// dates are stored verbatim, so parsing has to be lenient.
var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseWhen parses an entity date string leniently. Returns false for
// anything unparseable.
func ParseWhen(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatUserContext renders the digest of the user's open items that gets
// embedded in the classifier prompt: active tasks plus the next five
// upcoming events sorted ascending by date.
func formatUserContext(user *store.UserRecord, now time.Time, loc *time.Location) string {
	var tasks []string
	for _, t := range user.Todos {
		if t.Completed {
			continue
		}
		tasks = append(tasks, fmt.Sprintf("- [Task] %s (%s)", t.Title, t.Priority))
	}

	type datedEvent struct {
		event store.Event
		when  time.Time
	}
	var upcoming []datedEvent
	for _, e := range user.Events {
		when, ok := ParseWhen(e.Date, loc)
		if !ok || when.Before(now) {
			continue
		}
		upcoming = append(upcoming, datedEvent{event: e, when: when})
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].when.Before(upcoming[j].when) })
	if len(upcoming) > 5 {
		upcoming = upcoming[:5]
	}

	var events []string
	for _, de := range upcoming {
		events = append(events, fmt.Sprintf("- [Event] %s at %s",
			de.event.Title, de.when.In(loc).Format("02.01.2006 15:04")))
	}

	taskBlock := "No active tasks"
	if len(tasks) > 0 {
		taskBlock = strings.Join(tasks, "\n")
	}
	eventBlock := "No upcoming events"
	if len(events) > 0 {
		eventBlock = strings.Join(events, "\n")
	}

	return fmt.Sprintf("USER DATA CONTEXT:\nTodos:\n%s\n\nUpcoming Events:\n%s", taskBlock, eventBlock)
}

// systemPrompt builds the classifier system prompt: identity, current time
// in the reference timezone, the user digest, and the enumerated action set.
func systemPrompt(cfg *Config, now time.Time, loc *time.Location, digest string) string {
	humanDate := now.In(loc).Format("Monday, 2 January 2006, 15:04")

	return fmt.Sprintf(`Role: You are %s, a smart, friendly, and structured Personal Assistant.
CURRENT DATE/TIME (%s): %s.
%s
YOUR GOAL: Analyze user input, decide ACTION, and generate a BEAUTIFUL response in %s using Markdown V1.

POSSIBLE ACTIONS (Return JSON with "action", "responseMessage" and "data"):
1. IF user wants to ADD/CREATE data: "create_event", "create_transaction", "create_task", "create_note".
2. IF user asks for LINK to the app: "send_link".
3. IF user wants to CHAT: "chat".

For "create_task", extract "title", optional "priority" (High/Medium/Low) and "description".
For "create_event", extract "title" and "date" (ISO format).
For "create_note", extract "content".
For "create_transaction", extract "amount", "category", "type" (expense/income).`,
		cfg.Name, cfg.Timezone, humanDate, digest, responseLanguage(cfg.Language))
}

// responseLanguage maps a config language code to a prompt-friendly name.
func responseLanguage(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "ru", "ru-ru":
		return "Russian"
	case "en", "en-us", "en-gb":
		return "English"
	default:
		return code
	}
}
