package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lanatodoo/lana/pkg/lana/llm"
)

// TipFallback is returned when tip generation fails.
const TipFallback = "Хорошего дня!"

// AnalyzeBudget runs the dedicated financial prompt that extracts a
// transaction shape from free text. Returns nil on any failure — the HTTP
// surface renders that as an empty object, never an error.
func (a *Assistant) AnalyzeBudget(ctx context.Context, text string) map[string]any {
	system := fmt.Sprintf(`Role: Financial Assistant.
Current Date: %s.
Task: Analyze text and extract transaction details.
Return JSON:
{
    "amount": number,
    "category": "string (Short Russian category)",
    "description": "string",
    "date": "ISO string",
    "type": "income" | "expense"
}
Keywords for Expense: купил, потратил, минус, оплатил, такси, еда.
Keywords for Income: получил, зарплата, плюс, пришло, перевод.`,
		time.Now().UTC().Format(time.RFC3339))

	reply, err := a.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	}, llm.Options{JSONOnly: true})
	if err != nil {
		a.logger.Error("budget analysis failed", "error", err)
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(reply), &result); err != nil {
		a.logger.Error("budget analysis reply rejected", "error", err)
		return nil
	}
	return result
}

// GenerateTip produces a short motivational tip for the dashboard.
func (a *Assistant) GenerateTip(ctx context.Context, summary string) string {
	reply, err := a.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful assistant. Provide a very short (max 15 words) motivational tip in Russian."},
		{Role: "user", Content: "User Status: " + summary},
	}, llm.Options{})
	if err != nil {
		a.logger.Error("tip generation failed", "error", err)
		return TipFallback
	}
	return strings.ReplaceAll(reply, `"`, "")
}

// MorningGreeting words the daily digest greeting for a user with the given
// number of events today.
func (a *Assistant) MorningGreeting(ctx context.Context, eventsCount int) string {
	reply, err := a.llm.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: fmt.Sprintf("Generate a short morning greeting in Russian for a user with %d events. Use emojis.", eventsCount)},
	}, llm.Options{MaxTokens: 150})
	if err != nil {
		a.logger.Error("morning greeting failed", "error", err)
		return fmt.Sprintf("Доброе утро! ☀️ У вас сегодня %d событий.", eventsCount)
	}
	return reply
}
