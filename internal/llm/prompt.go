package llm

import (
	"encoding/json"
	"strings"
)

const maxPromptTextChars = 6000

// BuildSystemPrompt composes the system message: output contract,
// currency default and line-item rules.
func BuildSystemPrompt(req NormalizeRequest) string {
	defCur := strings.TrimSpace(req.DefaultCurrency)
	if defCur == "" {
		defCur = "NOK"
	}

	parts := []string{
		"You are an invoice parser. Return ONLY JSON that matches the JSON Schema provided.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Currency must be a 3-letter ISO 4217 code; default to " + defCur + " if uncertain.",
		"All monetary values and quantities are decimal STRINGS with '.' as the decimal separator.",
		"Line category must be one of: inventory, expense, service.",
		"A heuristic draft extraction is included; correct it against the raw text, do not invent values that are not in the text.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packs the raw text, subject hint and heuristic draft
// into one user message, capping the raw text.
func BuildUserPrompt(req NormalizeRequest) string {
	draft, _ := json.Marshal(map[string]any{
		"header": req.DraftHeader,
		"lines":  req.DraftLines,
	})

	var b strings.Builder
	b.WriteString("Mail subject: ")
	b.WriteString(req.SubjectHint)
	b.WriteString("\n\nHeuristic draft:\n")
	b.Write(draft)
	b.WriteString("\n\nDocument text (first ~6k chars):\n")
	if len(req.Text) > maxPromptTextChars {
		b.WriteString(req.Text[:maxPromptTextChars])
	} else {
		b.WriteString(req.Text)
	}
	return b.String()
}
