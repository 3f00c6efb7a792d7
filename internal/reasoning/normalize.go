// Package reasoning cleans the agent's intermediate thought text for
// display. Thoughts arrive as raw planner output and often trail off into
// serialized tool-call structures; the normalizer keeps the human-readable
// prefix, recovers the fragments worth keeping, and extracts a best-effort
// tool call when the text carries one.
package reasoning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gd03champ/swiggy-ai-agent/internal/cards"
)

// ToolCall is a tool invocation recovered from raw thought text. Input may
// be nil when the parameters could not be parsed.
type ToolCall struct {
	Name  string
	Input map[string]any
}

// Result is the outcome of normalizing one reasoning step.
type Result struct {
	Cleaned  string
	ToolCall *ToolCall
}

var (
	// Markers that something serialized is starting mid-prose.
	structureOnsetRe = regexp.MustCompile(`'\s*,\s*'|"\s*,\s*"|'\{|"\{|\{'|\{"|\[\{`)

	invokingRe  = regexp.MustCompile("Invoking:?\\s+`?([A-Za-z0-9_\\-]+)`?\\s+with\\s+`?(.*?)`?\\s*$")
	respondedRe = regexp.MustCompile(`['"]type['"]\s*:\s*['"]text['"]\s*,\s*['"]text['"]\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)

	toolNameRe  = regexp.MustCompile(`['"]name['"]\s*:\s*['"]([A-Za-z0-9_\-]+)['"]`)
	toolInputRe = regexp.MustCompile(`['"](?:partial_json|input)['"]\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"|(\{))`)

	blankRunsRe         = regexp.MustCompile(`\n{3,}`)
	danglingRespondedRe = regexp.MustCompile(`(?i)responded:?\s*$`)

	unescaper = strings.NewReplacer(`\n`, "\n", `\"`, `"`, `\'`, "'")
)

// Normalize cleans one raw thought. step numbers the reasoning step within
// the turn and seeds the placeholder when nothing readable survives.
func Normalize(raw string, step int) Result {
	res := Result{ToolCall: extractToolCall(raw)}

	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		res.Cleaned = placeholder(step)
		return res
	}

	var recovered []string

	if loc := invokingRe.FindStringSubmatchIndex(cleaned); loc != nil {
		name := cleaned[loc[2]:loc[3]]
		params := strings.TrimSpace(cleaned[loc[4]:loc[5]])
		line := "Invoking " + name
		if params != "" {
			line += " with " + params
		}
		recovered = append(recovered, line)
		cleaned = cleaned[:loc[0]]
	}

	if m := respondedRe.FindStringSubmatch(cleaned); m != nil {
		text := m[1]
		if text == "" {
			text = m[2]
		}
		if text = strings.TrimSpace(unescaper.Replace(text)); text != "" {
			recovered = append(recovered, text)
		}
	}

	cleaned = truncateAtOnset(cleaned)
	cleaned = danglingRespondedRe.ReplaceAllString(cleaned, "")
	cleaned = unescaper.Replace(cleaned)
	cleaned = blankRunsRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	parts := make([]string, 0, 1+len(recovered))
	if cleaned != "" {
		parts = append(parts, cleaned)
	}
	parts = append(parts, recovered...)

	res.Cleaned = strings.Join(parts, "\n\n")
	if res.Cleaned == "" {
		res.Cleaned = placeholder(step)
	}
	return res
}

func placeholder(step int) string {
	return fmt.Sprintf("Step %d", step)
}

// truncateAtOnset cuts the text at the earliest sign of a serialized
// collection so half a payload never reaches the user.
func truncateAtOnset(text string) string {
	if loc := structureOnsetRe.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// extractToolCall pulls a tool name and input out of a serialized
// tool_use block. Extraction is best effort: a missing or unparseable
// input still yields the name, and nothing here ever fails the caller.
func extractToolCall(raw string) *ToolCall {
	if !strings.Contains(raw, "tool_use") {
		return nil
	}

	m := toolNameRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	call := &ToolCall{Name: m[1]}

	loc := toolInputRe.FindStringSubmatchIndex(raw)
	if loc == nil {
		return call
	}

	var inputText string
	switch {
	case loc[2] >= 0: // single-quoted value
		inputText = raw[loc[2]:loc[3]]
	case loc[4] >= 0: // double-quoted value
		inputText = raw[loc[4]:loc[5]]
	case loc[6] >= 0: // inline object, brace balanced
		inputText = balancedSpan(raw[loc[6]:])
	}

	inputText = unescaper.Replace(inputText)
	if input, _, ok := cards.ParseLoose(inputText); ok {
		call.Input = input
	}
	return call
}

// balancedSpan returns the prefix of text up to the brace that closes its
// first opening brace, or the whole text when unbalanced.
func balancedSpan(text string) string {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return text
}
