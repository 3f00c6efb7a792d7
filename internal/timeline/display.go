package timeline

import (
	"fmt"
	"strings"
	"unicode"
)

// Per-tool status phrasing. Start text is derived from the tool's input
// when the invocation is recorded; completion text replaces it when the
// result arrives. Tools without an entry fall back to the humanized name.

type displayEntry struct {
	start func(input map[string]any) string
	done  func(input, output map[string]any) string
}

var displayTable = map[string]displayEntry{
	"search_restaurants":        {start: searchStart, done: searchDone},
	"search_restaurants_direct": {start: searchStart, done: searchDone},
	"search_food_items": {
		start: func(input map[string]any) string {
			if q := stringField(input, "query"); q != "" {
				return fmt.Sprintf("Looking for dishes matching %s…", q)
			}
			return "Looking for dishes…"
		},
		done: func(input, output map[string]any) string {
			q := stringField(input, "query")
			if n, ok := resultCount(output); ok && q != "" {
				return fmt.Sprintf("Found %d dishes matching %q", n, q)
			}
			return "Dish search complete"
		},
	},
	"search_food_items_enhanced": {
		start: func(input map[string]any) string {
			if q := stringField(input, "query"); q != "" {
				return fmt.Sprintf("Looking for dishes matching %s…", q)
			}
			return "Looking for dishes…"
		},
		done: func(input, output map[string]any) string {
			return "Dish search complete"
		},
	},
	"get_restaurant_menu": {
		start: func(input map[string]any) string { return "Fetching the menu…" },
		done: func(input, output map[string]any) string {
			if n, ok := arrayLen(output, "menu"); ok {
				return fmt.Sprintf("Menu loaded: %d items", n)
			}
			return "Menu loaded"
		},
	},
	"get_order_details": {
		start: func(input map[string]any) string {
			if id := stringField(input, "order_id"); id != "" {
				return fmt.Sprintf("Looking up order %s…", id)
			}
			return "Looking up your order…"
		},
		done: func(input, output map[string]any) string { return "Order details retrieved" },
	},
	"initiate_refund": {
		start: func(input map[string]any) string {
			if id := stringField(input, "order_id"); id != "" {
				return fmt.Sprintf("Processing refund for order %s…", id)
			}
			return "Processing your refund…"
		},
		done: func(input, output map[string]any) string { return "Refund request submitted" },
	},
	"verify_refund_image": {
		start: func(input map[string]any) string { return "Verifying your photo…" },
		done:  func(input, output map[string]any) string { return "Photo verification complete" },
	},
	"analyze_medical_document": {
		start: func(input map[string]any) string { return "Analyzing your document…" },
		done:  func(input, output map[string]any) string { return "Document analysis complete" },
	},
	"get_dietary_recommendations": {
		start: func(input map[string]any) string { return "Putting together dietary suggestions…" },
		done:  func(input, output map[string]any) string { return "Dietary suggestions ready" },
	},
	"create_refund_workflow": {
		start: func(input map[string]any) string { return "Opening a refund case…" },
		done:  func(input, output map[string]any) string { return "Refund case opened" },
	},
	"update_refund_workflow": {
		start: func(input map[string]any) string { return "Updating your refund case…" },
		done:  func(input, output map[string]any) string { return "Refund case updated" },
	},
	"get_refund_workflow_state": {
		start: func(input map[string]any) string { return "Checking your refund case…" },
		done:  func(input, output map[string]any) string { return "Refund case status retrieved" },
	},
	"process_refund_decision": {
		start: func(input map[string]any) string { return "Finalizing the refund decision…" },
		done:  func(input, output map[string]any) string { return "Refund decision recorded" },
	},
}

func searchStart(input map[string]any) string {
	if q := stringField(input, "query"); q != "" {
		return fmt.Sprintf("Searching for %s nearby…", q)
	}
	return "Searching for restaurants nearby…"
}

func searchDone(input, output map[string]any) string {
	q := stringField(input, "query")
	if n, ok := resultCount(output); ok && q != "" {
		return fmt.Sprintf("Found %d restaurants matching %q", n, q)
	}
	return "Restaurant search complete"
}

func startText(tool string, input map[string]any) string {
	if entry, ok := displayTable[tool]; ok {
		return entry.start(input)
	}
	return fmt.Sprintf("Using %s…", Humanize(tool))
}

func doneText(tool string, input, output map[string]any) string {
	if entry, ok := displayTable[tool]; ok {
		return entry.done(input, output)
	}
	return fmt.Sprintf("%s finished", Humanize(tool))
}

// Humanize renders a snake_case tool name for display: underscores become
// spaces and each word is capitalized.
func Humanize(tool string) string {
	words := strings.Split(tool, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func resultCount(output map[string]any) (int, bool) {
	if n, ok := arrayLen(output, "results"); ok {
		return n, true
	}
	return arrayLen(output, "restaurants")
}

func arrayLen(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	arr, ok := m[key].([]any)
	if !ok {
		return 0, false
	}
	return len(arr), true
}
