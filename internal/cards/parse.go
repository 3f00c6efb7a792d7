package cards

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Fallback parse stages, in the order they are attempted.
const (
	StageStrict     = 1
	StageCleaned    = 2
	StageUltraClean = 3
	StageHeuristic  = 4
)

var (
	newlineRe      = regexp.MustCompile(`[\r\n]+`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
	bareKeyRe      = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	anyKeyRe       = regexp.MustCompile(`([{,]\s*)["']?([A-Za-z0-9_][A-Za-z0-9_ \-]*?)["']?\s*:`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	bareWordValRe  = regexp.MustCompile(`:\s*([A-Za-z][A-Za-z0-9_ .\-]*?)\s*([,}\]])`)
	pythonLiterals = strings.NewReplacer("True", "true", "False", "false", "None", "null")
	pairRe         = regexp.MustCompile(`"?([A-Za-z_][A-Za-z0-9_]*)"?\s*:\s*("(?:[^"\\]|\\.)*"|\{[^{}]*\}|\[[^\[\]]*\]|-?\d+(?:\.\d+)?|true|false|null)`)
)

// ParseLoose turns JSON-ish text into an object, trying progressively more
// forgiving strategies. It reports the stage that succeeded so callers and
// tests can observe that cheaper stages short-circuit the expensive ones.
// An empty object is a failure at every stage.
func ParseLoose(text string) (map[string]any, int, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, 0, false
	}

	if m, ok := tryStrict(trimmed); ok {
		return m, StageStrict, true
	}

	cleaned := CleanJSON(trimmed)
	if m, ok := tryStrict(cleaned); ok {
		return m, StageCleaned, true
	}

	if m, ok := tryStrict(ultraClean(cleaned)); ok {
		return m, StageUltraClean, true
	}

	if m := scrapePairs(cleaned); len(m) > 0 {
		return m, StageHeuristic, true
	}

	return nil, 0, false
}

func tryStrict(text string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	return m, true
}

// CleanJSON applies the standard repairs for model-written payloads:
// newlines collapsed, single quotes swapped for double, bare keys quoted,
// trailing commas removed. The result is not guaranteed to parse; it is
// one rung of the ladder.
func CleanJSON(text string) string {
	s := newlineRe.ReplaceAllString(text, " ")
	s = strings.ReplaceAll(s, "'", `"`)
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingComma.ReplaceAllString(s, "$1")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return s
}

// ultraClean goes further than CleanJSON: keys with stray or mismatched
// quoting are requoted wholesale, Python literals become JSON ones, and
// bare word values get quotes.
func ultraClean(cleaned string) string {
	s := anyKeyRe.ReplaceAllString(cleaned, `$1"$2":`)
	s = pythonLiterals.Replace(s)
	s = bareWordValRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := bareWordValRe.FindStringSubmatch(match)
		word := strings.TrimSpace(sub[1])
		switch word {
		case "true", "false", "null":
			return match
		}
		return `: "` + word + `"` + sub[2]
	})
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// scrapePairs is the last rung: pull whatever key/value pairs a regex can
// find out of the cleaned text. Quoted numerics are coerced to numbers so
// downstream rendering sees consistent types.
func scrapePairs(cleaned string) map[string]any {
	matches := pairRe.FindAllStringSubmatch(cleaned, -1)
	if len(matches) == 0 {
		return nil
	}

	m := make(map[string]any, len(matches))
	for _, match := range matches {
		key := match[1]
		m[key] = scrapeValue(match[2])
	}
	return m
}

func scrapeValue(raw string) any {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			if n, err := strconv.ParseFloat(s, 64); err == nil && s != "" {
				return n
			}
			return s
		}
		return strings.Trim(raw, `"`)
	}

	if strings.HasPrefix(raw, "{") {
		if nested, _, ok := ParseLoose(raw); ok {
			return nested
		}
		return raw
	}

	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr
		}
		return raw
	}

	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return strings.Trim(raw, `" `)
}
