package cards

import (
	"regexp"
	"strings"
)

// Segment is one slice of an assistant message: either prose or a decoded
// card. Order is preserved so the renderer can interleave them.
type Segment struct {
	Prose string
	Card  *Item
}

var openMarkerRe = regexp.MustCompile(`(:{2,5})\s*([a-z_][a-z0-9_]*)\s*\{|\[([a-z_][a-z0-9_]*)\]\s*\{`)

var closeColonRe = regexp.MustCompile(`^\s*:{2,5}`)

// Split scans prose for embedded card markup and returns the interleaved
// segments. A candidate whose body never balances or fails every parse
// stage stays in the prose exactly as written. Tags outside the known set
// are not candidates at all.
func Split(text string) []Segment {
	var segs []Segment
	proseStart := 0
	pos := 0

	for pos < len(text) {
		start, tag, braceIdx, found := findCandidate(text, pos)
		if !found {
			break
		}

		body, bodyEnd, balanced := balancedBody(text, braceIdx)
		if !balanced {
			// No closing brace anywhere; the marker stays prose and
			// scanning resumes inside the would-be body.
			pos = braceIdx + 1
			continue
		}

		end := consumeCloser(text, bodyEnd, tag)

		data, _, ok := ParseLoose(body)
		if !ok {
			pos = end
			continue
		}

		if start > proseStart {
			segs = append(segs, Segment{Prose: text[proseStart:start]})
		}
		segs = append(segs, Segment{Card: &Item{Type: tag, Data: data}})
		proseStart = end
		pos = end
	}

	if proseStart < len(text) {
		segs = append(segs, Segment{Prose: text[proseStart:]})
	}
	return segs
}

// findCandidate locates the next opening marker with a known tag at or
// after pos. It returns the marker's start, the tag, and the index of the
// opening brace.
func findCandidate(text string, pos int) (start int, tag string, braceIdx int, found bool) {
	for pos < len(text) {
		loc := openMarkerRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return 0, "", 0, false
		}

		matchStart := pos + loc[0]
		matchEnd := pos + loc[1]

		var t string
		if loc[4] >= 0 { // colon form
			t = text[pos+loc[4] : pos+loc[5]]
		} else { // bracket form
			t = text[pos+loc[6] : pos+loc[7]]
		}

		if !KnownType(t) {
			pos = matchStart + 1
			continue
		}
		// The regex ends at the opening brace.
		return matchStart, t, matchEnd - 1, true
	}
	return 0, "", 0, false
}

// balancedBody extracts the brace-delimited body starting at braceIdx,
// counting depth while skipping braces inside double-quoted strings. The
// returned body includes the outer braces.
func balancedBody(text string, braceIdx int) (string, int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := braceIdx; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[braceIdx : i+1], i + 1, true
				}
			}
		}
	}
	return "", 0, false
}

// consumeCloser swallows the closing marker after the body when present:
// a short run of colons or the matching [/tag].
func consumeCloser(text string, bodyEnd int, tag string) int {
	rest := text[bodyEnd:]

	if loc := closeColonRe.FindStringIndex(rest); loc != nil {
		return bodyEnd + loc[1]
	}

	trimmed := strings.TrimLeft(rest, " \t")
	closer := "[/" + tag + "]"
	if strings.HasPrefix(trimmed, closer) {
		return bodyEnd + (len(rest) - len(trimmed)) + len(closer)
	}
	return bodyEnd
}
