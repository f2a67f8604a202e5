// Package sentinel defines the placeholder token grammar shared by the
// freezer, translation driver, normalizer, and projector: control tokens for
// layout, numbered non-translatable tokens, and segmentation markers.
package sentinel

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	Tab = "<<MT_TAB>>"
	Br  = "<<MT_BR>>"
	Nbh = "<<MT_NBH>>"
	Shy = "<<MT_SHY>>"
)

// NTToken renders the canonical numbered non-translatable token for index n
// (1-based, zero-padded to 4 digits).
func NTToken(n int) string {
	return fmt.Sprintf("<<MT_NT:%04d>>", n)
}

// SegToken and EndToken render the (currently unused) segmentation markers.
func SegToken(n int) string { return fmt.Sprintf("<<MT_SEG:%06d>>", n) }
func EndToken(n int) string { return fmt.Sprintf("<<MT_END:%06d>>", n) }

var (
	anySentinelRe  = regexp.MustCompile(`<<MT_(?:TAB|BR|NBH|SHY|NT:\d{4}|SEG:\d{6}|END:\d{6})>>`)
	controlTokenRe = regexp.MustCompile(`<<MT_(?:TAB|BR|NBH|SHY)>>`)
	ntTokenRe      = regexp.MustCompile(`<<MT_NT:(\d{4})>>`)
	segTokenRe     = regexp.MustCompile(`<<MT_SEG:(\d{6})>>`)
	endTokenRe     = regexp.MustCompile(`<<MT_END:(\d{6})>>`)

	// altBracketPairs maps alternate open/close bracket pairs models
	// sometimes substitute for the canonical "<<" / ">>" delimiters.
	altBracketPairs = []struct{ open, close, canonOpen, canonClose string }{
		{"【", "】", "<<", ">>"},
		{"〈", "〉", "<<", ">>"},
		{"[[", "]]", "<<", ">>"},
		{"《", "》", "<<", ">>"},
	}

	// altTagRe matches an alt-bracketed tag body like "MT_TAB" or
	// "MT_NT:0001" so it can be re-wrapped in canonical brackets.
	altTagRe = regexp.MustCompile(`MT_(?:TAB|BR|NBH|SHY|NT:\d{4}|SEG:\d{6}|END:\d{6})`)
)

// AnySentinelPattern returns the compiled pattern matching any canonical
// sentinel token.
func AnySentinelPattern() *regexp.Regexp { return anySentinelRe }

// IsControl reports whether s is exactly one of the four control tokens.
func IsControl(s string) bool {
	switch s {
	case Tab, Br, Nbh, Shy:
		return true
	default:
		return false
	}
}

// ControlTokensFromText extracts the ordered subsequence of control tokens
// (TAB/BR/NBH/SHY) appearing in text, ignoring NT/SEG/END tokens.
func ControlTokensFromText(text string) []string {
	matches := controlTokenRe.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}

// DecodeFromModel normalizes alternate bracketings a model may emit back to
// the canonical "<<MT_...>>" form. Idempotent: calling it twice yields the
// same result as calling it once. Unknown text is preserved verbatim.
func DecodeFromModel(text string) string {
	out := text
	for _, pair := range altBracketPairs {
		if !strings.Contains(out, pair.open) {
			continue
		}
		out = replaceAltBracketed(out, pair.open, pair.close)
	}
	return out
}

func replaceAltBracketed(text, open, close string) string {
	var b strings.Builder
	rest := text
	for {
		i := strings.Index(rest, open)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		afterOpen := rest[i+len(open):]
		j := strings.Index(afterOpen, close)
		if j < 0 {
			// no matching close; leave verbatim
			b.WriteString(rest[i:])
			break
		}
		body := afterOpen[:j]
		if altTagRe.FindString(body) == body {
			b.WriteString("<<")
			b.WriteString(body)
			b.WriteString(">>")
		} else {
			// not a sentinel body; preserve the bracketed text as-is
			b.WriteString(open)
			b.WriteString(body)
			b.WriteString(close)
		}
		rest = afterOpen[j+len(close):]
	}
	return b.String()
}

// ParseSegmented parses a multi-segment model output delimited by
// SEG/END markers, returning each segment's inner text in order. Used only
// for future multi-TU batching; today every TU is a single implicit
// segment and callers pass a nil expectedIDs to skip marker validation.
func ParseSegmented(text string, expectedIDs []int) ([]string, error) {
	if len(expectedIDs) == 0 {
		return []string{text}, nil
	}
	var segments []string
	rest := text
	for _, id := range expectedIDs {
		seg := SegToken(id)
		end := EndToken(id)
		si := strings.Index(rest, seg)
		if si < 0 {
			return nil, fmt.Errorf("sentinel: missing segment marker %s", seg)
		}
		ei := strings.Index(rest[si+len(seg):], end)
		if ei < 0 {
			return nil, fmt.Errorf("sentinel: missing end marker %s", end)
		}
		body := rest[si+len(seg) : si+len(seg)+ei]
		segments = append(segments, body)
		rest = rest[si+len(seg)+ei+len(end):]
	}
	return segments, nil
}

// NTIndex extracts the numeric index from a canonical NT token, or -1 if s
// is not an NT token.
func NTIndex(s string) int {
	m := ntTokenRe.FindStringSubmatch(s)
	if m == nil {
		return -1
	}
	var n int
	fmt.Sscanf(m[1], "%04d", &n)
	return n
}

// AllNTTokens returns every NT token found in text, in order, including
// duplicates.
func AllNTTokens(text string) []string {
	return ntTokenRe.FindAllString(text, -1)
}
