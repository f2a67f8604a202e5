// Package textutil provides script detection, number tokenization, and
// small text heuristics shared by the freezer, normalizer, and quality
// evaluator.
package textutil

import (
	"regexp"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NumberTokenRe matches a run of ASCII digits optionally containing commas
// or a decimal point, e.g. "1,234.5" or "2002".
var NumberTokenRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// NumberTokens returns every number token in text, left to right.
func NumberTokens(text string) []string {
	return NumberTokenRe.FindAllString(text, -1)
}

// NumberMultiset counts occurrences of each distinct number token's digit
// sequence (commas stripped) so "1,234" and "1234" compare equal.
func NumberMultiset(text string) map[string]int {
	out := make(map[string]int)
	for _, tok := range NumberTokens(text) {
		out[stripGrouping(tok)]++
	}
	return out
}

func stripGrouping(tok string) string {
	out := make([]rune, 0, len(tok))
	for _, r := range tok {
		if r != ',' {
			out = append(out, r)
		}
	}
	return string(out)
}

// runeRange is an inclusive Unicode code point range.
type runeRange struct{ lo, hi rune }

var cjkIdeographRanges = []runeRange{
	{0x4E00, 0x9FFF}, {0x3400, 0x4DBF}, {0xF900, 0xFAFF},
}

var otherScriptRanges = []runeRange{
	{0x0400, 0x04FF}, // Cyrillic
	{0x0370, 0x03FF}, // Greek
	{0x0600, 0x06FF}, // Arabic
	{0x0590, 0x05FF}, // Hebrew
	{0x0900, 0x097F}, // Devanagari
	{0x0980, 0x09FF}, // Bengali
	{0x0E00, 0x0E7F}, // Thai
	{0xAC00, 0xD7A3}, // Hangul
	{0x3040, 0x309F}, // Hiragana
	{0x30A0, 0x30FF}, // Katakana
}

func inRanges(r rune, ranges []runeRange) bool {
	for _, rg := range ranges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

// IsCJK reports whether r is a CJK unified ideograph.
func IsCJK(r rune) bool { return inRanges(r, cjkIdeographRanges) }

// IsOtherScript reports whether r belongs to a script other than
// Latin/CJK that the freezer treats as opaque (Cyrillic, Greek, Arabic,
// Hebrew, Devanagari, Bengali, Thai, Hangul, Hiragana, Katakana).
func IsOtherScript(r rune) bool { return inRanges(r, otherScriptRanges) }

// ScriptCounts tallies Latin letters, CJK ideographs, and other-script
// characters in text.
type ScriptCounts struct {
	Latin int
	CJK   int
	Other int
	Total int
}

// CountScripts classifies every letter rune in text.
func CountScripts(text string) ScriptCounts {
	var c ScriptCounts
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		c.Total++
		switch {
		case IsCJK(r):
			c.CJK++
		case IsOtherScript(r):
			c.Other++
		case r < unicode.MaxLatin1 || unicode.Is(unicode.Latin, r):
			c.Latin++
		}
	}
	return c
}

// DetectLanguage makes a coarse en/zh guess from script composition. It
// returns "" when the text has no letters to judge from.
func DetectLanguage(text string) string {
	c := CountScripts(text)
	if c.Total == 0 {
		return ""
	}
	if c.CJK > c.Latin {
		return "zh"
	}
	return "en"
}

// NormalizeFullwidth converts fullwidth forms to their halfwidth
// equivalents and applies NFC normalization, matching the Unicode handling
// Python gets implicitly that Go's plain string type does not.
func NormalizeFullwidth(s string) string {
	s = width.Narrow.String(s)
	return norm.NFC.String(s)
}

// entitySuffixRe matches common corporate/entity-name suffixes that justify
// a Latin substring surviving untranslated inside otherwise-zh text.
var entitySuffixRe = regexp.MustCompile(`(?i)\b(Inc\.?|Ltd\.?|LLC|LLP|Corp\.?|Co\.?|GmbH|S\.A\.|N\.V\.)\s*$`)

// LooksLikeEntityName reports whether s has the shape of a proper noun with
// a legal-entity suffix, exempting it from source-echo detection.
func LooksLikeEntityName(s string) bool {
	return entitySuffixRe.MatchString(s)
}

// Preview truncates s to at most n runes for log lines, appending an
// ellipsis when truncated.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
