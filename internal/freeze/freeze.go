// Package freeze replaces non-translatable substrings of a translation
// unit's source text with numbered opaque tokens, recording originals in a
// per-unit placeholder map so they can be restored verbatim after
// translation.
package freeze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/sentinel"
)

// rule is one entry in the freeze grammar's priority-ordered cascade.
type rule struct {
	name string
	re   *regexp.Regexp
}

// Cascade is evaluated top to bottom; once the winning match for a position
// is chosen no other rule is tried there. The whole pass is a single
// left-to-right, non-recursive scan.
var cascade = []rule{
	{"trademark", regexp.MustCompile(`[\x{2122}\x{00AE}\x{00A9}]`)},
	{"url", regexp.MustCompile(`\bhttps?://[^\s<>"']+`)},
	{"email", regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.-]+\b`)},
	{"winpath", regexp.MustCompile(`\b[A-Za-z]:\\(?:[^\\/:*?"<>|\r\n]+\\)*[^\\/:*?"<>|\r\n]*`)},
	{"braces", regexp.MustCompile(`\$?\{[^{}]{1,80}\}`)},
	{"percent_slot", regexp.MustCompile(`%(?:\d+\$)?[sdif]`)},
	{"legal_ref_en", regexp.MustCompile(`\b(?:Section|Article|Clause|Paragraph|Schedule)\s+\d+(?:\.\d+)*(?:\([a-zA-Z]\))?`)},
	{"legal_ref_en_abbr", regexp.MustCompile(`\b(?:Sec|Art|Cl|Para|Sched)\.\s*\d+(?:\.\d+)*(?:\([a-zA-Z]\))?`)},
	{"legal_ref_zh", regexp.MustCompile(`第\d+(?:\.\d+)*(?:[条款项段节章编])`)},
	{"legal_schedule_zh", regexp.MustCompile(`(?:附表|附件)\s*\d+`)},
	{"bare_clause_ref", regexp.MustCompile(`\b\d+\([a-zA-Z]\)(?:\([ivxlcdm]+\))?`)},
	{"enumeration", regexp.MustCompile(`\((?:\d{1,3}|[ivxlcdm]{1,6}|[a-zA-Z])\)`)},
	{"leader_dots", regexp.MustCompile(`\.{8,}`)},
	{"leader_underscore", regexp.MustCompile(`_{5,}`)},
	{"leader_dash", regexp.MustCompile(`-{5,}`)},
	{"party_var", regexp.MustCompile(`\b[XYZ]\b`)},
}

// otherScriptRe matches runs of non-Latin, non-CJK-ideograph script
// characters that are treated as opaque in en<->zh documents: Hangul,
// Hiragana, Katakana, Cyrillic, Greek, Arabic, Devanagari, etc.
var otherScriptRe = regexp.MustCompile(`[\x{0400}-\x{04FF}\x{0370}-\x{03FF}\x{0600}-\x{06FF}\x{0900}-\x{097F}\x{AC00}-\x{D7A3}\x{3040}-\x{30FF}]+`)

func init() {
	// other-script run sits early in priority, right after trademark, so
	// legal-reference/enumeration rules never fragment a foreign-script run.
	cascade = append([]rule{cascade[0], {"other_script", otherScriptRe}}, cascade[1:]...)
}

// match is a located freeze-grammar hit.
type match struct {
	start, end int
	text       string
}

// Freeze replaces every freeze-grammar match in text with a numbered NT
// token, returning the frozen text and the placeholder map (token ->
// original substring). Tokens are numbered in order of first occurrence,
// starting at 1.
func Freeze(text string) (string, map[string]string) {
	matches := findNonOverlapping(text)
	if len(matches) == 0 {
		return text, map[string]string{}
	}
	placeholders := make(map[string]string, len(matches))
	var b strings.Builder
	last := 0
	for i, m := range matches {
		b.WriteString(text[last:m.start])
		tok := sentinel.NTToken(i + 1)
		placeholders[tok] = m.text
		b.WriteString(tok)
		last = m.end
	}
	b.WriteString(text[last:])
	return b.String(), placeholders
}

// findNonOverlapping runs every rule over text, keeps the earliest-starting,
// then-longest, then-highest-priority match at each scan position, and
// returns the winners left to right with no overlap.
func findNonOverlapping(text string) []match {
	type cand struct {
		match
		priority int
	}
	var all []cand
	for pi, r := range cascade {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			all = append(all, cand{match{loc[0], loc[1], text[loc[0]:loc[1]]}, pi})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		if all[i].end != all[j].end {
			return all[i].end > all[j].end // longer wins
		}
		return all[i].priority < all[j].priority // earlier rule wins
	})
	var winners []match
	cursor := 0
	for _, c := range all {
		if c.start < cursor {
			continue
		}
		winners = append(winners, c.match)
		cursor = c.end
	}
	return winners
}

// FreezeAtoms freezes a TU's atom sequence block by block (a block is the
// literal run of TEXT atoms between control atoms), guaranteeing the
// resulting frozen surface has exactly one literal block per control-token
// boundary in the same order as the atom sequence itself, matching the span
// BlockIndex the extractor assigns. NT tokens are numbered globally, left
// to right across the whole surface.
func FreezeAtoms(atoms []ir.Atom) (string, map[string]string) {
	placeholders := map[string]string{}
	var b strings.Builder
	var literal strings.Builder
	counter := 0

	flushLiteral := func() {
		text := literal.String()
		literal.Reset()
		matches := findNonOverlapping(text)
		last := 0
		for _, m := range matches {
			b.WriteString(text[last:m.start])
			counter++
			tok := sentinel.NTToken(counter)
			placeholders[tok] = m.text
			b.WriteString(tok)
			last = m.end
		}
		b.WriteString(text[last:])
	}

	for _, a := range atoms {
		if a.Kind == ir.AtomText {
			literal.WriteString(a.Value)
			continue
		}
		flushLiteral()
		b.WriteString(a.ControlToken())
	}
	flushLiteral()
	return b.String(), placeholders
}

// Unfreeze substitutes every NT token in text with its recorded original
// from placeholders. Tokens absent from placeholders are left verbatim so
// downstream validation can catch the mismatch.
func Unfreeze(text string, placeholders map[string]string) string {
	if len(placeholders) == 0 {
		return text
	}
	return sentinel.AnySentinelPattern().ReplaceAllStringFunc(text, func(tok string) string {
		if orig, ok := placeholders[tok]; ok {
			return orig
		}
		return tok
	})
}
