// Package normalize applies the deterministic, model-independent candidate
// transformation pipeline: whitespace/control repair, prompt-artifact
// stripping, NT restoration, sentinel cleanup, number preservation, and
// target-language whitespace policy. Every function here is total: it never
// returns an error, only a transformed string and the issue tags it had to
// raise along the way.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/inkwell-labs/doctran/internal/sentinel"
	"github.com/inkwell-labs/doctran/internal/textutil"
)

// Input bundles everything Normalize needs about one TU candidate.
type Input struct {
	Candidate     string
	SourcePlain   string // source surface with control tokens stripped
	FrozenSurface string // TU's frozen surface (source of truth for expected tokens)
	Placeholders  map[string]string
	TargetLang    string // "en" or "zh"
}

// Result is the normalized candidate plus any issues the repair steps had
// to raise.
type Result struct {
	Text   string
	Issues []string
}

var exoticWhitespaceRe = regexp.MustCompile(`[\x{00A0}\x{2000}-\x{200B}\x{202F}\x{205F}\x{3000}]`)
var cjkInnerSpaceRe = regexp.MustCompile(`([\x{4E00}-\x{9FFF}])[ \t]+([\x{4E00}-\x{9FFF}])`)
var promptArtifactRe = regexp.MustCompile(`(?m)^\s*\[(CONTEXT|DRAFT|INSTRUCTION|GLOSSARY)\].*$|^\s*Glossary:.*$`)

// Normalize runs the full 10-step pipeline and returns the final candidate
// plus any hard/soft issues the deterministic repairs themselves raised
// (distinct from quality.Evaluate, which runs afterward).
func Normalize(in Input) Result {
	var issues []string
	text := in.Candidate

	// 1. base normalize
	text = exoticWhitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	// 2. prompt-artifact strip — runs before control repair so a leaked
	// instruction/glossary line is removed while its own newline still
	// marks the line boundary, before raw newlines get converted.
	if promptArtifactRe.MatchString(text) {
		text = promptArtifactRe.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)
		issues = appendIssue(issues, "prompt_artifact")
	}

	// 3. raw control repair
	text, issues = repairRawControls(text, in.FrozenSurface, issues)

	// 4. NT restoration
	text = restoreMissingNT(text, in.FrozenSurface, in.Placeholders)

	// 5. unexpected-sentinel strip
	text = stripUnexpectedSentinels(text, in.FrozenSurface)

	// 6. number preservation
	text, issues = preserveNumbers(text, in.SourcePlain, in.Placeholders, issues)

	if in.TargetLang == "zh" {
		// 7. reference placeholder repair
		text = repairReferencePlaceholders(text, in.SourcePlain)
		// 8. unexpected-script strip
		text = stripUnexpectedScript(text, in.SourcePlain)
	}

	// 9. sentinel edge-whitespace normalization
	text = restoreSentinelEdgeWhitespace(text, in.FrozenSurface)

	// 10. inner whitespace policy
	text = applyWhitespacePolicy(text, in.TargetLang)

	return Result{Text: text, Issues: issues}
}

func appendIssue(issues []string, tag string) []string {
	for _, i := range issues {
		if i == tag {
			return issues
		}
	}
	return append(issues, tag)
}

func expectedControlTokens(frozen string) []string {
	return sentinel.ControlTokensFromText(frozen)
}

// repairRawControls converts raw \r\n\t to control tokens up to the count
// missing versus the expected multiset; surplus collapses to a space.
func repairRawControls(text, frozen string, issues []string) (string, []string) {
	expected := expectedControlTokens(frozen)
	have := sentinel.ControlTokensFromText(text)
	missingBR := countTok(expected, sentinel.Br) - countTok(have, sentinel.Br)
	missingTab := countTok(expected, sentinel.Tab) - countTok(have, sentinel.Tab)

	var b strings.Builder
	for _, r := range text {
		switch r {
		case '\n', '\r':
			if missingBR > 0 {
				b.WriteString(sentinel.Br)
				missingBR--
			} else {
				b.WriteByte(' ')
			}
		case '\t':
			if missingTab > 0 {
				b.WriteString(sentinel.Tab)
				missingTab--
			} else {
				b.WriteByte(' ')
			}
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.ContainsAny(text, "\r\n\t") {
		issues = appendIssue(issues, "raw_control_repaired")
	}
	return out, issues
}

func countTok(toks []string, tok string) int {
	n := 0
	for _, t := range toks {
		if t == tok {
			n++
		}
	}
	return n
}

// restoreMissingNT re-inserts any NT token present in frozen but absent
// from text, when the original string can be found verbatim in text.
func restoreMissingNT(text, frozen string, placeholders map[string]string) string {
	for _, tok := range sentinel.AllNTTokens(frozen) {
		if strings.Contains(text, tok) {
			continue
		}
		orig, ok := placeholders[tok]
		if !ok || orig == "" {
			continue
		}
		if i := strings.Index(text, orig); i >= 0 {
			text = text[:i] + tok + text[i+len(orig):]
		}
	}
	return text
}

// stripUnexpectedSentinels removes any sentinel in text that is neither an
// expected control token nor an NT token present in frozen.
func stripUnexpectedSentinels(text, frozen string) string {
	expectedNT := map[string]bool{}
	for _, tok := range sentinel.AllNTTokens(frozen) {
		expectedNT[tok] = true
	}
	return sentinel.AnySentinelPattern().ReplaceAllStringFunc(text, func(tok string) string {
		if sentinel.IsControl(tok) {
			return tok
		}
		if expectedNT[tok] {
			return tok
		}
		return ""
	})
}

// preserveNumbers removes extraneous digit runs beyond what source requires
// (after crediting digits carried by NT placeholders). When digits the
// source requires are missing it adds number_mismatch; it does not
// reinsert them.
func preserveNumbers(text, sourcePlain string, placeholders map[string]string, issues []string) (string, []string) {
	required := textutil.NumberMultiset(sourcePlain)
	for _, orig := range placeholders {
		for k, v := range textutil.NumberMultiset(orig) {
			required[k] -= v
			if required[k] <= 0 {
				delete(required, k)
			}
		}
	}
	have := textutil.NumberMultiset(withoutSentinels(text))

	// remove extraneous numbers beyond required count
	surplus := map[string]int{}
	for k, v := range have {
		if req := required[k]; v > req {
			surplus[k] = v - req
		}
	}
	if len(surplus) > 0 {
		text = textutil.NumberTokenRe.ReplaceAllStringFunc(text, func(tok string) string {
			k := stripCommas(tok)
			if surplus[k] > 0 {
				surplus[k]--
				return ""
			}
			return tok
		})
	}

	// check for remaining shortfall
	have = textutil.NumberMultiset(withoutSentinels(text))
	missing := false
	for k, v := range required {
		if have[k] < v {
			missing = true
		}
	}
	if missing {
		issues = appendIssue(issues, "number_mismatch")
	}
	return text, issues
}

func withoutSentinels(s string) string {
	return sentinel.AnySentinelPattern().ReplaceAllString(s, "")
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

var zhRefMissingIDRe = regexp.MustCompile(`第\s*(?:X|x|_+|\?|？)\s*([条款项段节])`)
var chineseNumeralRe = regexp.MustCompile(`第([一二三四五六七八九十百千]+)([条款项段节])`)

var chineseDigits = map[rune]int{'一': 1, '二': 2, '三': 3, '四': 4, '五': 5, '六': 6, '七': 7, '八': 8, '九': 9, '十': 10}

func chineseNumeralToArabic(s string) (int, bool) {
	if s == "十" {
		return 10, true
	}
	runes := []rune(s)
	if len(runes) == 1 {
		v, ok := chineseDigits[runes[0]]
		return v, ok
	}
	if len(runes) == 3 && runes[1] == '十' {
		tens, ok1 := chineseDigits[runes[0]]
		ones, ok2 := chineseDigits[runes[2]]
		if ok1 && ok2 {
			return tens*10 + ones, true
		}
	}
	if len(runes) == 2 && runes[0] == '十' {
		ones, ok := chineseDigits[runes[1]]
		if ok {
			return 10 + ones, true
		}
	}
	return 0, false
}

// repairReferencePlaceholders fills in a dropped numeric id in a zh legal
// reference when source has exactly one numeric token, and converts
// Chinese-numeral legal references to the canonical Arabic-numeral form.
func repairReferencePlaceholders(text, sourcePlain string) string {
	nums := textutil.NumberTokens(sourcePlain)
	if len(nums) == 1 {
		text = zhRefMissingIDRe.ReplaceAllString(text, "第"+nums[0]+"$1")
	}
	text = chineseNumeralRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := chineseNumeralRe.FindStringSubmatch(m)
		if n, ok := chineseNumeralToArabic(sub[1]); ok {
			return "第" + itoa(n) + sub[2]
		}
		return m
	})
	return text
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// stripUnexpectedScript removes characters from scripts not present in
// source (outside sentinels), for zh targets.
func stripUnexpectedScript(text, sourcePlain string) string {
	sourceScripts := textutil.CountScripts(sourcePlain)
	allowOther := sourceScripts.Other > 0
	parts := splitOutsideSentinels(text)
	var b strings.Builder
	for _, p := range parts {
		if p.isSentinel {
			b.WriteString(p.text)
			continue
		}
		for _, r := range p.text {
			if textutil.IsOtherScript(r) && !allowOther {
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

type textPart struct {
	text       string
	isSentinel bool
}

func splitOutsideSentinels(text string) []textPart {
	var parts []textPart
	last := 0
	for _, loc := range sentinel.AnySentinelPattern().FindAllStringIndex(text, -1) {
		if loc[0] > last {
			parts = append(parts, textPart{text: text[last:loc[0]]})
		}
		parts = append(parts, textPart{text: text[loc[0]:loc[1]], isSentinel: true})
		last = loc[1]
	}
	if last < len(text) {
		parts = append(parts, textPart{text: text[last:]})
	}
	return parts
}

// restoreSentinelEdgeWhitespace restores each literal part's exact
// leading/trailing whitespace from the corresponding part of frozen.
func restoreSentinelEdgeWhitespace(text, frozen string) string {
	textParts := splitOutsideSentinels(text)
	frozenParts := splitOutsideSentinels(frozen)
	frozenLiterals := literalTexts(frozenParts)

	var b strings.Builder
	li := 0
	for _, p := range textParts {
		if p.isSentinel {
			b.WriteString(p.text)
			continue
		}
		if li < len(frozenLiterals) {
			b.WriteString(restoreEdges(p.text, frozenLiterals[li]))
		} else {
			b.WriteString(p.text)
		}
		li++
	}
	return b.String()
}

func literalTexts(parts []textPart) []string {
	var out []string
	for _, p := range parts {
		if !p.isSentinel {
			out = append(out, p.text)
		}
	}
	return out
}

func restoreEdges(text, ref string) string {
	leadRef := leadingWhitespace(ref)
	trailRef := trailingWhitespace(ref)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return leadRef + trailRef
	}
	return leadRef + trimmed + trailRef
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && unicode.IsSpace(rune(s[i])) {
		i++
	}
	return s[:i]
}

func trailingWhitespace(s string) string {
	i := len(s)
	for i > 0 && unicode.IsSpace(rune(s[i-1])) {
		i--
	}
	return s[i:]
}

// applyWhitespacePolicy applies the target-language-specific inner
// whitespace rules.
func applyWhitespacePolicy(text, targetLang string) string {
	if targetLang == "zh" {
		for cjkInnerSpaceRe.MatchString(text) {
			text = cjkInnerSpaceRe.ReplaceAllString(text, "$1$2")
		}
		return text
	}
	// en: collapse multiple spaces
	return regexp.MustCompile(`[ \t]{2,}`).ReplaceAllString(text, " ")
}
