// Package chunking splits a frozen surface into sentinel-delimited literal
// parts and further splits each literal part to fit a model's token budget,
// preferring sentence boundaries. It also detects stitched duplicate
// chunks in per-chunk model output.
package chunking

import (
	"regexp"
	"strings"

	"github.com/inkwell-labs/doctran/internal/sentinel"
)

// Part is one piece of a split surface: either a literal text run to
// translate or a sentinel token to pass through untouched.
type Part struct {
	Text       string
	IsSentinel bool
}

// SplitBySentinels splits text into alternating literal/sentinel parts.
func SplitBySentinels(text string) []Part {
	var parts []Part
	last := 0
	for _, loc := range sentinel.AnySentinelPattern().FindAllStringIndex(text, -1) {
		if loc[0] > last {
			parts = append(parts, Part{Text: text[last:loc[0]]})
		}
		parts = append(parts, Part{Text: text[loc[0]:loc[1]], IsSentinel: true})
		last = loc[1]
	}
	if last < len(text) {
		parts = append(parts, Part{Text: text[last:]})
	}
	return parts
}

var strongBoundaryRe = regexp.MustCompile(`([.!?;:。！？；：])\s*`)
var weakBoundaryRe = regexp.MustCompile(`([,，])\s*`)

// TokenCounter matches the model collaborator's CountTokens method.
type TokenCounter func(text string) int

// SplitByBudget splits literal into chunks whose token count (per count)
// does not exceed budget, preferring strong sentence boundaries, then weak
// ones, then a hard rune-count cap as a last resort. Pieces produced by the
// hard cap are budget*2 runes long and are not re-measured with count, so
// they can exceed budget when text runs above half a token per rune.
func SplitByBudget(literal string, budget int, count TokenCounter) []string {
	if budget <= 0 || count(literal) <= budget {
		return []string{literal}
	}
	chunks := splitOnBoundary(literal, strongBoundaryRe, budget, count)
	var out []string
	for _, c := range chunks {
		if count(c) <= budget {
			out = append(out, c)
			continue
		}
		sub := splitOnBoundary(c, weakBoundaryRe, budget, count)
		for _, s := range sub {
			if count(s) <= budget {
				out = append(out, s)
			} else {
				out = append(out, hardSplit(s, budget, count)...)
			}
		}
	}
	return out
}

func splitOnBoundary(text string, boundary *regexp.Regexp, budget int, count TokenCounter) []string {
	segments := splitKeepDelim(text, boundary)
	var chunks []string
	var cur strings.Builder
	for _, seg := range segments {
		if cur.Len() > 0 && count(cur.String()+seg) > budget {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(seg)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

func splitKeepDelim(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	if locs == nil {
		return []string{text}
	}
	var out []string
	last := 0
	for _, loc := range locs {
		out = append(out, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

// hardSplit is the last-resort fallback: cut by rune count estimated from
// the token budget, assuming roughly 1 token per 2 runes. count is not
// consulted, so a piece exceeds budget whenever that ratio is too low.
func hardSplit(text string, budget int, count TokenCounter) []string {
	runes := []rune(text)
	approxRunesPerChunk := budget * 2
	if approxRunesPerChunk < 1 {
		approxRunesPerChunk = 1
	}
	var out []string
	for i := 0; i < len(runes); i += approxRunesPerChunk {
		end := i + approxRunesPerChunk
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// MaxNewTokensForSource returns the tiered generation cap for a source
// chunk of the given token count.
func MaxNewTokensForSource(sourceTokens int) int {
	switch {
	case sourceTokens <= 16:
		return 64
	case sourceTokens <= 64:
		return 128
	case sourceTokens <= 160:
		return 256
	case sourceTokens <= 320:
		return 384
	case sourceTokens <= 640:
		return 512
	default:
		return 768
	}
}

// DetectStitchDuplicate reports whether outputs contains a duplicate chunk
// that is not explained by an equal duplicate in inputs (i.e. the model
// echoed a chunk's translation twice across the stitched sequence).
func DetectStitchDuplicate(inputs, outputs []string) bool {
	if len(outputs) < 2 {
		return false
	}
	inputDupes := map[string]int{}
	for _, in := range inputs {
		inputDupes[strings.TrimSpace(in)]++
	}
	seen := map[string]int{}
	for i, out := range outputs {
		t := strings.TrimSpace(out)
		if t == "" {
			continue
		}
		seen[t]++
		if seen[t] > 1 {
			srcDup := 0
			if i < len(inputs) {
				srcDup = inputDupes[strings.TrimSpace(inputs[i])]
			}
			if srcDup < seen[t] {
				return true
			}
		}
	}
	return false
}
