// Package quality evaluates a normalized candidate translation against its
// source and produces a sorted set of hard/soft issue tags.
package quality

import (
	"regexp"
	"sort"
	"strings"

	"github.com/inkwell-labs/doctran/internal/sentinel"
	"github.com/inkwell-labs/doctran/internal/textutil"
)

// HardIssues is the set of tags that must trigger repair / hard-failure
// scanning rather than silent acceptance.
var HardIssues = map[string]bool{
	"protocol_error":            true,
	"empty_output":              true,
	"prompt_artifact":           true,
	"unexpected_script":         true,
	"zero_width_chars":          true,
	"repeated_char_run":         true,
	"repeated_sentence":         true,
	"bad_reference_placeholder": true,
	"variable_marker_missing":   true,
	"too_short":                 true,
	"coverage_low":              true,
	"over_expansion":            true,
	"unjustified_condition":     true,
	"it_default_sense":          true,
	"looks_untranslated":        true,
	"english_skeleton":          true,
	"mixed_language":            true,
	"untranslated_english":      true,
	"source_echo":               true,
	"duplicate_paragraph":       true,
	"stitch_duplicate_chunk":    true,
}

// Input bundles what Evaluate needs.
type Input struct {
	Source       string
	Candidate    string
	TargetLang   string
	Glossary     map[string]string // source term -> target term
	NeighborPrev string
}

// hasRepeatedCharRun reports whether s holds one rune repeated 7 or more
// times in a row.
func hasRepeatedCharRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= 7 {
			return true
		}
	}
	return false
}

var zeroWidthRe = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}]`)
var conditionalTriggerRe = regexp.MustCompile(`(?i)\bif\b|\bwhen\b|\bunless\b|\bshould\b|\bin the event\b`)
var zhConditionRe = regexp.MustCompile(`如果|若|如\s*适用`)
var defaultSettingRe = regexp.MustCompile(`(?i)\bdefault\b`)
var itDefaultSenseRe = regexp.MustCompile(`默认`)
var englishSkeletonRe = regexp.MustCompile(`(?i)\b(the|and|of|to|a|an)\b`)
var variableMarkerRe = regexp.MustCompile(`\b[XYZ]\b`)
var sentenceSplitRe = regexp.MustCompile(`[。！？.!?]+`)

// Evaluate returns a sorted slice of issue tags.
func Evaluate(in Input) []string {
	issueSet := map[string]bool{}
	candidatePlain := sentinel.AnySentinelPattern().ReplaceAllString(in.Candidate, "")
	sourcePlain := sentinel.AnySentinelPattern().ReplaceAllString(in.Source, "")

	if strings.TrimSpace(candidatePlain) == "" && strings.TrimSpace(sourcePlain) != "" {
		issueSet["empty_output"] = true
	}
	if zeroWidthRe.MatchString(in.Candidate) {
		issueSet["zero_width_chars"] = true
	}
	if hasRepeatedCharRun(candidatePlain) {
		issueSet["repeated_char_run"] = true
	}
	if hasRepeatedSentence(candidatePlain) {
		issueSet["repeated_sentence"] = true
	}
	if candidatePlain == in.NeighborPrev && strings.TrimSpace(candidatePlain) != "" {
		issueSet["duplicate_paragraph"] = true
	}

	if m := variableMarkerRe.FindAllString(sourcePlain, -1); len(m) > 0 {
		for _, marker := range m {
			if !strings.Contains(candidatePlain, marker) {
				issueSet["variable_marker_missing"] = true
			}
		}
	}

	srcLen := len([]rune(sourcePlain))
	candLen := len([]rune(candidatePlain))
	if srcLen > 0 && candLen > 0 && float64(candLen) >= float64(srcLen)*2.8 {
		issueSet["over_expansion"] = true
	}
	if srcLen >= 8 && candLen > 0 && candLen < srcLen/4 {
		issueSet["too_short"] = true
	}

	switch in.TargetLang {
	case "zh":
		evalZhTarget(sourcePlain, candidatePlain, issueSet)
	case "en":
		evalEnTarget(sourcePlain, candidatePlain, issueSet)
	}

	for src, dst := range in.Glossary {
		if dst == "" {
			continue
		}
		if strings.Contains(candidatePlain, dst) && !strings.Contains(sourcePlain, src) {
			issueSet["glossary_leakage:"+preview(src)] = true
		}
	}

	out := make([]string, 0, len(issueSet))
	for k := range issueSet {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func preview(s string) string { return textutil.Preview(s, 12) }

func hasRepeatedSentence(text string) bool {
	sentences := sentenceSplitRe.Split(text, -1)
	seen := map[string]bool{}
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" || len([]rune(s)) < 6 {
			continue
		}
		if seen[s] {
			return true
		}
		seen[s] = true
	}
	return false
}

func evalZhTarget(source, candidate string, issues map[string]bool) {
	counts := textutil.CountScripts(candidate)
	if counts.Total > 0 && counts.Latin > counts.CJK && counts.Latin >= 6 {
		if !textutil.LooksLikeEntityName(candidate) {
			issues["looks_untranslated"] = true
		}
	}
	if counts.Latin > 0 && counts.CJK > 0 && englishSkeletonRe.MatchString(candidate) {
		issues["mixed_language"] = true
		issues["untranslated_english"] = true
	}
	if strings.TrimSpace(candidate) != "" && strings.Contains(source, candidate) && !textutil.LooksLikeEntityName(candidate) {
		issues["source_echo"] = true
	}
	if zhConditionRe.MatchString(candidate) && !conditionalTriggerRe.MatchString(source) {
		issues["unjustified_condition"] = true
	}
	if itDefaultSenseRe.MatchString(candidate) && defaultSettingRe.MatchString(source) {
		issues["it_default_sense"] = true
	}
}

func evalEnTarget(source, candidate string, issues map[string]bool) {
	counts := textutil.CountScripts(candidate)
	if counts.Total > 0 && counts.CJK > counts.Latin && counts.CJK >= 4 {
		issues["looks_untranslated"] = true
	}
}
