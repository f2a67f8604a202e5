// Package translate drives per-TU translation: pre-filtering, sentinel- and
// budget-aware chunking, translate-model requests, stitching, deterministic
// normalization, quality evaluation, and a bounded agent-repair ladder.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/inkwell-labs/doctran/internal/chunking"
	"github.com/inkwell-labs/doctran/internal/freeze"
	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/logging"
	"github.com/inkwell-labs/doctran/internal/modelclient"
	"github.com/inkwell-labs/doctran/internal/normalize"
	"github.com/inkwell-labs/doctran/internal/quality"
	"github.com/inkwell-labs/doctran/internal/sentinel"
	"github.com/inkwell-labs/doctran/internal/textutil"
)

// DocumentContext is the agent-inferred, read-only metadata threaded
// through every translation/review/repair call for one document.
type DocumentContext struct {
	Domain      string
	DocType     string
	Summary     string
	TargetStyle string
	StyleGuide  string
	Glossary    map[string]string
}

// Driver orchestrates the per-TU translation loop.
type Driver struct {
	Translate  modelclient.TranslateModel
	Agent      modelclient.AgentModel // may be nil to disable agent-assist
	Log        *logging.Logger
	SourceLang string
	TargetLang string

	DecisionMinChars  int
	HardFailureRounds int
	GlossaryCapPerTU  int

	OnTUDone func(tu *ir.TU)
}

// riskWordsRe matches conditional/default-setting vocabulary whose presence
// in a long TU is worth a decision-model pass even absent a hard issue tag.
var riskWordsRe = regexp.MustCompile(`(?i)\bif\b|\bunless\b|\bdefault\b|\bshould\b|如果|若|默认`)

// TranslateUnits translates every TU in order, mutating each in place
// (Final, Label, Issues) and invoking OnTUDone after each is settled.
func (d *Driver) TranslateUnits(ctx context.Context, tus []*ir.TU, docCtx DocumentContext) {
	var prevPlain string
	for i, tu := range tus {
		var nextPlain string
		if i+1 < len(tus) {
			nextPlain = tus[i+1].PlainText()
		}
		d.translateOne(ctx, tu, docCtx, prevPlain, nextPlain)
		prevPlain = tu.PlainText()
		if d.OnTUDone != nil {
			d.OnTUDone(tu)
		}
	}
}

func (d *Driver) translateOne(ctx context.Context, tu *ir.TU, docCtx DocumentContext, prevPlain, nextPlain string) {
	tu.FrozenSurface, tu.Placeholders = freeze.FreezeAtoms(tu.Atoms)

	if reason, skip := d.prefilter(tu); skip {
		tu.Final = tu.FrozenSurface
		tu.Label = reason
		return
	}

	candidate := d.translateFrozenSurface(ctx, tu, docCtx, prevPlain, nextPlain, "")
	tu.Final = candidate
	tu.Label = "translated"
	d.evaluate(tu, prevPlain)

	if d.needsRepair(tu) {
		d.repairLadder(ctx, tu, docCtx, prevPlain, nextPlain)
	}
}

// prefilter short-circuits TUs that should not be sent to the model at
// all.
func (d *Driver) prefilter(tu *ir.TU) (reason string, skip bool) {
	plain := tu.PlainText()
	if strings.TrimSpace(plain) == "" {
		return "sentinel_only", true
	}
	if d.SourceLang != "" && d.TargetLang != "" && d.SourceLang == d.TargetLang {
		return "already_" + d.SourceLang, true
	}
	detected := textutil.DetectLanguage(plain)
	if detected != "" && d.TargetLang != "" && detected == d.TargetLang {
		return "no_" + oppositeScriptName(d.TargetLang), true
	}
	return "", false
}

func oppositeScriptName(lang string) string {
	if lang == "zh" {
		return "latin"
	}
	return "cjk"
}

// translateFrozenSurface performs the chunk/translate/stitch cycle once,
// optionally with an agent instruction override.
func (d *Driver) translateFrozenSurface(ctx context.Context, tu *ir.TU, docCtx DocumentContext, prevPlain, nextPlain, instruction string) string {
	parts := chunking.SplitBySentinels(tu.FrozenSurface)
	reqCtx := d.buildRequestContext(tu, docCtx, prevPlain, nextPlain, instruction)

	var out strings.Builder
	for _, p := range parts {
		if p.IsSentinel {
			out.WriteString(p.Text)
			continue
		}
		out.WriteString(d.translateLiteral(ctx, p.Text, reqCtx))
	}
	stitched := out.String()
	stitched = sentinel.DecodeFromModel(stitched)
	norm := normalize.Normalize(normalize.Input{
		Candidate:     stitched,
		SourcePlain:   tu.PlainText(),
		FrozenSurface: tu.FrozenSurface,
		Placeholders:  tu.Placeholders,
		TargetLang:    d.TargetLang,
	})
	for _, issue := range norm.Issues {
		tu.AddIssue(issue)
	}
	return norm.Text
}

func (d *Driver) translateLiteral(ctx context.Context, literal string, reqCtx modelclient.RequestContext) string {
	budget := d.Translate.CountTokens(literal)
	chunks := chunking.SplitByBudget(literal, contextBudget(budget), d.Translate.CountTokens)
	var outputs []string
	for _, c := range chunks {
		srcTokens := d.Translate.CountTokens(c)
		maxNew := chunking.MaxNewTokensForSource(srcTokens)
		reqCtx.RequiredNumbers = toMultiset(textutil.NumberTokens(c))
		out, err := d.Translate.Translate(ctx, c, d.SourceLang, d.TargetLang, maxNew, reqCtx)
		if err != nil {
			d.logf("translate call failed: %v", err)
			out = c
		}
		outputs = append(outputs, out)
	}
	if chunking.DetectStitchDuplicate(chunks, outputs) {
		d.logf("stitch duplicate chunk detected")
	}
	return strings.Join(outputs, "")
}

// contextBudget is a conservative per-chunk token ceiling; real deployments
// would derive this from the model's remaining context window.
func contextBudget(literalTokens int) int {
	if literalTokens <= 256 {
		return 256
	}
	return 256
}

func toMultiset(nums []string) map[string]int {
	out := map[string]int{}
	for _, n := range nums {
		out[n]++
	}
	return out
}

func (d *Driver) buildRequestContext(tu *ir.TU, docCtx DocumentContext, prevPlain, nextPlain, instruction string) modelclient.RequestContext {
	return modelclient.RequestContext{
		Domain:           docCtx.Domain,
		DocType:          docCtx.DocType,
		Summary:          docCtx.Summary,
		TargetStyle:      docCtx.TargetStyle,
		StyleGuide:       docCtx.StyleGuide,
		GlossaryLines:    glossaryLines(docCtx.Glossary, tu.PlainText(), d.GlossaryCapPerTU),
		StructureHint:    structureHint(tu.Context),
		NeighborPrev:     prevPlain,
		NeighborNext:     nextPlain,
		AgentInstruction: instruction,
	}
}

func structureHint(ctx ir.ParagraphContext) string {
	var b strings.Builder
	if ctx.IsHeading {
		fmt.Fprintf(&b, "heading level %d; ", ctx.HeadingLvl)
	}
	if len(ctx.SectionPath) > 0 {
		fmt.Fprintf(&b, "section: %s; ", strings.Join(ctx.SectionPath, " > "))
	}
	if ctx.InTable {
		b.WriteString("in table; ")
	}
	if ctx.ListID != "" {
		fmt.Fprintf(&b, "list item level %d; ", ctx.ListLevel)
	}
	return strings.TrimSpace(b.String())
}

func glossaryLines(glossary map[string]string, plain string, cap int) []string {
	if cap <= 0 {
		cap = len(glossary)
	}
	var lines []string
	for src, dst := range glossary {
		if strings.Contains(plain, src) {
			lines = append(lines, src+" -> "+dst)
		}
		if len(lines) >= cap {
			break
		}
	}
	return lines
}

func (d *Driver) evaluate(tu *ir.TU, prevPlain string) {
	for _, issue := range quality.Evaluate(quality.Input{
		Source:       tu.FrozenSurface,
		Candidate:    tu.Final,
		TargetLang:   d.TargetLang,
		NeighborPrev: prevPlain,
	}) {
		tu.AddIssue(issue)
	}
}

func (d *Driver) needsRepair(tu *ir.TU) bool {
	for _, issue := range tu.Issues {
		if quality.HardIssues[issue] {
			return true
		}
	}
	if len([]rune(tu.PlainText())) >= d.DecisionMinChars && riskWordsRe.MatchString(tu.PlainText()) {
		return true
	}
	return false
}

// repairLadder implements the three-step bounded repair: agent
// instruction retry, agent direct translation, keep-best-with-flags.
func (d *Driver) repairLadder(ctx context.Context, tu *ir.TU, docCtx DocumentContext, prevPlain, nextPlain string) {
	if d.Agent == nil {
		tu.Label = "keep_bad"
		return
	}
	best := tu.Final
	bestIssues := append([]string(nil), tu.Issues...)

	// step 1: agent instruction retry
	instruction := d.agentInstruction(ctx, tu)
	if instruction != "" {
		candidate := d.translateFrozenSurface(ctx, tu, docCtx, prevPlain, nextPlain, instruction)
		tu.Final = candidate
		tu.Issues = nil
		d.evaluate(tu, prevPlain)
		if !hasHardIssue(tu.Issues) {
			tu.Label = "translated"
			return
		}
		if len(tu.Issues) < len(bestIssues) {
			best, bestIssues = tu.Final, tu.Issues
		}
	}

	// step 2: agent direct translation
	direct := d.agentDirectTranslate(ctx, tu, docCtx)
	if direct != "" {
		tu.Final = direct
		tu.Issues = nil
		d.evaluate(tu, prevPlain)
		if !hasHardIssue(tu.Issues) {
			tu.Label = "translated"
			return
		}
		if len(tu.Issues) < len(bestIssues) {
			best, bestIssues = tu.Final, tu.Issues
		}
	}

	// step 3: keep best candidate, never crash
	tu.Final = best
	tu.Issues = bestIssues
	tu.Label = "keep_bad"
}

func hasHardIssue(issues []string) bool {
	for _, i := range issues {
		if quality.HardIssues[i] {
			return true
		}
	}
	return false
}

type agentInstructionResponse struct {
	Instruction string `json:"instruction"`
}

func (d *Driver) agentInstruction(ctx context.Context, tu *ir.TU) string {
	prompt := fmt.Sprintf(
		"The following translation has issues %v. Source: %q. Draft: %q. Give a single targeted instruction as JSON {\"instruction\": \"...\"}.",
		tu.Issues, tu.FrozenSurface, tu.Final,
	)
	out, err := d.Agent.Generate(ctx, prompt, 128)
	if err != nil {
		d.logf("agent instruction call failed: %v", err)
		return ""
	}
	var resp agentInstructionResponse
	if err := json.Unmarshal([]byte(extractJSON(out)), &resp); err != nil {
		return ""
	}
	return resp.Instruction
}

func (d *Driver) agentDirectTranslate(ctx context.Context, tu *ir.TU, docCtx DocumentContext) string {
	prompt := fmt.Sprintf(
		"Translate from %s to %s, preserving every <<MT_...>> token exactly once and every number: %q",
		d.SourceLang, d.TargetLang, tu.FrozenSurface,
	)
	out, err := d.Agent.Generate(ctx, prompt, 512)
	if err != nil {
		d.logf("agent direct translate failed: %v", err)
		return ""
	}
	out = sentinel.DecodeFromModel(out)
	norm := normalize.Normalize(normalize.Input{
		Candidate:     out,
		SourcePlain:   tu.PlainText(),
		FrozenSurface: tu.FrozenSurface,
		Placeholders:  tu.Placeholders,
		TargetLang:    d.TargetLang,
	})
	return norm.Text
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "{}"
	}
	return s[start : end+1]
}

func (d *Driver) logf(format string, args ...any) {
	if d.Log != nil {
		d.Log.Warn(fmt.Sprintf(format, args...))
	}
}
