// Package review performs the final agent-assisted review pass over a
// document's translated TUs: a bounded number of hard-failure repair rounds
// across the whole TU set. No document-wide coherence pass is run.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/logging"
	"github.com/inkwell-labs/doctran/internal/modelclient"
	"github.com/inkwell-labs/doctran/internal/normalize"
	"github.com/inkwell-labs/doctran/internal/quality"
)

// Reviewer runs the document-level review/repair rounds after per-TU
// translation has produced an initial Final for every TU.
type Reviewer struct {
	Agent      modelclient.AgentModel
	Log        *logging.Logger
	TargetLang string
	MaxRounds  int
}

// RoundReport summarizes one hard-failure repair round.
type RoundReport struct {
	Round    int
	Repaired []int // TU ids whose hard issues cleared this round
	StillBad []int // TU ids still carrying a hard issue after this round
}

// RunHardFailureRounds repeatedly re-evaluates every TU with an
// outstanding hard issue, asks the agent for a direct rewrite, re-runs
// normalization/evaluation, and stops early once no TU has a hard issue or
// MaxRounds is reached. Returns one RoundReport per round actually run.
func (r *Reviewer) RunHardFailureRounds(ctx context.Context, tus []*ir.TU) []RoundReport {
	var reports []RoundReport
	rounds := r.MaxRounds
	if rounds <= 0 {
		rounds = 1
	}
	for round := 1; round <= rounds; round++ {
		bad := hardFailing(tus)
		if len(bad) == 0 {
			break
		}
		report := RoundReport{Round: round}
		for _, tu := range bad {
			if r.repairOne(ctx, tu) {
				report.Repaired = append(report.Repaired, tu.ID)
			} else {
				report.StillBad = append(report.StillBad, tu.ID)
			}
		}
		reports = append(reports, report)
		if len(report.StillBad) == 0 {
			break
		}
	}
	return reports
}

func hardFailing(tus []*ir.TU) []*ir.TU {
	var out []*ir.TU
	for _, tu := range tus {
		for _, issue := range tu.Issues {
			if quality.HardIssues[issue] {
				out = append(out, tu)
				break
			}
		}
	}
	return out
}

func (r *Reviewer) repairOne(ctx context.Context, tu *ir.TU) bool {
	if r.Agent == nil {
		return false
	}
	prompt := fmt.Sprintf(
		"Rewrite this translation to fix: %v. Frozen source: %q. Current draft: %q. "+
			"Preserve every <<MT_...>> token exactly once, every number, and the target language.",
		tu.Issues, tu.FrozenSurface, tu.Final,
	)
	out, err := r.Agent.Generate(ctx, prompt, 512)
	if err != nil {
		r.logf("review repair call failed for tu %d: %v", tu.ID, err)
		return false
	}
	norm := normalize.Normalize(normalize.Input{
		Candidate:     out,
		SourcePlain:   tu.PlainText(),
		FrozenSurface: tu.FrozenSurface,
		Placeholders:  tu.Placeholders,
		TargetLang:    r.TargetLang,
	})
	tu.Final = norm.Text
	tu.Issues = nil
	for _, issue := range quality.Evaluate(quality.Input{
		Source:     tu.FrozenSurface,
		Candidate:  tu.Final,
		TargetLang: r.TargetLang,
	}) {
		tu.AddIssue(issue)
	}
	for _, issue := range tu.Issues {
		if quality.HardIssues[issue] {
			tu.Label = "keep_bad"
			return false
		}
	}
	tu.Label = "translated"
	return true
}

// DocumentSummary is the agent-inferred document context produced by
// InferDocumentContext, consumed by internal/translate as DocumentContext.
type DocumentSummary struct {
	Domain  string
	DocType string
	Summary string
}

// InferDocumentContext asks the agent for a short structured summary of the
// document from a sample of its TUs' plain text, used to enrich every
// subsequent per-TU translation prompt.
func InferDocumentContext(ctx context.Context, agent modelclient.AgentModel, tus []*ir.TU, sampleSize int) (DocumentSummary, error) {
	if agent == nil || len(tus) == 0 {
		return DocumentSummary{}, nil
	}
	if sampleSize <= 0 || sampleSize > len(tus) {
		sampleSize = len(tus)
	}
	var sample strings.Builder
	for _, tu := range tus[:sampleSize] {
		sample.WriteString(tu.PlainText())
		sample.WriteString("\n")
	}
	prompt := "Summarize, in one sentence each, the domain and document type of this text, " +
		"then a one-paragraph summary. Text sample:\n" + sample.String()
	out, err := agent.Generate(ctx, prompt, 256)
	if err != nil {
		return DocumentSummary{}, err
	}
	return parseDocumentSummary(out), nil
}

func parseDocumentSummary(text string) DocumentSummary {
	lines := strings.SplitN(strings.TrimSpace(text), "\n", 3)
	var s DocumentSummary
	if len(lines) > 0 {
		s.Domain = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		s.DocType = strings.TrimSpace(lines[1])
	}
	if len(lines) > 2 {
		s.Summary = strings.TrimSpace(lines[2])
	}
	return s
}

func (r *Reviewer) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Warn(fmt.Sprintf(format, args...))
	}
}
