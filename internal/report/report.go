// Package report builds the end-of-run hard-failure summary, ingests
// glossary/style-guide source documents, and renders a debug dump of the
// parts the pipeline touched.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/clbanning/mxj"
	"github.com/k3a/html2text"
	"github.com/nao1215/markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/text"

	"github.com/inkwell-labs/doctran/internal/docxio"
	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/quality"
	"github.com/inkwell-labs/doctran/internal/review"
	"github.com/inkwell-labs/doctran/internal/textutil"
)

// Summary is the end-of-run report: one entry per TU that still carries a
// hard issue after repair, plus the repair rounds that were run.
type Summary struct {
	GeneratedAt   time.Time
	SourcePart    string
	TargetLang    string
	TotalTUs      int
	TranslatedTUs int
	SkippedTUs    int
	Rounds        []review.RoundReport
	StillBad      []TUFailure
}

// TUFailure is one translation unit that never cleared its hard issues.
type TUFailure struct {
	ID     int
	Part   string
	Issues []string
	Source string
	Final  string
}

// BuildSummary assembles a Summary from the finished TU set and the
// hard-failure repair rounds already run against it.
func BuildSummary(tus []*ir.TU, targetLang string, rounds []review.RoundReport) Summary {
	s := Summary{
		GeneratedAt: time.Now().UTC(),
		TargetLang:  targetLang,
		TotalTUs:    len(tus),
		Rounds:      rounds,
	}
	for _, tu := range tus {
		switch tu.Label {
		case "translated":
			s.TranslatedTUs++
		case "", "keep_bad":
		default:
			s.SkippedTUs++
		}
		if len(tu.Issues) == 0 {
			continue
		}
		hasHard := false
		for _, issue := range tu.Issues {
			tag, _, _ := strings.Cut(issue, ":") // strip "glossary_leakage:<term>" suffix
			if quality.HardIssues[tag] {
				hasHard = true
				break
			}
		}
		if !hasHard {
			continue
		}
		s.StillBad = append(s.StillBad, TUFailure{
			ID:     tu.ID,
			Part:   tu.Part,
			Issues: slices.Clone(tu.Issues),
			Source: textutil.Preview(tu.PlainText(), previewChars),
			Final:  textutil.Preview(tu.Final, previewChars),
		})
	}
	return s
}

const previewChars = 160

// ToMarkdown renders the summary as a Markdown report.
func (s Summary) ToMarkdown() string {
	var buf strings.Builder
	md := markdown.NewMarkdown(&buf)

	md.H1("Translation Run Summary").
		PlainTextf("Generated: %s", s.GeneratedAt.Format(time.RFC3339)).
		LF()

	overview := []string{
		fmt.Sprintf("%s: %s", markdown.Bold("Target language"), s.TargetLang),
		fmt.Sprintf("%s: %d", markdown.Bold("Total translation units"), s.TotalTUs),
		fmt.Sprintf("%s: %d", markdown.Bold("Translated"), s.TranslatedTUs),
		fmt.Sprintf("%s: %d", markdown.Bold("Skipped"), s.SkippedTUs),
		fmt.Sprintf("%s: %d", markdown.Bold("Still failing after repair"), len(s.StillBad)),
	}
	md.H2("Overview").BulletList(overview...).LF()

	if len(s.Rounds) > 0 {
		md.H2("Hard-Failure Repair Rounds")
		table := markdown.TableSet{
			Header: []string{"Round", "Repaired", "Still Bad"},
			Rows:   [][]string{},
		}
		for _, r := range s.Rounds {
			table.Rows = append(table.Rows, []string{
				fmt.Sprintf("%d", r.Round),
				fmt.Sprintf("%d", len(r.Repaired)),
				fmt.Sprintf("%d", len(r.StillBad)),
			})
		}
		md.Table(table).LF()
	}

	md.H2("Unresolved Hard Failures")
	if len(s.StillBad) == 0 {
		md.PlainText("None.").LF()
	} else {
		for _, f := range s.StillBad {
			md.H3(fmt.Sprintf("TU %d (%s)", f.ID, f.Part))
			items := []string{
				fmt.Sprintf("%s: %s", markdown.Bold("Issues"), strings.Join(f.Issues, ", ")),
				fmt.Sprintf("%s: %s", markdown.Bold("Source"), f.Source),
				fmt.Sprintf("%s: %s", markdown.Bold("Final"), f.Final),
			}
			md.BulletList(items...).LF()
		}
	}

	if err := md.Build(); err != nil {
		return "# Translation Run Summary\n\nError generating report.\n"
	}
	return buf.String()
}

// Glossary maps a source term to its required target rendering.
type Glossary map[string]string

// LoadGlossaryMarkdown reads a glossary from a Markdown document. Terms are
// taken from bullet list items or table rows of the form "source -> target"
// or "source | target"; any other line shape is ignored.
func LoadGlossaryMarkdown(src []byte, maxTerms int) (Glossary, error) {
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM, emoji.Emoji))
	doc := gm.Parser().Parse(text.NewReader(src))

	out := Glossary{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindListItem, extast.KindTableRow:
			line := stringifyInline(n, src)
			if n.Kind() == extast.KindTableRow {
				var cells []string
				for c := n.FirstChild(); c != nil; c = c.NextSibling() {
					cells = append(cells, stringifyInline(c, src))
				}
				line = strings.Join(cells, " | ")
			}
			if termSrc, termDst, ok := splitGlossaryLine(line); ok {
				if maxTerms > 0 && len(out) >= maxTerms {
					return ast.WalkStop, nil
				}
				out[termSrc] = termDst
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadStyleGuideHTML flattens an HTML style-guide document to plain text
// for inclusion in an agent prompt.
func LoadStyleGuideHTML(src []byte) string {
	return strings.TrimSpace(html2text.HTML2TextWithOptions(
		string(src),
		html2text.WithUnixLineBreaks(),
		html2text.WithListSupportPrefix("- "),
	))
}

// stringifyInline concatenates the text content of n's descendants.
func stringifyInline(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			continue
		}
		b.WriteString(stringifyInline(c, src))
	}
	return strings.TrimSpace(b.String())
}

// splitGlossaryLine accepts "term -> target", "term | target", or "term → target".
func splitGlossaryLine(line string) (string, string, bool) {
	for _, sep := range []string{"->", "|", "→"} {
		if idx := strings.Index(line, sep); idx > 0 {
			src := strings.TrimSpace(line[:idx])
			dst := strings.TrimSpace(line[idx+len(sep):])
			if src != "" && dst != "" {
				return src, dst, true
			}
		}
	}
	return "", "", false
}

// DebugDump renders the modified parts of pkg as indented XML-shaped JSON,
// one object keyed by part name. No CLI flag calls it.
func DebugDump(pkg *docxio.Package, tus []*ir.TU) (string, error) {
	parts := map[string]any{}
	for _, name := range pkg.ModifiedParts() {
		part := pkg.Parts[name]
		if part == nil {
			continue
		}
		mv, err := mxj.NewMapXml(part.Body)
		if err != nil {
			parts[name] = map[string]string{"_unparsed": string(part.Body)}
			continue
		}
		parts[name] = map[string]any(mv)
	}

	byPart := map[string][]map[string]any{}
	for _, tu := range tus {
		byPart[tu.Part] = append(byPart[tu.Part], map[string]any{
			"id":     tu.ID,
			"scope":  tu.ScopeKey,
			"label":  tu.Label,
			"issues": tu.Issues,
		})
	}

	root := mxj.Map{
		"modifiedParts":    parts,
		"translationUnits": byPart,
	}
	dump, err := root.JsonIndent("", "  ")
	if err != nil {
		return "", err
	}
	return string(dump), nil
}
