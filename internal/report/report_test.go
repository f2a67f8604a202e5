package report

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/doctran/internal/docxio"
	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/review"
)

func TestBuildSummaryCountsAndFiltersHardIssues(t *testing.T) {
	translated := &ir.TU{ID: 1, Part: "word/document.xml", Label: "translated"}
	skipped := &ir.TU{ID: 2, Part: "word/document.xml", Label: "sentinel_only"}
	softIssue := &ir.TU{ID: 3, Part: "word/document.xml", Label: "translated", Issues: []string{"not_a_hard_tag"}}
	hardIssue := &ir.TU{
		ID: 4, Part: "word/document.xml", Label: "keep_bad",
		Atoms:  []ir.Atom{{Kind: ir.AtomText, Value: "hello world"}},
		Final:  "HELLO WORLD",
		Issues: []string{"looks_untranslated"},
	}
	glossaryLeak := &ir.TU{
		ID: 5, Part: "word/document.xml", Label: "keep_bad",
		Issues: []string{"glossary_leakage:firewall"},
	}

	rounds := []review.RoundReport{{Round: 1, Repaired: []int{10}, StillBad: []int{4}}}
	s := BuildSummary([]*ir.TU{translated, skipped, softIssue, hardIssue, glossaryLeak}, "zh", rounds)

	assert.Equal(t, 5, s.TotalTUs)
	assert.Equal(t, 2, s.TranslatedTUs)
	assert.Equal(t, 1, s.SkippedTUs)
	require.Len(t, s.StillBad, 1)
	assert.Equal(t, 4, s.StillBad[0].ID)
	assert.Equal(t, "hello world", s.StillBad[0].Source)
	assert.Equal(t, "HELLO WORLD", s.StillBad[0].Final)
}

func TestToMarkdownRendersOverviewAndFailures(t *testing.T) {
	s := BuildSummary(
		[]*ir.TU{{
			ID: 9, Part: "word/document.xml", Label: "keep_bad",
			Atoms:  []ir.Atom{{Kind: ir.AtomText, Value: "source text"}},
			Final:  "bad output",
			Issues: []string{"too_short"},
		}},
		"zh",
		[]review.RoundReport{{Round: 1, Repaired: nil, StillBad: []int{9}}},
	)

	out := s.ToMarkdown()
	assert.Contains(t, out, "Translation Run Summary")
	assert.Contains(t, out, "Target language")
	assert.Contains(t, out, "TU 9")
	assert.Contains(t, out, "too_short")
	assert.Contains(t, out, "source text")
}

func TestToMarkdownNoFailures(t *testing.T) {
	s := BuildSummary([]*ir.TU{{ID: 1, Label: "translated"}}, "en", nil)
	out := s.ToMarkdown()
	assert.Contains(t, out, "None.")
}

func TestLoadGlossaryMarkdownParsesBulletAndTableEntries(t *testing.T) {
	src := []byte(`# Glossary

- firewall -> 防火墙
- gateway | 网关

| Source | Target |
|---|---|
| subnet | 子网 |
`)
	g, err := LoadGlossaryMarkdown(src, 0)
	require.NoError(t, err)
	assert.Equal(t, "防火墙", g["firewall"])
	assert.Equal(t, "网关", g["gateway"])
	assert.Equal(t, "子网", g["subnet"])
}

func TestLoadGlossaryMarkdownRespectsMaxTerms(t *testing.T) {
	src := []byte(`
- a -> 1
- b -> 2
- c -> 3
`)
	g, err := LoadGlossaryMarkdown(src, 2)
	require.NoError(t, err)
	assert.Len(t, g, 2)
}

func TestLoadGlossaryMarkdownIgnoresUnrelatedLines(t *testing.T) {
	src := []byte("Just a plain paragraph with no separator.\n")
	g, err := LoadGlossaryMarkdown(src, 0)
	require.NoError(t, err)
	assert.Empty(t, g)
}

func TestLoadStyleGuideHTMLFlattensToPlainText(t *testing.T) {
	html := `<html><body><h1>Style Guide</h1><p>Use <b>formal</b> register.</p></body></html>`
	text := LoadStyleGuideHTML([]byte(html))
	assert.Contains(t, text, "Style Guide")
	assert.Contains(t, text, "formal")
	assert.NotContains(t, text, "<b>")
}

func buildDebugPkg(t *testing.T) *docxio.Package {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>hi</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	pkg, err := docxio.Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return pkg
}

func TestDebugDumpRendersOnlyModifiedParts(t *testing.T) {
	pkg := buildDebugPkg(t)
	tus := []*ir.TU{{ID: 1, Part: "word/document.xml", ScopeKey: "w:p#0", Label: "translated"}}

	dump, err := DebugDump(pkg, tus)
	require.NoError(t, err)
	assert.Contains(t, dump, `"modifiedParts": {}`)
	assert.Contains(t, dump, `"word/document.xml"`)
	assert.Contains(t, dump, `"id": 1`)
	assert.Contains(t, dump, `"label": "translated"`)
	assert.Contains(t, dump, `"scope": "w:p#0"`)
}

func TestDebugDumpIncludesModifiedPartXML(t *testing.T) {
	pkg := buildDebugPkg(t)
	pkg.Part("word/document.xml").SetBody([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>bonjour</w:t></w:r></w:p></w:body></w:document>`))

	dump, err := DebugDump(pkg, nil)
	require.NoError(t, err)
	assert.Contains(t, dump, `"modifiedParts"`)
	assert.Contains(t, dump, "word/document.xml")
	assert.Contains(t, dump, "bonjour")
	assert.True(t, strings.Contains(dump, `"translationUnits": {}`))
}
