package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkwell-labs/doctran/internal/sentinel"
)

func TestNormalizeRepairsRawControlsToTokens(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "line one\nline two",
		SourcePlain:   "line one line two",
		FrozenSurface: "line one" + sentinel.Br + "line two",
		TargetLang:    "en",
	})
	assert.Equal(t, "line one"+sentinel.Br+"line two", res.Text)
	assert.Contains(t, res.Issues, "raw_control_repaired")
}

func TestNormalizeStripsPromptArtifact(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "[INSTRUCTION] be formal\nActual translated text",
		SourcePlain:   "Actual source text",
		FrozenSurface: "Actual source text",
		TargetLang:    "en",
	})
	assert.Contains(t, res.Issues, "prompt_artifact")
	assert.NotContains(t, res.Text, "INSTRUCTION")
}

func TestNormalizeRestoresMissingNT(t *testing.T) {
	placeholders := map[string]string{sentinel.NTToken(1): "https://example.com"}
	res := Normalize(Input{
		Candidate:     "visit https://example.com now",
		SourcePlain:   "visit the site now",
		FrozenSurface: "visit " + sentinel.NTToken(1) + " now",
		Placeholders:  placeholders,
		TargetLang:    "en",
	})
	assert.Contains(t, res.Text, sentinel.NTToken(1))
}

func TestNormalizeStripsUnexpectedSentinel(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "hello " + sentinel.NTToken(9) + " world",
		SourcePlain:   "hello world",
		FrozenSurface: "hello world",
		Placeholders:  map[string]string{},
		TargetLang:    "en",
	})
	assert.NotContains(t, res.Text, sentinel.NTToken(9))
}

func TestNormalizeFlagsNumberMismatch(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "the fee is due",
		SourcePlain:   "the fee of 500 is due",
		FrozenSurface: "the fee of 500 is due",
		TargetLang:    "en",
	})
	assert.Contains(t, res.Issues, "number_mismatch")
}

func TestNormalizeRemovesSurplusNumbers(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "the fee is 500 and also 999",
		SourcePlain:   "the fee is 500",
		FrozenSurface: "the fee is 500",
		TargetLang:    "en",
	})
	assert.NotContains(t, res.Text, "999")
	assert.Contains(t, res.Text, "500")
}

func TestNormalizeConvertsChineseNumeralReference(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "根据第十二条的规定",
		SourcePlain:   "根据第12条的规定",
		FrozenSurface: "根据第12条的规定",
		TargetLang:    "zh",
	})
	assert.Contains(t, res.Text, "第12条")
}

func TestNormalizeCollapsesEnglishInnerWhitespace(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "hello    world",
		SourcePlain:   "hello world",
		FrozenSurface: "hello world",
		TargetLang:    "en",
	})
	assert.Equal(t, "hello world", res.Text)
}

func TestNormalizeCollapsesCJKInnerWhitespace(t *testing.T) {
	res := Normalize(Input{
		Candidate:     "你好  世界",
		SourcePlain:   "你好 世界",
		FrozenSurface: "你好 世界",
		TargetLang:    "zh",
	})
	assert.Equal(t, "你好世界", res.Text)
}
