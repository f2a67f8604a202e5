package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/doctran/internal/sentinel"
)

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func runeCount(s string) int {
	return len([]rune(s))
}

func TestSplitBySentinelsAlternates(t *testing.T) {
	text := "see " + sentinel.NTToken(1) + " for details" + sentinel.Tab + "more"
	parts := SplitBySentinels(text)
	require.Len(t, parts, 5)
	assert.Equal(t, "see ", parts[0].Text)
	assert.False(t, parts[0].IsSentinel)
	assert.Equal(t, sentinel.NTToken(1), parts[1].Text)
	assert.True(t, parts[1].IsSentinel)
	assert.Equal(t, " for details", parts[2].Text)
	assert.Equal(t, sentinel.Tab, parts[3].Text)
	assert.True(t, parts[3].IsSentinel)
	assert.Equal(t, "more", parts[4].Text)
}

func TestSplitBySentinelsNoSentinel(t *testing.T) {
	parts := SplitBySentinels("plain text")
	require.Len(t, parts, 1)
	assert.Equal(t, "plain text", parts[0].Text)
	assert.False(t, parts[0].IsSentinel)
}

func TestSplitByBudgetUnderBudgetReturnsWhole(t *testing.T) {
	out := SplitByBudget("short text", 100, wordCount)
	require.Len(t, out, 1)
	assert.Equal(t, "short text", out[0])
}

func TestSplitByBudgetSplitsOnStrongBoundary(t *testing.T) {
	out := SplitByBudget("One. Two. Three. Four.", 2, wordCount)
	require.Len(t, out, 2)
	assert.Equal(t, "One. Two. ", out[0])
	assert.Equal(t, "Three. Four.", out[1])
	for _, c := range out {
		assert.LessOrEqual(t, wordCount(c), 2)
	}
}

func TestSplitByBudgetFallsBackToHardSplit(t *testing.T) {
	out := SplitByBudget("abcdefghij", 3, runeCount)
	require.Len(t, out, 2)
	assert.Equal(t, "abcdef", out[0])
	assert.Equal(t, "ghij", out[1])
}

func TestMaxNewTokensForSourceTiers(t *testing.T) {
	assert.Equal(t, 64, MaxNewTokensForSource(10))
	assert.Equal(t, 128, MaxNewTokensForSource(64))
	assert.Equal(t, 256, MaxNewTokensForSource(160))
	assert.Equal(t, 384, MaxNewTokensForSource(320))
	assert.Equal(t, 512, MaxNewTokensForSource(640))
	assert.Equal(t, 768, MaxNewTokensForSource(1000))
}

func TestDetectStitchDuplicateTrue(t *testing.T) {
	inputs := []string{"a.", "b.", "c."}
	outputs := []string{"translated a.", "translated b.", "translated b."}
	assert.True(t, DetectStitchDuplicate(inputs, outputs))
}

func TestDetectStitchDuplicateFalseWhenSourceAlsoRepeats(t *testing.T) {
	inputs := []string{"a.", "a."}
	outputs := []string{"translated a.", "translated a."}
	assert.False(t, DetectStitchDuplicate(inputs, outputs))
}

func TestDetectStitchDuplicateFalseNoRepeats(t *testing.T) {
	outputs := []string{"one", "two", "three"}
	assert.False(t, DetectStitchDuplicate(nil, outputs))
}
