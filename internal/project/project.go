// Package project maps a TU's final translated surface back onto its
// format spans and then onto its text node references, using a
// largest-remainder (Hamilton) apportionment weighted by source length at
// each level.
package project

import (
	"fmt"
	"strings"

	"github.com/inkwell-labs/doctran/internal/freeze"
	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/pipelineerr"
	"github.com/inkwell-labs/doctran/internal/sentinel"
)

// block is one control-token-delimited literal segment shared by the source
// and target control-token sequences.
type block struct {
	sourceLiteral string
	targetLiteral string
	spans         []ir.FormatSpan
}

// SpanText is the final text allocated to one span.
type SpanText struct {
	Span ir.FormatSpan
	Text string
}

// NodeText is the final text allocated to one node reference.
type NodeText struct {
	Node ir.TextNodeRef
	Text string
}

// Project splits tu.Final by control-token boundaries into blocks matching
// tu.SourceSurface's block structure, allocates plain (non-NT) target units
// to spans within each block, unfreezes each span's text via placeholders,
// then allocates each span's text across its node references. It returns
// the node-level writes in document order, or an error if the final
// translation's control-token sequence does not match the frozen surface's.
func Project(tu *ir.TU) ([]NodeText, error) {
	sourceTokens := sentinel.ControlTokensFromText(tu.FrozenSurface)
	targetTokens := sentinel.ControlTokensFromText(tu.Final)
	if !equalTokens(sourceTokens, targetTokens) {
		return nil, pipelineerr.New(pipelineerr.Protocol, "control token sequence mismatch", nil).WithTU(tu.ID)
	}

	blocks, err := buildBlocks(tu)
	if err != nil {
		return nil, err
	}

	var nodeWrites []NodeText
	for _, b := range blocks {
		spanTexts := allocateSpans(b)
		for _, st := range spanTexts {
			unfrozen := freeze.Unfreeze(st.Text, tu.Placeholders)
			writes := allocateNodes(st.Span, unfrozen)
			nodeWrites = append(nodeWrites, writes...)
		}
	}
	return nodeWrites, nil
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildBlocks splits both source (frozen) and target (final) surfaces by
// their (equal) control-token sequence into literal blocks, and assigns
// each block the spans whose concatenated source text covers it.
func buildBlocks(tu *ir.TU) ([]block, error) {
	srcParts := splitByControlsOnly(tu.FrozenSurface)
	tgtParts := splitByControlsOnly(tu.Final)

	if len(srcParts) != len(tgtParts) {
		return nil, pipelineerr.New(pipelineerr.Protocol, "literal block count mismatch", nil).WithTU(tu.ID)
	}

	// Each span already carries the control-token-delimited block index it
	// belongs to, assigned by the extractor when spans are built.
	spansByBlock := make([][]ir.FormatSpan, len(srcParts))
	for _, sp := range tu.Spans {
		if sp.BlockIndex < 0 || sp.BlockIndex >= len(spansByBlock) {
			continue
		}
		spansByBlock[sp.BlockIndex] = append(spansByBlock[sp.BlockIndex], sp)
	}

	blocks := make([]block, len(srcParts))
	for i := range srcParts {
		blocks[i] = block{sourceLiteral: srcParts[i], targetLiteral: tgtParts[i], spans: spansByBlock[i]}
	}
	return blocks, nil
}

// splitByControlsOnly splits text on control tokens only (not NT/SEG/END),
// since NT tokens belong inside literal blocks as opaque units.
func splitByControlsOnly(text string) []string {
	re := sentinel.AnySentinelPattern()
	var parts []string
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		tok := text[loc[0]:loc[1]]
		if !sentinel.IsControl(tok) {
			continue
		}
		parts = append(parts, text[last:loc[0]])
		last = loc[1]
	}
	parts = append(parts, text[last:])
	return parts
}

// unit is one user-perceived element of a target literal block: either an
// opaque NT token or a single rune.
type unit struct {
	text    string
	isPlain bool
}

func tokenize(literal string) []unit {
	var units []unit
	last := 0
	for _, loc := range sentinel.AnySentinelPattern().FindAllStringIndex(literal, -1) {
		for _, r := range literal[last:loc[0]] {
			units = append(units, unit{text: string(r), isPlain: true})
		}
		units = append(units, unit{text: literal[loc[0]:loc[1]], isPlain: false})
		last = loc[1]
	}
	for _, r := range literal[last:] {
		units = append(units, unit{text: string(r), isPlain: true})
	}
	return units
}

// allocateSpans distributes b.targetLiteral's units across b.spans by
// largest-remainder apportionment weighted by each span's source length.
func allocateSpans(b block) []SpanText {
	if len(b.spans) == 0 {
		return nil
	}
	units := tokenize(b.targetLiteral)
	plainTotal := 0
	for _, u := range units {
		if u.isPlain {
			plainTotal++
		}
	}
	weights := make([]int, len(b.spans))
	for i, s := range b.spans {
		weights[i] = max1(len([]rune(s.SourceText)))
	}
	quotas := largestRemainder(plainTotal, weights)

	result := make([]SpanText, len(b.spans))
	for i, s := range b.spans {
		result[i].Span = s
	}
	spanIdx := 0
	plainUsed := 0
	var cur strings.Builder
	for _, u := range units {
		for spanIdx < len(b.spans)-1 && u.isPlain && plainUsed >= quotas[spanIdx] {
			result[spanIdx].Text = cur.String()
			cur.Reset()
			spanIdx++
			plainUsed = 0
		}
		cur.WriteString(u.text)
		if u.isPlain {
			plainUsed++
		}
	}
	result[spanIdx].Text = cur.String()
	return result
}

// allocateNodes distributes text across a span's node references by
// largest-remainder apportionment weighted by each node's original text
// length; the last node absorbs any residual.
func allocateNodes(span ir.FormatSpan, text string) []NodeText {
	if len(span.NodeRefs) == 0 {
		return nil
	}
	if len(span.NodeRefs) == 1 {
		return []NodeText{{Node: span.NodeRefs[0], Text: text}}
	}
	runes := []rune(text)
	weights := make([]int, len(span.NodeRefs))
	for i, n := range span.NodeRefs {
		weights[i] = max1(len([]rune(n.Original)))
	}
	quotas := largestRemainder(len(runes), weights)

	out := make([]NodeText, len(span.NodeRefs))
	pos := 0
	for i, n := range span.NodeRefs {
		n := n
		end := pos + quotas[i]
		if i == len(span.NodeRefs)-1 || end > len(runes) {
			end = len(runes)
		}
		out[i] = NodeText{Node: n, Text: string(runes[pos:end])}
		pos = end
	}
	return out
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// largestRemainder apportions total units among len(weights) buckets
// proportional to weights, using the Hamilton/largest-remainder method: each
// bucket first gets floor(share), then remaining units go to the buckets
// with the largest fractional remainder.
func largestRemainder(total int, weights []int) []int {
	n := len(weights)
	quotas := make([]int, n)
	if total <= 0 || n == 0 {
		return quotas
	}
	sum := 0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		sum = n
		weights = make([]int, n)
		for i := range weights {
			weights[i] = 1
		}
	}
	type frac struct {
		idx int
		rem float64
	}
	fracs := make([]frac, n)
	assigned := 0
	for i, w := range weights {
		share := float64(total) * float64(w) / float64(sum)
		q := int(share)
		quotas[i] = q
		fracs[i] = frac{idx: i, rem: share - float64(q)}
		assigned += q
	}
	remaining := total - assigned
	// stable sort by descending remainder, then by index for determinism
	for i := 0; i < len(fracs); i++ {
		for j := i + 1; j < len(fracs); j++ {
			if fracs[j].rem > fracs[i].rem {
				fracs[i], fracs[j] = fracs[j], fracs[i]
			}
		}
	}
	for i := 0; i < remaining && i < len(fracs); i++ {
		quotas[fracs[i].idx]++
	}
	return quotas
}

// String renders a block's allocation for troubleshooting/tests.
func (b block) String() string {
	return fmt.Sprintf("block{src=%q tgt=%q spans=%d}", b.sourceLiteral, b.targetLiteral, len(b.spans))
}
