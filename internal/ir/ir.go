// Package ir defines the in-memory data model shared by every stage of the
// translation pipeline: text node references into a parsed XML part, atoms,
// format spans, and translation units.
package ir

import "strings"

// NodeKind identifies what kind of XML carrier a TextNodeRef points at.
type NodeKind int

const (
	// NodeText is an element whose character content carries the text
	// (e.g. w:t, w:delText, a:t).
	NodeText NodeKind = iota
	// NodeDrawingText is text inside a drawing/shape paragraph.
	NodeDrawingText
	// NodeAttrValue is an attribute whose value carries the text
	// (e.g. w:lvlText/@w:val).
	NodeAttrValue
)

// TextNodeRef is a non-owning handle to one mutable text carrier in a parsed
// XML part. Handle is an opaque identifier assigned by the extractor and
// resolved back to a concrete element/attribute by the part that produced
// it; ir itself never dereferences it.
type TextNodeRef struct {
	Part     string
	Kind     NodeKind
	Handle   int
	AttrName string
	Original string
}

// AtomKind distinguishes text-bearing atoms from layout control atoms.
type AtomKind int

const (
	AtomText AtomKind = iota
	AtomTab
	AtomBreak
	AtomNonBreakingHyphen
	AtomSoftHyphen
)

// Atom is the smallest unit emitted by the extractor within a paragraph
// scope.
type Atom struct {
	Kind      AtomKind
	Value     string
	NodeRef   TextNodeRef
	Signature string
}

// IsControl reports whether the atom carries no node reference.
func (a Atom) IsControl() bool { return a.Kind != AtomText }

// ControlToken renders a control atom as its canonical sentinel string.
// Returns "" for text atoms.
func (a Atom) ControlToken() string {
	switch a.Kind {
	case AtomTab:
		return "<<MT_TAB>>"
	case AtomBreak:
		return "<<MT_BR>>"
	case AtomNonBreakingHyphen:
		return "<<MT_NBH>>"
	case AtomSoftHyphen:
		return "<<MT_SHY>>"
	default:
		return ""
	}
}

// FormatSpan is a maximal run of contiguous TEXT atoms sharing one
// formatting signature.
type FormatSpan struct {
	Signature  string
	NodeRefs   []TextNodeRef
	SourceText string
	// BlockIndex is the 0-based index of the control-token-delimited
	// literal block this span belongs to, assigned by the extractor.
	BlockIndex int
}

// Len returns the rune length of the span's source text.
func (s FormatSpan) Len() int { return len([]rune(s.SourceText)) }

// TU is a paragraph-like translation unit.
type TU struct {
	ID   int
	Part string
	// ScopeKey identifies the paragraph-like scope this TU was extracted
	// from: the scope element's name and the index of its start token in
	// the part (e.g. "w:p#42", "a:p#7").
	ScopeKey string

	Atoms []Atom
	Spans []FormatSpan

	SourceSurface string
	FrozenSurface string
	Placeholders  map[string]string

	Context ParagraphContext

	Draft string
	Final string

	// Label records why/how this TU was handled: "translated", "skip",
	// "keep_bad", or a specific skip reason such as "sentinel_only".
	Label string

	Issues []string
}

// ParagraphContext is read-only prompt-enrichment metadata resolved by the
// hierarchy package.
type ParagraphContext struct {
	SectionPath []string
	IsHeading   bool
	HeadingLvl  int
	StyleID     string
	StyleName   string
	OutlineLvl  int
	ListID      string
	ListLevel   int
	InTable     bool
}

// PlainText returns the TU's source surface with control tokens removed,
// used for length/script heuristics.
func (t *TU) PlainText() string {
	var b strings.Builder
	for _, a := range t.Atoms {
		if a.Kind == AtomText {
			b.WriteString(a.Value)
		}
	}
	return b.String()
}

// HasIssue reports whether tag is already recorded on the TU.
func (t *TU) HasIssue(tag string) bool {
	for _, i := range t.Issues {
		if i == tag {
			return true
		}
	}
	return false
}

// AddIssue appends tag if not already present, keeping Issues sorted is the
// caller's responsibility (quality.Evaluate returns a pre-sorted set).
func (t *TU) AddIssue(tag string) {
	if !t.HasIssue(tag) {
		t.Issues = append(t.Issues, tag)
	}
}
