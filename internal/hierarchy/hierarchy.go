// Package hierarchy resolves paragraph-level structural context: heading
// level from style inheritance, the running section-path stack, and
// list/table membership, all exposed to the translation driver purely as
// prompt enrichment.
package hierarchy

import (
	"regexp"
	"strings"

	"github.com/inkwell-labs/doctran/internal/ir"
)

// StyleInfo is one entry from the styles part.
type StyleInfo struct {
	ID         string
	Name       string
	BasedOn    string
	OutlineLvl int // -1 if unset
}

// StyleTable resolves style ids to their effective outline level via the
// BasedOn inheritance chain.
type StyleTable struct {
	styles map[string]StyleInfo
}

// NewStyleTable builds a table from the parsed styles part.
func NewStyleTable(styles []StyleInfo) *StyleTable {
	t := &StyleTable{styles: make(map[string]StyleInfo, len(styles))}
	for _, s := range styles {
		t.styles[s.ID] = s
	}
	return t
}

var headingNameRe = regexp.MustCompile(`(?i)^(?:heading|标题)\s*([1-9])$`)

// ResolveOutline walks the BasedOn chain for styleID, returning the
// effective outline level (0-based) and true if one was found, either
// explicitly or via a "Heading N"/"标题 N" style name.
func (t *StyleTable) ResolveOutline(styleID string) (int, bool) {
	seen := map[string]bool{}
	id := styleID
	for id != "" && !seen[id] {
		seen[id] = true
		s, ok := t.styles[id]
		if !ok {
			return 0, false
		}
		if s.OutlineLvl >= 0 {
			return s.OutlineLvl, true
		}
		if m := headingNameRe.FindStringSubmatch(strings.TrimSpace(s.Name)); m != nil {
			lvl := int(m[1][0]-'0') - 1
			return lvl, true
		}
		id = s.BasedOn
	}
	return 0, false
}

func (t *StyleTable) styleName(id string) string {
	if s, ok := t.styles[id]; ok {
		return s.Name
	}
	return ""
}

// SectionTracker maintains the running heading stack while paragraphs are
// visited in document order within one part.
type SectionTracker struct {
	stack []sectionEntry
}

type sectionEntry struct {
	level int
	text  string
}

// NewSectionTracker returns an empty tracker.
func NewSectionTracker() *SectionTracker { return &SectionTracker{} }

// Path returns the current section path, outermost first.
func (s *SectionTracker) Path() []string {
	out := make([]string, len(s.stack))
	for i, e := range s.stack {
		out[i] = e.text
	}
	return out
}

// Observe updates the tracker with a paragraph at the given heading level
// (only called when isHeading is true) and text, popping any entries at or
// below this level first.
func (s *SectionTracker) Observe(level int, text string) {
	cleaned := strings.TrimSpace(text)
	for len(s.stack) > 0 && s.stack[len(s.stack)-1].level >= level {
		s.stack = s.stack[:len(s.stack)-1]
	}
	s.stack = append(s.stack, sectionEntry{level: level, text: cleaned})
}

// Resolve fills in a TU's ParagraphContext given its style id, a flag for
// drawing/table-cell membership, and list id/level (empty/0 if none). It
// also advances the section tracker when the paragraph is a heading.
func Resolve(tracker *SectionTracker, styles *StyleTable, styleID, plainText string, inTable bool, listID string, listLevel int) ir.ParagraphContext {
	ctx := ir.ParagraphContext{
		StyleID:   styleID,
		StyleName: styles.styleName(styleID),
		InTable:   inTable,
		ListID:    listID,
		ListLevel: listLevel,
	}
	if lvl, ok := styles.ResolveOutline(styleID); ok {
		ctx.IsHeading = true
		ctx.HeadingLvl = lvl
		ctx.OutlineLvl = lvl
		tracker.Observe(lvl, plainText)
	}
	ctx.SectionPath = tracker.Path()
	return ctx
}
