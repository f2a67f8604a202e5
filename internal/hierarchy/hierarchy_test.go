package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOutlineExplicitLevel(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "H1", Name: "Heading 1", OutlineLvl: 0},
	})
	lvl, ok := tbl.ResolveOutline("H1")
	assert.True(t, ok)
	assert.Equal(t, 0, lvl)
}

func TestResolveOutlineViaHeadingName(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "customStyle", Name: "Heading 2", OutlineLvl: -1},
	})
	lvl, ok := tbl.ResolveOutline("customStyle")
	assert.True(t, ok)
	assert.Equal(t, 1, lvl)
}

func TestResolveOutlineViaChineseHeadingName(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "zhStyle", Name: "标题 3", OutlineLvl: -1},
	})
	lvl, ok := tbl.ResolveOutline("zhStyle")
	assert.True(t, ok)
	assert.Equal(t, 2, lvl)
}

func TestResolveOutlineInheritsViaBasedOn(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "Base", Name: "Heading 1", OutlineLvl: -1},
		{ID: "Child", Name: "Child Style", BasedOn: "Base", OutlineLvl: -1},
	})
	lvl, ok := tbl.ResolveOutline("Child")
	assert.True(t, ok)
	assert.Equal(t, 0, lvl)
}

func TestResolveOutlineUnknownStyleID(t *testing.T) {
	tbl := NewStyleTable(nil)
	_, ok := tbl.ResolveOutline("Nope")
	assert.False(t, ok)
}

func TestResolveOutlineBreaksInheritanceCycle(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "A", Name: "Body Text", BasedOn: "B", OutlineLvl: -1},
		{ID: "B", Name: "Body Text", BasedOn: "A", OutlineLvl: -1},
	})
	_, ok := tbl.ResolveOutline("A")
	assert.False(t, ok)
}

func TestResolveOutlineBodyTextNotHeading(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "Normal", Name: "Normal", OutlineLvl: -1},
	})
	_, ok := tbl.ResolveOutline("Normal")
	assert.False(t, ok)
}

func TestSectionTrackerPopsAtOrBelowLevel(t *testing.T) {
	tr := NewSectionTracker()
	tr.Observe(0, "Chapter One")
	tr.Observe(1, "Section A")
	assert.Equal(t, []string{"Chapter One", "Section A"}, tr.Path())

	tr.Observe(1, "Section B")
	assert.Equal(t, []string{"Chapter One", "Section B"}, tr.Path())

	tr.Observe(0, "Chapter Two")
	assert.Equal(t, []string{"Chapter Two"}, tr.Path())
}

func TestResolveBuildsParagraphContext(t *testing.T) {
	tbl := NewStyleTable([]StyleInfo{
		{ID: "H1", Name: "Heading 1", OutlineLvl: 0},
	})
	tracker := NewSectionTracker()

	headingCtx := Resolve(tracker, tbl, "H1", "Chapter One", false, "", 0)
	assert.True(t, headingCtx.IsHeading)
	assert.Equal(t, 0, headingCtx.HeadingLvl)
	assert.Equal(t, []string{"Chapter One"}, headingCtx.SectionPath)
	assert.Equal(t, "Heading 1", headingCtx.StyleName)

	bodyCtx := Resolve(tracker, tbl, "Normal", "some body text", true, "list1", 2)
	assert.False(t, bodyCtx.IsHeading)
	assert.True(t, bodyCtx.InTable)
	assert.Equal(t, "list1", bodyCtx.ListID)
	assert.Equal(t, 2, bodyCtx.ListLevel)
	assert.Equal(t, []string{"Chapter One"}, bodyCtx.SectionPath)
}
