// Package extract walks a parsed word-processing XML part and builds
// translation units: ordered atoms (text plus layout control markers)
// grouped into maximal formatting spans, one TU per paragraph-like scope.
package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/inkwell-labs/doctran/internal/ir"
	"github.com/inkwell-labs/doctran/internal/pipelineerr"
)

// Document holds the full decoded token stream of one XML part, kept
// in-memory so the projector can mutate individual text/attribute tokens by
// index and re-serialize the whole part afterward.
type Document struct {
	Tokens []xml.Token
}

// Parse decodes data into a mutable token stream.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var toks []xml.Token
	for {
		t, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pipelineerr.New(pipelineerr.DocxParse, "decoding xml part", err)
		}
		toks = append(toks, xml.CopyToken(t))
	}
	return &Document{Tokens: toks}, nil
}

// Serialize re-encodes the token stream.
func (d *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for _, t := range d.Tokens {
		if err := enc.EncodeToken(t); err != nil {
			return nil, pipelineerr.New(pipelineerr.DocxParse, "encoding xml part", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, pipelineerr.New(pipelineerr.DocxParse, "flushing xml encoder", err)
	}
	return buf.Bytes(), nil
}

// SetText replaces the CharData at token index handle.
func (d *Document) SetText(handle int, text string) {
	d.Tokens[handle] = xml.CharData([]byte(text))
}

// SetAttr replaces the named attribute's value on the StartElement at token
// index handle.
func (d *Document) SetAttr(handle int, attrName, value string) {
	se, ok := d.Tokens[handle].(xml.StartElement)
	if !ok {
		return
	}
	for i, a := range se.Attr {
		if qname(a.Name) == attrName {
			se.Attr[i].Value = value
			d.Tokens[handle] = se
			return
		}
	}
}

// SetPreserveSpace sets xml:space="preserve" on the StartElement at handle
// when text has leading/trailing whitespace, matching OOXML convention.
func (d *Document) SetPreserveSpace(handle int) {
	se, ok := d.Tokens[handle].(xml.StartElement)
	if !ok {
		return
	}
	for i, a := range se.Attr {
		if qname(a.Name) == "xml:space" {
			se.Attr[i].Value = "preserve"
			d.Tokens[handle] = se
			return
		}
	}
	se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Space: "xml", Local: "space"}, Value: "preserve"})
	d.Tokens[handle] = se
}

// nsToPrefix maps the namespace URIs encoding/xml resolves prefixed element
// names to (it reports the URI in Name.Space, never the document's own
// prefix) back to the canonical short prefixes the rest of this package
// matches against.
var nsToPrefix = map[string]string{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": "w",
	"http://schemas.openxmlformats.org/drawingml/2006/main":        "a",
	"http://www.w3.org/XML/1998/namespace":                         "xml",
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	if p, ok := nsToPrefix[n.Space]; ok {
		return p + ":" + n.Local
	}
	return n.Space + ":" + n.Local
}

// scopeElems are the element names that open a new paragraph-like TU scope.
var scopeElems = map[string]bool{
	"w:p": true,
	"a:p": true,
}

// runProps are the run-property child elements whose presence feeds the
// formatting signature.
var sigProps = []string{"b", "i", "u", "strike", "color", "highlight", "sz", "rFonts", "rStyle"}

// elementStackEntry tracks one open element during the walk.
type stackEntry struct {
	name      string
	handle    int
	runSig    string // accumulated signature of the nearest enclosing w:r, if any
	hasRunSig bool
}

// WalkResult is the outcome of walking one Document for TUs.
type WalkResult struct {
	TUs []ir.TU
}

// Walk numbers TUs from startID, which the caller supplies so ids stay
// stable across parts within one document, and returns the next free id.
func Walk(doc *Document, partName string, startID int) (WalkResult, int, error) {
	var tus []ir.TU
	var stack []stackEntry
	var curAtoms []ir.Atom
	inScope := false
	curRunSig := ""
	scopeKey := ""
	nextID := startID

	flushTU := func() {
		if !inScope {
			return
		}
		if len(curAtoms) == 0 {
			inScope = false
			return
		}
		if allWhitespace(curAtoms) && !anyControl(curAtoms) {
			curAtoms = nil
			inScope = false
			return
		}
		tu := ir.TU{
			ID:       nextID,
			Part:     partName,
			ScopeKey: scopeKey,
			Atoms:    curAtoms,
			Spans:    buildSpans(curAtoms),
		}
		tu.SourceSurface = surfaceOf(curAtoms)
		tus = append(tus, tu)
		nextID++
		curAtoms = nil
		inScope = false
	}

	for i, tok := range doc.Tokens {
		switch t := tok.(type) {
		case xml.StartElement:
			name := qname(t.Name)
			stack = append(stack, stackEntry{name: name, handle: i})
			switch {
			case scopeElems[name]:
				flushTU()
				inScope = true
				scopeKey = fmt.Sprintf("%s#%d", name, i)
			case name == "w:rPr" || name == "a:rPr":
				// signature accumulation happens via child start elements below
			case isSigPropName(name):
				if len(stack) >= 2 && (stack[len(stack)-2].name == "w:rPr" || stack[len(stack)-2].name == "a:rPr") {
					curRunSig += renderSigProp(name, t.Attr)
				}
			case name == "w:tab" || name == "a:tab":
				if inScope {
					curAtoms = append(curAtoms, ir.Atom{Kind: ir.AtomTab, Value: "<<MT_TAB>>"})
				}
			case name == "w:br" || name == "a:br":
				if inScope {
					curAtoms = append(curAtoms, ir.Atom{Kind: ir.AtomBreak, Value: "<<MT_BR>>"})
				}
			case name == "w:noBreakHyphen":
				if inScope {
					curAtoms = append(curAtoms, ir.Atom{Kind: ir.AtomNonBreakingHyphen, Value: "<<MT_NBH>>"})
				}
			case name == "w:softHyphen":
				if inScope {
					curAtoms = append(curAtoms, ir.Atom{Kind: ir.AtomSoftHyphen, Value: "<<MT_SHY>>"})
				}
			}
		case xml.EndElement:
			name := qname(t.Name)
			if len(stack) > 0 && stack[len(stack)-1].name == name {
				stack = stack[:len(stack)-1]
			}
			if name == "w:r" || name == "a:r" {
				curRunSig = ""
			}
			if scopeElems[name] {
				flushTU()
			}
		case xml.CharData:
			if !inScope || len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1].name
			if parent != "w:t" && parent != "w:delText" && parent != "a:t" {
				continue
			}
			kind := ir.NodeText
			if parent == "a:t" {
				kind = ir.NodeDrawingText
			}
			text := string(t)
			if text == "" {
				continue
			}
			curAtoms = append(curAtoms, ir.Atom{
				Kind:      ir.AtomText,
				Value:     text,
				Signature: curRunSig,
				NodeRef: ir.TextNodeRef{
					Part:     partName,
					Kind:     kind,
					Handle:   i,
					Original: text,
				},
			})
		}
	}
	flushTU()
	return WalkResult{TUs: tus}, nextID, nil
}

func isSigPropName(name string) bool {
	local := name
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		local = name[idx+1:]
	}
	for _, p := range sigProps {
		if p == local {
			return true
		}
	}
	return false
}

func renderSigProp(name string, attrs []xml.Attr) string {
	var b strings.Builder
	b.WriteString(name)
	for _, a := range attrs {
		fmt.Fprintf(&b, "|%s=%s", qname(a.Name), a.Value)
	}
	b.WriteByte(';')
	return b.String()
}

// allWhitespace reports whether every TEXT atom is blank (ignores control
// atoms entirely).
func allWhitespace(atoms []ir.Atom) bool {
	for _, a := range atoms {
		if a.Kind == ir.AtomText && strings.TrimSpace(a.Value) != "" {
			return false
		}
	}
	return true
}

func anyControl(atoms []ir.Atom) bool {
	for _, a := range atoms {
		if a.Kind != ir.AtomText {
			return true
		}
	}
	return false
}

func surfaceOf(atoms []ir.Atom) string {
	var b strings.Builder
	for _, a := range atoms {
		if a.Kind == ir.AtomText {
			b.WriteString(a.Value)
		} else {
			b.WriteString(a.ControlToken())
		}
	}
	return b.String()
}

// buildSpans groups contiguous TEXT atoms sharing a signature into spans,
// flushing on control-atom boundaries or signature change.
func buildSpans(atoms []ir.Atom) []ir.FormatSpan {
	var spans []ir.FormatSpan
	var cur *ir.FormatSpan
	block := 0
	flush := func() {
		if cur != nil && cur.SourceText != "" {
			spans = append(spans, *cur)
		}
		cur = nil
	}
	for _, a := range atoms {
		if a.Kind != ir.AtomText {
			flush()
			block++
			continue
		}
		if cur == nil || cur.Signature != a.Signature {
			flush()
			cur = &ir.FormatSpan{Signature: a.Signature, BlockIndex: block}
		}
		cur.NodeRefs = append(cur.NodeRefs, a.NodeRef)
		cur.SourceText += a.Value
	}
	flush()
	return spans
}
