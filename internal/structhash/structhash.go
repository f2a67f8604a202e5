// Package structhash computes a stable hash over the non-text structure of
// an XML part: every text-bearing element's content and a configured set of
// attribute values are zeroed before canonicalization, so the hash changes
// only when elements, attributes, or their ordering change — never when
// translatable text changes.
package structhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"io"

	"github.com/ucarion/c14n"

	"github.com/inkwell-labs/doctran/internal/pipelineerr"
)

// QNameSet is a set of "space local" XML qualified names.
type QNameSet map[string]bool

// DefaultTextQNames are the element names whose character content is
// zeroed: word/drawing/deleted-text runs.
var DefaultTextQNames = QNameSet{
	"w:t":       true,
	"w:delText": true,
	"a:t":       true,
}

// DefaultAttrQNames are attribute names removed entirely wherever they
// occur (e.g. whitespace-preservation hints, which the
// projector may need to add or remove).
var DefaultAttrQNames = QNameSet{
	"xml:space": true,
}

// AttrPair identifies one (element, attribute) pair whose value is zeroed
// only on that specific element, such as numbering level text.
type AttrPair struct{ Elem, Attr string }

// DefaultAttrPairs are element/attribute combinations zeroed by element
// identity rather than attribute name alone.
var DefaultAttrPairs = []AttrPair{
	{"w:lvlText", "w:val"},
}

// tokenSliceReader adapts a []xml.Token to c14n.RawTokenReader.
type tokenSliceReader struct {
	toks []xml.Token
	pos  int
}

func (r *tokenSliceReader) RawToken() (xml.Token, error) {
	if r.pos >= len(r.toks) {
		return nil, io.EOF
	}
	t := r.toks[r.pos]
	r.pos++
	return t, nil
}

// nsToPrefix mirrors internal/extract's namespace-URI-to-canonical-prefix
// map: encoding/xml reports a prefixed name's resolved namespace URI in
// Name.Space, not the document's own prefix.
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

// Canonicalize reads part as a token stream and returns its canonical form
// with text/attribute values zeroed per the given qname sets.
func Canonicalize(part []byte, textQNames, attrQNames QNameSet, attrPairs []AttrPair) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(part))
	var toks []xml.Token
	var elemStack []string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pipelineerr.New(pipelineerr.DocxParse, "decoding xml for structure hash", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := qname(t.Name)
			elemStack = append(elemStack, name)
			attrs := make([]xml.Attr, 0, len(t.Attr))
			for _, a := range t.Attr {
				an := qname(a.Name)
				if attrQNames[an] {
					continue
				}
				for _, p := range attrPairs {
					if p.Elem == name && p.Attr == an {
						a.Value = ""
					}
				}
				attrs = append(attrs, a)
			}
			toks = append(toks, xml.StartElement{Name: t.Name, Attr: attrs}.Copy())
		case xml.EndElement:
			if len(elemStack) > 0 {
				elemStack = elemStack[:len(elemStack)-1]
			}
			toks = append(toks, t.Copy())
		case xml.CharData:
			if len(elemStack) > 0 && textQNames[elemStack[len(elemStack)-1]] {
				toks = append(toks, xml.CharData{})
			} else {
				toks = append(toks, t.Copy())
			}
		default:
			toks = append(toks, xml.CopyToken(tok))
		}
	}

	return c14n.Canonicalize(&tokenSliceReader{toks: toks})
}

// Hash returns the hex-encoded SHA-256 of part's canonical, zeroed form.
func Hash(part []byte) (string, error) {
	canon, err := Canonicalize(part, DefaultTextQNames, DefaultAttrQNames, DefaultAttrPairs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether part's current structure hash still equals
// baseline, returning a Structure-kind pipeline error if not.
func Verify(partName string, part []byte, baseline string) error {
	h, err := Hash(part)
	if err != nil {
		return err
	}
	if h != baseline {
		return pipelineerr.New(pipelineerr.Structure, "structure hash mismatch", nil).WithPart(partName)
	}
	return nil
}
