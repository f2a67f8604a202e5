// Package docxio opens, parses, and rewrites an OOXML word-processing
// package (.docx), preserving every zip entry's metadata and every XML
// part's declaration form for entries the pipeline does not modify.
package docxio

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/inkwell-labs/doctran/internal/pipelineerr"
	"github.com/inkwell-labs/doctran/internal/pool"
)

// declRe captures an XML declaration's standalone attribute, if present.
var declRe = regexp.MustCompile(`<\?xml[^>]*\bstandalone\s*=\s*"(yes|no)"[^>]*\?>`)

// declPrefixRe matches the full leading declaration (if any) so it can be
// stripped and rebuilt verbatim.
var declPrefixRe = regexp.MustCompile(`^<\?xml[^>]*\?>`)

// Declaration records the exact XML declaration text of a part, or its
// absence.
type Declaration struct {
	Present    bool
	Raw        string
	Standalone string // "yes", "no", or "" if absent
}

func detectDeclaration(data []byte) Declaration {
	m := declPrefixRe.Find(data)
	if m == nil {
		return Declaration{}
	}
	d := Declaration{Present: true, Raw: string(m)}
	if sm := declRe.FindSubmatch(m); sm != nil {
		d.Standalone = string(sm[1])
	}
	return d
}

// Part is one XML part of the package: a docx xml entry that the
// extractor/projector may mutate in place.
type Part struct {
	Name        string
	Original    []byte
	Declaration Declaration
	// Body is the mutable copy the extractor/projector write through. It
	// starts as a copy of Original and is replaced wholesale on
	// serialization by the caller via SetBody.
	Body     []byte
	modified bool
}

// SetBody installs new serialized content for this part, to be written back
// verbatim (its own declaration, if any, is ignored in favor of the part's
// original Declaration).
func (p *Part) SetBody(b []byte) {
	p.Body = b
	p.modified = true
}

// xmlPartName reports whether name is treated as a textual XML part the
// pipeline may index (word/drawing content, not binary media).
func xmlPartName(name string) bool {
	return strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".rels")
}

// Package is an open .docx archive: its full zip directory in original
// order, plus parsed XML parts addressable by name.
type Package struct {
	order   []string
	headers map[string]*zip.FileHeader
	raw     map[string][]byte
	Parts   map[string]*Part
}

// Open reads a .docx file fully into memory.
func Open(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, pipelineerr.New(pipelineerr.DocxParse, "invalid zip container", err)
	}
	pkg := &Package{
		headers: make(map[string]*zip.FileHeader),
		raw:     make(map[string][]byte),
		Parts:   make(map[string]*Part),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, pipelineerr.New(pipelineerr.DocxParse, "reading zip entry", err).WithPart(f.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, pipelineerr.New(pipelineerr.DocxParse, "reading zip entry", err).WithPart(f.Name)
		}
		hdr := f.FileHeader
		pkg.order = append(pkg.order, f.Name)
		pkg.headers[f.Name] = &hdr
		pkg.raw[f.Name] = data
		if xmlPartName(f.Name) {
			pkg.Parts[f.Name] = &Part{
				Name:        f.Name,
				Original:    data,
				Declaration: detectDeclaration(data),
				Body:        data,
			}
		}
	}
	return pkg, nil
}

// Part returns the named XML part, or nil if it is not a parsed part.
func (pkg *Package) Part(name string) *Part { return pkg.Parts[name] }

// PartNames returns every parsed XML part name.
func (pkg *Package) PartNames() []string {
	names := make([]string, 0, len(pkg.Parts))
	for n := range pkg.Parts {
		names = append(names, n)
	}
	return names
}

// ModifiedParts returns the names of parts whose Body has been replaced via
// SetBody, in archive order.
func (pkg *Package) ModifiedParts() []string {
	var names []string
	for _, n := range pkg.order {
		if p, ok := pkg.Parts[n]; ok && p.modified {
			names = append(names, n)
		}
	}
	return names
}

// Write serializes the package to w: every entry not present in Parts, or
// present but unmodified, is copied byte-for-byte with its original zip
// metadata; modified parts are rewritten with their recorded declaration
// prefixed to the new body.
func (pkg *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	buf := pool.GetBytesBuffer()
	defer pool.PutBytesBuffer(buf)

	for _, name := range pkg.order {
		hdr := pkg.headers[name]
		fw, err := zw.CreateHeader(cloneHeader(hdr))
		if err != nil {
			return pipelineerr.New(pipelineerr.DocxParse, "writing zip entry", err).WithPart(name)
		}
		if p, ok := pkg.Parts[name]; ok && p.modified {
			body := p.Body
			if bytes.HasPrefix(body, []byte("<?xml")) {
				if end := bytes.Index(body, []byte("?>")); end >= 0 {
					body = body[end+len("?>"):]
				}
			}
			if p.Declaration.Present {
				buf.Reset()
				buf.WriteString(p.Declaration.Raw)
				buf.Write(body)
				body = buf.Bytes()
			}
			if _, err := fw.Write(body); err != nil {
				return pipelineerr.New(pipelineerr.DocxParse, "writing part body", err).WithPart(name)
			}
		} else {
			if _, err := fw.Write(pkg.raw[name]); err != nil {
				return pipelineerr.New(pipelineerr.DocxParse, "writing raw entry", err).WithPart(name)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return pipelineerr.New(pipelineerr.DocxParse, "finalizing zip", err)
	}
	return nil
}

// cloneHeader copies the fields zip.Writer.CreateHeader consumes, since the
// writer mutates the header it's given (assigning offsets etc.) and callers
// must not reuse the same *zip.FileHeader across writes.
func cloneHeader(h *zip.FileHeader) *zip.FileHeader {
	c := *h
	c.CRC32 = 0
	c.CompressedSize64 = 0
	c.UncompressedSize64 = 0
	return &c
}
