// Package checkpoint writes atomic, structure-hash-verified snapshots of a
// document package as TUs are translated, so a crashed or interrupted run
// leaves its last fully-written snapshot on disk. Nothing in this module
// reads a snapshot back to resume a run.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkwell-labs/doctran/internal/docxio"
	"github.com/inkwell-labs/doctran/internal/pipelineerr"
	"github.com/inkwell-labs/doctran/internal/structhash"
)

// Writer periodically snapshots a package to disk, verifying each modified
// part's structure hash has not drifted before writing.
type Writer struct {
	// Path is the checkpoint file's target path; Write renders to a temp
	// file in the same directory and renames over Path atomically.
	Path string
	// Baselines maps part name to its structure hash as of the last
	// extraction, used to detect accidental structural drift before a
	// checkpoint is trusted.
	Baselines map[string]string

	written int
}

// New constructs a Writer for path, recording baseline structure hashes for
// every XML part in pkg at call time.
func New(path string, pkg *docxio.Package) (*Writer, error) {
	baselines := make(map[string]string, len(pkg.Parts))
	for name, part := range pkg.Parts {
		h, err := structhash.Hash(part.Original)
		if err != nil {
			return nil, err
		}
		baselines[name] = h
	}
	return &Writer{Path: path, Baselines: baselines}, nil
}

// Verify checks every modified part in pkg still matches its recorded
// baseline structure hash.
func (w *Writer) Verify(pkg *docxio.Package) error {
	for _, name := range pkg.ModifiedParts() {
		baseline, ok := w.Baselines[name]
		if !ok {
			continue
		}
		if err := structhash.Verify(name, pkg.Parts[name].Body, baseline); err != nil {
			return err
		}
	}
	return nil
}

// Write verifies structure and atomically writes pkg to w.Path, falling
// back to a numbered sibling snapshot if the rename target is unexpectedly
// occupied by a directory or otherwise cannot be replaced.
func (w *Writer) Write(pkg *docxio.Package) error {
	if err := w.Verify(pkg); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".checkpoint-*.tmp")
	if err != nil {
		return pipelineerr.New(pipelineerr.DocxParse, "creating checkpoint temp file", err)
	}
	tmpName := tmp.Name()
	if err := pkg.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pipelineerr.New(pipelineerr.DocxParse, "closing checkpoint temp file", err)
	}

	target := w.Path
	if err := os.Rename(tmpName, target); err != nil {
		target = w.nextSnapshotPath()
		if err := os.Rename(tmpName, target); err != nil {
			return pipelineerr.New(pipelineerr.DocxParse, "renaming checkpoint into place", err)
		}
	}
	w.written++
	return nil
}

// nextSnapshotPath returns a numbered sibling of w.Path
// ("out_snap_0001.docx", "out_snap_0002.docx", ... for "out.docx") for use when the
// primary rename target is unavailable.
func (w *Writer) nextSnapshotPath() string {
	dir := filepath.Dir(w.Path)
	ext := filepath.Ext(w.Path)
	base := w.Path[:len(w.Path)-len(ext)]
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_snap_%04d%s", filepath.Base(base), n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// ShouldCheckpoint reports whether the interval-th TU since the last
// checkpoint has just completed.
func ShouldCheckpoint(tusDone, interval int) bool {
	return interval > 0 && tusDone > 0 && tusDone%interval == 0
}
