package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/doctran/internal/config"
	"github.com/inkwell-labs/doctran/internal/modelclient"
	"github.com/inkwell-labs/doctran/internal/pipeline"
)

const fixtureBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hello world</w:t></w:r></w:p></w:body>
</w:document>`

func writeFixtureDocx(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(fixtureBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func fakeModels(*config.Settings) (pipeline.Models, error) {
	return pipeline.Models{Translate: &modelclient.FakeTranslate{}}, nil
}

// TestTranslateCmdAlreadyEnProducesCleanReport is the CLI smoke test: running
// `doctran translate` on a fixture whose source language equals its target
// language skips every TU as already_en, so the run must still produce an
// output file and a hard-failure report with zero entries.
func TestTranslateCmdAlreadyEnProducesCleanReport(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "fixture.docx")
	outPath := filepath.Join(dir, "out.docx")
	writeFixtureDocx(t, inPath)

	root := NewRootCmd(fakeModels)
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{
		"translate", inPath,
		"--out", outPath,
		"--source_lang", "en",
		"--target_lang", "en",
		"--enable_review=false",
		"--enable_decision=false",
	})

	err := root.Execute()
	require.NoError(t, err)

	info, statErr := os.Stat(outPath)
	require.NoError(t, statErr)
	assert.Positive(t, info.Size())

	report := stdout.String()
	assert.Contains(t, report, "Still failing after repair**: 0")
	assert.Contains(t, report, "None.")
}

func TestTranslateCmdMissingInputFile(t *testing.T) {
	root := NewRootCmd(fakeModels)
	root.SetArgs([]string{"translate", filepath.Join(t.TempDir(), "missing.docx")})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFileError, DetermineExitCode(err))
}
