package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/doctran/internal/config"
	"github.com/inkwell-labs/doctran/internal/logging"
	"github.com/inkwell-labs/doctran/internal/modelclient"
)

const docBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Hello world</w:t></w:r></w:p></w:body>
</w:document>`

func buildDocx(t *testing.T) (*bytes.Reader, int64) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(docBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes()), int64(buf.Len())
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.New(logging.Config{Level: "error"})
	require.NoError(t, err)
	return log
}

func TestTranslateFileProducesOutputAndCleanSummary(t *testing.T) {
	r, size := buildDocx(t)

	settings := &config.Settings{
		SourceLang:   "en",
		TargetLang:   "zh",
		EnableReview: false,
	}

	models := Models{
		Translate: &modelclient.FakeTranslate{
			Respond: func(text, _, _ string) string { return "你好世界" },
		},
	}

	var out bytes.Buffer
	res, err := TranslateFile(context.Background(), r, size, &out, "", settings, models, nil, "", testLogger(t), nil)
	require.NoError(t, err)

	assert.Positive(t, out.Len())
	assert.Equal(t, 1, res.Summary.TotalTUs)
	assert.Empty(t, res.Summary.StillBad)
	assert.Contains(t, res.ModifiedParts, "word/document.xml")

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	var found bool
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		found = true
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Contains(t, string(data), "你好世界")
	}
	assert.True(t, found)
}

func TestTranslateFileRespectsMaxTUs(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
</w:body>
</w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	settings := &config.Settings{SourceLang: "en", TargetLang: "zh", MaxTUs: 1}
	models := Models{Translate: &modelclient.FakeTranslate{}}

	var out bytes.Buffer
	res, err := TranslateFile(
		context.Background(),
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		&out, "", settings, models, nil, "", testLogger(t), nil,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.TotalTUs)
}

func TestLoadGlossaryAndStyleGuideBothUnset(t *testing.T) {
	settings := &config.Settings{}
	glossary, styleGuide, err := LoadGlossaryAndStyleGuide(settings, func(string) ([]byte, error) {
		t.Fatal("readFile should not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, glossary)
	assert.Empty(t, styleGuide)
}

func TestLoadGlossaryAndStyleGuideReadsGlossary(t *testing.T) {
	settings := &config.Settings{GlossaryPath: "glossary.md", GlossaryCapPerTU: 8}
	glossary, _, err := LoadGlossaryAndStyleGuide(settings, func(path string) ([]byte, error) {
		assert.Equal(t, "glossary.md", path)
		return []byte("- firewall -> 防火墙\n"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "防火墙", glossary["firewall"])
}
