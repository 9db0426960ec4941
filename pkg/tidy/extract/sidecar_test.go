package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func TestLoadSidecarYAML(t *testing.T) {
	dir := t.TempDir()
	sidecar := filepath.Join(dir, "meta.yaml")
	require.NoError(t, os.WriteFile(sidecar, []byte(`
photos/IMG_1.jpg:
  image:
    camera_make: Canon
    camera_model: EOS R6
    date_taken: 2023-07-04T18:30:00Z
/abs/report.pdf:
  pdf:
    title: Annual Report
    page_count: 12
`), 0o644))

	sc, err := LoadSidecar(sidecar)
	require.NoError(t, err)

	entry, ok := sc.Lookup(filepath.Join(dir, "photos", "IMG_1.jpg"))
	require.True(t, ok)
	require.NotNil(t, entry.Image)
	assert.Equal(t, "Canon", entry.Image.CameraMake)
	require.NotNil(t, entry.Image.DateTaken)
	assert.True(t, entry.Image.DateTaken.Equal(time.Date(2023, 7, 4, 18, 30, 0, 0, time.UTC)))

	entry, ok = sc.Lookup("/abs/report.pdf")
	require.True(t, ok)
	assert.Equal(t, 12, entry.PDF.PageCount)
}

func TestLoadSidecarJSON(t *testing.T) {
	dir := t.TempDir()
	sidecar := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(sidecar, []byte(`{"doc.docx": {"office": {"title": "Spec", "author": "Ada"}}}`), 0o644))

	sc, err := LoadSidecar(sidecar)
	require.NoError(t, err)
	entry, ok := sc.Lookup(filepath.Join(dir, "doc.docx"))
	require.True(t, ok)
	assert.Equal(t, "Ada", entry.Office.Author)
}

func TestLoadSidecarErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSidecar(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "meta.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = LoadSidecar(txt)
	assert.ErrorContains(t, err, "unsupported sidecar format")

	bad := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadSidecar(bad)
	assert.ErrorContains(t, err, "parse sidecar")
}

func TestSidecarOverridesExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ex := New(Options{Sidecar: Sidecar{path: {Office: &types.OfficeMetadata{Title: "Meeting Notes"}}}})
	meta := ex.Extract(context.Background(), fileInfo(t, path))

	assert.Equal(t, types.ExtractionSuccess, meta.ExtractionStatus)
	require.NotNil(t, meta.Office)
	assert.Equal(t, "Meeting Notes", meta.Office.Title)
}

func TestSidecarEntryApplyEmpty(t *testing.T) {
	meta := types.UnifiedMetadata{ExtractionStatus: types.ExtractionFailed, ExtractionError: "boom"}
	assert.Equal(t, meta, SidecarEntry{}.Apply(meta))
}
