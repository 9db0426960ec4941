package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func fileInfo(t *testing.T, path string) types.FileInfo {
	t.Helper()
	st, err := os.Stat(path)
	require.NoError(t, err)
	fi := types.NewFileInfo(path)
	fi.Size = st.Size()
	fi.ModifiedAt = st.ModTime()
	return fi
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writePDF writes a one-page PDF with an Info dictionary and a valid
// cross-reference table.
func writePDF(t *testing.T, path string) {
	t.Helper()
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< /Title (Quarterly Report) /Author (Sam Lee) /Keywords (finance; q3) /CreationDate (D:20240315093000+01'00') >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeDOCX(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := map[string]string{
		"docProps/core.xml": `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>Project Plan</dc:title>
  <dc:creator>Alex Kim</dc:creator>
  <cp:keywords>plan, roadmap</cp:keywords>
  <cp:lastModifiedBy>Jo</cp:lastModifiedBy>
  <dcterms:created>2023-11-05T08:00:00Z</dcterms:created>
</cp:coreProperties>`,
		"docProps/app.xml": `<?xml version="1.0" encoding="UTF-8"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
  <Application>Microsoft Office Word</Application>
  <Pages>3</Pages>
  <Words>812</Words>
</Properties>`,
		"word/document.xml": `<w:document/>`,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExtractPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	writePNG(t, path, 40, 30)

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	assert.Equal(t, types.ExtractionSuccess, meta.ExtractionStatus)
	require.NotNil(t, meta.Image)
	assert.Equal(t, 40, meta.Image.Width)
	assert.Equal(t, 30, meta.Image.Height)
	assert.Nil(t, meta.Image.DateTaken)
}

func TestExtractCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not a jpeg"), 0o644))

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	assert.Equal(t, types.ExtractionFailed, meta.ExtractionStatus)
	assert.NotEmpty(t, meta.ExtractionError)
	assert.Nil(t, meta.Image)
}

func TestExtractUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	assert.Equal(t, types.ExtractionUnsupported, meta.ExtractionStatus)
	assert.Equal(t, "notes.txt", meta.File.FullName)
}

func TestExtractPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	writePDF(t, path)

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	require.Equal(t, types.ExtractionSuccess, meta.ExtractionStatus, meta.ExtractionError)
	require.NotNil(t, meta.PDF)
	assert.Equal(t, "Quarterly Report", meta.PDF.Title)
	assert.Equal(t, "Sam Lee", meta.PDF.Author)
	assert.Equal(t, []string{"finance", "q3"}, meta.PDF.Keywords)
	assert.Equal(t, 1, meta.PDF.PageCount)
	require.NotNil(t, meta.PDF.CreationDate)
	assert.True(t, meta.PDF.CreationDate.Equal(time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)))
}

func TestExtractMalformedPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\ngarbage"), 0o644))

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	assert.Equal(t, types.ExtractionFailed, meta.ExtractionStatus)
	assert.Nil(t, meta.PDF)
}

func TestExtractSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetDocProps(&excelize.DocProperties{
		Title:    "Budget 2024",
		Creator:  "Sam",
		Keywords: "finance, budget",
		Created:  "2024-02-01T10:00:00Z",
	}))
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	require.Equal(t, types.ExtractionSuccess, meta.ExtractionStatus, meta.ExtractionError)
	require.NotNil(t, meta.Office)
	assert.Equal(t, "Budget 2024", meta.Office.Title)
	assert.Equal(t, "Sam", meta.Office.Author)
	assert.Equal(t, []string{"finance", "budget"}, meta.Office.Keywords)
	assert.Equal(t, []string{"Sheet1", "Data"}, meta.Office.SheetNames)
	require.NotNil(t, meta.Office.Created)
	assert.Equal(t, 2024, meta.Office.Created.Year())
}

func TestExtractDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.docx")
	writeDOCX(t, path)

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	require.Equal(t, types.ExtractionSuccess, meta.ExtractionStatus, meta.ExtractionError)
	require.NotNil(t, meta.Office)
	assert.Equal(t, "Project Plan", meta.Office.Title)
	assert.Equal(t, "Alex Kim", meta.Office.Author)
	assert.Equal(t, "Jo", meta.Office.LastModifiedBy)
	assert.Equal(t, []string{"plan", "roadmap"}, meta.Office.Keywords)
	assert.Equal(t, "Microsoft Office Word", meta.Office.Application)
	assert.Equal(t, 3, meta.Office.PageCount)
	assert.Equal(t, 812, meta.Office.WordCount)
	require.NotNil(t, meta.Office.Created)
	assert.Equal(t, time.November, meta.Office.Created.Month())
}

func TestExtractDOCXWithoutCoreProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	meta := New(Options{}).Extract(context.Background(), fileInfo(t, path))
	assert.Equal(t, types.ExtractionFailed, meta.ExtractionStatus)
	assert.Contains(t, meta.ExtractionError, "core properties")
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"D:20240315093000Z", time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), true},
		{"D:20240315093000-05'00'", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), true},
		{"20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"D:2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"D:20241399", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parsePDFDate(tt.in)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(tt.want), "got %v", got)
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, splitKeywords(" a, b c ;d,, "))
	assert.Nil(t, splitKeywords(" ; "))
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]types.UnifiedMetadata
	puts    int
}

func (c *mapCache) Get(file types.FileInfo) (types.UnifiedMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[file.Path]
	return m, ok
}

func (c *mapCache) Put(meta types.UnifiedMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[meta.File.Path] = meta
	c.puts++
	return nil
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "a.png")
	writePNG(t, pngPath, 8, 8)
	txtPath := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	badPath := filepath.Join(dir, "c.jpg")
	require.NoError(t, os.WriteFile(badPath, []byte("x"), 0o644))

	files := []types.FileInfo{fileInfo(t, pngPath), fileInfo(t, txtPath), fileInfo(t, badPath)}
	cache := &mapCache{entries: map[string]types.UnifiedMetadata{}}
	ex := New(Options{Workers: 2, Cache: cache})

	got, stats, err := ex.ExtractAll(context.Background(), files)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, Stats{Extracted: 1, Failed: 1, Unsupported: 1}, stats)
	assert.Equal(t, 2, cache.puts, "failures are not cached")
	assert.Equal(t, 8, got[pngPath].Image.Width)

	_, stats, err = ex.ExtractAll(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, Stats{CacheHits: 2, Failed: 1}, stats)
}

func TestExtractAllCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(Options{}).ExtractAll(ctx, []types.FileInfo{fileInfo(t, path)})
	assert.ErrorIs(t, err, context.Canceled)
}
