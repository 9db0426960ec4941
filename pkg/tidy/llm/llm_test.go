package llm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/llm"
)

func TestParseBatchJSON(t *testing.T) {
	data := []byte(`{
  "results": [
    {"filePath": "/p/IMG_1.jpg", "suggestion": {"suggestedName": "beach-sunset", "confidence": 0.92, "reasoning": "sunset", "keywords": ["beach"]}, "skipped": false, "source": "vision"},
    {"filePath": "/p/IMG_2.jpg", "error": "model timeout", "skipped": false, "source": "llm"},
    {"filePath": "/p/movie.mkv", "skipped": true, "source": "fallback"},
    {"filePath": "/p/notes.txt", "suggestion": {"suggestedName": "", "confidence": 0.5, "keepOriginal": true}, "skipped": false},
    {"filePath": "/p/empty.txt", "suggestion": {"suggestedName": " ", "confidence": 0.5}, "skipped": false}
  ],
  "total": 5
}`)

	res, err := llm.Parse(data, ".json", "")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Len())
	got := res.ByPath["/p/IMG_1.jpg"]
	assert.Equal(t, "beach-sunset", got.Suggestion.SuggestedName)
	assert.InDelta(t, 0.92, got.Suggestion.Confidence, 1e-9)
	assert.True(t, res.ByPath["/p/notes.txt"].Suggestion.KeepOriginal)

	assert.Equal(t, map[string]string{"/p/IMG_2.jpg": "model timeout", "/p/empty.txt": "empty suggestion"}, res.Failed)
	assert.Equal(t, []string{"/p/movie.mkv"}, res.Skipped)
}

func TestParseMapYAML(t *testing.T) {
	data := []byte(`
IMG_1.jpg:
  suggestion:
    suggested_name: beach-sunset
    confidence: 0.8
    suggested_folder: Travel/2024
    folder_confidence: 0.6
  model_used: llava
`)
	res, err := llm.Parse(data, "yml", "/photos")
	require.NoError(t, err)

	got, ok := res.ByPath["/photos/IMG_1.jpg"]
	require.True(t, ok)
	assert.Equal(t, "llava", got.ModelUsed)
	assert.Equal(t, "Travel/2024", got.Suggestion.SuggestedFolder)
	require.NotNil(t, got.Suggestion.FolderConfidence)
	assert.InDelta(t, 0.6, *got.Suggestion.FolderConfidence, 1e-9)
}

func TestParseBatchYAML(t *testing.T) {
	data := []byte(`
results:
  - file_path: a.pdf
    suggestion: {suggested_name: invoice-acme, confidence: 0.7}
`)
	res, err := llm.Parse(data, ".yaml", "/docs")
	require.NoError(t, err)
	assert.Contains(t, res.ByPath, "/docs/a.pdf")
}

func TestParseErrors(t *testing.T) {
	_, err := llm.Parse([]byte(`{}`), ".toml", "")
	assert.ErrorIs(t, err, llm.ErrUnsupportedFormat)

	_, err = llm.Parse([]byte(`{"a.jpg": {"suggestion": {"suggestedName": "x", "confidence": 1.5}}}`), ".json", "/")
	assert.ErrorIs(t, err, llm.ErrInvalidConfidence)

	_, err = llm.Parse([]byte(`[1, 2]`), ".json", "")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sub/a.jpg": {"suggestion": {"suggestedName": "dog", "confidence": 0.9}}}`), 0o644))

	res, err := llm.Load(path)
	require.NoError(t, err)
	assert.Contains(t, res.ByPath, filepath.Join(dir, "sub", "a.jpg"))

	_, err = llm.Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
