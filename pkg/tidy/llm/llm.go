// Package llm loads pre-computed LLM naming suggestions. The analysis
// itself runs elsewhere; the preview engine only consumes its output.
//
// Two layouts are accepted, in JSON or YAML:
//
//	# batch export
//	results:
//	  - file_path: /photos/IMG_1.jpg
//	    suggestion: {suggested_name: beach-sunset, confidence: 0.92}
//	  - file_path: /photos/IMG_2.jpg
//	    error: model timeout
//
//	# map keyed by path
//	/photos/IMG_1.jpg:
//	  suggestion: {suggested_name: beach-sunset, confidence: 0.92}
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("llm")

// Errors returned by Load and Parse.
var (
	ErrUnsupportedFormat = errors.New("unsupported llm results format")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
)

// Results are the usable suggestions plus the files the analysis could
// not handle.
type Results struct {
	// ByPath holds successful analyses keyed by absolute path.
	ByPath map[string]types.LLMAnalysisResult

	// Failed maps paths to the analysis error.
	Failed map[string]string

	// Skipped lists paths the analysis did not attempt, sorted.
	Skipped []string
}

// Len returns the number of usable suggestions.
func (r *Results) Len() int { return len(r.ByPath) }

type batchEntry struct {
	FilePath   string              `json:"filePath" yaml:"file_path"`
	Suggestion *types.AISuggestion `json:"suggestion" yaml:"suggestion"`
	Error      string              `json:"error" yaml:"error"`
	Skipped    bool                `json:"skipped" yaml:"skipped"`
	Source     string              `json:"source" yaml:"source"`
	ModelUsed  string              `json:"modelUsed" yaml:"model_used"`
}

type batchFile struct {
	Results []batchEntry `json:"results" yaml:"results"`
}

// Load reads a results file. Relative paths inside it are resolved
// against the file's directory.
func Load(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	res, err := Parse(data, filepath.Ext(path), base)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	logger.Info("loaded llm results", "path", path, "suggestions", res.Len(),
		"failed", len(res.Failed), "skipped", len(res.Skipped))
	return res, nil
}

// Parse decodes results. format is a file extension (".json", ".yaml" or
// ".yml"); baseDir resolves relative paths.
func Parse(data []byte, format, baseDir string) (*Results, error) {
	unmarshal, err := unmarshaller(format)
	if err != nil {
		return nil, err
	}

	res := &Results{
		ByPath: make(map[string]types.LLMAnalysisResult),
		Failed: make(map[string]string),
	}
	resolve := func(p string) string {
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		return filepath.Clean(p)
	}

	var batch batchFile
	if err := unmarshal(data, &batch); err == nil && batch.Results != nil {
		for _, e := range batch.Results {
			if e.FilePath == "" {
				continue
			}
			path := resolve(e.FilePath)
			switch {
			case e.Skipped:
				res.Skipped = append(res.Skipped, path)
			case e.Error != "":
				res.Failed[path] = e.Error
			case e.Suggestion == nil:
				res.Failed[path] = "no suggestion"
			default:
				if err := res.add(path, types.LLMAnalysisResult{Suggestion: *e.Suggestion, ModelUsed: e.ModelUsed}); err != nil {
					return nil, err
				}
			}
		}
		slices.Sort(res.Skipped)
		return res, nil
	}

	byPath := map[string]types.LLMAnalysisResult{}
	if err := unmarshal(data, &byPath); err != nil {
		return nil, fmt.Errorf("parse llm results: %w", err)
	}
	for p, r := range byPath {
		if err := res.add(resolve(p), r); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Results) add(path string, result types.LLMAnalysisResult) error {
	s := result.Suggestion
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: %s has %v", ErrInvalidConfidence, path, s.Confidence)
	}
	if s.FolderConfidence != nil && (*s.FolderConfidence < 0 || *s.FolderConfidence > 1) {
		return fmt.Errorf("%w: %s folder confidence %v", ErrInvalidConfidence, path, *s.FolderConfidence)
	}
	if strings.TrimSpace(s.SuggestedName) == "" && !s.KeepOriginal {
		r.Failed[path] = "empty suggestion"
		return nil
	}
	r.ByPath[path] = result
	return nil
}

func unmarshaller(format string) (func([]byte, any) error, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return json.Unmarshal, nil
	case "yaml", "yml":
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
