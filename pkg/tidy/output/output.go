// Package output renders rename previews in various formats (pretty,
// plain, json, yaml, etc.).
//
// Formatters register themselves by name and are selected at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// ScanStats describes the scan that fed the preview.
type ScanStats struct {
	DirsScanned  int64         `json:"dirsScanned" yaml:"dirs_scanned"`
	FilesScanned int64         `json:"filesScanned" yaml:"files_scanned"`
	CacheHits    int64         `json:"cacheHits" yaml:"cache_hits"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// Result is everything a formatter can show.
type Result struct {
	Preview *types.RenamePreview

	// Files are the scanned files, used for sizes.
	Files []types.FileInfo

	// Source is the scanned root.
	Source string

	Stats    ScanStats
	Warnings []string
}

// TotalSize sums the sizes of the scanned files.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// Proposals returns the preview's proposals, or nil without a preview.
func (r *Result) Proposals() []types.RenameProposal {
	if r.Preview == nil {
		return nil
	}
	return r.Preview.Proposals
}

// Summary returns the preview summary.
func (r *Result) Summary() types.PreviewSummary {
	if r.Preview == nil {
		return types.PreviewSummary{}
	}
	return r.Preview.Summary
}

// Target is what a proposal turns into: the new name for renames, the new
// path for moves.
func Target(p types.RenameProposal) string {
	if p.IsMoveOperation {
		return p.ProposedPath
	}
	return p.ProposedName
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// relTo shortens path relative to root when possible.
func relTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
