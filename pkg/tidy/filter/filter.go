package filter

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Filter defines criteria for filtering, sorting, and limiting file lists.
type Filter struct {
	// Include contains glob patterns. If non-empty, files must match at least one.
	// Patterns without a '/' match the base name, others the full path.
	Include []string

	// Exclude contains glob patterns. Matching files are excluded.
	Exclude []string

	// Extensions are lowercase extensions without the dot.
	Extensions []string

	// Categories restricts files to these categories.
	Categories []types.FileCategory

	// MinSize and MaxSize bound the file size in bytes. 0 means no bound.
	MinSize int64
	MaxSize int64

	// OlderThan excludes files modified more recently than this duration ago.
	OlderThan time.Duration

	// NewerThan excludes files modified longer ago than this duration.
	NewerThan time.Duration

	SortBy         SortField
	SortDescending bool

	// Limit is the maximum number of files to return. 0 means unlimited.
	Limit int

	// Now is the reference time for age checks.
	Now func() time.Time

	include []glob.Glob
	exclude []glob.Glob
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// New creates a Filter. By default nothing is filtered, files are sorted
// by name ascending, and there is no limit.
func New(opts ...Option) *Filter {
	f := &Filter{SortBy: SortName, Now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	f.include = compileAll(f.Include)
	f.exclude = compileAll(f.Exclude)
	return f
}

// WithLimit sets the maximum number of files to return.
// Negative values mean unlimited.
func WithLimit(limit int) Option {
	return func(f *Filter) {
		f.Limit = max(limit, 0)
	}
}

// WithInclude sets the include glob patterns.
func WithInclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Include = patterns
	}
}

// WithExclude sets the exclude glob patterns.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		f.Exclude = patterns
	}
}

// WithExtensions sets the extensions to include. They are lowercased and
// any leading dot is dropped.
func WithExtensions(extensions ...string) Option {
	return func(f *Filter) {
		normalized := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			normalized = append(normalized, strings.ToLower(strings.TrimPrefix(ext, ".")))
		}
		f.Extensions = normalized
	}
}

// WithCategories restricts files to the given categories.
func WithCategories(cats ...types.FileCategory) Option {
	return func(f *Filter) {
		f.Categories = cats
	}
}

// WithSizeRange sets the size bounds. Negative values are treated as 0.
func WithSizeRange(minSize, maxSize int64) Option {
	return func(f *Filter) {
		f.MinSize = max(minSize, 0)
		f.MaxSize = max(maxSize, 0)
	}
}

// WithOlderThan sets the minimum age of files to include.
func WithOlderThan(d time.Duration) Option {
	return func(f *Filter) {
		f.OlderThan = d
	}
}

// WithNewerThan sets the maximum age of files to include.
func WithNewerThan(d time.Duration) Option {
	return func(f *Filter) {
		f.NewerThan = d
	}
}

// WithSortBy sets the field to sort results by.
func WithSortBy(field SortField, descending bool) Option {
	return func(f *Filter) {
		f.SortBy = field
		f.SortDescending = descending
	}
}

// WithNow sets the reference clock.
func WithNow(now func() time.Time) Option {
	return func(f *Filter) {
		f.Now = now
	}
}

// compileAll compiles patterns, skipping invalid ones.
func compileAll(patterns []string) []glob.Glob {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Match returns true if the file passes every criterion.
func (f *Filter) Match(fi types.FileInfo) bool {
	return f.matchSize(fi) &&
		f.matchExtension(fi) &&
		f.matchCategory(fi) &&
		f.matchAge(fi) &&
		f.matchPatterns(fi)
}

func (f *Filter) matchSize(fi types.FileInfo) bool {
	if f.MinSize > 0 && fi.Size < f.MinSize {
		return false
	}
	return f.MaxSize <= 0 || fi.Size <= f.MaxSize
}

func (f *Filter) matchExtension(fi types.FileInfo) bool {
	return len(f.Extensions) == 0 || slices.Contains(f.Extensions, strings.ToLower(fi.Extension))
}

func (f *Filter) matchCategory(fi types.FileInfo) bool {
	return len(f.Categories) == 0 || slices.Contains(f.Categories, fi.Category)
}

func (f *Filter) matchAge(fi types.FileInfo) bool {
	if f.OlderThan <= 0 && f.NewerThan <= 0 {
		return true
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	if f.OlderThan > 0 && fi.ModifiedAt.After(now.Add(-f.OlderThan)) {
		return false
	}
	if f.NewerThan > 0 && fi.ModifiedAt.Before(now.Add(-f.NewerThan)) {
		return false
	}
	return true
}

func (f *Filter) matchPatterns(fi types.FileInfo) bool {
	if matchesAny(fi, f.exclude) {
		return false
	}
	return len(f.include) == 0 || matchesAny(fi, f.include)
}

func matchesAny(fi types.FileInfo, globs []glob.Glob) bool {
	path := filepath.ToSlash(fi.Path)
	for _, g := range globs {
		if g.Match(fi.FullName) || g.Match(path) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy of files. Ties fall back to the path so the
// order is stable across runs.
func (f *Filter) Sort(files []types.FileInfo) []types.FileInfo {
	sorted := slices.Clone(files)
	if sorted == nil {
		sorted = []types.FileInfo{}
	}

	slices.SortStableFunc(sorted, func(a, b types.FileInfo) int {
		var result int
		switch f.SortBy {
		case SortSize:
			result = cmp.Compare(a.Size, b.Size)
		case SortModified:
			result = a.ModifiedAt.Compare(b.ModifiedAt)
		case SortPath:
			result = cmp.Compare(a.Path, b.Path)
		default:
			result = cmp.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
		}
		if result == 0 {
			result = cmp.Compare(a.Path, b.Path)
		}
		if f.SortDescending {
			return -result
		}
		return result
	})
	return sorted
}

// Apply runs Match, Sort and Limit.
func (f *Filter) Apply(files []types.FileInfo) []types.FileInfo {
	var matched []types.FileInfo
	for _, fi := range files {
		if f.Match(fi) {
			matched = append(matched, fi)
		}
	}

	sorted := f.Sort(matched)
	if f.Limit > 0 && len(sorted) > f.Limit {
		return sorted[:f.Limit]
	}
	return sorted
}
