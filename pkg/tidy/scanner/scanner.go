package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("scanner")

// ScanError records a path that could not be read.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result is the outcome of a scan.
type Result struct {
	// Files are sorted by path.
	Files        []types.FileInfo
	DirsScanned  int64
	FilesScanned int64
	Elapsed      time.Duration
	Errors       []ScanError
}

// Scanner walks the configured paths.
type Scanner struct {
	opts Options

	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	currentPath  atomic.Value
	lastProgress atomic.Int64

	excludes []glob.Glob

	mu      sync.Mutex
	results []types.FileInfo
	seen    map[string]bool
	errors  []ScanError
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	_ = opts.Validate()

	s := &Scanner{opts: opts, seen: make(map[string]bool)}
	for _, pattern := range opts.Exclude {
		if g, err := glob.Compile(filepath.ToSlash(pattern), '/'); err == nil {
			s.excludes = append(s.excludes, g)
		}
	}
	s.currentPath.Store("")
	return s
}

// Scan collects files. It blocks until complete or ctx is cancelled;
// unreadable entries are recorded in Result.Errors rather than failing.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	for _, p := range s.opts.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				s.addFile(abs, info)
			}
			continue
		}
		if err := s.walk(ctx, abs); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(s.results, func(a, b types.FileInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	s.sendProgress(true)

	res := &Result{
		Files:        s.results,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		Elapsed:      time.Since(start),
		Errors:       s.errors,
	}
	logger.Debug("scan complete", "files", len(res.Files), "dirs", res.DirsScanned,
		"errors", len(res.Errors), "elapsed", res.Elapsed)
	return res, nil
}

func (s *Scanner) walk(ctx context.Context, root string) error {
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if path == root {
			s.dirsScanned.Add(1)
			return nil
		}
		if s.skip(path, d.Name()) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !s.opts.Recursive {
				return fastwalk.SkipDir
			}
			s.dirsScanned.Add(1)
			s.currentPath.Store(path)
			s.reportProgress()
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.addError(path, err)
			return nil
		}
		s.addFile(path, info)
		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// skip applies the hidden-file rule and exclusions.
func (s *Scanner) skip(path, name string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range s.opts.Exclude {
		if pattern == "" {
			continue
		}
		if name == pattern || path == pattern || strings.HasPrefix(path, pattern+string(filepath.Separator)) {
			return true
		}
	}
	slashed := filepath.ToSlash(path)
	for _, g := range s.excludes {
		if g.Match(name) || g.Match(slashed) {
			return true
		}
	}
	return false
}

func (s *Scanner) addFile(path string, info os.FileInfo) {
	fi := types.NewFileInfo(path)
	fi.Size = info.Size()
	fi.ModifiedAt = info.ModTime()
	fi.CreatedAt = createTime(path, info)

	s.filesScanned.Add(1)

	s.mu.Lock()
	if !s.seen[path] {
		s.seen[path] = true
		s.results = append(s.results, fi)
	}
	s.mu.Unlock()
}

func (s *Scanner) addError(path string, err error) {
	logger.Warn("scan error", "path", path, "error", err)
	s.mu.Lock()
	s.errors = append(s.errors, ScanError{Path: path, Error: err.Error()})
	s.mu.Unlock()
}

// reportProgress throttles callbacks to one every 10ms.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}
	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 || !s.lastProgress.CompareAndSwap(last, now) {
		return
	}
	s.sendProgress(false)
}

func (s *Scanner) sendProgress(done bool) {
	if s.opts.OnProgress == nil {
		return
	}
	current, _ := s.currentPath.Load().(string)
	s.opts.OnProgress(Progress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		CurrentPath:  current,
		Done:         done,
	})
}
