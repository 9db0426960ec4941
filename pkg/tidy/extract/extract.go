// Package extract reads file metadata (EXIF, PDF document info, Office
// document properties) into types.UnifiedMetadata records for the preview
// engine. Extraction failures never abort a batch: they are recorded on the
// file's record and the file falls back to filesystem data.
package extract

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("extract")

// Cache stores extraction results between runs. Get must only return
// entries that are still valid for file.
type Cache interface {
	Get(file types.FileInfo) (types.UnifiedMetadata, bool)
	Put(meta types.UnifiedMetadata) error
}

// Options configures an Extractor.
type Options struct {
	// Workers bounds concurrent extractions. 0 uses GOMAXPROCS.
	Workers int

	// Cache is optional.
	Cache Cache

	// Sidecar entries override extracted values per file.
	Sidecar Sidecar
}

// Stats counts what ExtractAll did.
type Stats struct {
	Extracted   int64
	CacheHits   int64
	Failed      int64
	Unsupported int64
}

// Extractor reads metadata from files.
type Extractor struct {
	opts Options
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Extractor{opts: opts}
}

// Extract reads metadata for a single file. It never fails; problems are
// reported through ExtractionStatus and ExtractionError.
func (e *Extractor) Extract(ctx context.Context, file types.FileInfo) types.UnifiedMetadata {
	meta := types.UnifiedMetadata{File: file, ExtractionStatus: types.ExtractionUnsupported}
	if err := ctx.Err(); err != nil {
		meta.ExtractionStatus = types.ExtractionFailed
		meta.ExtractionError = err.Error()
		return meta
	}

	var err error
	switch ext := strings.ToLower(file.Extension); {
	case isImage(ext):
		meta.Image, err = readImage(file.Path)
	case ext == "pdf":
		meta.PDF, err = readPDF(file.Path)
	case ext == "xlsx" || ext == "xlsm":
		meta.Office, err = readSpreadsheet(file.Path)
	case ext == "docx" || ext == "pptx":
		meta.Office, err = readOOXML(file.Path)
	default:
		return e.applySidecar(meta)
	}

	if err != nil {
		logger.Debug("extraction failed", "path", file.Path, "error", err)
		meta.ExtractionStatus = types.ExtractionFailed
		meta.ExtractionError = err.Error()
	} else {
		meta.ExtractionStatus = types.ExtractionSuccess
	}
	return e.applySidecar(meta)
}

func (e *Extractor) applySidecar(meta types.UnifiedMetadata) types.UnifiedMetadata {
	if entry, ok := e.opts.Sidecar.Lookup(meta.File.Path); ok {
		return entry.Apply(meta)
	}
	return meta
}

// ExtractAll extracts metadata for every file in parallel and returns it
// keyed by path. Only context cancellation is returned as an error.
func (e *Extractor) ExtractAll(ctx context.Context, files []types.FileInfo) (map[string]types.UnifiedMetadata, Stats, error) {
	results := make([]types.UnifiedMetadata, len(files))
	var stats struct {
		extracted, hits, failed, unsupported atomic.Int64
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			if e.opts.Cache != nil {
				if cached, ok := e.opts.Cache.Get(file); ok {
					stats.hits.Add(1)
					cached.File = file
					results[i] = e.applySidecar(cached)
					return nil
				}
			}

			meta := e.Extract(gctx, file)
			switch meta.ExtractionStatus {
			case types.ExtractionSuccess:
				stats.extracted.Add(1)
			case types.ExtractionFailed:
				stats.failed.Add(1)
			default:
				stats.unsupported.Add(1)
			}

			if e.opts.Cache != nil && meta.ExtractionStatus != types.ExtractionFailed {
				if err := e.opts.Cache.Put(meta); err != nil {
					logger.Warn("cache write failed", "path", file.Path, "error", err)
				}
			}
			results[i] = meta
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Stats{}, fmt.Errorf("extract metadata: %w", err)
	}

	out := make(map[string]types.UnifiedMetadata, len(results))
	for _, meta := range results {
		out[meta.File.Path] = meta
	}
	s := Stats{
		Extracted:   stats.extracted.Load(),
		CacheHits:   stats.hits.Load(),
		Failed:      stats.failed.Load(),
		Unsupported: stats.unsupported.Load(),
	}
	logger.Debug("extraction complete", "files", len(files), "extracted", s.Extracted,
		"cached", s.CacheHits, "failed", s.Failed)
	return out, s, nil
}

// splitKeywords splits a comma or semicolon separated keyword list.
func splitKeywords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
