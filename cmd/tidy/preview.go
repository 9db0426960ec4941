package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/cache"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/conflict"
	"github.com/jamesainslie/tidy/pkg/tidy/extract"
	"github.com/jamesainslie/tidy/pkg/tidy/filter"
	"github.com/jamesainslie/tidy/pkg/tidy/llm"
	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/preview"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
	"github.com/jamesainslie/tidy/pkg/tidy/watcher"
)

var previewCmd = &cobra.Command{
	Use:   "preview [path...]",
	Short: "Preview renames and moves for files",
	Long: `Scan files, extract their metadata and show the rename each one would get.

Naming comes from the first matching metadata or filename rule, falling back
to the default template. Nothing is renamed.

Examples:
  tidy preview                               # Current directory
  tidy preview -r ~/Pictures                 # Recursive
  tidy preview --type image --case snake-case .
  tidy preview --folder-structure by-year --base-dir ~/Sorted ~/Downloads
  tidy preview --llm-results suggestions.json --threshold 0.8 .
  tidy preview -f template --output-template '{{range .Proposals}}{{target .}}{{"\n"}}{{end}}' .`,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()

	// Output
	f.StringP("format", "f", "", "output format ("+strings.Join(output.Available(), ", ")+")")
	f.String("output-template", "", "Go template for --format template")

	// Scanning and filtering
	f.BoolP("recursive", "r", false, "descend into subdirectories")
	f.Bool("hidden", false, "include hidden files")
	f.Int("workers", 0, "parallel metadata extractions (0=config)")
	f.String("include", "", "only files matching these globs (comma-separated)")
	f.StringSliceP("exclude", "e", nil, "skip files matching these globs")
	f.StringP("type", "t", "", "file type groups: image, document, pdf, video, audio, archive, code, ... (comma-separated)")
	f.String("ext", "", "only these extensions (comma-separated)")
	f.String("min-size", "", "minimum file size (e.g. 10K, 5MB)")
	f.String("max-size", "", "maximum file size")
	f.String("older-than", "", "only files modified before this age (e.g. 30d, 6mo)")
	f.String("newer-than", "", "only files modified within this age")
	f.IntP("limit", "l", 0, "maximum number of files (0=unlimited)")
	f.String("sort", "name", "sort by: name, size, modified, path")
	f.Bool("reverse", false, "reverse sort order")

	// Naming
	f.String("template", "", "default template ID or name")
	f.String("mode", "", "rule priority mode: combined, metadata-first, filename-first")
	f.String("case", "", "case style: "+caseStyleNames())
	f.Bool("strip-patterns", false, "strip dates and counters already in file names")
	f.String("folder-structure", "", "move every file into this folder structure (ID or name)")
	f.String("base-dir", "", "root directory for resolved folders")

	// Metadata sources
	f.String("llm-results", "", "pre-computed LLM suggestions (JSON or YAML)")
	f.Float64("threshold", 0, "minimum LLM confidence to use a suggestion (0-1)")
	f.String("metadata", "", "sidecar file with metadata overrides (JSON or YAML)")
	f.Bool("no-cache", false, "bypass the metadata cache")

	// Conflicts
	f.Bool("check-disk", false, "report targets that already exist on disk")
	f.Bool("case-sensitive", false, "compare target paths case-sensitively")
	f.String("disambiguate", "", "number colliding names: suffix (name_1) or counter (name (1))")

	f.BoolP("watch", "w", false, "re-run the preview when files change")

	bind := map[string]string{
		"preferences.output_format":            "format",
		"preferences.recursive":                "recursive",
		"preferences.rule_priority_mode":       "mode",
		"preferences.case_style":               "case",
		"preferences.strip_existing_patterns":  "strip-patterns",
		"preferences.base_directory":           "base-dir",
		"preferences.llm_confidence_threshold": "threshold",
		"preferences.case_sensitive_paths":     "case-sensitive",
		"scan.include_hidden":                  "hidden",
		"scan.workers":                         "workers",
		"output_template":                      "output-template",
		"include":                              "include",
		"exclude":                              "exclude",
		"type":                                 "type",
		"ext":                                  "ext",
		"min_size":                             "min-size",
		"max_size":                             "max-size",
		"older_than":                           "older-than",
		"newer_than":                           "newer-than",
		"limit":                                "limit",
		"sort":                                 "sort",
		"reverse":                              "reverse",
		"template":                             "template",
		"folder_structure":                     "folder-structure",
		"llm_results":                          "llm-results",
		"metadata":                             "metadata",
		"no_cache":                             "no-cache",
		"check_disk":                           "check-disk",
		"disambiguate":                         "disambiguate",
		"watch":                                "watch",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(previewCmd)
}

func caseStyleNames() string {
	names := make([]string, len(naming.CaseStyles))
	for i, s := range naming.CaseStyles {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// runPreview is the preview command handler.
func runPreview(_ *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}

	formatter, err := buildFormatter()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, roots)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.render(ctx, formatter); err != nil {
		return err
	}
	if !viper.GetBool("watch") {
		return nil
	}
	return p.watch(ctx, formatter)
}

// resolveRoots expands, absolutizes and checks the scan paths.
func resolveRoots(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to expand path: %w", err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path does not exist: %s", abs)
			}
			return nil, fmt.Errorf("cannot access path: %w", err)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

// buildFormatter selects the output formatter from --format.
func buildFormatter() (output.Formatter, error) {
	format := cfg.Preferences.OutputFormat
	if format == "" {
		format = config.DefaultOutputFormat
	}
	if format == "template" {
		tmplStr := viper.GetString("output_template")
		if tmplStr == "" {
			return nil, errors.New("--output-template is required when using -f template")
		}
		return output.NewTemplateFormatter(tmplStr), nil
	}
	formatter, err := output.Get(format)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", format, output.Available())
	}
	return formatter, nil
}

// pipeline runs scan, filter, extraction and preview generation for a set
// of roots. It is rebuilt once per command and re-run in watch mode.
type pipeline struct {
	cfg       *config.Config
	roots     []string
	filter    *filter.Filter
	cache     *cache.Cache
	extractor *extract.Extractor
	llm       *llm.Results
	opts      preview.Options
	strategy  conflict.Strategy
}

func newPipeline(c *config.Config, roots []string) (*pipeline, error) {
	f, err := buildFilter()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}

	opts, err := previewOptions(c)
	if err != nil {
		return nil, err
	}

	p := &pipeline{cfg: c, roots: roots, filter: f, opts: opts}

	if s := viper.GetString("disambiguate"); s != "" {
		if p.strategy, err = conflict.ParseStrategy(s); err != nil {
			return nil, err
		}
	}

	if path := viper.GetString("llm_results"); path != "" {
		results, err := llm.Load(path)
		if err != nil {
			return nil, err
		}
		printVerbose("Loaded %d LLM suggestions from %s", results.Len(), path)
		p.llm = results
		p.opts.EnableLLMAnalysis = true
		p.opts.LLMAnalysisResults = results.ByPath
		p.opts.LLMConfidenceThreshold = preview.Threshold(c.Preferences.LLMConfidenceThreshold)
		p.opts.OnLLMProgress = func(current, total int, path string) {
			printVerbose("LLM %d/%d %s", current, total, path)
		}
	}

	var sidecar extract.Sidecar
	if path := viper.GetString("metadata"); path != "" {
		if sidecar, err = extract.LoadSidecar(path); err != nil {
			return nil, err
		}
		printVerbose("Loaded metadata overrides for %d files", len(sidecar))
	}

	extractOpts := extract.Options{Workers: c.Scan.Workers, Sidecar: sidecar}
	if c.Cache.Enabled && !viper.GetBool("no_cache") {
		mc, err := cache.Open(c.CachePath())
		if err != nil {
			// A locked or corrupt cache only costs speed.
			printVerbose("Metadata cache unavailable: %v", err)
		} else {
			p.cache = mc
			extractOpts.Cache = mc
		}
	}
	p.extractor = extract.New(extractOpts)

	return p, nil
}

// previewOptions maps the configuration and naming flags onto preview.Options.
func previewOptions(c *config.Config) (preview.Options, error) {
	prefs := c.Preferences

	mode, err := types.ParsePriorityMode(string(prefs.RulePriorityMode))
	if err != nil {
		return preview.Options{}, err
	}
	caseStyle, err := naming.ParseCaseStyle(prefs.CaseStyle)
	if err != nil {
		return preview.Options{}, err
	}

	opts := preview.Options{
		Templates:                c.Templates,
		DefaultTemplateID:        prefs.DefaultTemplateID,
		MetadataRules:            c.Rules,
		FilenameRules:            c.FilenameRules,
		FolderStructures:         c.FolderStructures,
		RulePriorityMode:         mode,
		DefaultFolderStructureID: prefs.DefaultFolderStructureID,
		BaseDirectory:            prefs.BaseDirectory,
		CaseNormalization:        caseStyle,
		StripExistingPatterns:    prefs.StripExistingPatterns,
		DateFormat:               naming.ConvertDateFormat(prefs.DateFormat),
		CaseSensitivePaths:       prefs.CaseSensitivePaths,
		OnProgress: func(current, total int, phase string) {
			if current == total {
				printVerbose("%s: %d/%d", phase, current, total)
			}
		},
	}

	if ref := viper.GetString("template"); ref != "" {
		t, err := findTemplate(c.Templates, ref)
		if err != nil {
			return preview.Options{}, err
		}
		opts.DefaultTemplateID = t.ID
	}
	if ref := viper.GetString("folder_structure"); ref != "" {
		fs, err := findFolderStructure(c.FolderStructures, ref)
		if err != nil {
			return preview.Options{}, err
		}
		opts.DefaultFolderStructureID = fs.ID
	}
	if viper.GetBool("check_disk") {
		opts.Checker = conflict.OSChecker{}
	}
	return opts, nil
}

// run produces one preview result.
func (p *pipeline) run(ctx context.Context) (*output.Result, error) {
	start := time.Now()

	sc := scanner.New(scanner.Options{
		Paths:         p.roots,
		Recursive:     p.cfg.Preferences.Recursive,
		IncludeHidden: p.cfg.Scan.IncludeHidden,
		Exclude:       p.cfg.Scan.Exclude,
		Workers:       p.cfg.Scan.Workers,
		OnProgress: func(pr scanner.Progress) {
			if pr.Done {
				printVerbose("Scanned %s files in %s directories",
					humanize.Comma(pr.FilesScanned), humanize.Comma(pr.DirsScanned))
			}
		},
	})
	scanned, err := sc.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	files := p.filter.Apply(scanned.Files)
	printVerbose("%d of %d files selected", len(files), len(scanned.Files))

	metadata, stats, err := p.extractor.ExtractAll(ctx, files)
	if err != nil {
		return nil, err
	}
	printVerbose("Metadata: %d extracted, %d cached, %d failed, %d unsupported",
		stats.Extracted, stats.CacheHits, stats.Failed, stats.Unsupported)

	pv, err := preview.Generate(files, metadata, p.opts)
	if err != nil {
		return nil, err
	}

	if p.strategy != "" {
		pv.Proposals = conflict.Disambiguate(pv.Proposals, p.strategy, conflict.Options{
			CaseSensitive: p.opts.CaseSensitivePaths,
			Checker:       p.opts.Checker,
		})
		pv.Summary = preview.Summarize(pv.Proposals)
	}

	return &output.Result{
		Preview: pv,
		Files:   files,
		Source:  commonRoot(p.roots),
		Stats: output.ScanStats{
			DirsScanned:  scanned.DirsScanned,
			FilesScanned: scanned.FilesScanned,
			CacheHits:    stats.CacheHits,
			Duration:     time.Since(start),
		},
		Warnings: p.warnings(scanned, stats),
	}, nil
}

func (p *pipeline) warnings(scanned *scanner.Result, stats extract.Stats) []string {
	var out []string
	if n := len(scanned.Errors); n > 0 {
		out = append(out, fmt.Sprintf("%d paths could not be read", n))
		for _, e := range scanned.Errors {
			printVerbose("scan error: %s: %s", e.Path, e.Error)
		}
	}
	if stats.Failed > 0 {
		out = append(out, fmt.Sprintf("metadata extraction failed for %d files", stats.Failed))
	}
	if p.llm != nil {
		if n := len(p.llm.Failed); n > 0 {
			out = append(out, fmt.Sprintf("%d LLM analyses failed", n))
		}
	}
	return out
}

// render runs the pipeline once and prints the result.
func (p *pipeline) render(ctx context.Context, formatter output.Formatter) error {
	result, err := p.run(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			printInfo("Preview cancelled")
			return nil
		}
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// watch re-renders whenever the roots change, until ctx is cancelled.
func (p *pipeline) watch(ctx context.Context, formatter output.Formatter) error {
	opts := watcher.Options{
		Recursive:     p.cfg.Preferences.Recursive,
		IncludeHidden: p.cfg.Scan.IncludeHidden,
	}
	if p.cache != nil {
		opts.Invalidator = p.cache
	}
	w, err := watcher.New(opts)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	for _, root := range p.roots {
		if err := w.Watch(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}
	printInfo("Watching %d paths for changes (Ctrl+C to stop)", len(w.Paths()))

	w.Run(ctx, func(events []watcher.Event) {
		printInfo("\n%d changes detected, regenerating preview...", len(events))
		if err := p.render(ctx, formatter); err != nil {
			printError("%v", err)
		}
	})
	return nil
}

// Close releases the metadata cache.
func (p *pipeline) Close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			printVerbose("failed to close cache: %v", err)
		}
	}
}

// commonRoot returns the single root, or the deepest directory shared by all.
func commonRoot(roots []string) string {
	if len(roots) == 0 {
		return ""
	}
	common := roots[0]
	for _, r := range roots[1:] {
		for common != "" && r != common && !strings.HasPrefix(r, common+string(filepath.Separator)) {
			parent := filepath.Dir(common)
			if parent == common {
				return common
			}
			common = parent
		}
	}
	return common
}

// findTemplate looks a template up by ID, then by case-insensitive name.
func findTemplate(templates []types.Template, ref string) (types.Template, error) {
	if t, ok := types.FindTemplate(templates, ref); ok {
		return t, nil
	}
	for _, t := range templates {
		if strings.EqualFold(t.Name, ref) {
			return t, nil
		}
	}
	return types.Template{}, fmt.Errorf("template %q not found", ref)
}

// findFolderStructure looks a folder structure up by ID, then by name.
func findFolderStructure(structures []types.FolderStructure, ref string) (types.FolderStructure, error) {
	if fs, ok := types.FindFolderStructure(structures, ref); ok {
		return fs, nil
	}
	for _, fs := range structures {
		if strings.EqualFold(fs.Name, ref) {
			return fs, nil
		}
	}
	return types.FolderStructure{}, fmt.Errorf("folder structure %q not found", ref)
}
