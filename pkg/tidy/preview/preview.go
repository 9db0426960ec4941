// Package preview turns scanned files and their metadata into a rename
// preview: one proposal per file plus a batch summary. Nothing here touches
// the filesystem except through an optional conflict.Checker.
package preview

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/tidy/pkg/tidy/conflict"
	"github.com/jamesainslie/tidy/pkg/tidy/folder"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/resolver"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("preview")

// Batch-level failures. Per-file problems never surface as errors.
var (
	ErrNoTemplates             = errors.New("no templates configured")
	ErrDefaultTemplateNotFound = errors.New("default template not found")
	ErrThresholdRequired       = errors.New("llm confidence threshold is required when llm analysis is enabled")
	ErrInvalidThreshold        = errors.New("llm confidence threshold must be between 0 and 1")
)

// Progress phases passed to ProgressFunc.
const (
	PhaseProposals = "proposals"
	PhaseConflicts = "conflicts"
)

// ProgressFunc receives advisory progress updates.
type ProgressFunc func(current, total int, phase string)

// LLMProgressFunc is called once per file while LLM analysis is enabled.
type LLMProgressFunc func(current, total int, filePath string)

// Options configures Generate.
type Options struct {
	Templates []types.Template
	// DefaultTemplateID names the fallback template. When empty the
	// template marked IsDefault is used.
	DefaultTemplateID string

	MetadataRules    []types.MetadataPatternRule
	FilenameRules    []types.FilenamePatternRule
	FolderStructures []types.FolderStructure
	RulePriorityMode types.PriorityMode

	// DefaultFolderStructureID moves every file whose winning rule carries
	// no folder structure.
	DefaultFolderStructureID string

	// BaseDirectory roots resolved folders. Empty keeps them next to the file.
	BaseDirectory string

	CaseNormalization     naming.CaseStyle
	StripExistingPatterns bool
	DateFormat            string

	EnableLLMAnalysis  bool
	LLMAnalysisResults map[string]types.LLMAnalysisResult
	// LLMConfidenceThreshold must be set when EnableLLMAnalysis is true.
	LLMConfidenceThreshold *float64

	// CaseSensitivePaths disables case folding during conflict detection.
	CaseSensitivePaths bool
	// Checker adds on-disk collision checks.
	Checker conflict.Checker

	// Now stamps GeneratedAt. Defaults to time.Now.
	Now func() time.Time

	OnProgress    ProgressFunc
	OnLLMProgress LLMProgressFunc
}

// Threshold is a convenience for setting Options.LLMConfidenceThreshold.
func Threshold(v float64) *float64 { return &v }

// Generate builds a preview for files in input order. metadata is keyed by
// file path; a missing entry is treated as an empty extraction, and an entry
// without its File record borrows the scanned one.
func Generate(files []types.FileInfo, metadata map[string]types.UnifiedMetadata, opts Options) (*types.RenamePreview, error) {
	tmpl, err := opts.defaultTemplate()
	if err != nil {
		return nil, err
	}
	if err := opts.validateThreshold(); err != nil {
		return nil, err
	}

	g := generator{opts: opts, fallback: tmpl, total: len(files)}
	proposals := make([]types.RenameProposal, 0, len(files))
	for i, file := range files {
		var meta *types.UnifiedMetadata
		if m, ok := metadata[file.Path]; ok {
			if m.File.Path == "" {
				m.File = file
			}
			meta = &m
		}
		proposals = append(proposals, g.propose(i, file, meta))
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(files), PhaseProposals)
		}
	}

	conflict.DetectAll(proposals, conflict.Options{
		CaseSensitive: opts.CaseSensitivePaths,
		Checker:       opts.Checker,
	}).Apply(proposals)
	if opts.OnProgress != nil {
		opts.OnProgress(len(files), len(files), PhaseConflicts)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	p := &types.RenamePreview{
		Proposals:    proposals,
		Summary:      Summarize(proposals),
		GeneratedAt:  now(),
		TemplateUsed: tmpl.ID,
	}
	logger.Info("preview generated",
		"total", p.Summary.Total,
		"ready", p.Summary.Ready,
		"conflicts", p.Summary.Conflicts,
		"moves", p.Summary.MoveOperations,
	)
	return p, nil
}

// Summarize counts proposals by status in a single pass.
func Summarize(proposals []types.RenameProposal) types.PreviewSummary {
	s := types.PreviewSummary{Total: len(proposals)}
	for _, p := range proposals {
		switch p.Status {
		case types.StatusReady:
			s.Ready++
		case types.StatusConflict:
			s.Conflicts++
		case types.StatusMissingData:
			s.MissingData++
		case types.StatusInvalidName:
			s.InvalidName++
		case types.StatusNoChange:
			s.NoChange++
		}
		if p.IsMoveOperation {
			s.MoveOperations++
		} else {
			s.RenameOnly++
		}
		if p.UseLLMSuggestion != nil && *p.UseLLMSuggestion {
			s.LLMSuggested++
		}
	}
	return s
}

func (o Options) defaultTemplate() (types.Template, error) {
	if len(o.Templates) == 0 {
		return types.Template{}, ErrNoTemplates
	}
	if o.DefaultTemplateID != "" {
		t, ok := types.FindTemplate(o.Templates, o.DefaultTemplateID)
		if !ok {
			return types.Template{}, fmt.Errorf("%w: %s", ErrDefaultTemplateNotFound, o.DefaultTemplateID)
		}
		return t, nil
	}
	for _, t := range o.Templates {
		if t.IsDefault {
			return t, nil
		}
	}
	return types.Template{}, fmt.Errorf("%w: no template is marked default", ErrDefaultTemplateNotFound)
}

func (o Options) validateThreshold() error {
	if o.LLMConfidenceThreshold == nil {
		if o.EnableLLMAnalysis {
			return ErrThresholdRequired
		}
		return nil
	}
	if t := *o.LLMConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
	}
	return nil
}

type generator struct {
	opts     Options
	fallback types.Template
	total    int
}

func (g *generator) propose(i int, file types.FileInfo, meta *types.UnifiedMetadata) types.RenameProposal {
	p := types.RenameProposal{
		ID:              uuid.NewSHA1(uuid.NameSpaceURL, []byte(file.Path)).String(),
		OriginalPath:    file.Path,
		OriginalName:    file.FullName,
		Issues:          []types.DetailedIssue{},
		MetadataSources: []string{},
		TemplateSource:  types.SourceDefault,
	}

	res := resolver.Resolve(resolver.Input{
		MetadataRules: g.opts.MetadataRules,
		FilenameRules: g.opts.FilenameRules,
		File:          file,
		Metadata:      meta,
		Templates:     g.opts.Templates,
	}, resolver.Options{PriorityMode: g.opts.RulePriorityMode})

	tmpl := g.fallback
	folderID := g.opts.DefaultFolderStructureID
	switch {
	case res.MatchedRule != nil:
		tmpl, _ = types.FindTemplate(g.opts.Templates, res.TemplateID)
		p.TemplateSource = types.SourceRule
		p.AppliedRule = res.MatchedRule
		if res.FolderStructureID != "" {
			folderID = res.FolderStructureID
		}
	case res.FallbackReason == resolver.FallbackTemplateNotFound:
		p.TemplateSource = types.SourceFallback
		addIssue(&p, types.IssueRuleTemplateMissing, types.SeverityInfo, "",
			"a matching rule references a missing template; using the default template")
	}

	templateSource := p.TemplateSource
	aiName := g.overlayLLM(i, file, &p)

	rendered := naming.Render(tmpl.Pattern, naming.Context{
		File:                  file,
		Metadata:              meta,
		AIName:                aiName,
		StripExistingPatterns: g.opts.StripExistingPatterns,
		DateFormat:            g.opts.DateFormat,
	}, naming.Fallback)
	if aiName != "" && !rendered.UsesName {
		// The template has nowhere to put the suggestion.
		p.TemplateSource = templateSource
		used := false
		p.UseLLMSuggestion = &used
	} else if aiName != "" {
		addIssue(&p, types.IssueLLMSuggestionUsed, types.SeverityInfo, "",
			fmt.Sprintf("using suggested name %q (confidence %.2f)", aiName, p.LLMSuggestion.Confidence))
	}
	p.MetadataSources = append(p.MetadataSources, rendered.Sources...)

	missing := false
	for _, token := range rendered.Unresolved {
		missing = true
		addIssue(&p, types.IssueMissingData, types.SeverityWarning, token,
			fmt.Sprintf("no value for {%s}", token))
	}

	invalid := false
	name := rendered.Text
	if strings.Trim(name, ". ") == "" {
		invalid = true
		addIssue(&p, types.IssueInvalidName, types.SeverityError, "",
			fmt.Sprintf("template %q produced an empty name", tmpl.Pattern))
	}
	if !rendered.UsesExtension && file.Extension != "" {
		name += "." + file.Extension
	}
	name = naming.NormalizeFileName(name, g.opts.CaseNormalization)

	clean := naming.Sanitize(name)
	switch {
	case !clean.Valid && !invalid:
		invalid = true
		addIssue(&p, types.IssueInvalidName, types.SeverityError, "",
			fmt.Sprintf("%q cannot be made into a valid file name", name))
	case clean.Modified():
		msgs := make([]string, 0, len(clean.Changes))
		for _, c := range clean.Changes {
			msgs = append(msgs, c.Message)
		}
		addIssue(&p, types.IssueNameSanitized, types.SeverityInfo, "", strings.Join(msgs, "; "))
	}
	p.ProposedName = clean.Name

	dir := filepath.Dir(file.Path)
	target := dir
	if folderID != "" {
		if resolved, ok := g.resolveFolder(folderID, file, meta, &p); ok {
			target = resolved
			if filepath.Clean(resolved) != filepath.Clean(dir) {
				p.IsMoveOperation = true
				p.DestinationFolder = resolved
			}
		} else if p.HasIssue(types.IssueFolderResolutionFailed) {
			missing = true
		}
	}
	p.ProposedPath = filepath.Join(target, p.ProposedName)

	switch {
	case invalid:
		p.Status = types.StatusInvalidName
	case missing:
		p.Status = types.StatusMissingData
	case p.ProposedPath == file.Path:
		p.Status = types.StatusNoChange
	default:
		p.Status = types.StatusReady
	}

	logger.Debug("proposal",
		"file", file.FullName,
		"proposed", p.ProposedName,
		"source", p.TemplateSource,
		"status", p.Status,
	)
	return p
}

// overlayLLM attaches any LLM result for file and returns the name to use
// for {name}, or "" when template naming applies.
func (g *generator) overlayLLM(i int, file types.FileInfo, p *types.RenameProposal) string {
	if !g.opts.EnableLLMAnalysis {
		return ""
	}
	if g.opts.OnLLMProgress != nil {
		defer g.opts.OnLLMProgress(i+1, g.total, file.Path)
	}

	result, ok := g.opts.LLMAnalysisResults[file.Path]
	if !ok {
		addIssue(p, types.IssueLLMAnalysisFailed, types.SeverityWarning, "",
			"no analysis result for this file; using template naming")
		return ""
	}

	s := result.Suggestion
	p.LLMSuggestion = &s
	name := suggestedStem(s, file)
	use := s.Confidence >= *g.opts.LLMConfidenceThreshold && name != ""
	p.UseLLMSuggestion = &use
	if !use {
		return ""
	}
	p.TemplateSource = types.SourceLLM
	return name
}

// suggestedStem strips the file's own extension from a suggested name.
func suggestedStem(s types.AISuggestion, file types.FileInfo) string {
	if s.KeepOriginal {
		return file.Name
	}
	name := strings.TrimSpace(s.SuggestedName)
	if file.Extension != "" {
		suffix := "." + file.Extension
		if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
			name = name[:len(name)-len(suffix)]
		}
	}
	return name
}

func (g *generator) resolveFolder(id string, file types.FileInfo, meta *types.UnifiedMetadata, p *types.RenameProposal) (string, bool) {
	fs, ok := types.FindFolderStructure(g.opts.FolderStructures, id)
	if !ok || !fs.Enabled {
		reason := "not found"
		if ok {
			reason = "disabled"
		}
		addIssue(p, types.IssueFolderStructureNotFound, types.SeverityWarning, "",
			fmt.Sprintf("folder structure %s is %s; file stays in place", id, reason))
		return "", false
	}

	base := g.opts.BaseDirectory
	if base == "" {
		base = filepath.Dir(file.Path)
	}
	resolved, err := folder.Resolve(fs.Pattern, file, meta, folder.Options{
		BaseDirectory: base,
		DateFormat:    g.opts.DateFormat,
	})
	if err != nil {
		msg := err.Error()
		var ferr *folder.Error
		if errors.As(err, &ferr) {
			msg = ferr.Message
		}
		addIssue(p, types.IssueFolderResolutionFailed, types.SeverityError, "", msg)
		return "", false
	}
	p.FolderStructureID = fs.ID
	return resolved, true
}

func addIssue(p *types.RenameProposal, code string, sev types.Severity, field, msg string) {
	p.Issues = append(p.Issues, types.DetailedIssue{Code: code, Message: msg, Severity: sev, Field: field})
}
