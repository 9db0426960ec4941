// Package resolver picks the naming template for a single file by walking
// metadata and filename rules in priority order.
package resolver

import (
	"github.com/jamesainslie/tidy/pkg/tidy/condition"
	"github.com/jamesainslie/tidy/pkg/tidy/glob"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("resolver")

// FallbackReason explains why no rule template was chosen.
type FallbackReason string

// Fallback reasons. FallbackNone means a rule won.
const (
	FallbackNone             FallbackReason = ""
	FallbackNoMatch          FallbackReason = "no-match"
	FallbackTemplateNotFound FallbackReason = "template-not-found"
)

// Input is everything needed to resolve one file.
type Input struct {
	MetadataRules []types.MetadataPatternRule
	FilenameRules []types.FilenamePatternRule
	File          types.FileInfo
	Metadata      *types.UnifiedMetadata
	Templates     []types.Template
}

// Options configures resolution.
type Options struct {
	PriorityMode types.PriorityMode
}

// Diagnostic records a rule that could not be used.
type Diagnostic struct {
	RuleID   string
	RuleName string
	RuleType types.RuleType
	// Reason is the evaluation error or "template <id> not found".
	Reason string
}

// Result is the outcome of resolution.
type Result struct {
	// TemplateID is empty when a fallback applies.
	TemplateID        string
	MatchedRule       *types.RuleMatch
	FolderStructureID string
	FallbackReason    FallbackReason
	Diagnostics       []Diagnostic
}

// Resolve walks the rules in priority order and returns the first enabled,
// matching rule whose template exists. A matching rule with a missing
// template is skipped and the walk continues. Rules that fail to evaluate
// count as non-matching and are reported in Diagnostics.
func Resolve(in Input, opts Options) Result {
	var (
		res            Result
		matchedMissing bool
	)

	for _, rule := range rules.UnifiedPriorities(in.MetadataRules, in.FilenameRules, opts.PriorityMode) {
		h := rule.Header()
		if !h.Enabled {
			continue
		}

		ok, err := matches(rule, in)
		if err != nil {
			logger.Debug("rule evaluation failed", "rule", h.Name, "error", err)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				RuleID: h.ID, RuleName: h.Name, RuleType: rule.Type, Reason: err.Error(),
			})
			continue
		}
		if !ok {
			continue
		}

		if _, found := types.FindTemplate(in.Templates, h.TemplateID); !found {
			matchedMissing = true
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				RuleID: h.ID, RuleName: h.Name, RuleType: rule.Type,
				Reason: "template " + h.TemplateID + " not found",
			})
			continue
		}

		match := rule.Match()
		res.TemplateID = h.TemplateID
		res.MatchedRule = &match
		res.FolderStructureID = h.FolderStructureID
		return res
	}

	res.FallbackReason = FallbackNoMatch
	if matchedMissing {
		res.FallbackReason = FallbackTemplateNotFound
	}
	return res
}

// ResolveTemplate is Resolve with positional arguments.
func ResolveTemplate(
	metadataRules []types.MetadataPatternRule,
	filenameRules []types.FilenamePatternRule,
	file types.FileInfo,
	meta *types.UnifiedMetadata,
	templates []types.Template,
	opts Options,
) Result {
	return Resolve(Input{
		MetadataRules: metadataRules,
		FilenameRules: filenameRules,
		File:          file,
		Metadata:      meta,
		Templates:     templates,
	}, opts)
}

func matches(rule rules.UnifiedRule, in Input) (bool, error) {
	switch rule.Type {
	case types.RuleTypeMetadata:
		meta := in.Metadata
		if meta == nil {
			meta = &types.UnifiedMetadata{File: in.File}
		}
		res, err := condition.EvaluateRule(*rule.Metadata, meta)
		return res.Matches, err
	case types.RuleTypeFilename:
		m := glob.Compile(rule.Filename.Pattern, glob.Options{CaseSensitive: rule.Filename.CaseSensitive})
		return m.Match(in.File.FullName), nil
	default:
		return false, nil
	}
}
