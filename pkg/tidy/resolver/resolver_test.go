package resolver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/resolver"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var created = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func header(id string, priority int, templateID string) types.RuleHeader {
	return types.RuleHeader{
		ID:         id,
		Name:       id,
		TemplateID: templateID,
		Priority:   priority,
		Enabled:    true,
		CreatedAt:  created,
	}
}

func appleRule(id string, priority int, templateID string) types.MetadataPatternRule {
	return types.MetadataPatternRule{
		RuleHeader: header(id, priority, templateID),
		Conditions: []types.RuleCondition{{Field: "image.cameraMake", Operator: types.OpEquals, Value: "Apple"}},
		MatchMode:  types.MatchAll,
	}
}

func globRule(id string, priority int, templateID, pattern string) types.FilenamePatternRule {
	return types.FilenamePatternRule{RuleHeader: header(id, priority, templateID), Pattern: pattern}
}

func input() resolver.Input {
	file := types.NewFileInfo("/photos/IMG_1234.jpg")
	return resolver.Input{
		File: file,
		Metadata: &types.UnifiedMetadata{
			File:             file,
			Image:            &types.ImageMetadata{CameraMake: "Apple"},
			ExtractionStatus: types.ExtractionSuccess,
		},
		Templates: []types.Template{
			{ID: "t-apple", Pattern: "{year}-{original}"},
			{ID: "t-img", Pattern: "img-{original}"},
		},
	}
}

func TestResolveHighestPriorityMatch(t *testing.T) {
	in := input()
	in.MetadataRules = []types.MetadataPatternRule{appleRule("apple", 5, "t-apple")}
	in.FilenameRules = []types.FilenamePatternRule{globRule("img", 9, "t-img", "IMG_*.{jpg,heic}")}

	res := resolver.Resolve(in, resolver.Options{PriorityMode: types.PriorityCombined})
	assert.Equal(t, "t-img", res.TemplateID)
	require.NotNil(t, res.MatchedRule)
	assert.Equal(t, types.RuleTypeFilename, res.MatchedRule.RuleType)
	assert.Equal(t, resolver.FallbackNone, res.FallbackReason)

	res = resolver.Resolve(in, resolver.Options{PriorityMode: types.PriorityMetadataFirst})
	assert.Equal(t, "t-apple", res.TemplateID)
	assert.Equal(t, "apple", res.MatchedRule.RuleID)
}

func TestResolveSkipsMissingTemplate(t *testing.T) {
	in := input()
	stale := appleRule("stale", 10, "deleted")
	stale.FolderStructureID = "by-camera"
	valid := appleRule("valid", 1, "t-apple")
	valid.Name = "valid rule"
	valid.FolderStructureID = "by-year"
	in.MetadataRules = []types.MetadataPatternRule{stale, valid}

	res := resolver.ResolveTemplate(in.MetadataRules, nil, in.File, in.Metadata, in.Templates, resolver.Options{})
	assert.Equal(t, "t-apple", res.TemplateID)
	require.NotNil(t, res.MatchedRule)
	assert.Equal(t, "valid", res.MatchedRule.RuleID)
	assert.Equal(t, "by-year", res.FolderStructureID, "folder comes from the winning rule")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "stale", res.Diagnostics[0].RuleID)
}

func TestResolveFallbacks(t *testing.T) {
	t.Run("no rules", func(t *testing.T) {
		res := resolver.Resolve(input(), resolver.Options{})
		assert.Empty(t, res.TemplateID)
		assert.Nil(t, res.MatchedRule)
		assert.Equal(t, resolver.FallbackNoMatch, res.FallbackReason)
	})

	t.Run("nothing matches", func(t *testing.T) {
		in := input()
		in.FilenameRules = []types.FilenamePatternRule{globRule("dsc", 1, "t-img", "DSC_*")}
		res := resolver.Resolve(in, resolver.Options{})
		assert.Equal(t, resolver.FallbackNoMatch, res.FallbackReason)
	})

	t.Run("every match lacks a template", func(t *testing.T) {
		in := input()
		in.MetadataRules = []types.MetadataPatternRule{appleRule("a", 2, "gone")}
		in.FilenameRules = []types.FilenamePatternRule{globRule("b", 1, "also-gone", "*.jpg")}
		res := resolver.Resolve(in, resolver.Options{})
		assert.Empty(t, res.TemplateID)
		assert.Equal(t, resolver.FallbackTemplateNotFound, res.FallbackReason)
		assert.Empty(t, res.FolderStructureID)
	})
}

func TestResolveIgnoresDisabledAndBrokenRules(t *testing.T) {
	in := input()
	disabled := appleRule("disabled", 10, "t-apple")
	disabled.Enabled = false
	broken := types.MetadataPatternRule{
		RuleHeader: header("broken", 9, "t-apple"),
		Conditions: []types.RuleCondition{{Field: "image.cameraMake", Operator: types.OpRegex, Value: "(bad"}},
		MatchMode:  types.MatchAll,
	}
	in.MetadataRules = []types.MetadataPatternRule{disabled, broken}
	in.FilenameRules = []types.FilenamePatternRule{globRule("img", 1, "t-img", "img_*")}

	res := resolver.Resolve(in, resolver.Options{})
	assert.Equal(t, "img", res.MatchedRule.RuleID)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "broken", res.Diagnostics[0].RuleID)
	assert.Contains(t, res.Diagnostics[0].Reason, "CONDITION_ERROR")
}

func TestResolveWithoutMetadata(t *testing.T) {
	in := input()
	in.Metadata = nil
	in.MetadataRules = []types.MetadataPatternRule{appleRule("apple", 5, "t-apple")}

	res := resolver.Resolve(in, resolver.Options{})
	assert.Equal(t, resolver.FallbackNoMatch, res.FallbackReason)
}

func TestResolveCaseSensitiveGlob(t *testing.T) {
	in := input()
	rule := globRule("lower", 1, "t-img", "img_*")
	rule.CaseSensitive = true
	in.FilenameRules = []types.FilenamePatternRule{rule}

	res := resolver.Resolve(in, resolver.Options{})
	assert.Equal(t, resolver.FallbackNoMatch, res.FallbackReason)
}
