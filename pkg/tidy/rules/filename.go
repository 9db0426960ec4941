package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/glob"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// FilenameRuleInput describes a new filename rule.
type FilenameRuleInput struct {
	Name              string
	Description       string
	Pattern           string
	CaseSensitive     bool
	TemplateID        string
	FolderStructureID string
	Priority          int
	Enabled           *bool // nil means enabled
}

// FilenameRuleUpdate is a partial update. Nil fields are left unchanged.
type FilenameRuleUpdate struct {
	Name              *string
	Description       *string
	Pattern           *string
	CaseSensitive     *bool
	TemplateID        *string
	FolderStructureID *string
	Priority          *int
	Enabled           *bool
}

// CreateFilenameRule validates input and appends a new rule. Pass nil
// templates to skip the template existence check.
func CreateFilenameRule(
	rules []types.FilenamePatternRule,
	in FilenameRuleInput,
	templates []types.Template,
) ([]types.FilenamePatternRule, types.FilenamePatternRule, error) {
	ts := now()
	rule := types.FilenamePatternRule{
		RuleHeader: types.RuleHeader{
			ID:                newID(),
			Name:              strings.TrimSpace(in.Name),
			Description:       in.Description,
			TemplateID:        in.TemplateID,
			FolderStructureID: in.FolderStructureID,
			Priority:          in.Priority,
			Enabled:           in.Enabled == nil || *in.Enabled,
			CreatedAt:         ts,
			UpdatedAt:         ts,
		},
		Pattern:       in.Pattern,
		CaseSensitive: in.CaseSensitive,
	}

	if err := validatePriority(rule.Priority); err != nil {
		return nil, types.FilenamePatternRule{}, err
	}
	if err := validateFilenameRule(rules, &rule, templates); err != nil {
		return nil, types.FilenamePatternRule{}, err
	}

	out := make([]types.FilenamePatternRule, 0, len(rules)+1)
	out = append(out, rules...)
	return append(out, rule), rule, nil
}

// UpdateFilenameRule applies a partial update to the rule with the given ID.
func UpdateFilenameRule(
	rules []types.FilenamePatternRule,
	id string,
	upd FilenameRuleUpdate,
	templates []types.Template,
) ([]types.FilenamePatternRule, types.FilenamePatternRule, error) {
	idx := indexOf(rules, id)
	if idx < 0 {
		return nil, types.FilenamePatternRule{}, notFound(id)
	}

	rule := rules[idx]
	if upd.Name != nil {
		rule.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		rule.Description = *upd.Description
	}
	if upd.Pattern != nil {
		rule.Pattern = *upd.Pattern
	}
	if upd.CaseSensitive != nil {
		rule.CaseSensitive = *upd.CaseSensitive
	}
	if upd.TemplateID != nil {
		rule.TemplateID = *upd.TemplateID
	}
	if upd.FolderStructureID != nil {
		rule.FolderStructureID = *upd.FolderStructureID
	}
	if upd.Priority != nil {
		if err := validatePriority(*upd.Priority); err != nil {
			return nil, types.FilenamePatternRule{}, err
		}
		rule.Priority = *upd.Priority
	}
	if upd.Enabled != nil {
		rule.Enabled = *upd.Enabled
	}
	rule.UpdatedAt = now()

	if err := validateFilenameRule(rules, &rule, templates); err != nil {
		return nil, types.FilenamePatternRule{}, err
	}

	out := slices.Clone(rules)
	out[idx] = rule
	return out, rule, nil
}

func validateFilenameRule(rules []types.FilenamePatternRule, r *types.FilenamePatternRule, templates []types.Template) error {
	if err := validateHeader(&r.RuleHeader); err != nil {
		return err
	}
	if problems := glob.Validate(r.Pattern); len(problems) > 0 {
		return validationf("pattern", "invalid pattern %q: %s", r.Pattern, strings.Join(problems, "; "))
	}
	if nameTaken(rules, r.Name, r.ID) {
		return &Error{Code: CodeDuplicateName, Field: "name", Message: fmt.Sprintf("a rule named %q already exists", r.Name)}
	}
	return checkTemplate(r.TemplateID, templates)
}
