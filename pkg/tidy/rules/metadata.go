package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/condition"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// MetadataRuleInput describes a new metadata rule.
type MetadataRuleInput struct {
	Name              string
	Description       string
	Conditions        []types.RuleCondition
	MatchMode         types.MatchMode // empty means all
	TemplateID        string
	FolderStructureID string
	Priority          int
	Enabled           *bool // nil means enabled
}

// MetadataRuleUpdate is a partial update. Nil fields are left unchanged.
type MetadataRuleUpdate struct {
	Name              *string
	Description       *string
	Conditions        []types.RuleCondition
	MatchMode         *types.MatchMode
	TemplateID        *string
	FolderStructureID *string
	Priority          *int
	Enabled           *bool
}

// CreateMetadataRule validates input and appends a new rule. Pass nil
// templates to skip the template existence check.
func CreateMetadataRule(
	rules []types.MetadataPatternRule,
	in MetadataRuleInput,
	templates []types.Template,
) ([]types.MetadataPatternRule, types.MetadataPatternRule, error) {
	ts := now()
	rule := types.MetadataPatternRule{
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
		Conditions: slices.Clone(in.Conditions),
		MatchMode:  in.MatchMode,
	}
	if rule.MatchMode == "" {
		rule.MatchMode = types.MatchAll
	}

	if err := validatePriority(rule.Priority); err != nil {
		return nil, types.MetadataPatternRule{}, err
	}
	if err := validateMetadataRule(rules, &rule, templates); err != nil {
		return nil, types.MetadataPatternRule{}, err
	}

	out := make([]types.MetadataPatternRule, 0, len(rules)+1)
	out = append(out, rules...)
	return append(out, rule), rule, nil
}

// UpdateMetadataRule applies a partial update to the rule with the given ID.
func UpdateMetadataRule(
	rules []types.MetadataPatternRule,
	id string,
	upd MetadataRuleUpdate,
	templates []types.Template,
) ([]types.MetadataPatternRule, types.MetadataPatternRule, error) {
	idx := indexOf(rules, id)
	if idx < 0 {
		return nil, types.MetadataPatternRule{}, notFound(id)
	}

	rule := rules[idx]
	if upd.Name != nil {
		rule.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		rule.Description = *upd.Description
	}
	if upd.Conditions != nil {
		rule.Conditions = slices.Clone(upd.Conditions)
	}
	if upd.MatchMode != nil {
		rule.MatchMode = *upd.MatchMode
	}
	if upd.TemplateID != nil {
		rule.TemplateID = *upd.TemplateID
	}
	if upd.FolderStructureID != nil {
		rule.FolderStructureID = *upd.FolderStructureID
	}
	if upd.Priority != nil {
		if err := validatePriority(*upd.Priority); err != nil {
			return nil, types.MetadataPatternRule{}, err
		}
		rule.Priority = *upd.Priority
	}
	if upd.Enabled != nil {
		rule.Enabled = *upd.Enabled
	}
	rule.UpdatedAt = now()

	if err := validateMetadataRule(rules, &rule, templates); err != nil {
		return nil, types.MetadataPatternRule{}, err
	}

	out := slices.Clone(rules)
	out[idx] = rule
	return out, rule, nil
}

// validateMetadataRule checks shape, field paths, regexes, name uniqueness
// and (optionally) the template reference, in that order.
func validateMetadataRule(rules []types.MetadataPatternRule, r *types.MetadataPatternRule, templates []types.Template) error {
	if err := validateHeader(&r.RuleHeader); err != nil {
		return err
	}
	if r.MatchMode != types.MatchAll && r.MatchMode != types.MatchAny {
		return validationf("matchMode", "matchMode must be %q or %q", types.MatchAll, types.MatchAny)
	}
	if len(r.Conditions) == 0 {
		return validationf("conditions", "at least one condition is required")
	}

	for i, c := range r.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		if !c.Operator.Valid() {
			return validationf(field+".operator", "unknown operator %q", c.Operator)
		}
		if c.Operator.NeedsValue() && c.Value == "" {
			return validationf(field+".value", "operator %s requires a value", c.Operator)
		}
	}

	for i, c := range r.Conditions {
		if !types.KnownField(c.Field) {
			return &Error{
				Code:    CodeInvalidFieldPath,
				Field:   fmt.Sprintf("conditions[%d].field", i),
				Message: fmt.Sprintf("unknown field path %q", c.Field),
			}
		}
	}

	for i, c := range r.Conditions {
		if c.Operator != types.OpRegex {
			continue
		}
		if err := condition.ValidateRegex(c); err != nil {
			return &Error{
				Code:    CodeInvalidRegex,
				Field:   fmt.Sprintf("conditions[%d].value", i),
				Message: fmt.Sprintf("invalid regex %q", c.Value),
			}
		}
	}

	if nameTaken(rules, r.Name, r.ID) {
		return &Error{Code: CodeDuplicateName, Field: "name", Message: fmt.Sprintf("a rule named %q already exists", r.Name)}
	}
	return checkTemplate(r.TemplateID, templates)
}
