package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RuleType discriminates the two rule kinds.
type RuleType string

// Rule kinds.
const (
	RuleTypeMetadata RuleType = "metadata"
	RuleTypeFilename RuleType = "filename"
)

// Operator is a condition comparison operator.
type Operator string

// Condition operators.
const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpRegex      Operator = "regex"
	OpExists     Operator = "exists"
	OpNotExists  Operator = "notExists"
)

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpContains, OpStartsWith, OpEndsWith, OpRegex, OpExists, OpNotExists:
		return true
	}
	return false
}

// NeedsValue reports whether the operator requires a comparison value.
func (o Operator) NeedsValue() bool {
	return o != OpExists && o != OpNotExists
}

// MatchMode combines conditions with AND (all) or OR (any).
type MatchMode string

// Match modes.
const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

// PriorityMode governs how metadata and filename rules are interleaved.
type PriorityMode string

// Priority modes.
const (
	PriorityCombined      PriorityMode = "combined"
	PriorityMetadataFirst PriorityMode = "metadata-first"
	PriorityFilenameFirst PriorityMode = "filename-first"
)

// ErrInvalidPriorityMode is returned for unknown priority mode strings.
var ErrInvalidPriorityMode = errors.New("invalid priority mode")

// ParsePriorityMode parses a priority mode. An empty string means combined.
func ParsePriorityMode(s string) (PriorityMode, error) {
	switch PriorityMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriorityCombined:
		return PriorityCombined, nil
	case PriorityMetadataFirst:
		return PriorityMetadataFirst, nil
	case PriorityFilenameFirst:
		return PriorityFilenameFirst, nil
	default:
		return PriorityCombined, fmt.Errorf("%w: %q", ErrInvalidPriorityMode, s)
	}
}

// RuleCondition tests one metadata field.
type RuleCondition struct {
	// Field is a namespaced path such as "image.cameraMake".
	Field         string   `json:"field" yaml:"field" mapstructure:"field"`
	Operator      Operator `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value         string   `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	CaseSensitive bool     `json:"caseSensitive" yaml:"case_sensitive" mapstructure:"case_sensitive"`
}

// RuleHeader holds the fields shared by every rule kind.
type RuleHeader struct {
	ID                string    `json:"id" yaml:"id" mapstructure:"id"`
	Name              string    `json:"name" yaml:"name" mapstructure:"name"`
	Description       string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	TemplateID        string    `json:"templateId" yaml:"template_id" mapstructure:"template_id"`
	FolderStructureID string    `json:"folderStructureId,omitempty" yaml:"folder_structure_id,omitempty" mapstructure:"folder_structure_id"`
	Priority          int       `json:"priority" yaml:"priority" mapstructure:"priority"`
	Enabled           bool      `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	CreatedAt         time.Time `json:"createdAt" yaml:"created_at" mapstructure:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" yaml:"updated_at" mapstructure:"updated_at"`
}

// MetadataPatternRule matches files by metadata conditions.
type MetadataPatternRule struct {
	RuleHeader `yaml:",inline" mapstructure:",squash"`
	Conditions []RuleCondition `json:"conditions" yaml:"conditions" mapstructure:"conditions"`
	MatchMode  MatchMode       `json:"matchMode" yaml:"match_mode" mapstructure:"match_mode"`
}

// Header gives mutable access to the shared rule fields.
func (r *MetadataPatternRule) Header() *RuleHeader { return &r.RuleHeader }

// FilenamePatternRule matches files by a glob against the full file name.
type FilenamePatternRule struct {
	RuleHeader    `yaml:",inline" mapstructure:",squash"`
	Pattern       string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
	CaseSensitive bool   `json:"caseSensitive" yaml:"case_sensitive" mapstructure:"case_sensitive"`
}

// Header gives mutable access to the shared rule fields.
func (r *FilenamePatternRule) Header() *RuleHeader { return &r.RuleHeader }

// RuleMatch explains which rule won template resolution.
type RuleMatch struct {
	RuleID     string   `json:"ruleId" yaml:"rule_id"`
	RuleName   string   `json:"ruleName" yaml:"rule_name"`
	RuleType   RuleType `json:"ruleType" yaml:"rule_type"`
	TemplateID string   `json:"templateId" yaml:"template_id"`
	Priority   int      `json:"priority" yaml:"priority"`
}
