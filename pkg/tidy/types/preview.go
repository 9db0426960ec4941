package types

import "time"

// ProposalStatus classifies a rename proposal.
type ProposalStatus string

// Proposal statuses.
const (
	StatusReady       ProposalStatus = "ready"
	StatusConflict    ProposalStatus = "conflict"
	StatusMissingData ProposalStatus = "missing-data"
	StatusInvalidName ProposalStatus = "invalid-name"
	StatusNoChange    ProposalStatus = "no-change"
)

// TemplateSource records where a proposal's naming came from.
type TemplateSource string

// Template sources.
const (
	SourceDefault  TemplateSource = "default"
	SourceRule     TemplateSource = "rule"
	SourceFallback TemplateSource = "fallback"
	SourceLLM      TemplateSource = "llm"
)

// Severity of a proposal issue.
type Severity string

// Issue severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes attached to proposals.
const (
	IssueRuleTemplateMissing     = "RULE_TEMPLATE_MISSING"
	IssueLLMAnalysisFailed       = "LLM_ANALYSIS_FAILED"
	IssueLLMSuggestionUsed       = "LLM_SUGGESTION_USED"
	IssueFolderResolutionFailed  = "FOLDER_RESOLUTION_FAILED"
	IssueFolderStructureNotFound = "FOLDER_STRUCTURE_NOT_FOUND"
	IssueMissingData             = "MISSING_DATA"
	IssueInvalidName             = "INVALID_NAME"
	IssueNameSanitized           = "NAME_SANITIZED"
	IssueConflict                = "CONFLICT"
)

// DetailedIssue is a diagnostic attached to a proposal.
type DetailedIssue struct {
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
	Field    string   `json:"field,omitempty" yaml:"field,omitempty"`
}

// AISuggestion is an LLM naming suggestion for one file.
type AISuggestion struct {
	SuggestedName    string   `json:"suggestedName" yaml:"suggested_name"`
	Confidence       float64  `json:"confidence" yaml:"confidence"`
	Reasoning        string   `json:"reasoning" yaml:"reasoning"`
	Keywords         []string `json:"keywords" yaml:"keywords"`
	KeepOriginal     bool     `json:"keepOriginal,omitempty" yaml:"keep_original,omitempty"`
	SuggestedFolder  string   `json:"suggestedFolder,omitempty" yaml:"suggested_folder,omitempty"`
	FolderConfidence *float64 `json:"folderConfidence,omitempty" yaml:"folder_confidence,omitempty"`
}

// LLMAnalysisResult is the pre-computed LLM output for one file.
type LLMAnalysisResult struct {
	Suggestion       AISuggestion `json:"suggestion" yaml:"suggestion"`
	ModelUsed        string       `json:"modelUsed" yaml:"model_used"`
	ProcessingTimeMs int64        `json:"processingTimeMs" yaml:"processing_time_ms"`
	AnalyzedAt       time.Time    `json:"analyzedAt" yaml:"analyzed_at"`
	ContentTruncated bool         `json:"contentTruncated" yaml:"content_truncated"`
}

// RenameProposal is one file's computed rename or move.
type RenameProposal struct {
	ID                string          `json:"id" yaml:"id"`
	OriginalPath      string          `json:"originalPath" yaml:"original_path"`
	OriginalName      string          `json:"originalName" yaml:"original_name"`
	ProposedName      string          `json:"proposedName" yaml:"proposed_name"`
	ProposedPath      string          `json:"proposedPath" yaml:"proposed_path"`
	Status            ProposalStatus  `json:"status" yaml:"status"`
	Issues            []DetailedIssue `json:"issues" yaml:"issues"`
	MetadataSources   []string        `json:"metadataSources" yaml:"metadata_sources"`
	TemplateSource    TemplateSource  `json:"templateSource" yaml:"template_source"`
	AppliedRule       *RuleMatch      `json:"appliedRule,omitempty" yaml:"applied_rule,omitempty"`
	IsMoveOperation   bool            `json:"isMoveOperation,omitempty" yaml:"is_move_operation,omitempty"`
	DestinationFolder string          `json:"destinationFolder,omitempty" yaml:"destination_folder,omitempty"`
	FolderStructureID string          `json:"folderStructureId,omitempty" yaml:"folder_structure_id,omitempty"`
	LLMSuggestion     *AISuggestion   `json:"llmSuggestion,omitempty" yaml:"llm_suggestion,omitempty"`
	UseLLMSuggestion  *bool           `json:"useLlmSuggestion,omitempty" yaml:"use_llm_suggestion,omitempty"`
}

// HasIssue reports whether the proposal carries an issue with the given code.
func (p *RenameProposal) HasIssue(code string) bool {
	for _, i := range p.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

// PreviewSummary aggregates proposal counts.
type PreviewSummary struct {
	Total          int `json:"total" yaml:"total"`
	Ready          int `json:"ready" yaml:"ready"`
	Conflicts      int `json:"conflicts" yaml:"conflicts"`
	MissingData    int `json:"missingData" yaml:"missing_data"`
	InvalidName    int `json:"invalidName" yaml:"invalid_name"`
	NoChange       int `json:"noChange" yaml:"no_change"`
	MoveOperations int `json:"moveOperations" yaml:"move_operations"`
	RenameOnly     int `json:"renameOnly" yaml:"rename_only"`
	LLMSuggested   int `json:"llmSuggested" yaml:"llm_suggested"`
}

// RenamePreview is the full batch of proposals for one run.
type RenamePreview struct {
	Proposals    []RenameProposal `json:"proposals" yaml:"proposals"`
	Summary      PreviewSummary   `json:"summary" yaml:"summary"`
	GeneratedAt  time.Time        `json:"generatedAt" yaml:"generated_at"`
	TemplateUsed string           `json:"templateUsed" yaml:"template_used"`
}

// ReadyProposals returns the proposals an execution engine may act on.
func (p *RenamePreview) ReadyProposals() []RenameProposal {
	var out []RenameProposal
	for _, prop := range p.Proposals {
		if prop.Status == StatusReady {
			out = append(out, prop)
		}
	}
	return out
}
