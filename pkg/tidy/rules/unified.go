package rules

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// UnifiedRule is either a metadata rule or a filename rule. Exactly one of
// Metadata and Filename is set, matching Type.
type UnifiedRule struct {
	Type     types.RuleType
	Metadata *types.MetadataPatternRule
	Filename *types.FilenamePatternRule
}

// FromMetadata wraps a metadata rule.
func FromMetadata(r types.MetadataPatternRule) UnifiedRule {
	return UnifiedRule{Type: types.RuleTypeMetadata, Metadata: &r}
}

// FromFilename wraps a filename rule.
func FromFilename(r types.FilenamePatternRule) UnifiedRule {
	return UnifiedRule{Type: types.RuleTypeFilename, Filename: &r}
}

// Header returns the shared rule fields.
func (u UnifiedRule) Header() types.RuleHeader {
	switch u.Type {
	case types.RuleTypeMetadata:
		return u.Metadata.RuleHeader
	case types.RuleTypeFilename:
		return u.Filename.RuleHeader
	default:
		panic(fmt.Sprintf("rules: unknown rule type %q", u.Type))
	}
}

// Match describes the rule as a resolution winner.
func (u UnifiedRule) Match() types.RuleMatch {
	h := u.Header()
	return types.RuleMatch{
		RuleID:     h.ID,
		RuleName:   h.Name,
		RuleType:   u.Type,
		TemplateID: h.TemplateID,
		Priority:   h.Priority,
	}
}

// UnifiedPriorities orders both rule kinds under mode. Within a kind, and
// across kinds in combined mode, rules sort by priority descending, then
// creation time ascending, then ID; a metadata rule precedes a filename
// rule on an exact tie. The result holds copies of the input rules.
func UnifiedPriorities(meta []types.MetadataPatternRule, filename []types.FilenamePatternRule, mode types.PriorityMode) []UnifiedRule {
	metaUnified := make([]UnifiedRule, 0, len(meta))
	for _, r := range List(meta) {
		metaUnified = append(metaUnified, FromMetadata(r))
	}
	fileUnified := make([]UnifiedRule, 0, len(filename))
	for _, r := range List(filename) {
		fileUnified = append(fileUnified, FromFilename(r))
	}

	switch mode {
	case types.PriorityMetadataFirst:
		return append(metaUnified, fileUnified...)
	case types.PriorityFilenameFirst:
		return append(fileUnified, metaUnified...)
	default:
		all := append(metaUnified, fileUnified...)
		slices.SortStableFunc(all, compareUnified)
		return all
	}
}

func compareUnified(a, b UnifiedRule) int {
	ha, hb := a.Header(), b.Header()
	return cmp.Or(
		compareHeaders(&ha, &hb),
		cmp.Compare(typeRank(a.Type), typeRank(b.Type)),
	)
}

func typeRank(t types.RuleType) int {
	if t == types.RuleTypeMetadata {
		return 0
	}
	return 1
}

// ReorderUnified applies one ordered ID list across both collections:
// ids[i] gets priority len(ids)-1-i and every unlisted rule drops to
// DemotedPriority. Duplicate or unknown IDs fail without changing either collection.
func ReorderUnified(
	meta []types.MetadataPatternRule,
	filename []types.FilenamePatternRule,
	ids []string,
) ([]types.MetadataPatternRule, []types.FilenamePatternRule, error) {
	known := make(map[string]bool, len(meta)+len(filename))
	for _, r := range meta {
		known[r.ID] = true
	}
	for _, r := range filename {
		known[r.ID] = true
	}
	order, err := orderIndex(ids, known)
	if err != nil {
		return nil, nil, err
	}

	ts := now()
	outMeta := slices.Clone(meta)
	for i := range outMeta {
		applyOrder(&outMeta[i].RuleHeader, order, ts)
	}
	outFile := slices.Clone(filename)
	for i := range outFile {
		applyOrder(&outFile[i].RuleHeader, order, ts)
	}
	return outMeta, outFile, nil
}

// SetUnifiedPriority sets the priority of the rule with the given ID in
// whichever collection holds it. If the priority is unchanged the inputs
// are returned as-is.
func SetUnifiedPriority(
	meta []types.MetadataPatternRule,
	filename []types.FilenamePatternRule,
	id string,
	priority int,
) ([]types.MetadataPatternRule, []types.FilenamePatternRule, error) {
	if i := indexOf(meta, id); i >= 0 {
		if meta[i].Priority == priority {
			return meta, filename, nil
		}
		out, err := SetPriority(meta, id, priority)
		if err != nil {
			return nil, nil, err
		}
		return out, filename, nil
	}
	if i := indexOf(filename, id); i >= 0 {
		if filename[i].Priority == priority {
			return meta, filename, nil
		}
		out, err := SetPriority(filename, id, priority)
		if err != nil {
			return nil, nil, err
		}
		return meta, out, nil
	}
	return nil, nil, notFound(id)
}
