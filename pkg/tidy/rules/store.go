// Package rules manages metadata and filename pattern rules and arbitrates
// their priority.
//
// Collections are immutable snapshots: every operation that changes rules
// returns a new slice and leaves its input untouched. Persisting the result
// is the caller's job.
package rules

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Overridable in tests.
var (
	now   = time.Now
	newID = uuid.NewString
)

// MaxNameLength bounds rule names.
const MaxNameLength = 100

// ruleRef is satisfied by pointers to MetadataPatternRule and FilenamePatternRule.
type ruleRef[R any] interface {
	*R
	Header() *types.RuleHeader
}

func header[R any, P ruleRef[R]](r *R) *types.RuleHeader {
	return P(r).Header()
}

// Get returns the rule with the given ID.
func Get[R any, P ruleRef[R]](rules []R, id string) (R, error) {
	for i := range rules {
		if header[R, P](&rules[i]).ID == id {
			return rules[i], nil
		}
	}
	var zero R
	return zero, notFound(id)
}

// GetByName returns the rule whose name matches, ignoring case.
func GetByName[R any, P ruleRef[R]](rules []R, name string) (R, error) {
	want := strings.TrimSpace(name)
	for i := range rules {
		if strings.EqualFold(header[R, P](&rules[i]).Name, want) {
			return rules[i], nil
		}
	}
	var zero R
	return zero, &Error{Code: CodeNotFound, Field: "name", Message: "no rule named " + want}
}

// Delete removes the rule with the given ID.
func Delete[R any, P ruleRef[R]](rules []R, id string) ([]R, error) {
	idx := indexOf[R, P](rules, id)
	if idx < 0 {
		return nil, notFound(id)
	}
	out := make([]R, 0, len(rules)-1)
	out = append(out, rules[:idx]...)
	return append(out, rules[idx+1:]...), nil
}

// List returns the rules sorted by priority descending, then creation
// time ascending, then ID.
func List[R any, P ruleRef[R]](rules []R) []R {
	out := slices.Clone(rules)
	slices.SortStableFunc(out, func(a, b R) int {
		return compareHeaders(header[R, P](&a), header[R, P](&b))
	})
	return out
}

// ListEnabled returns the enabled rules in List order.
func ListEnabled[R any, P ruleRef[R]](rules []R) []R {
	var out []R
	for _, r := range List[R, P](rules) {
		if header[R, P](&r).Enabled {
			out = append(out, r)
		}
	}
	return out
}

// SetPriority sets one rule's priority.
func SetPriority[R any, P ruleRef[R]](rules []R, id string, priority int) ([]R, error) {
	if err := validatePriority(priority); err != nil {
		return nil, err
	}
	idx := indexOf[R, P](rules, id)
	if idx < 0 {
		return nil, notFound(id)
	}
	out := slices.Clone(rules)
	h := header[R, P](&out[idx])
	h.Priority = priority
	h.UpdatedAt = now()
	return out, nil
}

// ToggleEnabled flips one rule's enabled flag.
func ToggleEnabled[R any, P ruleRef[R]](rules []R, id string) ([]R, error) {
	idx := indexOf[R, P](rules, id)
	if idx < 0 {
		return nil, notFound(id)
	}
	out := slices.Clone(rules)
	h := header[R, P](&out[idx])
	h.Enabled = !h.Enabled
	h.UpdatedAt = now()
	return out, nil
}

// DemotedPriority is given to rules a reorder leaves out. Updates that do
// not touch the priority keep it.
const DemotedPriority = -1

// Reorder assigns priority len(ids)-1-i to ids[i]. Rules not listed drop to
// DemotedPriority so they never outrank an ordered rule. Duplicate or
// unknown IDs fail the whole operation.
func Reorder[R any, P ruleRef[R]](rules []R, ids []string) ([]R, error) {
	known := make(map[string]bool, len(rules))
	for i := range rules {
		known[header[R, P](&rules[i]).ID] = true
	}
	order, err := orderIndex(ids, known)
	if err != nil {
		return nil, err
	}

	out := slices.Clone(rules)
	ts := now()
	for i := range out {
		applyOrder(header[R, P](&out[i]), order, ts)
	}
	return out, nil
}

// orderIndex maps each ID to its reorder priority.
func orderIndex(ids []string, known map[string]bool) (map[string]int, error) {
	order := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := order[id]; dup {
			return nil, validationf("orderedIds", "duplicate rule id %q", id)
		}
		order[id] = len(ids) - 1 - i
	}
	for _, id := range ids {
		if !known[id] {
			return nil, notFound(id)
		}
	}
	return order, nil
}

func applyOrder(h *types.RuleHeader, order map[string]int, ts time.Time) {
	p, ok := order[h.ID]
	if !ok {
		p = DemotedPriority
	}
	if h.Priority != p {
		h.Priority = p
		h.UpdatedAt = ts
	}
}

func indexOf[R any, P ruleRef[R]](rules []R, id string) int {
	for i := range rules {
		if header[R, P](&rules[i]).ID == id {
			return i
		}
	}
	return -1
}

// compareHeaders orders by priority desc, createdAt asc, ID asc.
func compareHeaders(a, b *types.RuleHeader) int {
	return cmp.Or(
		cmp.Compare(b.Priority, a.Priority),
		a.CreatedAt.Compare(b.CreatedAt),
		cmp.Compare(a.ID, b.ID),
	)
}

// nameTaken reports whether another rule (not skipID) already uses name.
func nameTaken[R any, P ruleRef[R]](rules []R, name, skipID string) bool {
	for i := range rules {
		h := header[R, P](&rules[i])
		if h.ID != skipID && strings.EqualFold(strings.TrimSpace(h.Name), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func validateHeader(h *types.RuleHeader) error {
	name := strings.TrimSpace(h.Name)
	switch {
	case name == "":
		return validationf("name", "name is required")
	case len(name) > MaxNameLength:
		return validationf("name", "name exceeds %d characters", MaxNameLength)
	case strings.TrimSpace(h.TemplateID) == "":
		return validationf("templateId", "templateId is required")
	}
	return nil
}

// validatePriority checks a caller-supplied priority. DemotedPriority is
// only ever assigned by a reorder, so it is rejected here too.
func validatePriority(p int) error {
	if p < 0 {
		return validationf("priority", "priority must be >= 0, got %d", p)
	}
	return nil
}

// checkTemplate enforces that templateID exists. A nil templates slice
// skips the check.
func checkTemplate(templateID string, templates []types.Template) error {
	if templates == nil {
		return nil
	}
	if _, ok := types.FindTemplate(templates, templateID); !ok {
		return &Error{Code: CodeTemplateNotFound, Field: "templateId", Message: "template " + templateID + " does not exist"}
	}
	return nil
}
