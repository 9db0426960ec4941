package rules

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// fixClock makes IDs and timestamps predictable for the duration of a test.
func fixClock(t *testing.T) {
	t.Helper()
	origNow, origID := now, newID
	tick, seq := epoch, 0
	now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	t.Cleanup(func() { now, newID = origNow, origID })
}

func metaRule(id string, priority int, created time.Time) types.MetadataPatternRule {
	return types.MetadataPatternRule{
		RuleHeader: types.RuleHeader{
			ID:         id,
			Name:       "rule " + id,
			TemplateID: "tpl",
			Priority:   priority,
			Enabled:    true,
			CreatedAt:  created,
			UpdatedAt:  created,
		},
		Conditions: []types.RuleCondition{{Field: "image.cameraMake", Operator: types.OpExists}},
		MatchMode:  types.MatchAll,
	}
}

func ids[R any, P ruleRef[R]](rules []R) []string {
	out := make([]string, len(rules))
	for i := range rules {
		out[i] = header[R, P](&rules[i]).ID
	}
	return out
}

func priorities(rules []types.MetadataPatternRule) map[string]int {
	out := make(map[string]int, len(rules))
	for _, r := range rules {
		out[r.ID] = r.Priority
	}
	return out
}

func TestCreateMetadataRule(t *testing.T) {
	fixClock(t)
	templates := []types.Template{{ID: "tpl", Name: "Default", Pattern: "{original}"}}

	valid := MetadataRuleInput{
		Name:       "iPhone photos",
		Conditions: []types.RuleCondition{{Field: "image.cameraMake", Operator: types.OpEquals, Value: "Apple"}},
		TemplateID: "tpl",
		Priority:   5,
	}

	rules, rule, err := CreateMetadataRule(nil, valid, templates)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "id-1", rule.ID)
	assert.True(t, rule.Enabled)
	assert.Equal(t, types.MatchAll, rule.MatchMode)
	assert.Equal(t, rule.CreatedAt, rule.UpdatedAt)

	tests := []struct {
		name      string
		mutate    func(in *MetadataRuleInput)
		templates []types.Template
		wantCode  Code
	}{
		{"missing name", func(in *MetadataRuleInput) { in.Name = "  " }, templates, CodeValidation},
		{"no conditions", func(in *MetadataRuleInput) { in.Conditions = nil }, templates, CodeValidation},
		{"negative priority", func(in *MetadataRuleInput) { in.Priority = -2 }, templates, CodeValidation},
		{"bad match mode", func(in *MetadataRuleInput) { in.MatchMode = "most" }, templates, CodeValidation},
		{"missing value", func(in *MetadataRuleInput) {
			in.Conditions = []types.RuleCondition{{Field: "image.cameraMake", Operator: types.OpEquals}}
		}, templates, CodeValidation},
		{"unknown operator", func(in *MetadataRuleInput) {
			in.Conditions = []types.RuleCondition{{Field: "image.cameraMake", Operator: "near", Value: "x"}}
		}, templates, CodeValidation},
		{"unknown field", func(in *MetadataRuleInput) {
			in.Conditions = []types.RuleCondition{{Field: "exif.make", Operator: types.OpExists}}
		}, templates, CodeInvalidFieldPath},
		{"bad regex", func(in *MetadataRuleInput) {
			in.Conditions = []types.RuleCondition{{Field: "image.cameraMake", Operator: types.OpRegex, Value: "(a"}}
		}, templates, CodeInvalidRegex},
		{"duplicate name ignoring case", func(in *MetadataRuleInput) { in.Name = "IPHONE PHOTOS" }, templates, CodeDuplicateName},
		{"template missing", func(in *MetadataRuleInput) { in.Name = "other"; in.TemplateID = "gone" }, templates, CodeTemplateNotFound},
		{"empty template list enforces", func(in *MetadataRuleInput) { in.Name = "other" }, []types.Template{}, CodeTemplateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			out, _, err := CreateMetadataRule(rules, in, tt.templates)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.wantCode, CodeOf(err))
		})
	}

	t.Run("nil templates skips check", func(t *testing.T) {
		in := valid
		in.Name = "unchecked"
		in.TemplateID = "gone"
		out, _, err := CreateMetadataRule(rules, in, nil)
		require.NoError(t, err)
		assert.Len(t, out, 2)
		assert.Len(t, rules, 1, "input collection unchanged")
	})
}

func TestUpdateMetadataRule(t *testing.T) {
	fixClock(t)
	rules := []types.MetadataPatternRule{metaRule("a", 0, epoch), metaRule("b", 1, epoch)}

	name := "Renamed"
	anyMode := types.MatchAny
	out, rule, err := UpdateMetadataRule(rules, "a", MetadataRuleUpdate{Name: &name, MatchMode: &anyMode}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", rule.Name)
	assert.Equal(t, types.MatchAny, rule.MatchMode)
	assert.True(t, rule.UpdatedAt.After(rule.CreatedAt))
	assert.Equal(t, "Renamed", out[0].Name)
	assert.Equal(t, "rule a", rules[0].Name, "input collection unchanged")

	same := "RULE B"
	_, _, err = UpdateMetadataRule(rules, "a", MetadataRuleUpdate{Name: &same}, nil)
	assert.ErrorIs(t, err, ErrDuplicateName)

	self := "RULE A"
	_, _, err = UpdateMetadataRule(rules, "a", MetadataRuleUpdate{Name: &self}, nil)
	assert.NoError(t, err, "renaming to own name in other case is allowed")

	_, _, err = UpdateMetadataRule(rules, "zzz", MetadataRuleUpdate{}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	tpl := "missing"
	_, _, err = UpdateMetadataRule(rules, "a", MetadataRuleUpdate{TemplateID: &tpl}, []types.Template{{ID: "tpl"}})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestGetAndGetByName(t *testing.T) {
	rules := []types.MetadataPatternRule{metaRule("a", 0, epoch), metaRule("b", 1, epoch)}

	r, err := Get(rules, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", r.ID)

	_, err = Get(rules, "c")
	assert.ErrorIs(t, err, ErrNotFound)

	r, err = GetByName(rules, "RULE A")
	require.NoError(t, err)
	assert.Equal(t, "a", r.ID)

	_, err = GetByName(rules, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	rules := []types.MetadataPatternRule{metaRule("a", 0, epoch), metaRule("b", 1, epoch), metaRule("c", 2, epoch)}

	out, err := Delete(rules, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Len(t, rules, 3)

	_, err = Delete(rules, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdering(t *testing.T) {
	rules := []types.MetadataPatternRule{
		metaRule("low", 1, epoch),
		metaRule("young", 5, epoch.Add(time.Hour)),
		metaRule("old", 5, epoch),
		metaRule("twin-b", 3, epoch),
		metaRule("twin-a", 3, epoch),
	}

	assert.Equal(t, []string{"old", "young", "twin-a", "twin-b", "low"}, ids(List(rules)))
	assert.Equal(t, "low", rules[0].ID, "input order unchanged")

	rules[1].Enabled = false
	assert.Equal(t, []string{"old", "twin-a", "twin-b", "low"}, ids(ListEnabled(rules)))
}

func TestSetPriorityAndToggle(t *testing.T) {
	fixClock(t)
	rules := []types.MetadataPatternRule{metaRule("a", 0, epoch)}

	out, err := SetPriority(rules, "a", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, out[0].Priority)
	assert.Equal(t, 0, rules[0].Priority)

	_, err = SetPriority(rules, "a", -1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = SetPriority(rules, "x", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	out, err = ToggleEnabled(rules, "a")
	require.NoError(t, err)
	assert.False(t, out[0].Enabled)
	assert.True(t, rules[0].Enabled)

	_, err = ToggleEnabled(rules, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorder(t *testing.T) {
	fixClock(t)
	rules := []types.MetadataPatternRule{metaRule("a", 0, epoch), metaRule("b", 1, epoch), metaRule("c", 2, epoch)}

	t.Run("unlisted rules are demoted", func(t *testing.T) {
		out, err := Reorder(rules, []string{"b", "a"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"b": 1, "a": 0, "c": -1}, priorities(out))
		assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, priorities(rules))
	})

	t.Run("full order", func(t *testing.T) {
		out, err := Reorder(rules, []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 2, "b": 1, "c": 0}, priorities(out))
	})

	t.Run("demoted rules stay editable", func(t *testing.T) {
		out, err := Reorder(rules, []string{"b", "a"})
		require.NoError(t, err)

		desc := "left out of the order"
		out, rule, err := UpdateMetadataRule(out, "c", MetadataRuleUpdate{Description: &desc}, nil)
		require.NoError(t, err)
		assert.Equal(t, desc, rule.Description)
		assert.Equal(t, DemotedPriority, rule.Priority)

		negative := DemotedPriority
		_, _, err = UpdateMetadataRule(out, "a", MetadataRuleUpdate{Priority: &negative}, nil)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = SetPriority(out, "c", DemotedPriority)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate id", func(t *testing.T) {
		out, err := Reorder(rules, []string{"a", "a"})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, out)
	})

	t.Run("unknown id", func(t *testing.T) {
		out, err := Reorder(rules, []string{"a", "zzz"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, out)
	})
}

func TestFilenameRuleCRUD(t *testing.T) {
	fixClock(t)

	rules, rule, err := CreateFilenameRule(nil, FilenameRuleInput{
		Name:       "Screenshots",
		Pattern:    "Screenshot*.{png,jpg}",
		TemplateID: "tpl",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "id-1", rule.ID)

	_, _, err = CreateFilenameRule(rules, FilenameRuleInput{Name: "Broken", Pattern: "IMG_{a,b", TemplateID: "tpl"}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = CreateFilenameRule(rules, FilenameRuleInput{Name: "screenshots", Pattern: "*", TemplateID: "tpl"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateName)

	pattern := "*.heic"
	out, updated, err := UpdateFilenameRule(rules, rule.ID, FilenameRuleUpdate{Pattern: &pattern}, nil)
	require.NoError(t, err)
	assert.Equal(t, "*.heic", updated.Pattern)
	assert.Equal(t, "Screenshot*.{png,jpg}", rules[0].Pattern)

	out, err = Reorder(out, []string{rule.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].Priority)

	out, other, err := CreateFilenameRule(out, FilenameRuleInput{Name: "Scans", Pattern: "scan_*", TemplateID: "tpl"}, nil)
	require.NoError(t, err)
	out, err = Reorder(out, []string{rule.ID})
	require.NoError(t, err)
	caseSensitive := true
	_, other, err = UpdateFilenameRule(out, other.ID, FilenameRuleUpdate{CaseSensitive: &caseSensitive}, nil)
	require.NoError(t, err)
	assert.Equal(t, DemotedPriority, other.Priority)
	assert.True(t, other.CaseSensitive)
}

func TestErrorFormatting(t *testing.T) {
	err := validationf("name", "name is required")
	assert.Equal(t, "validation_error: name is required (name)", err.Error())
	assert.Equal(t, Code(""), CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, CodeValidation, CodeOf(fmt.Errorf("wrapped: %w", err)))
}
