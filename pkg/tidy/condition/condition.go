// Package condition evaluates metadata rule conditions against extracted
// file metadata.
package condition

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Error codes.
const (
	CodeConditionError = "CONDITION_ERROR"
	CodeRuleDisabled   = "RULE_DISABLED"
)

// Error is an evaluation failure. It is distinct from a non-match.
type Error struct {
	Code    string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Field == "" && t.Message == ""
}

// Sentinels for errors.Is.
var (
	ErrCondition    = &Error{Code: CodeConditionError}
	ErrRuleDisabled = &Error{Code: CodeRuleDisabled}
)

// RuleResult explains a rule evaluation.
type RuleResult struct {
	Matches             bool
	MatchedConditions   []string
	UnmatchedConditions []string
}

// Evaluate tests one condition. An absent field never matches except for
// notExists. An invalid regular expression is returned as a CONDITION_ERROR.
func Evaluate(cond types.RuleCondition, meta *types.UnifiedMetadata) (bool, error) {
	value, present := meta.Lookup(cond.Field)

	switch cond.Operator {
	case types.OpExists:
		return present, nil
	case types.OpNotExists:
		return !present, nil
	case types.OpEquals, types.OpContains, types.OpStartsWith, types.OpEndsWith:
		if !present {
			return false, nil
		}
		return anyValue(value, func(s string) bool { return compare(cond, s) }), nil
	case types.OpRegex:
		re, err := compileRegex(cond)
		if err != nil {
			return false, err
		}
		if !present {
			return false, nil
		}
		return anyValue(value, re.MatchString), nil
	default:
		return false, &Error{
			Code:    CodeConditionError,
			Field:   cond.Field,
			Message: fmt.Sprintf("unknown operator %q", cond.Operator),
		}
	}
}

// EvaluateRule evaluates a metadata rule's conditions under its match mode.
// "all" stops at the first non-match and "any" at the first match, so the
// returned field lists cover only evaluated conditions. A disabled rule
// fails with RULE_DISABLED.
func EvaluateRule(rule types.MetadataPatternRule, meta *types.UnifiedMetadata) (RuleResult, error) {
	if !rule.Enabled {
		return RuleResult{}, &Error{Code: CodeRuleDisabled, Message: fmt.Sprintf("rule %q is disabled", rule.Name)}
	}

	var res RuleResult
	anyMode := rule.MatchMode == types.MatchAny
	for _, cond := range rule.Conditions {
		ok, err := Evaluate(cond, meta)
		if err != nil {
			return res, err
		}
		if ok {
			res.MatchedConditions = append(res.MatchedConditions, cond.Field)
			if anyMode {
				res.Matches = true
				return res, nil
			}
			continue
		}
		res.UnmatchedConditions = append(res.UnmatchedConditions, cond.Field)
		if !anyMode {
			return res, nil
		}
	}

	res.Matches = !anyMode && len(rule.Conditions) > 0
	return res, nil
}

// ValidateRegex reports whether a regex condition value compiles.
func ValidateRegex(cond types.RuleCondition) error {
	_, err := compileRegex(cond)
	return err
}

func compileRegex(cond types.RuleCondition) (*regexp.Regexp, error) {
	expr := cond.Value
	if !cond.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &Error{
			Code:    CodeConditionError,
			Field:   cond.Field,
			Message: fmt.Sprintf("invalid regex %q", cond.Value),
			Err:     err,
		}
	}
	return re, nil
}

func compare(cond types.RuleCondition, s string) bool {
	want := cond.Value
	if !cond.CaseSensitive {
		s, want = strings.ToLower(s), strings.ToLower(want)
	}
	switch cond.Operator {
	case types.OpEquals:
		return s == want
	case types.OpContains:
		return strings.Contains(s, want)
	case types.OpStartsWith:
		return strings.HasPrefix(s, want)
	case types.OpEndsWith:
		return strings.HasSuffix(s, want)
	}
	return false
}

// anyValue applies fn to the value, or to each element of a list value.
func anyValue(v any, fn func(string) bool) bool {
	if list, ok := v.([]string); ok {
		for _, s := range list {
			if fn(s) {
				return true
			}
		}
		return false
	}
	return fn(Stringify(v))
}

// Stringify renders a metadata value for comparison and display.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprint(x)
	}
}
