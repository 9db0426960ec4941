package naming

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// CaseStyle is a file name case convention.
type CaseStyle string

// Case styles.
const (
	CaseNone       CaseStyle = "none"
	CaseLower      CaseStyle = "lowercase"
	CaseUpper      CaseStyle = "uppercase"
	CaseCapitalize CaseStyle = "capitalize"
	CaseTitle      CaseStyle = "title-case"
	CaseKebab      CaseStyle = "kebab-case"
	CaseSnake      CaseStyle = "snake-case"
	CaseCamel      CaseStyle = "camel-case"
	CasePascal     CaseStyle = "pascal-case"
)

// CaseStyles lists every style in display order.
var CaseStyles = []CaseStyle{
	CaseNone, CaseLower, CaseUpper, CaseCapitalize, CaseTitle,
	CaseKebab, CaseSnake, CaseCamel, CasePascal,
}

// ErrInvalidCaseStyle is returned by ParseCaseStyle.
var ErrInvalidCaseStyle = errors.New("invalid case style")

// ParseCaseStyle parses a style name. Empty means none.
func ParseCaseStyle(s string) (CaseStyle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CaseNone, nil
	}
	for _, c := range CaseStyles {
		if string(c) == s {
			return c, nil
		}
	}
	return CaseNone, fmt.Errorf("%w: %q", ErrInvalidCaseStyle, s)
}

// SplitWords splits on spaces, underscores, hyphens and dots, and at
// lower-to-upper camel case boundaries.
func SplitWords(s string) []string {
	var (
		words     []string
		current   []rune
		prevLower bool
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	for _, r := range s {
		if r == ' ' || r == '_' || r == '-' || r == '.' {
			flush()
			prevLower = false
			continue
		}
		if unicode.IsUpper(r) && prevLower {
			flush()
		}
		current = append(current, r)
		prevLower = unicode.IsLower(r)
	}
	flush()
	return words
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ApplyCase converts a name stem (no extension) to style.
func ApplyCase(stem string, style CaseStyle) string {
	switch style {
	case CaseNone, "":
		return stem
	case CaseLower:
		return strings.ToLower(stem)
	case CaseUpper:
		return strings.ToUpper(stem)
	}
	words := SplitWords(stem)
	if len(words) == 0 {
		return stem
	}

	mapped := make([]string, len(words))
	switch style {
	case CaseKebab, CaseSnake:
		for i, w := range words {
			mapped[i] = strings.ToLower(w)
		}
	case CaseCapitalize:
		for i, w := range words {
			mapped[i] = strings.ToLower(w)
		}
		mapped[0] = capitalize(words[0])
	case CaseTitle, CasePascal:
		for i, w := range words {
			mapped[i] = capitalize(w)
		}
	case CaseCamel:
		for i, w := range words {
			mapped[i] = capitalize(w)
		}
		mapped[0] = strings.ToLower(words[0])
	default:
		return stem
	}

	switch style {
	case CaseKebab:
		return strings.Join(mapped, "-")
	case CaseSnake:
		return strings.Join(mapped, "_")
	case CaseCamel, CasePascal:
		return strings.Join(mapped, "")
	default:
		return strings.Join(mapped, " ")
	}
}

// NormalizeFileName applies style to the stem of a full file name and
// lowercases the extension. A leading dot on hidden files is kept.
func NormalizeFileName(fullName string, style CaseStyle) string {
	if style == CaseNone || style == "" || fullName == "" {
		return fullName
	}
	prefix := ""
	rest := fullName
	if strings.HasPrefix(rest, ".") {
		prefix, rest = ".", rest[1:]
	}
	stem, ext := types.SplitName(rest)
	out := prefix + ApplyCase(stem, style)
	if ext != "" {
		out += "." + strings.ToLower(ext)
	}
	return out
}
