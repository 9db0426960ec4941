// Package glob compiles filename glob patterns for filename pattern rules.
//
// Supported syntax: * (any run, including empty), ? (one character),
// [abc], [a-z], [!abc] and [^abc] character classes, and {a,b} brace
// alternation with nesting and \, escaped commas. Matching is anchored at
// both ends and case-insensitive unless Options.CaseSensitive is set.
//
// Compile never fails: a pattern that cannot be compiled yields a matcher
// that matches nothing. Use Validate to report pattern problems to users.
package glob

import (
	"errors"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("glob")

// MaxAlternatives caps brace expansion.
const MaxAlternatives = 1024

// ErrTooManyAlternatives is returned when brace expansion exceeds MaxAlternatives.
var ErrTooManyAlternatives = errors.New("pattern expands to too many alternatives")

// Options configures compilation.
type Options struct {
	CaseSensitive bool
}

// Matcher tests file names against a compiled pattern.
type Matcher struct {
	pattern       string
	alternatives  []glob.Glob
	caseSensitive bool
}

// Compile compiles pattern. The returned matcher is never nil.
func Compile(pattern string, opts Options) *Matcher {
	m := &Matcher{pattern: pattern, caseSensitive: opts.CaseSensitive}

	src := pattern
	if !opts.CaseSensitive {
		src = strings.ToLower(src)
	}

	alts, err := expandBraces(src)
	if err != nil {
		logger.Debug("brace expansion failed", "pattern", pattern, "error", err)
		return m
	}

	compiled := make([]glob.Glob, 0, len(alts))
	for _, alt := range alts {
		g, err := glob.Compile(normalize(alt))
		if err != nil {
			logger.Debug("invalid glob pattern", "pattern", pattern, "error", err)
			return &Matcher{pattern: pattern, caseSensitive: opts.CaseSensitive}
		}
		compiled = append(compiled, g)
	}
	m.alternatives = compiled
	return m
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// Valid reports whether the pattern compiled.
func (m *Matcher) Valid() bool {
	return m != nil && len(m.alternatives) > 0
}

// Match reports whether name matches the whole pattern.
func (m *Matcher) Match(name string) bool {
	if m == nil {
		return false
	}
	if !m.caseSensitive {
		name = strings.ToLower(name)
	}
	for _, g := range m.alternatives {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Match compiles pattern and tests name in one step.
func Match(pattern, name string, opts Options) bool {
	return Compile(pattern, opts).Match(name)
}

// expandBraces expands the first closed brace group and recurses on each
// alternative, so nested and sequential groups are all expanded.
// Unclosed groups are left in place.
func expandBraces(pattern string) ([]string, error) {
	start, end := findBraceGroup(pattern)
	if start < 0 {
		return []string{pattern}, nil
	}

	prefix, body, suffix := pattern[:start], pattern[start+1:end], pattern[end+1:]
	var out []string
	for _, part := range splitAlternatives(body) {
		expanded, err := expandBraces(prefix + part + suffix)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
		if len(out) > MaxAlternatives {
			return nil, ErrTooManyAlternatives
		}
	}
	return out, nil
}

// findBraceGroup returns the offsets of the first top-level brace group
// that has a matching close, or -1.
func findBraceGroup(pattern string) (int, int) {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '[':
			if j := classEnd(pattern, i); j > 0 {
				i = j
			}
		case '{':
			if j := braceEnd(pattern, i); j > 0 {
				return i, j
			}
		}
	}
	return -1, -1
}

// braceEnd returns the index of the '}' closing the '{' at open, or -1.
func braceEnd(pattern string, open int) int {
	depth := 0
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// classEnd returns the index of the ']' closing the '[' at open, or -1.
// A ']' directly after the opening bracket (or its negation) does not close it.
func classEnd(pattern string, open int) int {
	i := open + 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		i++
	}
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for ; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case ']':
			return i
		}
	}
	return -1
}

// splitAlternatives splits a brace body on top-level unescaped commas.
func splitAlternatives(body string) []string {
	var parts []string
	depth, last := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, body[last:])
}

// normalize rewrites an expanded alternative into gobwas syntax: negated
// classes use '!', a leading ']' class member is escaped, and unclosed '['
// and stray brace characters become literals.
func normalize(alt string) string {
	var b strings.Builder
	b.Grow(len(alt) + 8)
	for i := 0; i < len(alt); i++ {
		c := alt[i]
		switch c {
		case '\\':
			if i+1 < len(alt) {
				b.WriteByte('\\')
				b.WriteByte(alt[i+1])
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := classEnd(alt, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			body := alt[i+1 : end]
			if body == "" || body == "!" || body == "^" {
				b.WriteString(`\[`)
				continue
			}
			b.WriteByte('[')
			if body[0] == '!' || body[0] == '^' {
				b.WriteByte('!')
				body = body[1:]
			}
			// gobwas closes the class on a leading ']'.
			if body[0] == ']' {
				b.WriteByte('\\')
			}
			b.WriteString(body)
			b.WriteByte(']')
			i = end
		case '{', '}', ']', ',':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
