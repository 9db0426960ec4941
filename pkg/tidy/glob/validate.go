package glob

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate reports problems with pattern. An empty result means the
// pattern is usable. Unclosed '[' is not reported; it matches literally.
func Validate(pattern string) []string {
	if strings.TrimSpace(pattern) == "" {
		return []string{"pattern is empty"}
	}

	var problems []string
	depth := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '[':
			if j := classEnd(pattern, i); j > 0 {
				i = j
				continue
			}
			// "[]" with no later ']' to make the first one a member.
			if i+1 < len(pattern) && pattern[i+1] == ']' {
				problems = append(problems, fmt.Sprintf("empty character class at position %d", i))
				i++
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				problems = append(problems, fmt.Sprintf("unmatched '}' at position %d", i))
				continue
			}
			depth--
		}
	}
	if depth > 0 {
		problems = append(problems, fmt.Sprintf("%d unclosed '{'", depth))
	}
	if len(problems) > 0 {
		return problems
	}

	alts, err := expandBraces(pattern)
	if err != nil {
		return []string{err.Error()}
	}
	for _, alt := range alts {
		if _, err := glob.Compile(normalize(alt)); err != nil {
			problems = append(problems, fmt.Sprintf("invalid pattern %q: %v", alt, err))
		}
	}
	return problems
}
