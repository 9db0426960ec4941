package naming

import (
	"regexp"
	"strings"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}[-_]\d{2}[-_]\d{2}[-_ ]?`),
		regexp.MustCompile(`^\d{8}[-_ ]?`),
		regexp.MustCompile(`^\d{2}[-_]\d{2}[-_]\d{4}[-_ ]?`),
		regexp.MustCompile(`[-_ ]\d{4}[-_]?\d{2}[-_]?\d{2}$`),
	}
	counterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[-_ ]\d{1,4}$`),
		regexp.MustCompile(`\s*\(\d{1,4}\)$`),
	}
)

// CleanName strips leading or trailing dates and trailing counters such
// as _001 or (2) from a stem, so re-applying a dated template does not
// stack dates. If nothing would remain the stem is returned unchanged.
func CleanName(stem string) string {
	out := stem
	for _, re := range datePatterns {
		out = re.ReplaceAllString(out, "")
	}
	for _, re := range counterPatterns {
		out = re.ReplaceAllString(out, "")
	}
	out = strings.Trim(out, "-_ ")
	if out == "" {
		return stem
	}
	return out
}
