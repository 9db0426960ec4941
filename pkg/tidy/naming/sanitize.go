package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// MaxNameLength is the longest file name, in bytes, most filesystems accept.
const MaxNameLength = 255

// Replacement substitutes invalid characters.
const Replacement = '_'

const invalidChars = "/\\:*?\"<>|\x00"

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Change kinds reported by Sanitize.
const (
	ChangeCharReplacement = "char_replacement"
	ChangeReservedName    = "reserved_name"
	ChangeTrailingFix     = "trailing_fix"
	ChangeLeadingFix      = "leading_fix"
	ChangeTruncation      = "truncation"
)

// Change describes one sanitization step.
type Change struct {
	Kind    string
	Message string
}

// SanitizeResult is the outcome of Sanitize.
type SanitizeResult struct {
	Name     string
	Original string
	Changes  []Change
	// Valid is false when no usable name remains.
	Valid bool
}

// Modified reports whether Sanitize changed the name.
func (r SanitizeResult) Modified() bool { return r.Name != r.Original }

// Sanitize makes a full file name safe on Windows, macOS and Linux:
// invalid and control characters become '_' (runs collapse to one),
// reserved device names gain a "_file" suffix, trailing dots and spaces
// and leading spaces are removed, and the name is capped at MaxNameLength bytes with the
// extension kept. The result is deterministic for a given input.
func Sanitize(name string) SanitizeResult {
	res := SanitizeResult{Original: name}
	out := name

	var replaced []string
	var b strings.Builder
	var last rune
	lastReplaced := false
	for _, r := range out {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(invalidChars, r) {
			replaced = appendUnique(replaced, fmt.Sprintf("%q", r))
			if last != Replacement {
				b.WriteRune(Replacement)
				last = Replacement
			}
			lastReplaced = true
			continue
		}
		if r == Replacement && lastReplaced {
			continue
		}
		b.WriteRune(r)
		last, lastReplaced = r, false
	}
	out = b.String()
	if len(replaced) > 0 {
		res.Changes = append(res.Changes, Change{ChangeCharReplacement, "replaced invalid characters: " + strings.Join(replaced, ", ")})
	}

	stem, ext := types.SplitName(out)
	if reservedNames[strings.ToUpper(stem)] {
		out = joinName(stem+"_file", ext)
		res.Changes = append(res.Changes, Change{ChangeReservedName, fmt.Sprintf("%q is a reserved name on Windows", stem)})
	}

	// A blank stem must not collapse into a dotfile such as ".txt".
	stem, ext = types.SplitName(out)
	blankStem := ext != "" && strings.TrimSpace(stem) == ""

	fixed := strings.TrimRight(joinName(strings.TrimRight(stem, ". "), ext), ". ")
	if fixed != out {
		out = fixed
		res.Changes = append(res.Changes, Change{ChangeTrailingFix, "removed trailing spaces or periods"})
	}
	if trimmed := strings.TrimLeft(out, " "); trimmed != out {
		out = trimmed
		res.Changes = append(res.Changes, Change{ChangeLeadingFix, "removed leading spaces"})
	}

	if len(out) > MaxNameLength {
		before := len(out)
		out = truncate(out)
		res.Changes = append(res.Changes, Change{ChangeTruncation, fmt.Sprintf("truncated from %d to %d bytes", before, len(out))})
	}

	res.Name = out
	stem, _ = types.SplitName(out)
	res.Valid = !blankStem && strings.TrimSpace(stem) != "" && out != "." && out != ".."
	return res
}

func joinName(stem, ext string) string {
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// truncate shortens the stem on a rune boundary so the full name fits.
func truncate(name string) string {
	stem, ext := types.SplitName(name)
	budget := MaxNameLength
	if ext != "" {
		budget -= len(ext) + 1
	}
	if budget < 1 {
		return cutRunes(name, MaxNameLength)
	}
	stem = strings.TrimRight(cutRunes(stem, budget), ". ")
	return joinName(stem, ext)
}

func cutRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
