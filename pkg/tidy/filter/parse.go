package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Duration constants.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day  // Approximate
	Year  = 365 * Day // Approximate
)

// ErrInvalidDuration indicates that the duration string could not be parsed.
var ErrInvalidDuration = errors.New("invalid duration format")

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeValue indicates that a negative value was provided.
var ErrNegativeValue = errors.New("value cannot be negative")

var durationPattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*(d|w|mo|y)\s*$`)

// ParseDuration parses "30d", "2w", "3mo", "1y" or any Go duration such
// as "36h".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	// Check for negative values
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeValue
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		// Not a calendar unit; try a standard Go duration
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return d, nil
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	// Determine the unit from the suffix
	var unit time.Duration
	switch strings.ToLower(matches[2]) {
	case "d":
		unit = Day
	case "w":
		unit = Week
	case "mo":
		unit = Month
	default:
		unit = Year
	}
	return time.Duration(value * float64(unit)), nil
}

// ParseSize parses sizes such as "500K", "10MB" or "1.5GiB". Single-letter
// units are binary, matching du and ls -h.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeValue
	}
	// humanize reads a bare "K" as decimal, so spell out the binary unit
	in := s
	if last := s[len(s)-1]; strings.ContainsRune("kKmMgGtT", rune(last)) {
		in += "iB"
	}
	n, err := humanize.ParseBytes(in)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return int64(n), nil
}
