package conflict

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Strategy names how Disambiguate numbers colliding names.
type Strategy string

// Disambiguation strategies.
const (
	// StrategySuffix renames to "name_1.ext".
	StrategySuffix Strategy = "suffix"
	// StrategyCounter renames to "name (1).ext".
	StrategyCounter Strategy = "counter"
)

// ParseStrategy converts a flag value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySuffix, StrategyCounter:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown disambiguation strategy %q (want suffix or counter)", s)
}

const maxAttempts = 10000

// Disambiguate returns a copy of proposals where colliding targets get
// numbered names. The first proposal for a path keeps it; later ones are
// numbered from 1. Conflict status is recomputed on the result, so
// proposals that could not be freed stay in conflict.
func Disambiguate(proposals []types.RenameProposal, strategy Strategy, opts Options) []types.RenameProposal {
	out := slices.Clone(proposals)

	originals := make(map[string]bool, len(out))
	taken := make(map[string]bool)
	for i := range out {
		p := &out[i]
		originals[opts.key(p.OriginalPath)] = true
		if !eligible(*p) {
			taken[opts.key(p.OriginalPath)] = true
			continue
		}
		p.Issues = slices.DeleteFunc(slices.Clone(p.Issues), func(is types.DetailedIssue) bool {
			return is.Code == types.IssueConflict
		})
		p.Status = types.StatusReady
	}

	onDisk := func(path string) bool {
		return opts.Checker != nil && !originals[opts.key(path)] && opts.Checker.Exists(path)
	}

	for i := range out {
		p := &out[i]
		if !eligible(*p) {
			continue
		}
		k := opts.key(p.ProposedPath)
		if !taken[k] && !onDisk(p.ProposedPath) {
			taken[k] = true
			continue
		}

		dir := filepath.Dir(p.ProposedPath)
		stem, ext := types.SplitName(p.ProposedName)
		for n := 1; n <= maxAttempts; n++ {
			name := numbered(stem, ext, n, strategy)
			path := filepath.Join(dir, name)
			if taken[opts.key(path)] || onDisk(path) {
				continue
			}
			logger.Debug("disambiguated", "from", p.ProposedName, "to", name)
			p.ProposedName = name
			p.ProposedPath = path
			taken[opts.key(path)] = true
			break
		}
	}

	DetectAll(out, opts).Apply(out)
	return out
}

func numbered(stem, ext string, n int, strategy Strategy) string {
	var name string
	if strategy == StrategyCounter {
		name = fmt.Sprintf("%s (%d)", stem, n)
	} else {
		name = fmt.Sprintf("%s_%d", stem, n)
	}
	if ext != "" {
		name += "." + ext
	}
	return name
}
