// Package conflict finds rename proposals whose targets collide, either with
// each other or with files already on disk.
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("conflict")

// Checker reports whether a path is already taken on disk.
type Checker interface {
	Exists(path string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(path string) bool

// Exists calls f.
func (f CheckerFunc) Exists(path string) bool { return f(path) }

// OSChecker checks the local filesystem without following symlinks.
type OSChecker struct{}

// Exists reports whether anything, including a dangling symlink, is at path.
func (OSChecker) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

var (
	_ Checker = CheckerFunc(nil)
	_ Checker = OSChecker{}
)

// Kind classifies a conflict.
type Kind string

// Conflict kinds.
const (
	// KindDuplicate is two or more proposals targeting the same path.
	KindDuplicate Kind = "duplicate"
	// KindOccupied is a target held by a batch file that stays where it is.
	KindOccupied Kind = "occupied"
	// KindFilesystem is a target that exists on disk outside the batch.
	KindFilesystem Kind = "filesystem"
)

// Conflict is one colliding target and every proposal involved.
type Conflict struct {
	Kind        Kind
	Path        string
	ProposalIDs []string
	Message     string
}

// Options configures detection.
type Options struct {
	// CaseSensitive compares paths byte for byte. The default folds case,
	// which matches macOS and Windows filesystems.
	CaseSensitive bool

	// Checker enables filesystem collision checks when set.
	Checker Checker
}

// Report is the combined result of DetectAll.
type Report struct {
	Conflicts []Conflict
}

// HasConflicts reports whether anything collided.
func (r Report) HasConflicts() bool { return len(r.Conflicts) > 0 }

// ByProposal indexes conflicts by proposal ID.
func (r Report) ByProposal() map[string][]Conflict {
	out := make(map[string][]Conflict)
	for _, c := range r.Conflicts {
		for _, id := range c.ProposalIDs {
			out[id] = append(out[id], c)
		}
	}
	return out
}

// Apply marks every proposal named in the report as conflicting and
// attaches a CONFLICT issue per conflict.
func (r Report) Apply(proposals []types.RenameProposal) {
	byID := r.ByProposal()
	for i := range proposals {
		p := &proposals[i]
		conflicts, ok := byID[p.ID]
		if !ok {
			continue
		}
		for _, c := range conflicts {
			p.Issues = append(p.Issues, types.DetailedIssue{
				Code:     types.IssueConflict,
				Message:  c.Message,
				Severity: types.SeverityError,
			})
		}
		if eligible(*p) {
			p.Status = types.StatusConflict
		}
	}
}

// DetectAll runs batch duplicate detection and collision detection.
func DetectAll(proposals []types.RenameProposal, opts Options) Report {
	var r Report
	r.Conflicts = append(r.Conflicts, DetectBatchDuplicates(proposals, opts)...)
	r.Conflicts = append(r.Conflicts, DetectFilesystemCollisions(proposals, opts)...)
	if r.HasConflicts() {
		logger.Debug("conflicts detected", "count", len(r.Conflicts))
	}
	return r
}

// DetectBatchDuplicates groups proposals that would land on the same path.
// Every member of a group is reported; none is preferred.
func DetectBatchDuplicates(proposals []types.RenameProposal, opts Options) []Conflict {
	var (
		order  []string
		groups = make(map[string][]int)
	)
	for i, p := range proposals {
		if !eligible(p) {
			continue
		}
		k := opts.key(p.ProposedPath)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var out []Conflict
	for _, k := range order {
		idx := groups[k]
		if len(idx) < 2 {
			continue
		}
		c := Conflict{
			Kind:    KindDuplicate,
			Path:    proposals[idx[0]].ProposedPath,
			Message: fmt.Sprintf("%d files would be renamed to %s", len(idx), proposals[idx[0]].ProposedName),
		}
		for _, i := range idx {
			c.ProposalIDs = append(c.ProposalIDs, proposals[i].ID)
		}
		out = append(out, c)
	}
	return out
}

// DetectFilesystemCollisions reports proposals whose target is already
// taken. A batch file that stays put always holds its path. Other batch
// files are assumed to move away first, so their paths are free. Disk
// checks run only when opts.Checker is set.
func DetectFilesystemCollisions(proposals []types.RenameProposal, opts Options) []Conflict {
	originals := make(map[string]bool, len(proposals))
	staying := make(map[string]types.RenameProposal)
	for _, p := range proposals {
		k := opts.key(p.OriginalPath)
		originals[k] = true
		if !eligible(p) {
			staying[k] = p
		}
	}

	var out []Conflict
	for _, p := range proposals {
		if !eligible(p) {
			continue
		}
		k := opts.key(p.ProposedPath)
		if holder, ok := staying[k]; ok && holder.ID != p.ID {
			out = append(out, Conflict{
				Kind:        KindOccupied,
				Path:        p.ProposedPath,
				ProposalIDs: []string{p.ID},
				Message:     fmt.Sprintf("%s is kept by %s, which is not being renamed", p.ProposedName, holder.OriginalName),
			})
			continue
		}
		if opts.Checker != nil && !originals[k] && opts.Checker.Exists(p.ProposedPath) {
			out = append(out, Conflict{
				Kind:        KindFilesystem,
				Path:        p.ProposedPath,
				ProposalIDs: []string{p.ID},
				Message:     fmt.Sprintf("a file already exists at %s", p.ProposedPath),
			})
		}
	}
	return out
}

// eligible reports whether a proposal would actually move its file.
func eligible(p types.RenameProposal) bool {
	return p.Status == types.StatusReady || p.Status == types.StatusConflict
}

func (o Options) key(path string) string {
	path = filepath.Clean(path)
	if o.CaseSensitive {
		return path
	}
	return strings.ToLower(path)
}
