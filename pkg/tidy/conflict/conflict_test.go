package conflict_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tidy/pkg/tidy/conflict"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func proposal(id, from, to string, status types.ProposalStatus) types.RenameProposal {
	return types.RenameProposal{
		ID:           id,
		OriginalPath: from,
		OriginalName: filepath.Base(from),
		ProposedPath: to,
		ProposedName: filepath.Base(to),
		Status:       status,
	}
}

func TestDetectBatchDuplicatesFlagsEveryMember(t *testing.T) {
	proposals := []types.RenameProposal{
		proposal("1", "/p/a.jpg", "/p/photo.jpg", types.StatusReady),
		proposal("2", "/p/b.jpg", "/p/photo.jpg", types.StatusReady),
		proposal("3", "/p/c.jpg", "/p/PHOTO.jpg", types.StatusReady),
		proposal("4", "/p/d.jpg", "/p/other.jpg", types.StatusReady),
	}

	got := conflict.DetectBatchDuplicates(proposals, conflict.Options{})
	require.Len(t, got, 1)
	assert.Equal(t, conflict.KindDuplicate, got[0].Kind)
	assert.Equal(t, []string{"1", "2", "3"}, got[0].ProposalIDs)

	got = conflict.DetectBatchDuplicates(proposals, conflict.Options{CaseSensitive: true})
	require.Len(t, got, 1)
	assert.Equal(t, []string{"1", "2"}, got[0].ProposalIDs)
}

func TestDetectBatchDuplicatesIgnoresIneligible(t *testing.T) {
	proposals := []types.RenameProposal{
		proposal("1", "/p/a.jpg", "/p/x.jpg", types.StatusReady),
		proposal("2", "/p/b.jpg", "/p/x.jpg", types.StatusMissingData),
		proposal("3", "/p/c.jpg", "/p/x.jpg", types.StatusInvalidName),
	}
	assert.Empty(t, conflict.DetectBatchDuplicates(proposals, conflict.Options{}))
}

func TestDetectFilesystemCollisions(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "taken.jpg")
	require.NoError(t, os.WriteFile(existing, nil, 0o644))

	t.Run("disk file outside batch", func(t *testing.T) {
		proposals := []types.RenameProposal{
			proposal("1", filepath.Join(dir, "a.jpg"), existing, types.StatusReady),
		}
		got := conflict.DetectFilesystemCollisions(proposals, conflict.Options{Checker: conflict.OSChecker{}})
		require.Len(t, got, 1)
		assert.Equal(t, conflict.KindFilesystem, got[0].Kind)
	})

	t.Run("no checker skips disk", func(t *testing.T) {
		proposals := []types.RenameProposal{
			proposal("1", filepath.Join(dir, "a.jpg"), existing, types.StatusReady),
		}
		assert.Empty(t, conflict.DetectFilesystemCollisions(proposals, conflict.Options{}))
	})

	t.Run("target vacated by moving batch file", func(t *testing.T) {
		proposals := []types.RenameProposal{
			proposal("1", existing, filepath.Join(dir, "elsewhere.jpg"), types.StatusReady),
			proposal("2", filepath.Join(dir, "a.jpg"), existing, types.StatusReady),
		}
		assert.Empty(t, conflict.DetectFilesystemCollisions(proposals, conflict.Options{Checker: conflict.OSChecker{}}))
	})

	t.Run("target held by staying batch file", func(t *testing.T) {
		proposals := []types.RenameProposal{
			proposal("1", "/p/keep.jpg", "/p/keep.jpg", types.StatusNoChange),
			proposal("2", "/p/a.jpg", "/p/Keep.jpg", types.StatusReady),
		}
		got := conflict.DetectFilesystemCollisions(proposals, conflict.Options{})
		require.Len(t, got, 1)
		assert.Equal(t, conflict.KindOccupied, got[0].Kind)
		assert.Equal(t, []string{"2"}, got[0].ProposalIDs)
	})

	t.Run("case only rename is not a collision", func(t *testing.T) {
		proposals := []types.RenameProposal{
			proposal("1", "/p/a.JPG", "/p/a.jpg", types.StatusReady),
		}
		always := conflict.CheckerFunc(func(string) bool { return true })
		assert.Empty(t, conflict.DetectFilesystemCollisions(proposals, conflict.Options{Checker: always}))
	})
}

func TestReportApply(t *testing.T) {
	proposals := []types.RenameProposal{
		proposal("1", "/p/a.jpg", "/p/x.jpg", types.StatusReady),
		proposal("2", "/p/b.jpg", "/p/x.jpg", types.StatusReady),
		proposal("3", "/p/c.jpg", "/p/y.jpg", types.StatusReady),
	}

	report := conflict.DetectAll(proposals, conflict.Options{})
	require.True(t, report.HasConflicts())
	report.Apply(proposals)

	assert.Equal(t, types.StatusConflict, proposals[0].Status)
	assert.Equal(t, types.StatusConflict, proposals[1].Status)
	assert.Equal(t, types.StatusReady, proposals[2].Status)
	assert.True(t, proposals[0].HasIssue(types.IssueConflict))
	assert.False(t, proposals[2].HasIssue(types.IssueConflict))
}

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name     string
		strategy conflict.Strategy
		want     []string
	}{
		{"suffix", conflict.StrategySuffix, []string{"x.jpg", "x_1.jpg", "x_2.jpg"}},
		{"counter", conflict.StrategyCounter, []string{"x.jpg", "x (1).jpg", "x (2).jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proposals := []types.RenameProposal{
				proposal("1", "/p/a.jpg", "/p/x.jpg", types.StatusReady),
				proposal("2", "/p/b.jpg", "/p/x.jpg", types.StatusReady),
				proposal("3", "/p/c.jpg", "/p/x.jpg", types.StatusReady),
			}
			conflict.DetectAll(proposals, conflict.Options{}).Apply(proposals)

			out := conflict.Disambiguate(proposals, tt.strategy, conflict.Options{})

			var names []string
			for _, p := range out {
				names = append(names, p.ProposedName)
				assert.Equal(t, types.StatusReady, p.Status)
				assert.False(t, p.HasIssue(types.IssueConflict))
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, types.StatusConflict, proposals[1].Status, "input must not be modified")
		})
	}
}

func TestDisambiguateSkipsDiskAndStayingFiles(t *testing.T) {
	onDisk := map[string]bool{"/p/x_1.jpg": true}
	opts := conflict.Options{Checker: conflict.CheckerFunc(func(p string) bool { return onDisk[p] })}

	proposals := []types.RenameProposal{
		proposal("1", "/p/x.jpg", "/p/x.jpg", types.StatusNoChange),
		proposal("2", "/p/b.jpg", "/p/x.jpg", types.StatusReady),
	}

	out := conflict.Disambiguate(proposals, conflict.StrategySuffix, opts)
	assert.Equal(t, "x.jpg", out[0].ProposedName)
	assert.Equal(t, "x_2.jpg", out[1].ProposedName)
	assert.Equal(t, types.StatusReady, out[1].Status)
}

func TestParseStrategy(t *testing.T) {
	s, err := conflict.ParseStrategy("counter")
	require.NoError(t, err)
	assert.Equal(t, conflict.StrategyCounter, s)

	_, err = conflict.ParseStrategy("random")
	assert.Error(t, err)
}
