package output

import (
	"bytes"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// PathsFormatter writes "original<TAB>proposed" for every ready proposal,
// one per line.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, p := range r.Proposals() {
		if p.Status != types.StatusReady {
			continue
		}
		w.WriteString(p.OriginalPath)
		w.WriteByte('\t')
		w.WriteString(p.ProposedPath)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

var _ Formatter = (*PathsFormatter)(nil)

// NullFormatter writes original and proposed paths of ready proposals as
// null-terminated pairs, for xargs -0 -n2.
type NullFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NullFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, p := range r.Proposals() {
		if p.Status != types.StatusReady {
			continue
		}
		w.WriteString(p.OriginalPath)
		w.WriteByte(0)
		w.WriteString(p.ProposedPath)
		w.WriteByte(0)
	}
	return nil
}

func init() {
	Register("null", func() Formatter {
		return &NullFormatter{}
	})
}

var _ Formatter = (*NullFormatter)(nil)
