package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// PlainFormatter writes an aligned, uncolored table followed by a summary
// line. It is meant for logs and pipes.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("STATUS\tORIGINAL\tPROPOSED\n")); err != nil {
		return err
	}
	for _, p := range r.Proposals() {
		line := fmt.Sprintf("%s\t%s\t%s\n", p.Status, p.OriginalName, relTo(r.Source, Target(p)))
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary()
	fmt.Fprintf(w, "\n%s files: %d ready, %d conflicts, %d missing data, %d invalid, %d unchanged (%d moves)\n",
		humanize.Comma(int64(s.Total)), s.Ready, s.Conflicts, s.MissingData, s.InvalidName, s.NoChange, s.MoveOperations)
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
