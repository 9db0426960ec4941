package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// TSVFormatter formats proposals as tab-separated values.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Write header
	w.WriteString("STATUS\tORIGINAL\tPROPOSED\n")

	// Write data rows
	for _, p := range r.Proposals() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Status, p.OriginalPath, p.ProposedPath)
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats proposals as RFC 4180 CSV.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"status", "original", "proposed", "source", "issues"}); err != nil {
		return err
	}
	for _, p := range r.Proposals() {
		// Issue codes share one column
		codes := make([]string, 0, len(p.Issues))
		for _, is := range p.Issues {
			codes = append(codes, is.Code)
		}
		row := []string{string(p.Status), p.OriginalPath, p.ProposedPath, string(p.TemplateSource), strings.Join(codes, ";")}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats proposals as a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Write header and separator
	w.WriteString("| STATUS | ORIGINAL | PROPOSED |\n")
	w.WriteString("|--------|----------|----------|\n")

	// Write data rows; targets are shown relative to the scanned root
	for _, p := range r.Proposals() {
		fmt.Fprintf(w, "| %s | %s | %s |\n",
			p.Status,
			escapeMarkdownPipe(p.OriginalName),
			escapeMarkdownPipe(relTo(r.Source, Target(p))))
	}
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

var _ Formatter = (*MarkdownFormatter)(nil)
