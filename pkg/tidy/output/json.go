package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

type jsonOutput struct {
	Proposals    []types.RenameProposal `json:"proposals"`
	Summary      types.PreviewSummary   `json:"summary"`
	GeneratedAt  time.Time              `json:"generatedAt"`
	TemplateUsed string                 `json:"templateUsed"`
	Meta         jsonMeta               `json:"meta"`
}

type jsonMeta struct {
	Source       string   `json:"source,omitempty"`
	FilesScanned int64    `json:"filesScanned"`
	DirsScanned  int64    `json:"dirsScanned"`
	CacheHits    int64    `json:"cacheHits"`
	Duration     string   `json:"duration,omitempty"`
	TotalSize    int64    `json:"totalSize"`
	Warnings     []string `json:"warnings,omitempty"`
}

// JSONFormatter writes the whole preview as one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	out := jsonOutput{
		Proposals: r.Proposals(),
		Summary:   r.Summary(),
		Meta: jsonMeta{
			Source:       r.Source,
			FilesScanned: r.Stats.FilesScanned,
			DirsScanned:  r.Stats.DirsScanned,
			CacheHits:    r.Stats.CacheHits,
			Duration:     formatDurationString(r.Stats.Duration),
			TotalSize:    r.TotalSize(),
			Warnings:     r.Warnings,
		},
	}
	if out.Proposals == nil {
		out.Proposals = []types.RenameProposal{}
	}
	if r.Preview != nil {
		out.GeneratedAt = r.Preview.GeneratedAt
		out.TemplateUsed = r.Preview.TemplateUsed
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact proposal per line, for jq and friends.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, p := range r.Proposals() {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var _ Formatter = (*JSONLFormatter)(nil)
