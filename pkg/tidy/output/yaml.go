package output

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

type yamlOutput struct {
	Proposals    []types.RenameProposal `yaml:"proposals"`
	Summary      types.PreviewSummary   `yaml:"summary"`
	GeneratedAt  time.Time              `yaml:"generated_at"`
	TemplateUsed string                 `yaml:"template_used"`
	Meta         yamlMeta               `yaml:"meta"`
}

type yamlMeta struct {
	Source       string   `yaml:"source,omitempty"`
	FilesScanned int64    `yaml:"files_scanned"`
	Duration     string   `yaml:"duration,omitempty"`
	TotalSize    int64    `yaml:"total_size"`
	Warnings     []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter formats the preview as YAML, mirroring JSONFormatter.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	out := yamlOutput{
		Proposals: r.Proposals(),
		Summary:   r.Summary(),
		Meta: yamlMeta{
			Source:       r.Source,
			FilesScanned: r.Stats.FilesScanned,
			Duration:     formatDurationString(r.Stats.Duration),
			TotalSize:    r.TotalSize(),
			Warnings:     r.Warnings,
		},
	}
	if r.Preview != nil {
		out.GeneratedAt = r.Preview.GeneratedAt
		out.TemplateUsed = r.Preview.TemplateUsed
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
