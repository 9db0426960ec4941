package output

import (
	"bytes"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// TemplateFormatter formats output using a custom Go text/template.
type TemplateFormatter struct {
	templateStr string
	template    *template.Template
	mu          sync.Mutex
}

// templateData wraps Result with computed fields.
type templateData struct {
	*Result
	TotalSize int64
}

// NewTemplateFormatter creates a template formatter.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	return &TemplateFormatter{templateStr: templateStr}
}

// SetTemplate replaces the template string.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// date formats a time.Time using the provided layout.
		// Usage: {{date .Preview.GeneratedAt "2006-01-02"}}
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		// bytes formats a size in bytes as a human-readable string.
		// Usage: {{bytes .TotalSize}}
		"bytes": func(size int64) string {
			return humanize.IBytes(uint64(max(size, 0)))
		},
		// target is the new name for renames and the new path for moves.
		// Usage: {{range .Proposals}}{{target .}}{{end}}
		"target": Target,
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Compile template if needed
	if f.template == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.templateStr)
		if err != nil {
			return err
		}
		f.template = tmpl
	}

	// Prepare data with computed fields
	return f.template.Execute(w, templateData{Result: r, TotalSize: r.TotalSize()})
}

const defaultTemplate = `{{range .Proposals}}{{.Status}}	{{.OriginalPath}}	{{.ProposedPath}}
{{end}}`

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(defaultTemplate)
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
