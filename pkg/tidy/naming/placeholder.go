// Package naming renders naming templates and folder patterns and makes
// the results safe to use as file names.
package naming

import (
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/condition"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Metadata source labels reported in RenameProposal.MetadataSources.
const (
	SourceFilename = "filename"
	SourceEXIF     = "EXIF"
	SourcePDF      = "PDF"
	SourceOffice   = "Office"
	SourceFileDate = "file-date"
	SourceFile     = "file"
	SourceLLM      = "LLM"
)

// DefaultDateFormat is used by {date} without an explicit format.
const DefaultDateFormat = "2006-01-02"

// Fallback replaces placeholders that cannot be resolved in file names.
const Fallback = "unknown"

// Context supplies the values placeholders resolve against.
type Context struct {
	File     types.FileInfo
	Metadata *types.UnifiedMetadata

	// AIName, when set, is what {name} renders to.
	AIName string

	// StripExistingPatterns cleans dates and counters out of the original stem.
	StripExistingPatterns bool

	// DateFormat is the Go layout for {date}. Empty uses DefaultDateFormat.
	DateFormat string
}

// Rendered is the result of expanding a pattern.
type Rendered struct {
	Text string

	// Sources lists metadata source labels in first-use order.
	Sources []string

	// Unresolved lists placeholders (without braces) that had no value.
	Unresolved []string

	// UsesExtension reports whether the pattern placed {ext} itself.
	UsesExtension bool

	// UsesName reports whether the pattern contains {name}.
	UsesName bool
}

// Placeholders lists the named placeholders Render understands, besides
// {date:FORMAT} and namespaced field paths such as {image.cameraMake}.
var Placeholders = []string{
	"original", "name", "ext", "extension", "date", "year", "month", "day",
	"category", "camera", "cameraMake", "cameraModel", "lens", "width", "height",
	"title", "author", "subject", "pages",
}

// Render expands every {placeholder} in pattern. Unresolved placeholders
// are replaced with fallback and listed in Rendered.Unresolved. An
// unclosed '{' is copied literally.
func Render(pattern string, ctx Context, fallback string) Rendered {
	var (
		out Rendered
		b   strings.Builder
	)
	for i := 0; i < len(pattern); {
		open := strings.IndexByte(pattern[i:], '{')
		if open < 0 {
			b.WriteString(pattern[i:])
			break
		}
		open += i
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			b.WriteString(pattern[i:])
			break
		}
		end += open
		b.WriteString(pattern[i:open])

		token := strings.TrimSpace(pattern[open+1 : end])
		switch token {
		case "ext", "extension":
			out.UsesExtension = true
		case "name":
			out.UsesName = true
		}

		value, source, ok := ctx.resolve(token)
		if ok {
			b.WriteString(value)
			if source != "" {
				out.Sources = appendUnique(out.Sources, source)
			}
		} else {
			b.WriteString(fallback)
			out.Unresolved = append(out.Unresolved, token)
		}
		i = end + 1
	}
	out.Text = b.String()
	return out
}

// Known reports whether token is a placeholder Render can ever resolve.
func Known(token string) bool {
	if strings.HasPrefix(token, "date:") {
		return true
	}
	for _, p := range Placeholders {
		if p == token {
			return true
		}
	}
	return types.KnownField(token)
}

func (c Context) resolve(token string) (value, source string, ok bool) {
	switch token {
	case "original":
		return nonEmpty(c.stem(), SourceFilename)
	case "name":
		if c.AIName != "" {
			return c.AIName, SourceLLM, true
		}
		return nonEmpty(c.stem(), SourceFilename)
	case "ext", "extension":
		return c.File.Extension, "", true
	case "category":
		return c.File.Category.FolderName(), SourceFile, true
	case "date", "year", "month", "day":
		t, src, found := c.bestDate()
		if !found {
			return "", "", false
		}
		switch token {
		case "year":
			return t.Format("2006"), src, true
		case "month":
			return t.Format("01"), src, true
		case "day":
			return t.Format("02"), src, true
		default:
			layout := c.DateFormat
			if layout == "" {
				layout = DefaultDateFormat
			}
			return t.Format(layout), src, true
		}
	case "camera":
		return c.camera()
	case "cameraMake":
		return c.field("image.cameraMake")
	case "cameraModel":
		return c.field("image.cameraModel")
	case "lens":
		return c.field("image.lensModel")
	case "width":
		return c.field("image.width")
	case "height":
		return c.field("image.height")
	case "title":
		return c.firstField("pdf.title", "office.title")
	case "author":
		return c.firstField("pdf.author", "office.author")
	case "subject":
		return c.firstField("pdf.subject", "office.subject")
	case "pages":
		return c.firstField("pdf.pageCount", "office.pageCount")
	}

	if layout, isDate := strings.CutPrefix(token, "date:"); isDate {
		t, src, found := c.bestDate()
		if !found || layout == "" {
			return "", "", false
		}
		return t.Format(ConvertDateFormat(layout)), src, true
	}
	if types.KnownField(token) {
		return c.field(token)
	}
	return "", "", false
}

func (c Context) stem() string {
	if c.StripExistingPatterns {
		return CleanName(c.File.Name)
	}
	return c.File.Name
}

func (c Context) meta() *types.UnifiedMetadata {
	if c.Metadata != nil {
		return c.Metadata
	}
	return &types.UnifiedMetadata{File: c.File}
}

func (c Context) field(path string) (string, string, bool) {
	v, ok := c.meta().Lookup(path)
	if !ok {
		return "", "", false
	}
	var s string
	switch x := v.(type) {
	case time.Time:
		s = x.Format(DefaultDateFormat)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = condition.Stringify(v)
	}
	return nonEmpty(strings.TrimSpace(s), sourceFor(path))
}

func (c Context) firstField(paths ...string) (string, string, bool) {
	for _, p := range paths {
		if v, src, ok := c.field(p); ok {
			return v, src, true
		}
	}
	return "", "", false
}

// camera combines make and model, dropping a make the model already repeats.
func (c Context) camera() (string, string, bool) {
	mk, _, hasMake := c.field("image.cameraMake")
	model, _, hasModel := c.field("image.cameraModel")
	switch {
	case hasMake && hasModel:
		if strings.HasPrefix(strings.ToLower(model), strings.ToLower(mk)) {
			return model, SourceEXIF, true
		}
		return mk + " " + model, SourceEXIF, true
	case hasModel:
		return model, SourceEXIF, true
	case hasMake:
		return mk, SourceEXIF, true
	}
	return "", "", false
}

// bestDate prefers capture or authoring dates over the file's mtime.
func (c Context) bestDate() (time.Time, string, bool) {
	m := c.meta()
	for _, candidate := range []struct{ path, source string }{
		{"image.dateTaken", SourceEXIF},
		{"pdf.creationDate", SourcePDF},
		{"office.created", SourceOffice},
		{"file.modifiedAt", SourceFileDate},
	} {
		if v, ok := m.Lookup(candidate.path); ok {
			if t, isTime := v.(time.Time); isTime {
				return t, candidate.source, true
			}
		}
	}
	if !c.File.ModifiedAt.IsZero() {
		return c.File.ModifiedAt, SourceFileDate, true
	}
	return time.Time{}, "", false
}

func sourceFor(path string) string {
	ns, _, _ := strings.Cut(path, ".")
	switch ns {
	case types.NamespaceImage:
		return SourceEXIF
	case types.NamespacePDF:
		return SourcePDF
	case types.NamespaceOffice:
		return SourceOffice
	default:
		return SourceFile
	}
}

func nonEmpty(s, source string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}
	return s, source, true
}

var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// ConvertDateFormat turns a YYYY-MM-DD style format into a Go layout.
func ConvertDateFormat(format string) string {
	return dateTokens.Replace(format)
}
