// Package folder expands folder structure patterns into destination
// directories.
package folder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// CodeResolutionFailed is the error code for unusable folder patterns.
const CodeResolutionFailed = "FOLDER_RESOLUTION_FAILED"

// Error reports why a folder pattern could not be resolved.
type Error struct {
	Code    string
	Message string
	// Missing lists the unresolved placeholders.
	Missing []string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Options configures Resolve.
type Options struct {
	// BaseDirectory is joined in front of the resolved folder. When empty
	// the result is relative.
	BaseDirectory string

	// DateFormat is the Go layout for {date}.
	DateFormat string
}

// Resolve expands pattern using the same placeholders as naming templates.
// Any unresolved placeholder fails the whole resolution; a partial path is
// never returned. Each segment is sanitized and ".." segments are rejected.
func Resolve(pattern string, file types.FileInfo, meta *types.UnifiedMetadata, opts Options) (string, error) {
	rendered := naming.Render(pattern, naming.Context{
		File:       file,
		Metadata:   meta,
		DateFormat: opts.DateFormat,
	}, "")
	if len(rendered.Unresolved) > 0 {
		return "", &Error{
			Code:    CodeResolutionFailed,
			Message: "Missing required metadata: " + strings.Join(rendered.Unresolved, ", "),
			Missing: rendered.Unresolved,
		}
	}

	text := strings.ReplaceAll(rendered.Text, `\`, "/")
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return "", &Error{Code: CodeResolutionFailed, Message: fmt.Sprintf("folder pattern %q must be relative", pattern)}
	}

	var segments []string
	for _, seg := range strings.Split(text, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." {
			continue
		}
		if seg == ".." {
			return "", &Error{Code: CodeResolutionFailed, Message: fmt.Sprintf("folder pattern %q escapes the base directory", pattern)}
		}
		clean := naming.Sanitize(seg)
		if !clean.Valid {
			return "", &Error{Code: CodeResolutionFailed, Message: fmt.Sprintf("folder segment %q is not a valid name", seg)}
		}
		segments = append(segments, clean.Name)
	}
	if len(segments) == 0 {
		return "", &Error{Code: CodeResolutionFailed, Message: fmt.Sprintf("folder pattern %q resolved to an empty path", pattern)}
	}

	rel := filepath.Join(segments...)
	if opts.BaseDirectory != "" {
		return filepath.Join(opts.BaseDirectory, rel), nil
	}
	return rel, nil
}
