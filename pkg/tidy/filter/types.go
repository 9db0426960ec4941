// Package filter narrows, orders and caps the list of scanned files that
// is handed to the preview engine. It supports filtering by name pattern,
// extension, category, size and age.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// SortField specifies the field to sort files by.
type SortField int

const (
	// SortName sorts files by base name, case-insensitively.
	SortName SortField = iota
	// SortSize sorts files by size in bytes.
	SortSize
	// SortModified sorts files by modification time.
	SortModified
	// SortPath sorts files by full path.
	SortPath
)

var sortFieldNames = map[SortField]string{
	SortName:     "name",
	SortSize:     "size",
	SortModified: "modified",
	SortPath:     "path",
}

// String returns the string representation of the sort field.
func (s SortField) String() string {
	if name, ok := sortFieldNames[s]; ok {
		return name
	}
	return "name"
}

// ErrInvalidSortField indicates that the sort field string could not be parsed.
var ErrInvalidSortField = errors.New("invalid sort field")

// ParseSortField parses "name", "size", "modified" (or "age") and "path",
// case-insensitively.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortName, nil
	case "size":
		return SortSize, nil
	case "modified", "age", "date":
		return SortModified, nil
	case "path":
		return SortPath, nil
	default:
		return SortName, fmt.Errorf("%w: %q", ErrInvalidSortField, s)
	}
}

// TypeGroups maps --type names to file categories. Document also covers
// its PDF, spreadsheet and presentation subtypes.
var TypeGroups = map[string][]types.FileCategory{
	"image":        {types.CategoryImage},
	"photo":        {types.CategoryImage},
	"document":     {types.CategoryDocument, types.CategoryPDF, types.CategorySpreadsheet, types.CategoryPresentation},
	"pdf":          {types.CategoryPDF},
	"spreadsheet":  {types.CategorySpreadsheet},
	"presentation": {types.CategoryPresentation},
	"video":        {types.CategoryVideo},
	"audio":        {types.CategoryAudio},
	"archive":      {types.CategoryArchive},
	"code":         {types.CategoryCode},
	"data":         {types.CategoryData},
	"other":        {types.CategoryOther},
}

// ErrUnknownTypeGroup is returned by ParseTypeGroups.
var ErrUnknownTypeGroup = errors.New("unknown type group")

// ParseTypeGroups expands group names to categories, rejecting unknown names.
func ParseTypeGroups(names ...string) ([]types.FileCategory, error) {
	var out []types.FileCategory
	for _, name := range names {
		cats, ok := TypeGroups[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTypeGroup, name)
		}
		out = append(out, cats...)
	}
	return out, nil
}
