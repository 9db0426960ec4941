package types

import (
	"path/filepath"
	"strings"
)

// FileCategory groups files by extension.
type FileCategory string

// File categories. PDF, Spreadsheet and Presentation are document subtypes.
const (
	CategoryImage        FileCategory = "image"
	CategoryDocument     FileCategory = "document"
	CategoryPDF          FileCategory = "pdf"
	CategorySpreadsheet  FileCategory = "spreadsheet"
	CategoryPresentation FileCategory = "presentation"
	CategoryVideo        FileCategory = "video"
	CategoryAudio        FileCategory = "audio"
	CategoryArchive      FileCategory = "archive"
	CategoryCode         FileCategory = "code"
	CategoryData         FileCategory = "data"
	CategoryOther        FileCategory = "other"
)

// IsDocument reports whether c is a document or one of its subtypes.
func (c FileCategory) IsDocument() bool {
	switch c {
	case CategoryDocument, CategoryPDF, CategorySpreadsheet, CategoryPresentation:
		return true
	}
	return false
}

// FolderName returns the display name used for {category} placeholders.
func (c FileCategory) FolderName() string {
	switch {
	case c == CategoryImage:
		return "Images"
	case c.IsDocument():
		return "Documents"
	case c == CategoryVideo:
		return "Videos"
	case c == CategoryAudio:
		return "Audio"
	case c == CategoryArchive:
		return "Archives"
	case c == CategoryCode:
		return "Code"
	case c == CategoryData:
		return "Data"
	default:
		return "Other"
	}
}

// extensionCategories maps lowercase extensions to categories.
var extensionCategories = func() map[string]FileCategory {
	groups := map[FileCategory][]string{
		CategoryImage: {"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg", "ico", "tiff", "tif",
			"heic", "heif", "raw", "cr2", "nef", "arw", "dng"},
		CategoryPDF:          {"pdf"},
		CategorySpreadsheet:  {"xls", "xlsx", "ods", "csv"},
		CategoryPresentation: {"ppt", "pptx", "odp"},
		CategoryDocument:     {"doc", "docx", "odt", "txt", "rtf", "md"},
		CategoryVideo:        {"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm", "m4v", "mpeg", "mpg"},
		CategoryAudio:        {"mp3", "wav", "flac", "aac", "ogg", "wma", "m4a", "opus"},
		CategoryArchive:      {"zip", "tar", "gz", "bz2", "xz", "7z", "rar", "iso"},
		CategoryCode: {"js", "ts", "jsx", "tsx", "py", "rs", "go", "java", "c", "cpp", "h", "hpp",
			"cs", "rb", "php", "swift", "kt", "scala", "html", "css", "scss", "less",
			"json", "yaml", "yml", "xml", "toml", "sql", "sh", "bash", "ps1"},
		CategoryData: {"db", "sqlite", "mdb", "accdb"},
	}
	m := make(map[string]FileCategory)
	for cat, exts := range groups {
		for _, ext := range exts {
			m[ext] = cat
		}
	}
	return m
}()

// CategoryForExtension returns the category for an extension (with or without dot).
func CategoryForExtension(ext string) FileCategory {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if c, ok := extensionCategories[ext]; ok {
		return c
	}
	return CategoryOther
}

// MetadataCapability describes how much metadata an extractor can provide.
type MetadataCapability string

// Capability levels.
const (
	CapabilityNone     MetadataCapability = "none"
	CapabilityBasic    MetadataCapability = "basic"
	CapabilityExtended MetadataCapability = "extended"
	CapabilityFull     MetadataCapability = "full"
)

// CapabilityForExtension returns the metadata capability for an extension.
func CapabilityForExtension(ext string) MetadataCapability {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg", "tiff", "tif", "heic", "heif":
		return CapabilityFull
	case "png", "webp", "gif":
		return CapabilityExtended
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx":
		return CapabilityBasic
	default:
		return CapabilityNone
	}
}

// SplitName splits a file name into stem and extension (without dot).
// Dotfiles such as ".bashrc" have no extension.
func SplitName(fullName string) (stem, ext string) {
	idx := strings.LastIndex(fullName, ".")
	if idx <= 0 || idx == len(fullName)-1 {
		return fullName, ""
	}
	return fullName[:idx], fullName[idx+1:]
}

// NewFileInfo builds a FileInfo for path with category and capability filled in.
// Timestamps and size are left for the caller.
func NewFileInfo(path string) FileInfo {
	full := filepath.Base(path)
	stem, ext := SplitName(full)
	return FileInfo{
		Path:               path,
		Name:               stem,
		Extension:          ext,
		FullName:           full,
		Category:           CategoryForExtension(ext),
		MetadataCapability: CapabilityForExtension(ext),
	}
}
