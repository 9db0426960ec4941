// Package types provides the data model shared by the tidy rename engine.
// It covers scanned files, extracted metadata, naming templates, pattern
// rules, folder structures, and the rename preview produced for a batch.
package types

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FileInfo is an immutable description of one scanned file.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Name is the base name without extension.
	Name string `json:"name"`

	// Extension is the extension without the leading dot, in original case.
	Extension string `json:"extension"`

	// FullName is the base name including the extension.
	FullName string `json:"fullName"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// CreatedAt is the creation time (zero when the platform does not report it).
	CreatedAt time.Time `json:"createdAt"`

	// ModifiedAt is the last modification time.
	ModifiedAt time.Time `json:"modifiedAt"`

	// Category is derived from the extension.
	Category FileCategory `json:"category"`

	// MetadataCapability describes how much metadata can be extracted.
	MetadataCapability MetadataCapability `json:"metadataCapability"`
}

// HumanSize returns the file size in binary (IEC) units.
func (f *FileInfo) HumanSize() string {
	return humanize.IBytes(uint64(max(f.Size, 0)))
}

// ExtractionStatus reports the outcome of metadata extraction for a file.
type ExtractionStatus string

// Extraction outcomes.
const (
	ExtractionSuccess     ExtractionStatus = "success"
	ExtractionUnsupported ExtractionStatus = "unsupported"
	ExtractionFailed      ExtractionStatus = "failed"
)

// GPSCoordinates holds a geotag.
type GPSCoordinates struct {
	Latitude  float64  `json:"latitude" yaml:"latitude"`
	Longitude float64  `json:"longitude" yaml:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"`
}

// ImageMetadata holds EXIF-style image properties.
type ImageMetadata struct {
	DateTaken    *time.Time      `json:"dateTaken,omitempty" yaml:"date_taken,omitempty"`
	CameraMake   string          `json:"cameraMake,omitempty" yaml:"camera_make,omitempty"`
	CameraModel  string          `json:"cameraModel,omitempty" yaml:"camera_model,omitempty"`
	LensModel    string          `json:"lensModel,omitempty" yaml:"lens_model,omitempty"`
	Width        int             `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int             `json:"height,omitempty" yaml:"height,omitempty"`
	Orientation  int             `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	ISO          int             `json:"iso,omitempty" yaml:"iso,omitempty"`
	FocalLength  float64         `json:"focalLength,omitempty" yaml:"focal_length,omitempty"`
	Aperture     float64         `json:"aperture,omitempty" yaml:"aperture,omitempty"`
	ExposureTime string          `json:"exposureTime,omitempty" yaml:"exposure_time,omitempty"`
	GPS          *GPSCoordinates `json:"gps,omitempty" yaml:"gps,omitempty"`
}

// PDFMetadata holds the document information dictionary of a PDF.
type PDFMetadata struct {
	Title            string     `json:"title,omitempty" yaml:"title,omitempty"`
	Author           string     `json:"author,omitempty" yaml:"author,omitempty"`
	Subject          string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Keywords         []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Creator          string     `json:"creator,omitempty" yaml:"creator,omitempty"`
	Producer         string     `json:"producer,omitempty" yaml:"producer,omitempty"`
	CreationDate     *time.Time `json:"creationDate,omitempty" yaml:"creation_date,omitempty"`
	ModificationDate *time.Time `json:"modificationDate,omitempty" yaml:"modification_date,omitempty"`
	PageCount        int        `json:"pageCount,omitempty" yaml:"page_count,omitempty"`
}

// OfficeMetadata holds Office document core and app properties.
type OfficeMetadata struct {
	Title          string     `json:"title,omitempty" yaml:"title,omitempty"`
	Author         string     `json:"author,omitempty" yaml:"author,omitempty"`
	Subject        string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords       []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Category       string     `json:"category,omitempty" yaml:"category,omitempty"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty" yaml:"last_modified_by,omitempty"`
	Created        *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Application    string     `json:"application,omitempty" yaml:"application,omitempty"`
	PageCount      int        `json:"pageCount,omitempty" yaml:"page_count,omitempty"`
	WordCount      int        `json:"wordCount,omitempty" yaml:"word_count,omitempty"`
	SlideCount     int        `json:"slideCount,omitempty" yaml:"slide_count,omitempty"`
	SheetNames     []string   `json:"sheetNames,omitempty" yaml:"sheet_names,omitempty"`
}

// UnifiedMetadata is the per-file extraction record, keyed by File.Path.
// At most one of Image, PDF and Office is set.
type UnifiedMetadata struct {
	File             FileInfo         `json:"file"`
	Image            *ImageMetadata   `json:"image,omitempty"`
	PDF              *PDFMetadata     `json:"pdf,omitempty"`
	Office           *OfficeMetadata  `json:"office,omitempty"`
	ExtractionStatus ExtractionStatus `json:"extractionStatus"`
	ExtractionError  string           `json:"extractionError,omitempty"`
}

// Template is a naming pattern with {placeholder} tokens.
type Template struct {
	ID        string    `json:"id" yaml:"id" mapstructure:"id"`
	Name      string    `json:"name" yaml:"name" mapstructure:"name"`
	Pattern   string    `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
	FileTypes []string  `json:"fileTypes,omitempty" yaml:"file_types,omitempty" mapstructure:"file_types"`
	IsDefault bool      `json:"isDefault" yaml:"is_default" mapstructure:"is_default"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at" mapstructure:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at" mapstructure:"updated_at"`
}

// FolderStructure is a placeholder pattern denoting a relative directory.
type FolderStructure struct {
	ID          string    `json:"id" yaml:"id" mapstructure:"id"`
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Pattern     string    `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Enabled     bool      `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Priority    int       `json:"priority" yaml:"priority" mapstructure:"priority"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at" mapstructure:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updated_at" mapstructure:"updated_at"`
}

// FindTemplate returns the template with the given ID.
func FindTemplate(templates []Template, id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// FindFolderStructure returns the folder structure with the given ID.
func FindFolderStructure(folders []FolderStructure, id string) (FolderStructure, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
	}
	return FolderStructure{}, false
}
