// Package config loads and saves tidy's configuration: templates, rules,
// folder structures and user preferences.
package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Default configuration values.
const (
	// DefaultCaseStyle is applied to proposed names.
	DefaultCaseStyle = "kebab-case"

	// DefaultLLMConfidenceThreshold is the minimum confidence for using an
	// LLM suggested name.
	DefaultLLMConfidenceThreshold = 0.7

	// DefaultDateFormat is the {date} layout in YYYY-MM-DD tokens.
	DefaultDateFormat = "YYYY-MM-DD"

	// DefaultOutputFormat is used by preview when --format is not given.
	DefaultOutputFormat = "pretty"

	// DefaultWorkers bounds parallel metadata extraction.
	DefaultWorkers = 8

	// MaxPatternLength caps template and folder patterns.
	MaxPatternLength = 1000
)

// DefaultExclusions are skipped while scanning.
var DefaultExclusions = []string{
	".git",
	"node_modules",
	".DS_Store",
	"Thumbs.db",
}

// builtinTime stamps built-in templates and folder structures.
var builtinTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// builtinNamespace derives stable IDs for built-ins so that rules written
// against them keep working across installs.
var builtinNamespace = uuid.MustParse("6c1b1f0e-3d0a-4f8e-9a43-2f1c5d7e8b90")

func builtinID(name string) string {
	return uuid.NewSHA1(builtinNamespace, []byte(name)).String()
}

// DefaultTemplates returns the built-in naming templates.
func DefaultTemplates() []types.Template {
	images := []string{"jpg", "jpeg", "png", "heic", "webp", "gif"}
	return []types.Template{
		{
			ID: builtinID("date-prefix"), Name: "Date Prefix", Pattern: "{date}-{name}",
			FileTypes: images, IsDefault: true,
		},
		{
			ID: builtinID("camera-date"), Name: "Camera + Date", Pattern: "{camera}-{date}-{name}",
			FileTypes: []string{"jpg", "jpeg", "png", "heic"},
		},
		{
			ID: builtinID("document-date"), Name: "Document Date", Pattern: "{date}-{name}",
			FileTypes: []string{"pdf", "docx", "xlsx", "pptx"},
		},
		{
			ID: builtinID("original"), Name: "Original Name", Pattern: "{original}",
		},
	}
}

// DefaultFolderStructures returns the built-in folder structures.
func DefaultFolderStructures() []types.FolderStructure {
	return []types.FolderStructure{
		{ID: builtinID("by-year"), Name: "By Year", Pattern: "{year}", Description: "Organize files by year", Enabled: true, Priority: 10},
		{ID: builtinID("by-year-month"), Name: "By Year and Month", Pattern: "{year}/{month}", Description: "Organize files by year and month", Enabled: true, Priority: 20},
		{ID: builtinID("by-category"), Name: "By Category", Pattern: "{category}", Description: "Organize files by type (images, documents, etc.)", Enabled: true, Priority: 30},
		{ID: builtinID("by-day"), Name: "By Year/Month/Day", Pattern: "{year}/{month}/{day}", Description: "Organize files by full date hierarchy", Priority: 40},
	}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		Templates:        DefaultTemplates(),
		FolderStructures: DefaultFolderStructures(),
		Preferences: Preferences{
			RulePriorityMode:       types.PriorityCombined,
			CaseStyle:              DefaultCaseStyle,
			DateFormat:             DefaultDateFormat,
			LLMConfidenceThreshold: DefaultLLMConfidenceThreshold,
			OutputFormat:           DefaultOutputFormat,
		},
		Scan: ScanConfig{
			Exclude: DefaultExclusions,
			Workers: DefaultWorkers,
		},
		Cache: CacheConfig{Enabled: true},
		Logging: LoggingConfig{
			Level:    "info",
			Rotation: logging.DefaultRotationConfig(),
			Components: map[string]string{
				"preview": "info",
				"scanner": "info",
				"extract": "warn",
				"watcher": "warn",
			},
		},
	}
	for i := range cfg.Templates {
		cfg.Templates[i].CreatedAt, cfg.Templates[i].UpdatedAt = builtinTime, builtinTime
	}
	for i := range cfg.FolderStructures {
		cfg.FolderStructures[i].CreatedAt, cfg.FolderStructures[i].UpdatedAt = builtinTime, builtinTime
	}
	return cfg
}
