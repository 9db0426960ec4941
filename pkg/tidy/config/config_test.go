package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func TestLoad_Defaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Preferences.CaseStyle != DefaultCaseStyle {
		t.Errorf("CaseStyle = %q, want %q", cfg.Preferences.CaseStyle, DefaultCaseStyle)
	}
	if cfg.Preferences.RulePriorityMode != types.PriorityCombined {
		t.Errorf("RulePriorityMode = %q, want combined", cfg.Preferences.RulePriorityMode)
	}
	if cfg.Preferences.LLMConfidenceThreshold != DefaultLLMConfidenceThreshold {
		t.Errorf("LLMConfidenceThreshold = %v, want %v", cfg.Preferences.LLMConfidenceThreshold, DefaultLLMConfidenceThreshold)
	}
	if len(cfg.Templates) != len(DefaultTemplates()) {
		t.Errorf("len(Templates) = %d, want %d", len(cfg.Templates), len(DefaultTemplates()))
	}
	if len(cfg.FolderStructures) != len(DefaultFolderStructures()) {
		t.Errorf("len(FolderStructures) = %d, want %d", len(cfg.FolderStructures), len(DefaultFolderStructures()))
	}
	if cfg.Scan.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Scan.Workers, DefaultWorkers)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}

	tmpl, ok := cfg.DefaultTemplate()
	if !ok || tmpl.Pattern != "{date}-{name}" {
		t.Errorf("DefaultTemplate() = %+v, %v", tmpl, ok)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "tidy")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
templates:
  - id: t1
    name: Camera
    pattern: "{camera}_{original}"
    is_default: true
    created_at: 2024-03-01T10:00:00Z
filename_rules:
  - id: r1
    name: Screenshots
    pattern: "Screenshot*.png"
    template_id: t1
    priority: 5
    enabled: true
    created_at: "2024-03-02T10:00:00Z"
rules:
  - id: r2
    name: Apple
    template_id: t1
    enabled: true
    match_mode: all
    conditions:
      - field: image.cameraMake
        operator: equals
        value: Apple
preferences:
  rule_priority_mode: filename-first
  case_style: snake-case
  llm_confidence_threshold: 0.85
  base_directory: ~/Sorted
logging:
  level: debug
  rotation:
    max_size: 2MB
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Templates) != 1 || cfg.Templates[0].ID != "t1" {
		t.Fatalf("Templates = %+v", cfg.Templates)
	}
	if cfg.Templates[0].CreatedAt.Year() != 2024 {
		t.Errorf("Template CreatedAt = %v", cfg.Templates[0].CreatedAt)
	}
	if len(cfg.FilenameRules) != 1 {
		t.Fatalf("FilenameRules = %+v", cfg.FilenameRules)
	}
	fr := cfg.FilenameRules[0]
	if fr.ID != "r1" || fr.Priority != 5 || !fr.Enabled || fr.Pattern != "Screenshot*.png" {
		t.Errorf("FilenameRules[0] = %+v", fr)
	}
	if fr.CreatedAt.Month() != 3 {
		t.Errorf("FilenameRules[0].CreatedAt = %v", fr.CreatedAt)
	}
	if len(cfg.Rules) != 1 || len(cfg.Rules[0].Conditions) != 1 {
		t.Fatalf("Rules = %+v", cfg.Rules)
	}
	if cfg.Rules[0].Conditions[0].Operator != types.OpEquals {
		t.Errorf("Operator = %q", cfg.Rules[0].Conditions[0].Operator)
	}
	if cfg.Preferences.RulePriorityMode != types.PriorityFilenameFirst {
		t.Errorf("RulePriorityMode = %q", cfg.Preferences.RulePriorityMode)
	}
	if cfg.Preferences.LLMConfidenceThreshold != 0.85 {
		t.Errorf("LLMConfidenceThreshold = %v", cfg.Preferences.LLMConfidenceThreshold)
	}
	if want := filepath.Join(tempDir, "Sorted"); cfg.Preferences.BaseDirectory != want {
		t.Errorf("BaseDirectory = %q, want %q", cfg.Preferences.BaseDirectory, want)
	}
	if cfg.Logging.Rotation.MaxSize != 2*1000*1000 {
		t.Errorf("Rotation.MaxSize = %d, want 2000000", cfg.Logging.Rotation.MaxSize)
	}
	if len(cfg.FolderStructures) == 0 {
		t.Error("FolderStructures should fall back to defaults")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("TIDY_PREFERENCES_CASE_STYLE", "pascal-case")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Preferences.CaseStyle != "pascal-case" {
		t.Errorf("CaseStyle = %q, want pascal-case", cfg.Preferences.CaseStyle)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad priority mode", "preferences:\n  rule_priority_mode: sideways\n"},
		{"bad case style", "preferences:\n  case_style: shouting\n"},
		{"threshold out of range", "preferences:\n  llm_confidence_threshold: 2\n"},
		{"empty template pattern", "templates:\n  - id: a\n    name: A\n    pattern: \"  \"\n"},
		{"unknown default template", "preferences:\n  default_template_id: nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Templates) == 0 {
		t.Error("expected default templates")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.FilenameRules = []types.FilenamePatternRule{{
		RuleHeader: types.RuleHeader{ID: "r1", Name: "Raw", TemplateID: cfg.Templates[0].ID, Priority: 3, Enabled: true},
		Pattern:    "*.{cr2,nef}",
	}}
	cfg.Preferences.CaseStyle = "title-case"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.FilenameRules) != 1 || loaded.FilenameRules[0].Pattern != "*.{cr2,nef}" {
		t.Errorf("FilenameRules = %+v", loaded.FilenameRules)
	}
	if loaded.FilenameRules[0].TemplateID != cfg.Templates[0].ID {
		t.Errorf("TemplateID = %q", loaded.FilenameRules[0].TemplateID)
	}
	if loaded.Preferences.CaseStyle != "title-case" {
		t.Errorf("CaseStyle = %q", loaded.Preferences.CaseStyle)
	}
	if len(loaded.Templates) != len(cfg.Templates) {
		t.Errorf("len(Templates) = %d, want %d", len(loaded.Templates), len(cfg.Templates))
	}
	if loaded.Logging.Rotation.MaxSize != cfg.Logging.Rotation.MaxSize {
		t.Errorf("Rotation.MaxSize = %d", loaded.Logging.Rotation.MaxSize)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.yaml, found %d entries", len(entries))
	}
}

func TestWriteDefault(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if want := filepath.Join(tempDir, "tidy", "config.yaml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	if err := os.WriteFile(path, []byte("preferences:\n  case_style: none\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "preferences:\n  case_style: none\n" {
		t.Error("WriteDefault overwrote an existing config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/photos", filepath.Join(home, "photos")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.input)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuiltinIDsAreStable(t *testing.T) {
	a, b := DefaultTemplates(), DefaultTemplates()
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("template %d ID changed between calls", i)
		}
	}
}
