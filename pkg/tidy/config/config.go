package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Preferences are user defaults for preview generation.
type Preferences struct {
	DefaultTemplateID        string             `mapstructure:"default_template_id" yaml:"default_template_id,omitempty"`
	RulePriorityMode         types.PriorityMode `mapstructure:"rule_priority_mode" yaml:"rule_priority_mode"`
	CaseStyle                string             `mapstructure:"case_style" yaml:"case_style"`
	StripExistingPatterns    bool               `mapstructure:"strip_existing_patterns" yaml:"strip_existing_patterns"`
	BaseDirectory            string             `mapstructure:"base_directory" yaml:"base_directory,omitempty"`
	DefaultFolderStructureID string             `mapstructure:"default_folder_structure_id" yaml:"default_folder_structure_id,omitempty"`
	DateFormat               string             `mapstructure:"date_format" yaml:"date_format"`
	LLMConfidenceThreshold   float64            `mapstructure:"llm_confidence_threshold" yaml:"llm_confidence_threshold"`
	CaseSensitivePaths       bool               `mapstructure:"case_sensitive_paths" yaml:"case_sensitive_paths"`
	OutputFormat             string             `mapstructure:"output_format" yaml:"output_format"`
	Recursive                bool               `mapstructure:"recursive" yaml:"recursive"`
}

// ScanConfig controls directory scanning and metadata extraction.
type ScanConfig struct {
	Exclude       []string `mapstructure:"exclude" yaml:"exclude"`
	IncludeHidden bool     `mapstructure:"include_hidden" yaml:"include_hidden"`
	Workers       int      `mapstructure:"workers" yaml:"workers"`
}

// CacheConfig controls the metadata cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string                 `mapstructure:"level" yaml:"level"`
	Path       string                 `mapstructure:"path" yaml:"path,omitempty"`
	Rotation   logging.RotationConfig `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string      `mapstructure:"components" yaml:"components,omitempty"`
}

// Config is the whole tidy configuration.
type Config struct {
	Templates        []types.Template            `mapstructure:"templates" yaml:"templates"`
	Rules            []types.MetadataPatternRule `mapstructure:"rules" yaml:"rules"`
	FilenameRules    []types.FilenamePatternRule `mapstructure:"filename_rules" yaml:"filename_rules"`
	FolderStructures []types.FolderStructure     `mapstructure:"folder_structures" yaml:"folder_structures"`
	Preferences      Preferences                 `mapstructure:"preferences" yaml:"preferences"`
	Scan             ScanConfig                  `mapstructure:"scan" yaml:"scan"`
	Cache            CacheConfig                 `mapstructure:"cache" yaml:"cache"`
	Logging          LoggingConfig               `mapstructure:"logging" yaml:"logging"`
}

// Setup points v at the config file and environment. Config file locations,
// in order of precedence:
//   - path, when not empty
//   - $XDG_CONFIG_HOME/tidy/config.yaml
//   - $HOME/.config/tidy/config.yaml
//
// Environment variables are prefixed with TIDY_ (e.g. TIDY_PREFERENCES_CASE_STYLE).
// A missing config file is not an error.
func Setup(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tidy"))
		}
	}

	v.SetEnvPrefix("TIDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("preferences.rule_priority_mode", string(def.Preferences.RulePriorityMode))
	v.SetDefault("preferences.case_style", def.Preferences.CaseStyle)
	v.SetDefault("preferences.date_format", def.Preferences.DateFormat)
	v.SetDefault("preferences.llm_confidence_threshold", def.Preferences.LLMConfidenceThreshold)
	v.SetDefault("preferences.output_format", def.Preferences.OutputFormat)
	v.SetDefault("scan.exclude", def.Scan.Exclude)
	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("cache.enabled", def.Cache.Enabled)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.rotation.max_size", def.Logging.Rotation.MaxSize)
	v.SetDefault("logging.rotation.max_age", def.Logging.Rotation.MaxAge)
	v.SetDefault("logging.rotation.max_backups", def.Logging.Rotation.MaxBackups)
	v.SetDefault("logging.rotation.daily", def.Logging.Rotation.Daily)
	v.SetDefault("logging.components", def.Logging.Components)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if path != "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Decode unmarshals v into a Config, fills built-in templates and folder
// structures when none are configured, and validates the result.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		byteSizeHook(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Templates) == 0 {
		cfg.Templates = Default().Templates
	}
	if len(cfg.FolderStructures) == 0 {
		cfg.FolderStructures = Default().FolderStructures
	}

	for _, p := range []*string{&cfg.Preferences.BaseDirectory, &cfg.Cache.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from path, or the default locations when path
// is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := Setup(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks templates, folder structures and preferences.
func (c *Config) Validate() error {
	for _, t := range c.Templates {
		switch {
		case strings.TrimSpace(t.Name) == "":
			return fmt.Errorf("%w: template %q has empty name", ErrInvalid, t.ID)
		case strings.TrimSpace(t.Pattern) == "":
			return fmt.Errorf("%w: template %q has empty pattern", ErrInvalid, t.Name)
		case len(t.Pattern) > MaxPatternLength:
			return fmt.Errorf("%w: template %q pattern too long (max %d chars)", ErrInvalid, t.Name, MaxPatternLength)
		}
	}
	for _, f := range c.FolderStructures {
		switch {
		case strings.TrimSpace(f.Name) == "":
			return fmt.Errorf("%w: folder structure %q has empty name", ErrInvalid, f.ID)
		case strings.TrimSpace(f.Pattern) == "":
			return fmt.Errorf("%w: folder structure %q has empty pattern", ErrInvalid, f.Name)
		}
	}

	p := c.Preferences
	if _, err := types.ParsePriorityMode(string(p.RulePriorityMode)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := naming.ParseCaseStyle(p.CaseStyle); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if p.LLMConfidenceThreshold < 0 || p.LLMConfidenceThreshold > 1 {
		return fmt.Errorf("%w: llm_confidence_threshold must be between 0 and 1, got %v", ErrInvalid, p.LLMConfidenceThreshold)
	}
	if p.DefaultTemplateID != "" {
		if _, ok := types.FindTemplate(c.Templates, p.DefaultTemplateID); !ok {
			return fmt.Errorf("%w: default template %q not found", ErrInvalid, p.DefaultTemplateID)
		}
	}
	if p.DefaultFolderStructureID != "" {
		if _, ok := types.FindFolderStructure(c.FolderStructures, p.DefaultFolderStructureID); !ok {
			return fmt.Errorf("%w: default folder structure %q not found", ErrInvalid, p.DefaultFolderStructureID)
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Save writes the configuration as YAML to path. The file is replaced
// atomically so a crash never leaves a truncated config behind.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// DefaultTemplate returns the preferred default template: the one named by
// preferences, else the first marked IsDefault.
func (c *Config) DefaultTemplate() (types.Template, bool) {
	if id := c.Preferences.DefaultTemplateID; id != "" {
		return types.FindTemplate(c.Templates, id)
	}
	for _, t := range c.Templates {
		if t.IsDefault {
			return t, true
		}
	}
	return types.Template{}, false
}

// WriteDefault writes the default configuration to the default config path
// if no file exists there. It returns the path either way.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}
	if err := Default().Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "tidy"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tidy"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/tidy/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "tidy")
}

// CacheDir returns $XDG_CACHE_HOME/tidy/ for the metadata cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "tidy")
}

// CachePath returns the configured cache directory or the default one.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "metadata")
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// byteSizeHook lets int64 fields be written as "5MB" or "512KiB".
func byteSizeHook() mapstructure.DecodeHookFuncType {
	int64Type := reflect.TypeOf(int64(0))
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != int64Type {
			return data, nil
		}
		n, err := humanize.ParseBytes(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", data, err)
		}
		return int64(n), nil
	}
}
