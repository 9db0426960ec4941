package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage tidy configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/tidy/config.yaml (if set)
  2. ~/.config/tidy/config.yaml

Environment variables can override config file settings using the TIDY_ prefix:
  TIDY_PREFERENCES_CASE_STYLE=snake-case
  TIDY_PREFERENCES_LLM_CONFIDENCE_THRESHOLD=0.8
  TIDY_CACHE_ENABLED=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration from all sources as YAML.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	PersistentPreRunE: skipConfig,
	RunE:              runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:               "init",
	Short:             "Create default configuration file",
	Long:              `Create a default configuration file if one doesn't exist.`,
	PersistentPreRunE: skipConfig,
	RunE:              runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:               "path",
	Short:             "Show configuration file path",
	Long:              `Display the path to the configuration file.`,
	PersistentPreRunE: skipConfig,
	RunE:              runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "# Config file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "# Config file: (using defaults, no file found)")
	}

	var overrides []string
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "TIDY_") {
			overrides = append(overrides, env)
		}
	}
	for _, o := range overrides {
		fmt.Fprintf(out, "# Environment: %s\n", o)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintf(out, "\n%s", data)
	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if cfgFile != "" {
		configPath = cfgFile
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	if _, err := config.Load(configPath); err != nil {
		printError("Configuration is invalid: %v", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'tidy config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
