package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var (
	cfgFile string

	// cfg is decoded by initializeLogging before any command runs.
	cfg       *config.Config
	configErr error

	rootCmd = &cobra.Command{
		Use:   "tidy",
		Short: "Preview rule-driven renames and moves for your files",
		Long: `Tidy computes rename and move proposals for files from templates,
metadata rules and filename rules. It never renames anything: every
command is a preview or a change to the tidy configuration.

Examples:
  tidy preview ~/Pictures                 # Preview renames for a directory
  tidy preview -r -f json ~/Documents     # Recursive, JSON output
  tidy preview --llm-results ai.json .    # Use pre-computed AI suggestions
  tidy rules unified                      # Show rule evaluation order
  tidy templates list                     # Show configured templates
  tidy config show                        # Show configuration`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tidy/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig points viper at the config file and environment.
func initConfig() {
	configErr = config.Setup(viper.GetViper(), cfgFile)
}

// initializeLogging decodes the configuration, makes sure the tidy
// directories exist and starts file logging.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}
	loaded, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded

	if err := ensureDirectories(); err != nil {
		return err
	}

	logCfg := loggingConfig(cfg)
	if getVerbose() && !getQuiet() {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// skipConfig replaces initializeLogging for commands that must work with a
// broken or missing configuration.
func skipConfig(_ *cobra.Command, _ []string) error {
	return nil
}

// loggingConfig maps the logging section of the configuration.
func loggingConfig(c *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	if c.Logging.Level != "" {
		lc.Level = c.Logging.Level
	}
	if c.Logging.Path != "" {
		lc.Path = c.Logging.Path
	}
	if c.Logging.Rotation.MaxSize > 0 {
		lc.Rotation.MaxSize = c.Logging.Rotation.MaxSize
	}
	if c.Logging.Rotation.MaxAge > 0 {
		lc.Rotation.MaxAge = c.Logging.Rotation.MaxAge
	}
	if c.Logging.Rotation.MaxBackups > 0 {
		lc.Rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	}
	lc.Rotation.Daily = c.Logging.Rotation.Daily
	lc.Components = c.Logging.Components
	return lc
}

func ensureDirectories() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.StateDir(), config.CacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
