package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the metadata cache",
	Long: `Commands for managing the tidy metadata cache.

The cache stores extracted metadata keyed by path, size and modification
time so repeat previews skip unchanged files. Cache data is stored in the
XDG cache directory (typically ~/.cache/tidy/metadata).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [dir]",
	Short: "Clear cached metadata",
	Long:  `Removes cached metadata for files directly inside dir, or everything when no dir is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, entry count and size on disk.`,
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(_ *cobra.Command, args []string) error {
	cachePath := cfg.CachePath()
	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		printInfo("Cache is already empty.")
		return nil
	}

	c, err := cache.Open(cachePath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer c.Close()

	var n int
	if len(args) == 1 {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		n, err = c.Clear(dir)
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	} else {
		n, err = c.ClearAll()
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	printInfo("Removed %s cache entries.", humanize.Comma(int64(n)))
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cachePath := cfg.CachePath()

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		fmt.Fprintln(out, "Cache: empty (no cache directory)")
		fmt.Fprintf(out, "Cache location: %s\n", cachePath)
		return nil
	}

	c, err := cache.Open(cachePath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	entries, err := c.Len()
	_ = c.Close()
	if err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}

	var size int64
	err = filepath.Walk(cachePath, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to calculate cache size: %w", err)
	}

	fmt.Fprintf(out, "Cache location: %s\n", cachePath)
	fmt.Fprintf(out, "Cache enabled:  %t\n", cfg.Cache.Enabled)
	fmt.Fprintf(out, "Entries:        %s\n", humanize.Comma(int64(entries)))
	fmt.Fprintf(out, "Size on disk:   %s\n", humanize.IBytes(uint64(size)))
	return nil
}
