// Package scanner collects the files a preview runs over. Directories are
// walked in parallel with fastwalk; explicit file arguments are taken as is.
package scanner

import "runtime"

// Progress is reported while scanning.
type Progress struct {
	DirsScanned  int64
	FilesScanned int64
	CurrentPath  string
	Done         bool
}

// Options configures the scanner behavior.
type Options struct {
	// Paths are files or directories to scan. Empty means ".".
	Paths []string

	// Recursive descends into subdirectories. Otherwise only the direct
	// children of each directory are collected.
	Recursive bool

	// IncludeHidden keeps dotfiles and dot-directories.
	IncludeHidden bool

	// Exclude contains names, path prefixes or glob patterns to skip.
	// Globs without a '/' match the base name.
	Exclude []string

	// Workers bounds fastwalk's parallelism. 0 uses GOMAXPROCS.
	Workers int

	// OnProgress is called periodically. It must be safe to call from
	// multiple goroutines.
	OnProgress func(Progress)
}

// Validate applies defaults.
func (o *Options) Validate() error {
	if len(o.Paths) == 0 {
		o.Paths = []string{"."}
	}
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}
