package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// createTree lays out:
//
//	root/a.jpg
//	root/b.pdf
//	root/.hidden.txt
//	root/sub/c.docx
//	root/sub/deeper/d.png
//	root/node_modules/e.js
//	root/.git/config
func createTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"a.jpg":             "jpeg",
		"b.pdf":             "pdf!",
		".hidden.txt":       "x",
		"sub/c.docx":        "docx",
		"sub/deeper/d.png":  "png",
		"node_modules/e.js": "js",
		".git/config":       "cfg",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(root string, files []types.FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{}
	if err := opts.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.Paths) != 1 || opts.Paths[0] != "." {
		t.Errorf("Paths = %v, want [.]", opts.Paths)
	}
	if opts.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", opts.Workers)
	}
}

func TestScan(t *testing.T) {
	root := createTree(t)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "top level only",
			opts: Options{},
			want: []string{"a.jpg", "b.pdf"},
		},
		{
			name: "recursive",
			opts: Options{Recursive: true},
			want: []string{"a.jpg", "b.pdf", "node_modules/e.js", "sub/c.docx", "sub/deeper/d.png"},
		},
		{
			name: "recursive with exclusions",
			opts: Options{Recursive: true, Exclude: []string{"node_modules", "*.png"}},
			want: []string{"a.jpg", "b.pdf", "sub/c.docx"},
		},
		{
			name: "exclude by path prefix",
			opts: Options{Recursive: true, Exclude: []string{filepath.Join(root, "sub")}},
			want: []string{"a.jpg", "b.pdf", "node_modules/e.js"},
		},
		{
			name: "hidden files",
			opts: Options{Recursive: true, IncludeHidden: true, Exclude: []string{".git", "node_modules"}},
			want: []string{".hidden.txt", "a.jpg", "b.pdf", "sub/c.docx", "sub/deeper/d.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Paths = []string{root}
			res, err := New(tt.opts).Scan(context.Background())
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if got := relPaths(root, res.Files); !equal(got, tt.want) {
				t.Errorf("Scan() files = %v, want %v", got, tt.want)
			}
			if res.FilesScanned != int64(len(tt.want)) {
				t.Errorf("FilesScanned = %d, want %d", res.FilesScanned, len(tt.want))
			}
		})
	}
}

func TestScanFillsFileInfo(t *testing.T) {
	root := createTree(t)
	res, err := New(Options{Paths: []string{filepath.Join(root, "b.pdf")}}).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(res.Files))
	}
	f := res.Files[0]
	if f.FullName != "b.pdf" || f.Name != "b" || f.Extension != "pdf" {
		t.Errorf("names = %q %q %q", f.FullName, f.Name, f.Extension)
	}
	if f.Size != 4 {
		t.Errorf("Size = %d, want 4", f.Size)
	}
	if f.Category != types.CategoryPDF {
		t.Errorf("Category = %q, want pdf", f.Category)
	}
	if f.ModifiedAt.IsZero() {
		t.Error("ModifiedAt not set")
	}
	if !filepath.IsAbs(f.Path) {
		t.Errorf("Path %q is not absolute", f.Path)
	}
}

func TestScanDeduplicatesOverlappingPaths(t *testing.T) {
	root := createTree(t)
	res, err := New(Options{Paths: []string{root, filepath.Join(root, "a.jpg")}}).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := relPaths(root, res.Files); !equal(got, []string{"a.jpg", "b.pdf"}) {
		t.Errorf("files = %v", got)
	}
}

func TestScanMissingPath(t *testing.T) {
	_, err := New(Options{Paths: []string{filepath.Join(t.TempDir(), "nope")}}).Scan(context.Background())
	if !os.IsNotExist(err) {
		t.Errorf("error = %v, want not-exist", err)
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{Paths: []string{createTree(t)}}).Scan(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestScanReportsFinalProgress(t *testing.T) {
	var calls atomic.Int64
	var final Progress
	opts := Options{
		Paths:     []string{createTree(t)},
		Recursive: true,
		OnProgress: func(p Progress) {
			calls.Add(1)
			if p.Done {
				final = p
			}
		},
	}
	if _, err := New(opts).Scan(context.Background()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if calls.Load() == 0 {
		t.Fatal("OnProgress never called")
	}
	if !final.Done || final.FilesScanned != 5 {
		t.Errorf("final progress = %+v", final)
	}
}
