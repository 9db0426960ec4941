package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func file(path string, size int64, age time.Duration) types.FileInfo {
	fi := types.NewFileInfo(path)
	fi.Size = size
	fi.ModifiedAt = now.Add(-age)
	return fi
}

func sampleFiles() []types.FileInfo {
	return []types.FileInfo{
		file("/p/IMG_0002.JPG", 3000, 2*Day),
		file("/p/img_0001.jpg", 1000, 40*Day),
		file("/p/report.pdf", 500, 400*Day),
		file("/p/drafts/notes.txt", 20, time.Hour),
		file("/p/drafts/budget.xlsx", 8000, 10*Day),
	}
}

func paths(files []types.FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
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

func TestNew(t *testing.T) {
	f := New()
	if f.Limit != 0 {
		t.Errorf("Limit = %d, want 0", f.Limit)
	}
	if f.SortBy != SortName {
		t.Errorf("SortBy = %v, want name", f.SortBy)
	}
	if f.SortDescending {
		t.Error("SortDescending should be false by default")
	}
	if got := f.Apply(sampleFiles()); len(got) != 5 {
		t.Errorf("Apply() kept %d files, want 5", len(got))
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []string
	}{
		{
			name: "include by name",
			opts: []Option{WithInclude("*.jpg", "*.JPG")},
			want: []string{"/p/img_0001.jpg", "/p/IMG_0002.JPG"},
		},
		{
			name: "include by path",
			opts: []Option{WithInclude("/p/drafts/*")},
			want: []string{"/p/drafts/budget.xlsx", "/p/drafts/notes.txt"},
		},
		{
			name: "exclude wins",
			opts: []Option{WithInclude("/p/drafts/*"), WithExclude("*.txt")},
			want: []string{"/p/drafts/budget.xlsx"},
		},
		{
			name: "extensions ignore case and dots",
			opts: []Option{WithExtensions(".JPG")},
			want: []string{"/p/img_0001.jpg", "/p/IMG_0002.JPG"},
		},
		{
			name: "document categories",
			opts: []Option{WithCategories(TypeGroups["document"]...)},
			want: []string{"/p/drafts/budget.xlsx", "/p/drafts/notes.txt", "/p/report.pdf"},
		},
		{
			name: "size range",
			opts: []Option{WithSizeRange(500, 3000)},
			want: []string{"/p/img_0001.jpg", "/p/IMG_0002.JPG", "/p/report.pdf"},
		},
		{
			name: "older than",
			opts: []Option{WithOlderThan(30 * Day)},
			want: []string{"/p/img_0001.jpg", "/p/report.pdf"},
		},
		{
			name: "newer than",
			opts: []Option{WithNewerThan(Week)},
			want: []string{"/p/IMG_0002.JPG", "/p/drafts/notes.txt"},
		},
		{
			name: "sort by size descending with limit",
			opts: []Option{WithSortBy(SortSize, true), WithLimit(2)},
			want: []string{"/p/drafts/budget.xlsx", "/p/IMG_0002.JPG"},
		},
		{
			name: "sort by modified",
			opts: []Option{WithSortBy(SortModified, false), WithLimit(2)},
			want: []string{"/p/report.pdf", "/p/img_0001.jpg"},
		},
		{
			name: "sort by path",
			opts: []Option{WithSortBy(SortPath, false)},
			want: []string{"/p/IMG_0002.JPG", "/p/drafts/budget.xlsx", "/p/drafts/notes.txt", "/p/img_0001.jpg", "/p/report.pdf"},
		},
		{
			name: "invalid pattern is skipped",
			opts: []Option{WithInclude("[", "*.pdf")},
			want: []string{"/p/report.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(append(tt.opts, WithNow(func() time.Time { return now }))...)
			got := paths(f.Apply(sampleFiles()))
			if !equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortDoesNotModifyInput(t *testing.T) {
	files := sampleFiles()
	before := paths(files)
	New(WithSortBy(SortSize, false)).Sort(files)
	if !equal(paths(files), before) {
		t.Error("Sort modified its input")
	}
	if got := New().Sort(nil); got == nil || len(got) != 0 {
		t.Errorf("Sort(nil) = %v, want empty slice", got)
	}
}

func TestWithLimitNegative(t *testing.T) {
	if f := New(WithLimit(-5)); f.Limit != 0 {
		t.Errorf("Limit = %d, want 0", f.Limit)
	}
}

func TestParseSortField(t *testing.T) {
	tests := map[string]SortField{
		"":         SortName,
		"name":     SortName,
		"SIZE":     SortSize,
		"age":      SortModified,
		"modified": SortModified,
		"path":     SortPath,
	}
	for input, want := range tests {
		got, err := ParseSortField(input)
		if err != nil {
			t.Errorf("ParseSortField(%q) error = %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSortField(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseSortField("color"); !errors.Is(err, ErrInvalidSortField) {
		t.Errorf("ParseSortField(color) error = %v, want ErrInvalidSortField", err)
	}
	if SortModified.String() != "modified" {
		t.Errorf("String() = %q", SortModified.String())
	}
}

func TestParseTypeGroups(t *testing.T) {
	cats, err := ParseTypeGroups("image", "PDF")
	if err != nil {
		t.Fatalf("ParseTypeGroups() error = %v", err)
	}
	if len(cats) != 2 || cats[0] != types.CategoryImage || cats[1] != types.CategoryPDF {
		t.Errorf("ParseTypeGroups() = %v", cats)
	}
	if _, err := ParseTypeGroups("holograms"); !errors.Is(err, ErrUnknownTypeGroup) {
		t.Errorf("error = %v, want ErrUnknownTypeGroup", err)
	}
}
