package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// SidecarEntry is hand-supplied metadata for one file. Set sections
// replace whatever extraction produced for that section.
type SidecarEntry struct {
	Image  *types.ImageMetadata  `json:"image,omitempty" yaml:"image,omitempty"`
	PDF    *types.PDFMetadata    `json:"pdf,omitempty" yaml:"pdf,omitempty"`
	Office *types.OfficeMetadata `json:"office,omitempty" yaml:"office,omitempty"`
}

// Apply overlays the entry onto meta. A file with any sidecar section
// counts as successfully extracted.
func (e SidecarEntry) Apply(meta types.UnifiedMetadata) types.UnifiedMetadata {
	if e.Image == nil && e.PDF == nil && e.Office == nil {
		return meta
	}
	if e.Image != nil {
		meta.Image, meta.PDF, meta.Office = e.Image, nil, nil
	}
	if e.PDF != nil {
		meta.Image, meta.PDF, meta.Office = nil, e.PDF, nil
	}
	if e.Office != nil {
		meta.Image, meta.PDF, meta.Office = nil, nil, e.Office
	}
	meta.ExtractionStatus = types.ExtractionSuccess
	meta.ExtractionError = ""
	return meta
}

// Sidecar maps absolute file paths to entries.
type Sidecar map[string]SidecarEntry

// Lookup returns the entry for path.
func (s Sidecar) Lookup(path string) (SidecarEntry, bool) {
	if s == nil {
		return SidecarEntry{}, false
	}
	e, ok := s[filepath.Clean(path)]
	return e, ok
}

// LoadSidecar reads a JSON or YAML file mapping paths to entries.
// Relative paths are resolved against the sidecar's directory.
func LoadSidecar(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := map[string]SidecarEntry{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported sidecar format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	out := make(Sidecar, len(raw))
	for p, entry := range raw {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		out[filepath.Clean(p)] = entry
	}
	return out, nil
}
