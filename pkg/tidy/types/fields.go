package types

import (
	"slices"
	"strings"
	"time"
)

// Field namespaces accepted in condition and placeholder paths.
const (
	NamespaceImage  = "image"
	NamespacePDF    = "pdf"
	NamespaceOffice = "office"
	NamespaceFile   = "file"
)

type accessor func(m *UnifiedMetadata) any

// fieldAccessors is the closed set of known field paths. An accessor
// returns nil when the field is absent.
var fieldAccessors = map[string]accessor{
	"file.path":       func(m *UnifiedMetadata) any { return str(m.File.Path) },
	"file.name":       func(m *UnifiedMetadata) any { return str(m.File.Name) },
	"file.extension":  func(m *UnifiedMetadata) any { return str(m.File.Extension) },
	"file.fullName":   func(m *UnifiedMetadata) any { return str(m.File.FullName) },
	"file.size":       func(m *UnifiedMetadata) any { return m.File.Size },
	"file.category":   func(m *UnifiedMetadata) any { return str(string(m.File.Category)) },
	"file.createdAt":  func(m *UnifiedMetadata) any { return tm(m.File.CreatedAt) },
	"file.modifiedAt": func(m *UnifiedMetadata) any { return tm(m.File.ModifiedAt) },

	"image.dateTaken":     img(func(i *ImageMetadata) any { return tp(i.DateTaken) }),
	"image.cameraMake":    img(func(i *ImageMetadata) any { return str(i.CameraMake) }),
	"image.cameraModel":   img(func(i *ImageMetadata) any { return str(i.CameraModel) }),
	"image.lensModel":     img(func(i *ImageMetadata) any { return str(i.LensModel) }),
	"image.width":         img(func(i *ImageMetadata) any { return num(i.Width) }),
	"image.height":        img(func(i *ImageMetadata) any { return num(i.Height) }),
	"image.orientation":   img(func(i *ImageMetadata) any { return num(i.Orientation) }),
	"image.iso":           img(func(i *ImageMetadata) any { return num(i.ISO) }),
	"image.focalLength":   img(func(i *ImageMetadata) any { return flt(i.FocalLength) }),
	"image.aperture":      img(func(i *ImageMetadata) any { return flt(i.Aperture) }),
	"image.exposureTime":  img(func(i *ImageMetadata) any { return str(i.ExposureTime) }),
	"image.gps.latitude":  img(func(i *ImageMetadata) any { return gps(i, func(g *GPSCoordinates) any { return g.Latitude }) }),
	"image.gps.longitude": img(func(i *ImageMetadata) any { return gps(i, func(g *GPSCoordinates) any { return g.Longitude }) }),
	"image.gps.altitude": img(func(i *ImageMetadata) any {
		return gps(i, func(g *GPSCoordinates) any {
			if g.Altitude == nil {
				return nil
			}
			return *g.Altitude
		})
	}),

	"pdf.title":            pdf(func(p *PDFMetadata) any { return str(p.Title) }),
	"pdf.author":           pdf(func(p *PDFMetadata) any { return str(p.Author) }),
	"pdf.subject":          pdf(func(p *PDFMetadata) any { return str(p.Subject) }),
	"pdf.keywords":         pdf(func(p *PDFMetadata) any { return list(p.Keywords) }),
	"pdf.creator":          pdf(func(p *PDFMetadata) any { return str(p.Creator) }),
	"pdf.producer":         pdf(func(p *PDFMetadata) any { return str(p.Producer) }),
	"pdf.creationDate":     pdf(func(p *PDFMetadata) any { return tp(p.CreationDate) }),
	"pdf.modificationDate": pdf(func(p *PDFMetadata) any { return tp(p.ModificationDate) }),
	"pdf.pageCount":        pdf(func(p *PDFMetadata) any { return num(p.PageCount) }),

	"office.title":          office(func(o *OfficeMetadata) any { return str(o.Title) }),
	"office.author":         office(func(o *OfficeMetadata) any { return str(o.Author) }),
	"office.subject":        office(func(o *OfficeMetadata) any { return str(o.Subject) }),
	"office.description":    office(func(o *OfficeMetadata) any { return str(o.Description) }),
	"office.keywords":       office(func(o *OfficeMetadata) any { return list(o.Keywords) }),
	"office.category":       office(func(o *OfficeMetadata) any { return str(o.Category) }),
	"office.lastModifiedBy": office(func(o *OfficeMetadata) any { return str(o.LastModifiedBy) }),
	"office.created":        office(func(o *OfficeMetadata) any { return tp(o.Created) }),
	"office.modified":       office(func(o *OfficeMetadata) any { return tp(o.Modified) }),
	"office.application":    office(func(o *OfficeMetadata) any { return str(o.Application) }),
	"office.pageCount":      office(func(o *OfficeMetadata) any { return num(o.PageCount) }),
	"office.wordCount":      office(func(o *OfficeMetadata) any { return num(o.WordCount) }),
	"office.slideCount":     office(func(o *OfficeMetadata) any { return num(o.SlideCount) }),
	"office.sheetNames":     office(func(o *OfficeMetadata) any { return list(o.SheetNames) }),
}

// KnownField reports whether path names a known (namespace, field) pair.
func KnownField(path string) bool {
	_, ok := fieldAccessors[path]
	return ok
}

// KnownFields returns every known field path, sorted.
func KnownFields() []string {
	out := make([]string, 0, len(fieldAccessors))
	for k := range fieldAccessors {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ValidNamespace reports whether the first segment of path is a known namespace.
func ValidNamespace(path string) bool {
	ns, _, _ := strings.Cut(path, ".")
	switch ns {
	case NamespaceImage, NamespacePDF, NamespaceOffice, NamespaceFile:
		return true
	}
	return false
}

// Lookup resolves a namespaced field path. The value is a string, int64,
// int, float64, time.Time or []string. ok is false when the field is
// absent or unknown.
func (m *UnifiedMetadata) Lookup(path string) (value any, ok bool) {
	if m == nil {
		return nil, false
	}
	fn, known := fieldAccessors[path]
	if !known {
		return nil, false
	}
	v := fn(m)
	return v, v != nil
}

func img(fn func(*ImageMetadata) any) accessor {
	return func(m *UnifiedMetadata) any {
		if m.Image == nil {
			return nil
		}
		return fn(m.Image)
	}
}

func pdf(fn func(*PDFMetadata) any) accessor {
	return func(m *UnifiedMetadata) any {
		if m.PDF == nil {
			return nil
		}
		return fn(m.PDF)
	}
}

func office(fn func(*OfficeMetadata) any) accessor {
	return func(m *UnifiedMetadata) any {
		if m.Office == nil {
			return nil
		}
		return fn(m.Office)
	}
}

func gps(i *ImageMetadata, fn func(*GPSCoordinates) any) any {
	if i.GPS == nil {
		return nil
	}
	return fn(i.GPS)
}

func str(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func num(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func flt(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func list(l []string) any {
	if len(l) == 0 {
		return nil
	}
	return l
}

func tm(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func tp(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
