package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// readSpreadsheet reads workbook properties and sheet names.
func readSpreadsheet(path string) (*types.OfficeMetadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	props, err := f.GetDocProps()
	if err != nil {
		return nil, err
	}
	meta := &types.OfficeMetadata{
		Title:          props.Title,
		Author:         props.Creator,
		Subject:        props.Subject,
		Description:    props.Description,
		Keywords:       splitKeywords(props.Keywords),
		Category:       props.Category,
		LastModifiedBy: props.LastModifiedBy,
		Created:        parseW3CDate(props.Created),
		Modified:       parseW3CDate(props.Modified),
		SheetNames:     f.GetSheetList(),
	}
	if app, err := f.GetAppProps(); err == nil && app != nil {
		meta.Application = app.Application
	}
	return meta, nil
}

// coreProperties is docProps/core.xml. Elements are matched by local name
// so the dc, dcterms and cp namespaces need no declaration.
type coreProperties struct {
	Title          string `xml:"title"`
	Subject        string `xml:"subject"`
	Creator        string `xml:"creator"`
	Keywords       string `xml:"keywords"`
	Description    string `xml:"description"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Category       string `xml:"category"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

// appProperties is docProps/app.xml.
type appProperties struct {
	Application string `xml:"Application"`
	Pages       int    `xml:"Pages"`
	Words       int    `xml:"Words"`
	Slides      int    `xml:"Slides"`
}

var errNoCoreProperties = errors.New("document has no core properties")

// readOOXML reads core and app properties from a docx or pptx package.
func readOOXML(path string) (*types.OfficeMetadata, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var core coreProperties
	var app appProperties
	found := false
	for _, f := range zr.File {
		switch f.Name {
		case "docProps/core.xml":
			if err := decodeXML(f, &core); err != nil {
				return nil, err
			}
			found = true
		case "docProps/app.xml":
			if err := decodeXML(f, &app); err != nil {
				return nil, err
			}
		}
	}
	if !found {
		return nil, errNoCoreProperties
	}

	return &types.OfficeMetadata{
		Title:          strings.TrimSpace(core.Title),
		Author:         strings.TrimSpace(core.Creator),
		Subject:        strings.TrimSpace(core.Subject),
		Description:    strings.TrimSpace(core.Description),
		Keywords:       splitKeywords(core.Keywords),
		Category:       strings.TrimSpace(core.Category),
		LastModifiedBy: strings.TrimSpace(core.LastModifiedBy),
		Created:        parseW3CDate(core.Created),
		Modified:       parseW3CDate(core.Modified),
		Application:    app.Application,
		PageCount:      app.Pages,
		WordCount:      app.Words,
		SlideCount:     app.Slides,
	}, nil
}

func decodeXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(io.LimitReader(rc, 1<<20)).Decode(v)
}

// parseW3CDate parses the dcterms W3CDTF timestamps Office writes.
func parseW3CDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
