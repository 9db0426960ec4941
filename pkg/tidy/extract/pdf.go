package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// readPDF reads the document information dictionary and page count.
// The pdf package panics on some malformed files; that is reported as an
// error.
func readPDF(path string) (meta *types.PDFMetadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	meta = &types.PDFMetadata{
		Title:        infoText(info, "Title"),
		Author:       infoText(info, "Author"),
		Subject:      infoText(info, "Subject"),
		Keywords:     splitKeywords(infoText(info, "Keywords")),
		Creator:      infoText(info, "Creator"),
		Producer:     infoText(info, "Producer"),
		CreationDate: parsePDFDate(infoText(info, "CreationDate")),
		PageCount:    r.NumPage(),
	}
	meta.ModificationDate = parsePDFDate(infoText(info, "ModDate"))
	return meta, nil
}

func infoText(info pdf.Value, key string) string {
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key(key).Text())
}

// pdfDate matches D:YYYYMMDDHHmmSS followed by Z or an offset like +01'00'.
// Everything after the year is optional.
var pdfDate = regexp.MustCompile(`^(?:D:)?(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?(Z|[+-]\d{2}'?\d{2}'?)?`)

// parsePDFDate parses a PDF date string, returning nil when it is absent
// or malformed.
func parsePDFDate(s string) *time.Time {
	m := pdfDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}
	num := func(i, def int) int {
		if m[i] == "" {
			return def
		}
		n, _ := strconv.Atoi(m[i])
		return n
	}

	loc := time.UTC
	if tz := m[7]; tz != "" && tz != "Z" {
		digits := strings.ReplaceAll(tz[1:], "'", "")
		hours, _ := strconv.Atoi(digits[:2])
		minutes, _ := strconv.Atoi(digits[2:])
		offset := hours*3600 + minutes*60
		if tz[0] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	month := num(2, 1)
	day := num(3, 1)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(num(1, 0), time.Month(month), day, num(4, 0), num(5, 0), num(6, 0), 0, loc)
	return &t
}
