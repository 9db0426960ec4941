package extract

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
	"heic": true, "heif": true, "png": true, "gif": true, "webp": true,
}

func isImage(ext string) bool { return imageExtensions[ext] }

// readImage reads EXIF tags when present and falls back to the image
// header for dimensions.
func readImage(path string) (*types.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := &types.ImageMetadata{}
	x, exifErr := exif.Decode(f)
	if exifErr == nil {
		fillEXIF(meta, x)
	}

	if meta.Width == 0 || meta.Height == 0 {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		cfg, _, cfgErr := image.DecodeConfig(f)
		if cfgErr == nil {
			meta.Width, meta.Height = cfg.Width, cfg.Height
		} else if exifErr != nil {
			return nil, fmt.Errorf("no readable image metadata: %w", errors.Join(exifErr, cfgErr))
		}
	}
	return meta, nil
}

func fillEXIF(meta *types.ImageMetadata, x *exif.Exif) {
	if t, err := x.DateTime(); err == nil {
		meta.DateTaken = &t
	}
	meta.CameraMake = tagString(x, exif.Make)
	meta.CameraModel = tagString(x, exif.Model)
	meta.LensModel = tagString(x, exif.LensModel)
	meta.Width = tagInt(x, exif.PixelXDimension)
	meta.Height = tagInt(x, exif.PixelYDimension)
	meta.Orientation = tagInt(x, exif.Orientation)
	meta.ISO = tagInt(x, exif.ISOSpeedRatings)
	meta.FocalLength = tagFloat(x, exif.FocalLength)
	meta.Aperture = tagFloat(x, exif.FNumber)

	if tag, err := x.Get(exif.ExposureTime); err == nil && tag.Format() == tiff.RatVal {
		if r, err := tag.Rat(0); err == nil {
			meta.ExposureTime = r.RatString()
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.GPS = &types.GPSCoordinates{Latitude: lat, Longitude: long}
	}
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func tagInt(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.IntVal {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func tagFloat(x *exif.Exif, name exif.FieldName) float64 {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.RatVal {
		return 0
	}
	r, err := tag.Rat(0)
	if err != nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}
