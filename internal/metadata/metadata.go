// Package metadata describes uploaded images without analysing their pixels:
// container format, dimensions and the camera EXIF fields kept in history.
package metadata

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// Inspect never fails: undecodable headers leave Format empty and missing
// EXIF leaves the camera fields empty
func Inspect(data []byte) models.ImageMetadata {
	meta := models.ImageMetadata{ContentLength: int64(len(data))}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Format = format
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return meta
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return meta
	}
	applyExifTags(&meta, entries)

	return meta
}

func applyExifTags(meta *models.ImageMetadata, entries []exif.ExifTag) {
	for _, entry := range entries {
		value := cleanValue(entry.Formatted)

		switch entry.TagName {
		case "Make":
			meta.CameraMake = value
		case "Model":
			meta.CameraModel = value
		case "DateTimeOriginal":
			meta.CapturedAt = value
		case "DateTime":
			// Only when the original capture time is absent
			if meta.CapturedAt == "" {
				meta.CapturedAt = value
			}
		case "GPSLatitude", "GPSLongitude":
			meta.HasLocation = true
		}
	}
}

func cleanValue(v string) string {
	return strings.TrimSpace(strings.Trim(v, "\x00\""))
}
