package imaging

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ExifTags returns the EXIF fields of an image payload as a flat name->value
// map. Most PDF-embedded images were re-encoded by their producer and carry
// no EXIF; those, and payloads in formats without EXIF, yield an empty map.
func ExifTags(data []byte) map[string]string {
	tags := map[string]string{}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return tags
	}

	_ = x.Walk(exifCollector(tags))
	return tags
}

type exifCollector map[string]string

func (c exifCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c[string(name)] = tag.String()
	return nil
}
