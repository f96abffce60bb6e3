package ingest

import (
	"bytes"
	"fmt"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata is what the extractor recovers from image bytes. Absent fields
// mean the image carried no usable tags.
type Metadata struct {
	CapturedAt *time.Time
	Location   string
}

// Extractor reads capture metadata out of image payloads. Implementations
// must degrade to an empty Metadata on any failure, never error.
type Extractor interface {
	Extract(data []byte) Metadata
}

// ExifExtractor reads EXIF tags: DateTimeOriginal for the capture time and
// GPS coordinates formatted as a decimal-degree location string.
type ExifExtractor struct{}

// Extract implements Extractor.
func (ExifExtractor) Extract(data []byte) (m Metadata) {
	// Tag parsing on arbitrary user files must not take down ingestion.
	defer func() {
		if recover() != nil {
			m = Metadata{}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Metadata{}
	}

	if tm, err := x.DateTime(); err == nil {
		m.CapturedAt = &tm
	}
	if lat, long, err := x.LatLong(); err == nil {
		m.Location = fmt.Sprintf("Lat: %.5f, Lon: %.5f", lat, long)
	}
	return m
}
