// Package save is the persistence codec: it maps the in-memory collection
// to and from three serialized generations (archive, local save record,
// legacy flat file) and drives the clear-apply-repopulate import sequence.
package save

import (
	"bytes"
	"encoding/json"

	"github.com/BenWCode/MuseApp/internal/item"
)

// FormatVersion is written into every manifest this codec produces.
const FormatVersion = "2"

// Format tags a classified save input. Import dispatches on the tag; the
// classifier itself does no I/O and no decoding beyond what detection needs.
type Format int

const (
	FormatUnknown Format = iota
	FormatArchive
	FormatLocal
	FormatLegacyPlain
	FormatLegacyCompressed
)

func (f Format) String() string {
	switch f {
	case FormatArchive:
		return "archive"
	case FormatLocal:
		return "local"
	case FormatLegacyPlain:
		return "legacy-plain"
	case FormatLegacyCompressed:
		return "legacy-compressed"
	default:
		return "unknown"
	}
}

// Manifest is the top-level shape shared by the local save record, the
// archive manifest file, and both legacy generations. Settings stay raw so
// fields unknown to older saves pass through untouched.
type Manifest struct {
	Settings    json.RawMessage `json:"settings,omitempty"`
	MuseumItems []item.Record   `json:"museumItems"`
	Version     string          `json:"version,omitempty"`
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Detect classifies raw save bytes, in priority order: archive, then a
// current-generation JSON record, then the two legacy generations. Inputs
// matching nothing classify as FormatUnknown; the caller decides whether
// that is an error.
func Detect(data []byte) Format {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatArchive
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err == nil && m.MuseumItems != nil {
		// Legacy files predate the version field and carry inline payloads.
		if m.Version != "" {
			return FormatLocal
		}
		for _, r := range m.MuseumItems {
			if r.HasFileInDB != nil {
				return FormatLocal
			}
		}
		return FormatLegacyPlain
	}

	if decoded, ok := decompress(data); ok {
		if err := json.Unmarshal(decoded, &m); err == nil && m.MuseumItems != nil {
			return FormatLegacyCompressed
		}
	}
	return FormatUnknown
}
