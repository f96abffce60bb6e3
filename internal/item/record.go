package item

import (
	"time"

	"github.com/BenWCode/MuseApp/internal/errors"
)

// Record is the serialized form of an item inside a manifest, a local save
// record, or a legacy flat file. The three generations share one shape and
// differ only in which payload field is populated:
//
//	archive:     Path (payload in the archive at that path)
//	local save:  HasFileInDB for images, TextContent for text
//	legacy:      DataURL for images, TextContent for text
type Record struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Date     string `json:"date"`
	Caption  string `json:"caption"`
	Location string `json:"location"`

	Path        string  `json:"path,omitempty"`
	TextContent *string `json:"textContent,omitempty"`
	HasFileInDB *bool   `json:"hasFileInDB,omitempty"`
	DataURL     string  `json:"dataUrl,omitempty"`
}

// ArchiveRecord builds the manifest record for an archive export, pointing
// at the in-archive payload path.
func (i *Item) ArchiveRecord(path string) Record {
	return Record{
		ID:       i.ID,
		Type:     string(i.Kind),
		FileName: i.FileName,
		FileType: i.FileType,
		Date:     i.CapturedAt.UTC().Format(time.RFC3339),
		Caption:  i.Caption,
		Location: i.Location,
		Path:     path,
	}
}

// LocalRecord builds the record stored in the local save. Image payloads
// live in the blob store; hasBlob reports whether the write succeeded.
func (i *Item) LocalRecord(hasBlob bool) Record {
	r := Record{
		ID:       i.ID,
		Type:     string(i.Kind),
		FileName: i.FileName,
		FileType: i.FileType,
		Date:     i.CapturedAt.UTC().Format(time.RFC3339),
		Caption:  i.Caption,
		Location: i.Location,
	}
	if i.Kind == KindText {
		body := i.TextContent
		r.TextContent = &body
	} else {
		r.HasFileInDB = &hasBlob
	}
	return r
}

// ToItem converts a record back into an item, minus any binary payload
// (the codec attaches that from whichever store applies). Records without
// an id — all legacy generations — get a freshly generated ULID.
func (r *Record) ToItem() (*Item, error) {
	kind := Kind(r.Type)
	if kind != KindImage && kind != KindText {
		return nil, errors.NewBadFormat("unknown item type: " + r.Type)
	}

	id := r.ID
	if id == "" {
		id = NewID()
	}

	it := &Item{
		ID:         id,
		Kind:       kind,
		FileName:   r.FileName,
		FileType:   r.FileType,
		Caption:    r.Caption,
		Location:   r.Location,
		CapturedAt: parseDate(r.Date),
	}
	if it.Location == "" {
		it.Location = LocationUnknown
	}
	if kind == KindText && r.TextContent != nil {
		it.TextContent = *r.TextContent
	}
	if kind == KindImage && r.HasFileInDB != nil && *r.HasFileInDB {
		it.HasBlob = true
	}
	return it, nil
}

// parseDate accepts the ISO-8601 timestamps all save generations write.
// An unparseable date degrades to the current time rather than failing
// the record.
func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
