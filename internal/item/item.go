package item

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind distinguishes the two exhibit item types.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// Location sentinels. Both are suppressed on rendered info panels.
const (
	// LocationUnknown marks items whose metadata carried no GPS position.
	LocationUnknown = "N/A"
	// LocationDefault is the placeholder assigned before extraction runs.
	LocationDefault = "The Museum"
)

// Item represents one exhibit entry in the museum.
type Item struct {
	// ID is a ULID assigned at ingestion (or at import for id-less legacy
	// records). It keys the blob store and serialized manifests.
	ID string

	// Kind is image or text; immutable after creation.
	Kind Kind

	// FileName is the original file name, or a synthesized one for text
	// entries written in the viewer.
	FileName string

	// FileType is the MIME type of the payload.
	FileType string

	// Data holds the image payload bytes when resolved in memory.
	// Empty when the payload lives in the blob store (HasBlob) or is lost.
	Data []byte

	// HasBlob indicates the image payload is stored in the blob store
	// under ID. At most one of Data / HasBlob is authoritative.
	HasBlob bool

	// TextContent is the body of a text item.
	TextContent string

	// CapturedAt orders items for display: EXIF capture date when
	// available, otherwise file modification time or entry creation time.
	CapturedAt time.Time

	// Caption is the user-supplied caption, possibly empty.
	Caption string

	// Location is a human-readable position string; never parsed back.
	Location string
}

// NewID generates a new ULID for an item.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Clone returns a deep copy of the item. The repository stores clones so
// callers cannot mutate repository state through retained references.
func (i *Item) Clone() *Item {
	c := *i
	if i.Data != nil {
		c.Data = make([]byte, len(i.Data))
		copy(c.Data, i.Data)
	}
	return &c
}

// PayloadResolved reports whether an image item's bytes are available in
// memory. Text items always resolve.
func (i *Item) PayloadResolved() bool {
	if i.Kind == KindText {
		return true
	}
	return len(i.Data) > 0
}
