package save

import (
	"context"
	"encoding/json"
	"io"

	"github.com/BenWCode/MuseApp/internal/blob"
	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/gallery"
	"github.com/BenWCode/MuseApp/internal/item"
	"github.com/BenWCode/MuseApp/internal/settings"
)

// Diagnostic records one item that a save or load could not fully handle.
type Diagnostic struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

// Decoded is the format-independent result of decoding any save input.
type Decoded struct {
	Settings    json.RawMessage
	Items       []*item.Item
	Diagnostics []Diagnostic
}

// ImportOutput reports the result of a completed import.
type ImportOutput struct {
	Format      string       `json:"format"`
	Imported    int          `json:"imported"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Codec ties the persistence formats to the live collaborators. One codec
// serves the whole application; each operation claims the gallery for its
// duration.
type Codec struct {
	Gallery  *gallery.Gallery
	Settings settings.Store
	Blobs    *blob.Store
}

// ExportArchive writes the current collection and settings to w as an
// archive download.
func (c *Codec) ExportArchive(w io.Writer) error {
	return WriteArchive(w, c.resolvedItems(), c.Settings.Snapshot())
}

// ExportArchiveFile writes the archive export to a file path.
func (c *Codec) ExportArchiveFile(path string) error {
	return WriteArchiveFile(path, c.resolvedItems(), c.Settings.Snapshot())
}

// resolvedItems snapshots the collection with blob-backed image payloads
// materialized, so archives carry the bytes and not a dangling reference.
// A payload that fails to resolve exports empty; the manifest record stays.
func (c *Codec) resolvedItems() []*item.Item {
	items := c.Gallery.Items()
	if c.Blobs == nil {
		return items
	}
	for _, it := range items {
		if it.Kind == item.KindImage && len(it.Data) == 0 && it.HasBlob {
			if data, err := c.Blobs.Resolve(it.ID); err == nil {
				it.Data = data
			}
		}
	}
	return items
}

// SaveLocal stores the current collection into the blob store plus the
// single-key save record.
func (c *Codec) SaveLocal(ctx context.Context) (*LocalSaveOutput, error) {
	_ = ctx
	return writeLocal(c.Blobs, c.Gallery.Items(), c.Settings.Snapshot())
}

// Import classifies raw save bytes and replaces the collection with their
// contents. Unknown input is rejected before any state is touched.
func (c *Codec) Import(ctx context.Context, data []byte) (*ImportOutput, error) {
	format := Detect(data)

	var decoded *Decoded
	var err error
	switch format {
	case FormatArchive:
		decoded, err = decodeArchive(data)
	case FormatLocal:
		decoded, err = decodeLocal(string(data), c.Blobs)
	case FormatLegacyPlain:
		decoded, err = decodeLegacy(data, false)
	case FormatLegacyCompressed:
		decoded, err = decodeLegacy(data, true)
	default:
		return nil, errors.NewBadFormat("unrecognized save format")
	}
	if err != nil {
		return nil, err
	}
	return c.apply(ctx, format, decoded)
}

// LoadLocal replaces the collection with the contents of the local save
// record. No record stored yet surfaces as not found.
func (c *Codec) LoadLocal(ctx context.Context) (*ImportOutput, error) {
	record, err := c.Blobs.GetSave(blob.SaveKey)
	if err != nil {
		return nil, err
	}
	decoded, err := decodeLocal(record, c.Blobs)
	if err != nil {
		return nil, err
	}
	return c.apply(ctx, FormatLocal, decoded)
}

// apply is the import sequence every format shares: claim the gallery,
// clear it, apply the carried settings, add the reconstructed items, then
// refresh the layout exactly once. A failure after the clear leaves a
// consistent empty collection, never a half-populated one.
func (c *Codec) apply(ctx context.Context, format Format, decoded *Decoded) (*ImportOutput, error) {
	if err := c.Gallery.BeginImport(); err != nil {
		return nil, err
	}
	defer c.Gallery.EndImport()

	c.Gallery.Clear()

	snap := settings.FromJSON(decoded.Settings)
	if err := c.Settings.Apply(ctx, snap); err != nil {
		c.renotifyEmpty()
		return nil, err
	}
	c.Gallery.UpdateView(snap.MinGalleryLength, snap.GalleryWallZ, snap.ImageZOffset)

	for _, it := range decoded.Items {
		c.Gallery.Add(it)
	}
	if err := c.Gallery.Refresh(ctx); err != nil {
		c.Gallery.Clear()
		c.renotifyEmpty()
		return nil, err
	}

	return &ImportOutput{
		Format:      format.String(),
		Imported:    len(decoded.Items),
		Diagnostics: decoded.Diagnostics,
	}, nil
}

// renotifyEmpty pushes one more layout refresh after a failed import so the
// room geometry reflects the cleared collection. The original context may
// already be cancelled; the refresh of an empty collection does not block.
func (c *Codec) renotifyEmpty() {
	_ = c.Gallery.Refresh(context.Background())
}
