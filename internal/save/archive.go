package save

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/item"
	"github.com/BenWCode/MuseApp/internal/settings"
)

const manifestName = "manifest.json"

// archivePath derives the in-archive payload path for an item. The id
// prefix keeps paths unique even when file names collide.
func archivePath(it *item.Item) string {
	dir := "images"
	if it.Kind == item.KindText {
		dir = "texts"
	}
	return fmt.Sprintf("%s/%s_%s", dir, it.ID, it.FileName)
}

// WriteArchive streams a full export to w: one payload file per item plus
// the manifest. Image items whose payload cannot be resolved are exported
// with an empty payload file rather than dropped, so the manifest stays a
// complete inventory.
func WriteArchive(w io.Writer, items []*item.Item, snap settings.Snapshot) error {
	settingsJSON, err := json.Marshal(snap)
	if err != nil {
		return errors.NewInternal(err)
	}

	zw := zip.NewWriter(w)
	m := Manifest{Settings: settingsJSON, Version: FormatVersion}

	for _, it := range items {
		path := archivePath(it)
		f, err := zw.Create(path)
		if err != nil {
			return errors.NewInternal(err)
		}
		payload := it.Data
		if it.Kind == item.KindText {
			payload = []byte(it.TextContent)
		}
		if _, err := f.Write(payload); err != nil {
			return errors.NewInternal(err)
		}
		m.MuseumItems = append(m.MuseumItems, it.ArchiveRecord(path))
	}

	mf, err := zw.Create(manifestName)
	if err != nil {
		return errors.NewInternal(err)
	}
	enc := json.NewEncoder(mf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return errors.NewInternal(err)
	}
	return zw.Close()
}

// WriteArchiveFile exports to a file path, writing a temp file in the
// destination directory and renaming into place so readers never see a
// half-written archive.
func WriteArchiveFile(path string, items []*item.Item, snap settings.Snapshot) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".museum-export-*.zip")
	if err != nil {
		return errors.NewStorage(err)
	}
	tmpName := tmp.Name()

	if err := WriteArchive(tmp, items, snap); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewStorage(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewStorage(err)
	}
	return nil
}

// decodeArchive reconstructs items from archive bytes. A missing manifest
// is fatal; a manifest record whose payload path is absent from the archive
// skips that one item with a diagnostic.
func decodeArchive(data []byte) (*Decoded, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewBadFormat("archive is unreadable")
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	mf, ok := files[manifestName]
	if !ok {
		return nil, errors.NewBadFormat("archive has no manifest")
	}
	manifestBytes, err := readZipFile(mf)
	if err != nil {
		return nil, errors.NewBadFormat("archive manifest is unreadable")
	}
	var m Manifest
	if err := json.Unmarshal(manifestBytes, &m); err != nil {
		return nil, errors.NewBadFormat("archive manifest is not valid JSON")
	}

	out := &Decoded{Settings: m.Settings}
	for _, r := range m.MuseumItems {
		it, err := r.ToItem()
		if err != nil {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				FileName: r.FileName,
				Message:  err.Error(),
			})
			continue
		}

		pf, ok := files[r.Path]
		if !ok {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				FileName: it.FileName,
				Message:  "payload path missing from archive: " + r.Path,
			})
			continue
		}
		payload, err := readZipFile(pf)
		if err != nil {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				FileName: it.FileName,
				Message:  "payload unreadable: " + r.Path,
			})
			continue
		}

		if it.Kind == item.KindText {
			it.TextContent = string(payload)
		} else {
			it.Data = payload
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
