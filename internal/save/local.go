package save

import (
	"encoding/json"

	"github.com/BenWCode/MuseApp/internal/blob"
	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/item"
	"github.com/BenWCode/MuseApp/internal/settings"
)

// LocalSaveOutput reports what a local save stored.
type LocalSaveOutput struct {
	Saved       int          `json:"saved"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// writeLocal persists image payloads into the blob store and the manifest
// record under the well-known save key. A blob write failing marks just
// that item as payload-less; the save itself continues.
func writeLocal(store *blob.Store, items []*item.Item, snap settings.Snapshot) (*LocalSaveOutput, error) {
	settingsJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	out := &LocalSaveOutput{}
	m := Manifest{Settings: settingsJSON, Version: FormatVersion}

	for _, it := range items {
		if it.Kind == item.KindText {
			m.MuseumItems = append(m.MuseumItems, it.LocalRecord(false))
			out.Saved++
			continue
		}

		payload := it.Data
		if len(payload) == 0 && it.HasBlob {
			// Already stored from an earlier save; keep the reference.
			if _, err := store.Get(it.ID); err == nil {
				m.MuseumItems = append(m.MuseumItems, it.LocalRecord(true))
				out.Saved++
				continue
			}
		}

		hasBlob := false
		if len(payload) > 0 {
			if err := store.Put(it.ID, it.FileName, it.FileType, payload); err != nil {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					FileName: it.FileName,
					Message:  "payload not stored: " + err.Error(),
				})
			} else {
				hasBlob = true
			}
		} else {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				FileName: it.FileName,
				Message:  "no payload available to store",
			})
		}
		m.MuseumItems = append(m.MuseumItems, it.LocalRecord(hasBlob))
		out.Saved++
	}

	record, err := json.Marshal(m)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := store.PutSave(blob.SaveKey, string(record)); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeLocal reconstructs items from the local save record. Image items
// reference the blob store by id; a reference whose blob has gone missing
// keeps the item payload-less with a diagnostic instead of dropping it.
func decodeLocal(record string, store *blob.Store) (*Decoded, error) {
	var m Manifest
	if err := json.Unmarshal([]byte(record), &m); err != nil {
		return nil, errors.NewBadFormat("local save record is not valid JSON")
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

		if it.Kind == item.KindImage && it.HasBlob && store != nil {
			if _, err := store.Get(it.ID); err != nil {
				it.HasBlob = false
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					FileName: it.FileName,
					Message:  "stored payload missing for id " + it.ID,
				})
			}
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}
