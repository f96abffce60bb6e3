package save

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/item"
)

// decompress attempts the reversible compression step legacy saves used:
// base64 text wrapping a deflate stream. Anything that fails either layer
// reports ok=false so the caller can fall back to plain JSON.
func decompress(data []byte) ([]byte, bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, false
	}
	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil || len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Compress produces the legacy wire form: deflate then base64. Kept for
// round-trip tests; the codec only writes current-generation saves.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return []byte(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// DecodeDataURL unpacks a self-describing inline payload of the form
// "data:<mime>;base64,<payload>" into its media type and raw bytes.
func DecodeDataURL(dataURL string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errors.NewBadFormat("payload is not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.NewBadFormat("data URL has no payload")
	}
	mime, _, _ = strings.Cut(meta, ";")
	if !strings.HasSuffix(meta, ";base64") {
		return mime, []byte(payload), nil
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.NewBadFormat("data URL payload is not valid base64")
	}
	return mime, data, nil
}

// EncodeDataURL builds the inline form legacy saves carried, for tests and
// for fixtures.
func EncodeDataURL(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// decodeLegacy reconstructs items from either legacy generation. Inline
// image payloads that fail to decode degrade to a payload-less item plus a
// diagnostic; they never abort the import.
func decodeLegacy(data []byte, compressed bool) (*Decoded, error) {
	if compressed {
		plain, ok := decompress(data)
		if !ok {
			return nil, errors.NewBadFormat("compressed save did not decompress")
		}
		data = plain
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewBadFormat("save is not valid JSON")
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
		if it.Kind == item.KindImage && r.DataURL != "" {
			mime, payload, err := DecodeDataURL(r.DataURL)
			if err != nil {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					FileName: it.FileName,
					Message:  "inline payload unreadable: " + err.Error(),
				})
			} else {
				it.Data = payload
				if it.FileType == "" {
					it.FileType = mime
				}
			}
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}
