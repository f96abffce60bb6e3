package save

import (
	"bytes"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	plain := []byte(`{"settings":{},"museumItems":[{"type":"text"}]}`)
	wire, err := Compress(plain)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	back, ok := decompress(wire)
	if !ok {
		t.Fatal("decompress rejected its own output")
	}
	if !bytes.Equal(back, plain) {
		t.Errorf("round trip mismatch: %q", back)
	}
}

func TestDecompress_RejectsGarbage(t *testing.T) {
	if _, ok := decompress([]byte("plain text, not base64+deflate")); ok {
		t.Error("garbage must not decompress")
	}
	// Valid base64 but not a deflate stream.
	if _, ok := decompress([]byte("aGVsbG8gd29ybGQ=")); ok {
		t.Error("non-deflate base64 must not decompress")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	url := EncodeDataURL("image/png", payload)

	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q", mime)
	}
	if !bytes.Equal(data, payload) {
		t.Error("payload bytes changed in round trip")
	}
}

func TestDecodeDataURL_Malformed(t *testing.T) {
	for _, url := range []string{
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:image/png;base64,!!!not-base64!!!",
	} {
		if _, _, err := DecodeDataURL(url); err == nil {
			t.Errorf("DecodeDataURL(%q) should fail", url)
		}
	}
}

func TestDecodeLegacy_FreshIDsAndPayloads(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	data := []byte(`{
		"settings": {"playerSpeed": 150},
		"museumItems": [
			{"type":"image","fileName":"old.png","fileType":"image/png","date":"2019-06-01T10:00:00.000Z","caption":"from the attic","location":"","dataUrl":"` + EncodeDataURL("image/png", payload) + `"},
			{"type":"text","fileName":"note.txt","fileType":"text/plain","date":"2019-06-02T10:00:00.000Z","caption":"","location":"","textContent":"an old note"}
		]
	}`)

	decoded, err := decodeLegacy(data, false)
	if err != nil {
		t.Fatalf("decodeLegacy failed: %v", err)
	}
	if len(decoded.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(decoded.Items))
	}

	img, txt := decoded.Items[0], decoded.Items[1]
	if !bytes.Equal(img.Data, payload) {
		t.Error("inline payload did not decode to the original bytes")
	}
	if txt.TextContent != "an old note" {
		t.Errorf("TextContent = %q", txt.TextContent)
	}

	// Legacy records carry no ids; both get fresh unique ULIDs.
	if len(img.ID) != 26 || len(txt.ID) != 26 {
		t.Errorf("ids = %q / %q, want generated ULIDs", img.ID, txt.ID)
	}
	if img.ID == txt.ID {
		t.Error("generated ids must be unique")
	}
	if img.Location != "N/A" {
		t.Errorf("empty location = %q, want sentinel", img.Location)
	}
}

func TestDecodeLegacy_MalformedInlinePayloadDegrades(t *testing.T) {
	data := []byte(`{"museumItems":[
		{"type":"image","fileName":"bad.png","fileType":"image/png","date":"2019-01-01T00:00:00.000Z","caption":"","location":"","dataUrl":"data:image/png;base64,%%%"}
	]}`)

	decoded, err := decodeLegacy(data, false)
	if err != nil {
		t.Fatalf("decodeLegacy failed: %v", err)
	}
	if len(decoded.Items) != 1 {
		t.Fatalf("item must be kept, got %d", len(decoded.Items))
	}
	if decoded.Items[0].Data != nil {
		t.Error("malformed payload must stay empty")
	}
	if len(decoded.Diagnostics) != 1 {
		t.Errorf("diagnostics = %+v, want one", decoded.Diagnostics)
	}
}

func TestDecodeLegacy_Compressed(t *testing.T) {
	plain := []byte(`{"museumItems":[{"type":"text","fileName":"n.txt","fileType":"text/plain","date":"2020-01-01T00:00:00.000Z","caption":"","location":"","textContent":"zipped"}]}`)
	wire, err := Compress(plain)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	decoded, err := decodeLegacy(wire, true)
	if err != nil {
		t.Fatalf("decodeLegacy failed: %v", err)
	}
	if len(decoded.Items) != 1 || decoded.Items[0].TextContent != "zipped" {
		t.Errorf("decoded = %+v", decoded.Items)
	}
}
