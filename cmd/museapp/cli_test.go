package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BenWCode/MuseApp/internal/item"
)

func setupApp(t *testing.T) *app {
	t.Helper()
	a, err := newApp(t.TempDir())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestCLI_WriteThenItems(t *testing.T) {
	a := setupApp(t)
	cliApp := newCLIApp(a)

	if err := cliApp.Run([]string{"museapp", "write", "--text", "a thought for the wall"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	items := a.gallery.Items()
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Kind != item.KindText || items[0].TextContent != "a thought for the wall" {
		t.Errorf("item = %+v", items[0])
	}
	if !strings.HasPrefix(items[0].FileName, "Written Entry - ") {
		t.Errorf("FileName = %q", items[0].FileName)
	}

	if err := cliApp.Run([]string{"museapp", "items"}); err != nil {
		t.Errorf("items: %v", err)
	}
}

func TestCLI_IngestFromDisk(t *testing.T) {
	a := setupApp(t)
	cliApp := newCLIApp(a)

	dir := t.TempDir()
	png := filepath.Join(dir, "shot.png")
	txt := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(png, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(txt, []byte("from disk"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := cliApp.Run([]string{"museapp", "ingest", png, txt}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if a.gallery.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.gallery.Len())
	}
	if a.gallery.HandleCount() != 2 {
		t.Errorf("HandleCount = %d, want 2 (layout refreshed)", a.gallery.HandleCount())
	}
}

func TestCLI_ExportImportRoundTrip(t *testing.T) {
	a := setupApp(t)
	cliApp := newCLIApp(a)

	if err := cliApp.Run([]string{"museapp", "write", "--text", "survives the trip"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	path := filepath.Join(t.TempDir(), "museum.zip")
	if err := cliApp.Run([]string{"museapp", "export", "--path", path}); err != nil {
		t.Fatalf("export: %v", err)
	}

	a.gallery.Clear()
	if err := cliApp.Run([]string{"museapp", "import", "--path", path}); err != nil {
		t.Fatalf("import: %v", err)
	}

	items := a.gallery.Items()
	if len(items) != 1 || items[0].TextContent != "survives the trip" {
		t.Errorf("items after round trip = %+v", items)
	}
}

func TestCLI_CollectionSurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()

	// First invocation: add an entry and exit.
	a1, err := newApp(dir)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if err := newCLIApp(a1).Run([]string{"museapp", "write", "--text", "still here tomorrow"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Second invocation over the same base dir starts from the saved state.
	a2, err := newApp(dir)
	if err != nil {
		t.Fatalf("newApp (restart): %v", err)
	}
	defer a2.Close()

	items := a2.gallery.Items()
	if len(items) != 1 {
		t.Fatalf("got %d items after restart, want 1", len(items))
	}
	if items[0].TextContent != "still here tomorrow" {
		t.Errorf("TextContent = %q", items[0].TextContent)
	}

	// And further mutations stack on the restored collection.
	if err := newCLIApp(a2).Run([]string{"museapp", "write", "--text", "second entry"}); err != nil {
		t.Fatalf("write (restart): %v", err)
	}
	if a2.gallery.Len() != 2 {
		t.Errorf("Len = %d, want 2", a2.gallery.Len())
	}
}

func TestCLI_IngestPersistsImagePayload(t *testing.T) {
	dir := t.TempDir()
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	a1, err := newApp(dir)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	src := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(src, png, 0600); err != nil {
		t.Fatal(err)
	}
	if err := newCLIApp(a1).Run([]string{"museapp", "ingest", src}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	a1.Close()

	a2, err := newApp(dir)
	if err != nil {
		t.Fatalf("newApp (restart): %v", err)
	}
	defer a2.Close()

	items := a2.gallery.Items()
	if len(items) != 1 || !items[0].HasBlob {
		t.Fatalf("items after restart = %+v, want one blob-backed image", items)
	}
	data, err := a2.store.Resolve(items[0].ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(data) != len(png) {
		t.Errorf("payload = %d bytes, want %d", len(data), len(png))
	}
}

func TestCLI_SaveLoadLocal(t *testing.T) {
	a := setupApp(t)
	cliApp := newCLIApp(a)

	if err := cliApp.Run([]string{"museapp", "write", "--text", "kept locally"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := cliApp.Run([]string{"museapp", "save-local"}); err != nil {
		t.Fatalf("save-local: %v", err)
	}

	a.gallery.Clear()
	if err := cliApp.Run([]string{"museapp", "load-local"}); err != nil {
		t.Fatalf("load-local: %v", err)
	}
	if a.gallery.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.gallery.Len())
	}
}
