package gallery

import (
	"context"
	"testing"
	"time"

	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/item"
	"github.com/BenWCode/MuseApp/internal/scene"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func newTestGallery() (*Gallery, *scene.Headless) {
	builder := scene.NewHeadless()
	return New(builder, nil, 6.0, 10.0), builder
}

func imageItem(name string, capturedAt time.Time) *item.Item {
	return &item.Item{
		ID:         item.NewID(),
		Kind:       item.KindImage,
		FileName:   name,
		FileType:   "image/png",
		Data:       pngHeader,
		CapturedAt: capturedAt,
		Location:   item.LocationUnknown,
	}
}

func textItem(name, body string, capturedAt time.Time) *item.Item {
	return &item.Item{
		ID:          item.NewID(),
		Kind:        item.KindText,
		FileName:    name,
		FileType:    "text/plain",
		TextContent: body,
		CapturedAt:  capturedAt,
		Location:    item.LocationUnknown,
	}
}

func TestAdd_DefensiveCopy(t *testing.T) {
	g, _ := newTestGallery()
	it := imageItem("a.png", time.Now())
	g.Add(it)

	it.Caption = "mutated after add"
	it.Data[0] = 0

	got := g.Items()[0]
	if got.Caption != "" {
		t.Error("Add must copy the caller's item")
	}
	if got.Data[0] != 0x89 {
		t.Error("Add must copy payload bytes")
	}
}

func TestClear_DisposesAndIsIdempotent(t *testing.T) {
	g, builder := newTestGallery()
	g.Add(imageItem("a.png", time.Now()))
	g.Add(textItem("b.txt", "hello", time.Now()))
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if builder.LiveHandles() == 0 {
		t.Fatal("refresh should have created handles")
	}

	g.Clear()
	if builder.LiveHandles() != 0 {
		t.Errorf("LiveHandles = %d after Clear, want 0", builder.LiveHandles())
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", g.Len())
	}

	g.Clear() // safe on empty
}

func TestRefresh_OrderingStable(t *testing.T) {
	g, builder := newTestGallery()
	t1 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// Inserted T3, T1, T2; display order must be T1, T2, T3.
	a := imageItem("t3.png", t3)
	b := imageItem("t1.png", t1)
	c := imageItem("t2.png", t2)
	g.Add(a)
	g.Add(b)
	g.Add(c)
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	xOf := func(id string) float64 {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.arena[id].x
	}
	if !(xOf(b.ID) < xOf(c.ID) && xOf(c.ID) < xOf(a.ID)) {
		t.Errorf("display order wrong: t1@%v t2@%v t3@%v", xOf(b.ID), xOf(c.ID), xOf(a.ID))
	}

	// Offsets are centered around zero with fixed spacing.
	if xOf(b.ID) != -6.0 || xOf(c.ID) != 0.0 || xOf(a.ID) != 6.0 {
		t.Errorf("offsets = %v %v %v, want -6 0 6", xOf(b.ID), xOf(c.ID), xOf(a.ID))
	}

	// Repository order stays insertion order.
	items := g.Items()
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Error("canonical order must not be mutated by refresh")
	}
	_ = builder
}

func TestRefresh_TiesKeepInsertionOrder(t *testing.T) {
	g, _ := newTestGallery()
	same := time.Date(2021, 5, 5, 0, 0, 0, 0, time.UTC)
	first := imageItem("first.png", same)
	second := imageItem("second.png", same)
	g.Add(first)
	g.Add(second)
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !(g.arena[first.ID].x < g.arena[second.ID].x) {
		t.Error("equal timestamps must preserve insertion order")
	}
}

func TestRefresh_Idempotent_NoHandleLeak(t *testing.T) {
	g, builder := newTestGallery()
	for i := 0; i < 4; i++ {
		g.Add(textItem("entry.txt", "body", time.Now()))
	}

	var firstSpan float64
	for i := 0; i < 3; i++ {
		if err := g.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh %d failed: %v", i, err)
		}
		if i == 0 {
			firstSpan = g.Span()
		}
	}

	if g.HandleCount() != 4 {
		t.Errorf("HandleCount = %d, want 4 (one per item, not per refresh)", g.HandleCount())
	}
	if g.Span() != firstSpan {
		t.Errorf("Span changed across idempotent refreshes: %v vs %v", g.Span(), firstSpan)
	}
	// Each item: group + main panel + info panel = 3 nodes.
	if builder.LiveHandles() != 12 {
		t.Errorf("LiveHandles = %d, want 12", builder.LiveHandles())
	}
}

func TestRefresh_SpanComputation(t *testing.T) {
	g, builder := newTestGallery()

	// Empty gallery keeps the minimum span.
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if g.Span() != 10.0 {
		t.Errorf("empty span = %v, want minimum 10", g.Span())
	}

	for i := 0; i < 5; i++ {
		g.Add(textItem("e.txt", "b", time.Now()))
	}
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	// 5 items * 6 spacing + 6 = 36.
	if g.Span() != 36.0 {
		t.Errorf("span = %v, want 36", g.Span())
	}
	if builder.RoomSpan() != 36.0 {
		t.Errorf("room was resized to %v, want 36", builder.RoomSpan())
	}
}

func TestRefresh_BadImagePayloadGetsPlaceholder(t *testing.T) {
	g, _ := newTestGallery()
	bad := imageItem("broken.png", time.Now())
	bad.Data = []byte("definitely not an image")
	g.Add(bad)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if g.HandleCount() != 1 {
		t.Errorf("HandleCount = %d, want 1 (placeholder panel)", g.HandleCount())
	}
}

func TestRefresh_MissingPayloadGetsPlaceholder(t *testing.T) {
	g, _ := newTestGallery()
	lost := imageItem("lost.png", time.Now())
	lost.Data = nil
	g.Add(lost)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if g.HandleCount() != 1 {
		t.Errorf("HandleCount = %d, want 1", g.HandleCount())
	}
}

type mapResolver map[string][]byte

func (m mapResolver) Resolve(id string) ([]byte, error) {
	data, ok := m[id]
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return data, nil
}

func TestRefresh_ResolvesBlobPayload(t *testing.T) {
	builder := scene.NewHeadless()
	it := imageItem("stored.png", time.Now())
	it.Data = nil
	it.HasBlob = true

	g := New(builder, mapResolver{it.ID: pngHeader}, 6.0, 10.0)
	g.Add(it)
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if g.HandleCount() != 1 {
		t.Errorf("HandleCount = %d, want 1", g.HandleCount())
	}
}

func TestSetDepthOffset_RepositionsWithoutRelayout(t *testing.T) {
	g, builder := newTestGallery()
	it := textItem("e.txt", "b", time.Now())
	g.Add(it)
	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	before := builder.LiveHandles()
	g.SetDepthOffset(0.5)

	if builder.LiveHandles() != before {
		t.Error("depth change must not rebuild handles")
	}
	g.mu.Lock()
	h := g.arena[it.ID].handle
	g.mu.Unlock()
	_, _, z, _ := builder.PositionOf(h)
	if z != -5.0+0.5 {
		t.Errorf("z = %v, want -4.5", z)
	}
	if g.DepthOffset() != 0.5 {
		t.Errorf("DepthOffset = %v", g.DepthOffset())
	}
}

func TestImportIngestMutualExclusion(t *testing.T) {
	g, _ := newTestGallery()

	if err := g.BeginIngest(); err != nil {
		t.Fatalf("BeginIngest failed: %v", err)
	}
	if err := g.BeginImport(); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("BeginImport during ingestion = %v, want BUSY", err)
	}
	g.EndIngest()

	if err := g.BeginImport(); err != nil {
		t.Fatalf("BeginImport failed: %v", err)
	}
	if err := g.BeginIngest(); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("BeginIngest during import = %v, want BUSY", err)
	}
	if err := g.BeginImport(); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("second BeginImport = %v, want BUSY", err)
	}
	g.EndImport()

	if err := g.BeginIngest(); err != nil {
		t.Errorf("BeginIngest after import = %v", err)
	}
	g.EndIngest()
}
