// Package gallery owns the in-memory exhibit collection and its spatial
// layout. The repository keeps items in insertion order; display order is
// recomputed from capture timestamps on every refresh and never written
// back.
package gallery

import (
	"sync"

	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/item"
	"github.com/BenWCode/MuseApp/internal/scene"
)

// Resolver supplies image payload bytes for items whose data lives in the
// blob store. The blob store satisfies it; tests may pass nil.
type Resolver interface {
	Resolve(id string) ([]byte, error)
}

// placed pairs an item's render handle with its horizontal offset, so a
// depth change can reposition without a relayout.
type placed struct {
	handle scene.Handle
	x      float64
}

// Gallery is the item repository plus the layout engine state.
type Gallery struct {
	mu       sync.Mutex
	builder  scene.Builder
	resolver Resolver

	items []*item.Item
	arena map[string]placed // render handles keyed by item id

	spacing     float64
	minSpan     float64
	wallZ       float64
	depthOffset float64
	span        float64

	ingesting int
	importing bool
}

// New creates an empty gallery. resolver may be nil when no blob store is
// attached; blob-backed payloads then render as placeholders.
func New(builder scene.Builder, resolver Resolver, spacing, minSpan float64) *Gallery {
	return &Gallery{
		builder:     builder,
		resolver:    resolver,
		arena:       make(map[string]placed),
		spacing:     spacing,
		minSpan:     minSpan,
		wallZ:       defaultWallZ,
		depthOffset: defaultDepthOffset,
	}
}

// Add appends an item to the collection. The item is cloned so the caller
// cannot mutate repository state afterwards. No relayout happens here;
// callers batch additions and refresh once.
func (g *Gallery) Add(it *item.Item) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append(g.items, it.Clone())
}

// Items returns a snapshot copy of the collection in insertion order.
func (g *Gallery) Items() []*item.Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*item.Item, len(g.items))
	for i, it := range g.items {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of items.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// Clear disposes every render handle and empties the collection.
// Idempotent and safe on an empty gallery.
func (g *Gallery) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

func (g *Gallery) clearLocked() {
	for _, p := range g.arena {
		g.builder.Dispose(p.handle)
	}
	g.arena = make(map[string]placed)
	g.items = nil
}

// SetDepthOffset applies a uniform display depth to all items,
// repositioning existing handles without a relayout.
func (g *Gallery) SetDepthOffset(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.depthOffset = v
	for _, p := range g.arena {
		g.builder.Place(p.handle, p.x, 0, g.wallZ+g.depthOffset)
	}
}

// DepthOffset returns the current depth offset.
func (g *Gallery) DepthOffset() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depthOffset
}

// UpdateView adopts layout parameters carried by a settings snapshot.
// Takes effect on the next Refresh, except depth which applies immediately.
func (g *Gallery) UpdateView(minSpan, wallZ, depthOffset float64) {
	g.mu.Lock()
	g.minSpan = minSpan
	g.wallZ = wallZ
	g.mu.Unlock()
	g.SetDepthOffset(depthOffset)
}

// Span returns the room span requested by the last refresh.
func (g *Gallery) Span() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.span
}

// HandleCount returns the number of live item render handles.
func (g *Gallery) HandleCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.arena)
}

// BeginIngest marks an ingestion batch as in flight. It fails if an import
// is running: a load clears and repopulates the collection and must not
// interleave with additions.
func (g *Gallery) BeginIngest() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.importing {
		return errors.NewBusy("a load is in progress; retry when it finishes")
	}
	g.ingesting++
	return nil
}

// EndIngest ends an ingestion batch.
func (g *Gallery) EndIngest() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ingesting > 0 {
		g.ingesting--
	}
}

// BeginImport claims the gallery for an exclusive clear-and-repopulate.
// It fails while ingestion batches are in flight rather than queueing.
func (g *Gallery) BeginImport() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.importing {
		return errors.NewBusy("another load is already in progress")
	}
	if g.ingesting > 0 {
		return errors.NewBusy("file ingestion is in flight; retry when it finishes")
	}
	g.importing = true
	return nil
}

// EndImport releases the import claim.
func (g *Gallery) EndImport() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.importing = false
}
