package scene

import (
	"context"
	"sync"

	"github.com/h2non/filetype"

	"github.com/BenWCode/MuseApp/internal/errors"
)

// Headless is an in-memory Builder used wherever the module runs without a
// real engine: tests, the CLI, and the web viewer. It validates image
// payloads by magic bytes and tracks live handles so leak properties can be
// asserted.
type Headless struct {
	mu      sync.Mutex
	nextID  int
	live    map[int]*node
	span    float64
	resizes int
}

type node struct {
	owner    *Headless
	id       int
	kind     string // "text", "image", "group"
	text     string
	bytes    int
	children []*node
	x, y, z  float64
	disposed bool
}

// Disposed implements Handle.
func (n *node) Disposed() bool {
	n.owner.mu.Lock()
	defer n.owner.mu.Unlock()
	return n.disposed
}

// NewHeadless creates an empty headless scene.
func NewHeadless() *Headless {
	return &Headless{live: make(map[int]*node)}
}

func (s *Headless) alloc(kind string) *node {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n := &node{owner: s, id: s.nextID, kind: kind}
	s.live[n.id] = n
	return n
}

// ResizeRoom records the requested span.
func (s *Headless) ResizeRoom(span float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.span = span
	s.resizes++
}

// ResizeCalls returns how many times the room was resized. Every layout
// refresh resizes exactly once, so this counts refreshes.
func (s *Headless) ResizeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resizes
}

// RoomSpan returns the last requested room span.
func (s *Headless) RoomSpan() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.span
}

// CreateTextPanel implements Builder.
func (s *Headless) CreateTextPanel(text string, width, height float64) Handle {
	n := s.alloc("text")
	n.text = text
	return n
}

// CreateImagePanel implements Builder. The payload must look like an image
// by magic bytes; anything else fails the way a real texture decode would.
func (s *Headless) CreateImagePanel(_ context.Context, data []byte) (Handle, error) {
	if !filetype.IsImage(data) {
		return nil, errors.NewInternal(nil)
	}
	n := s.alloc("image")
	n.bytes = len(data)
	return n, nil
}

// Group implements Builder.
func (s *Headless) Group(children ...Handle) Handle {
	n := s.alloc("group")
	for _, c := range children {
		if cn, ok := c.(*node); ok && cn != nil {
			n.children = append(n.children, cn)
		}
	}
	return n
}

// Place implements Builder.
func (s *Headless) Place(h Handle, x, y, z float64) {
	n, ok := h.(*node)
	if !ok || n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n.x, n.y, n.z = x, y, z
}

// Dispose implements Builder, releasing the node and its children.
func (s *Headless) Dispose(h Handle) {
	n, ok := h.(*node)
	if !ok || n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposeLocked(n)
}

func (s *Headless) disposeLocked(n *node) {
	if n.disposed {
		return
	}
	n.disposed = true
	delete(s.live, n.id)
	for _, c := range n.children {
		s.disposeLocked(c)
	}
}

// LiveHandles returns the number of undisposed nodes, grouped children
// included. Zero after every handle is released.
func (s *Headless) LiveHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// PositionOf returns the placement of a handle, for tests.
func (s *Headless) PositionOf(h Handle) (x, y, z float64, ok bool) {
	n, isNode := h.(*node)
	if !isNode || n == nil {
		return 0, 0, 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return n.x, n.y, n.z, true
}
