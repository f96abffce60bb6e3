package scene

import (
	"context"
	"testing"
)

// pngHeader is enough magic for filetype to classify the payload as an image.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestCreateImagePanel_RejectsNonImage(t *testing.T) {
	s := NewHeadless()
	if _, err := s.CreateImagePanel(context.Background(), []byte("not an image")); err == nil {
		t.Error("non-image payload should fail to decode")
	}
	if _, err := s.CreateImagePanel(context.Background(), pngHeader); err != nil {
		t.Errorf("png payload should decode: %v", err)
	}
}

func TestDispose_RecursesThroughGroups(t *testing.T) {
	s := NewHeadless()
	main := s.CreateTextPanel("body", 3.5, 2.5)
	info := s.CreateTextPanel("info", 3.0, 0.5)
	group := s.Group(main, info)

	if s.LiveHandles() != 3 {
		t.Fatalf("LiveHandles = %d, want 3", s.LiveHandles())
	}

	s.Dispose(group)
	if s.LiveHandles() != 0 {
		t.Errorf("LiveHandles = %d, want 0 after group dispose", s.LiveHandles())
	}
	if !main.Disposed() || !info.Disposed() {
		t.Error("children should be disposed with the group")
	}

	// Double dispose and nil dispose are no-ops.
	s.Dispose(group)
	s.Dispose(nil)
}

func TestPlace(t *testing.T) {
	s := NewHeadless()
	h := s.CreateTextPanel("x", 1, 1)
	s.Place(h, -6, 0, -4.99)

	x, _, z, ok := s.PositionOf(h)
	if !ok || x != -6 || z != -4.99 {
		t.Errorf("PositionOf = %v %v %v", x, z, ok)
	}
}
