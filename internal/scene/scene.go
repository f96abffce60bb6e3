// Package scene defines the contracts the museum core consumes from the
// external 3D engine. The engine itself (rendering, materials, cameras)
// lives outside this module; the core only creates, places, groups, and
// disposes opaque handles.
package scene

import "context"

// Handle is an ownership-exclusive reference to engine-side scene content
// for one item: geometry plus textures, possibly grouped. A handle is owned
// by exactly one arena slot and must be passed to Builder.Dispose before a
// replacement is created for the same item.
type Handle interface {
	// Disposed reports whether the handle's resources have been released.
	Disposed() bool
}

// Builder is the scene/layout collaborator.
type Builder interface {
	// ResizeRoom adjusts the surrounding room geometry to the given span.
	ResizeRoom(span float64)

	// CreateTextPanel rasterizes text onto a panel of the given dimensions.
	// It never fails; empty text is the caller's problem.
	CreateTextPanel(text string, width, height float64) Handle

	// CreateImagePanel decodes an image payload into a textured panel.
	// Decode failures are returned to the caller, which substitutes a
	// placeholder text panel.
	CreateImagePanel(ctx context.Context, data []byte) (Handle, error)

	// Group assembles child handles into one owned subtree. Disposing the
	// group disposes every child.
	Group(children ...Handle) Handle

	// Place positions a handle in room coordinates.
	Place(h Handle, x, y, z float64)

	// Dispose releases all resources owned by the handle, recursively
	// through grouped children. A nil handle is a no-op; disposing twice
	// is safe.
	Dispose(h Handle)
}
