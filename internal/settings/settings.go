package settings

import (
	"context"
	"encoding/json"
	"sync"
)

// Snapshot is the full settings state of the viewer. The core carries it
// through serialization round-trips without interpreting most fields; only
// ImageZOffset and MinGalleryLength feed back into layout. JSON field names
// match the save files written by every format generation.
type Snapshot struct {
	PlayerSpeed              float64 `json:"playerSpeed"`
	PlayerEyeLevel           float64 `json:"playerEyeLevel"`
	DirectionalLightStrength float64 `json:"directionalLightStrength"`
	AmbientLightColor        string  `json:"ambientLightColor"`
	AmbientLightStrength     float64 `json:"ambientLightStrength"`
	FogNear                  float64 `json:"fogNear"`
	FogFar                   float64 `json:"fogFar"`
	ImageZOffset             float64 `json:"imageZoffset"`
	ShadowsEnabled           bool    `json:"shadowsEnabled"`
	WallColor                string  `json:"wallColor"`
	WallRoughness            float64 `json:"wallRoughness"`
	WallMetalness            float64 `json:"wallMetalness"`
	CeilingColor             string  `json:"ceilingColor"`
	CeilingRoughness         float64 `json:"ceilingRoughness"`
	CeilingMetalness         float64 `json:"ceilingMetalness"`
	FloorColor               string  `json:"floorColor"`
	FloorRoughness           float64 `json:"floorRoughness"`
	FloorMetalness           float64 `json:"floorMetalness"`
	WallHeight               float64 `json:"wallHeight"`
	WallDepth                float64 `json:"wallDepth"`
	GalleryWallZ             float64 `json:"galleryWallZ"`
	MinGalleryLength         float64 `json:"minGalleryLength"`
}

// Defaults returns the snapshot a fresh museum starts with.
func Defaults() Snapshot {
	return Snapshot{
		PlayerSpeed:              200.0,
		PlayerEyeLevel:           1.7,
		DirectionalLightStrength: 2.5,
		AmbientLightColor:        "#ffffff",
		AmbientLightStrength:     1.0,
		FogNear:                  45,
		FogFar:                   187,
		ImageZOffset:             0.01,
		ShadowsEnabled:           true,
		WallColor:                "#998877",
		WallRoughness:            0.8,
		WallMetalness:            0.2,
		CeilingColor:             "#aaaaaa",
		CeilingRoughness:         0.8,
		CeilingMetalness:         0.2,
		FloorColor:               "#806040",
		FloorRoughness:           0.8,
		FloorMetalness:           0.2,
		WallHeight:               5,
		WallDepth:                0.2,
		GalleryWallZ:             -5,
		MinGalleryLength:         10,
	}
}

// FromJSON decodes a snapshot carried by a save. Fields absent from the
// save (older generations predate several settings) keep their defaults.
// A nil or empty raw value yields the defaults outright.
func FromJSON(raw json.RawMessage) Snapshot {
	snap := Defaults()
	if len(raw) == 0 {
		return snap
	}
	// Best effort: a malformed settings object degrades to defaults,
	// it never fails the surrounding load.
	_ = json.Unmarshal(raw, &snap)
	return snap
}

// Store is the settings collaborator consumed by the persistence codec.
type Store interface {
	// Snapshot returns the current settings state.
	Snapshot() Snapshot
	// Apply replaces the settings state, propagating to the viewer.
	Apply(ctx context.Context, snap Snapshot) error
}

// MemoryStore is an in-process settings store. An optional OnApply hook
// lets the application root push applied snapshots into the scene and
// layout collaborators.
type MemoryStore struct {
	mu      sync.Mutex
	snap    Snapshot
	OnApply func(ctx context.Context, snap Snapshot) error
}

// NewMemoryStore creates a MemoryStore seeded with defaults.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snap: Defaults()}
}

// Snapshot returns the current settings state.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Apply replaces the settings state and runs the OnApply hook, if any.
func (s *MemoryStore) Apply(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	s.snap = snap
	hook := s.OnApply
	s.mu.Unlock()

	if hook != nil {
		return hook(ctx, snap)
	}
	return nil
}
