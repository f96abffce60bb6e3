package settings

import (
	"context"
	"encoding/json"
	"testing"
)

func TestFromJSON_Nil(t *testing.T) {
	snap := FromJSON(nil)
	if snap != Defaults() {
		t.Error("nil raw should yield defaults")
	}
}

func TestFromJSON_PartialKeepsDefaults(t *testing.T) {
	raw := json.RawMessage(`{"wallColor":"#102030","minGalleryLength":42}`)
	snap := FromJSON(raw)

	if snap.WallColor != "#102030" {
		t.Errorf("WallColor = %q, want overridden", snap.WallColor)
	}
	if snap.MinGalleryLength != 42 {
		t.Errorf("MinGalleryLength = %v, want 42", snap.MinGalleryLength)
	}
	if snap.PlayerSpeed != 200.0 {
		t.Errorf("PlayerSpeed = %v, want default preserved", snap.PlayerSpeed)
	}
	if snap.ImageZOffset != 0.01 {
		t.Errorf("ImageZOffset = %v, want default preserved", snap.ImageZOffset)
	}
}

func TestFromJSON_Malformed(t *testing.T) {
	snap := FromJSON(json.RawMessage(`{"wallColor":`))
	if snap != Defaults() {
		t.Error("malformed settings should degrade to defaults")
	}
}

func TestSnapshot_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Defaults())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Spot-check the keys older saves depend on.
	for _, key := range []string{"playerSpeed", "imageZoffset", "galleryWallZ", "minGalleryLength", "shadowsEnabled"} {
		if _, ok := m[key]; !ok {
			t.Errorf("serialized snapshot missing key %q", key)
		}
	}
}

func TestMemoryStore_ApplyHook(t *testing.T) {
	store := NewMemoryStore()
	var applied Snapshot
	store.OnApply = func(_ context.Context, snap Snapshot) error {
		applied = snap
		return nil
	}

	want := Defaults()
	want.FogNear = 99
	if err := store.Apply(context.Background(), want); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if store.Snapshot().FogNear != 99 {
		t.Error("Snapshot should reflect applied state")
	}
	if applied.FogNear != 99 {
		t.Error("OnApply should receive the applied snapshot")
	}
}
