package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// ItemSpacing is the fixed horizontal distance between exhibit items.
	ItemSpacing float64 `json:"item_spacing,omitempty"`

	// MinGalleryLength is the minimum room span regardless of item count.
	// A settings snapshot carried by a save file overrides it at load time.
	MinGalleryLength float64 `json:"min_gallery_length,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all blob-store access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisableCaptionPrompt skips the caption prompt during image ingestion;
	// items are added with an empty caption.
	DisableCaptionPrompt bool `json:"disable_caption_prompt,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ItemSpacing:      6.0,
		MinGalleryLength: 10.0,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.museapp.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars when non-zero.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ItemSpacing = overlay.ItemSpacing
	if result.ItemSpacing == 0 {
		result.ItemSpacing = base.ItemSpacing
	}

	result.MinGalleryLength = overlay.MinGalleryLength
	if result.MinGalleryLength == 0 {
		result.MinGalleryLength = base.MinGalleryLength
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisableCaptionPrompt = base.DisableCaptionPrompt || overlay.DisableCaptionPrompt

	return result
}
