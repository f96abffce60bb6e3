package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BenWCode/MuseApp/internal/blob"
	"github.com/BenWCode/MuseApp/internal/config"
	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/gallery"
	"github.com/BenWCode/MuseApp/internal/ingest"
	"github.com/BenWCode/MuseApp/internal/save"
	"github.com/BenWCode/MuseApp/internal/scene"
	"github.com/BenWCode/MuseApp/internal/settings"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// app bundles the collaborators every command works against. One app is
// constructed per process (or per test) with its own store and gallery;
// there is no package-level state.
type app struct {
	baseDir  string
	cfg      *config.Config
	store    *blob.Store
	builder  *scene.Headless
	gallery  *gallery.Gallery
	settings *settings.MemoryStore
	codec    *save.Codec
	prompt   *ingest.CaptionPrompt
}

// newApp opens the store under baseDir and wires the core.
func newApp(baseDir string) (*app, error) {
	store, err := blob.Open(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store.ConfigurePool(cfg)

	builder := scene.NewHeadless()
	g := gallery.New(builder, store, cfg.ItemSpacing, cfg.MinGalleryLength)

	sets := settings.NewMemoryStore()

	a := &app{
		baseDir:  baseDir,
		cfg:      cfg,
		store:    store,
		builder:  builder,
		gallery:  g,
		settings: sets,
		codec:    &save.Codec{Gallery: g, Settings: sets, Blobs: store},
		prompt:   &ingest.CaptionPrompt{},
	}

	// Each invocation is a fresh process; restore the collection from the
	// local save so commands compose across runs. No save yet is fine.
	if _, err := a.codec.LoadLocal(context.Background()); err != nil && !errors.Is(err, errors.ErrNotFound) {
		store.Close()
		return nil, fmt.Errorf("failed to restore local save: %w", err)
	}

	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// persist writes the collection back to the local save. Mutating commands
// call it before exiting so the next invocation starts from their result.
func (a *app) persist(ctx context.Context) error {
	_, err := a.codec.SaveLocal(ctx)
	return err
}

// pipeline builds an ingestion pipeline. Captions are prompted only when
// requested; batch tooling runs captionless.
func (a *app) pipeline(withCaptions bool) *ingest.Pipeline {
	prompt := a.prompt
	if !withCaptions {
		prompt = nil
	}
	return ingest.NewPipeline(a.gallery, ingest.ExifExtractor{}, prompt, a.cfg)
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".museapp")

	a, err := newApp(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	cliApp := newCLIApp(a)
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
