// Package ingest turns raw user-supplied files and typed text into
// normalized exhibit items.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"

	"github.com/BenWCode/MuseApp/internal/config"
	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/gallery"
	"github.com/BenWCode/MuseApp/internal/item"
)

// Source is one raw user-supplied file.
type Source struct {
	Name    string
	ModTime time.Time
	Data    []byte
}

// Diagnostic records a per-file problem that did not stop the batch.
type Diagnostic struct {
	FileName string `json:"file_name"`
	Message  string `json:"message"`
}

// FilesOutput is the result of an IngestFiles batch.
type FilesOutput struct {
	Added       int          `json:"added"`
	Skipped     int          `json:"skipped"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// TextOutput is the result of an IngestText call.
type TextOutput struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

// Pipeline ingests files and text entries into the gallery.
type Pipeline struct {
	gallery   *gallery.Gallery
	extractor Extractor
	prompt    *CaptionPrompt
	noPrompt  bool
}

// NewPipeline wires an ingestion pipeline. extractor may be nil to skip
// metadata extraction entirely; prompt may be nil to skip captions.
func NewPipeline(g *gallery.Gallery, extractor Extractor, prompt *CaptionPrompt, cfg *config.Config) *Pipeline {
	noPrompt := prompt == nil
	if cfg != nil && cfg.DisableCaptionPrompt {
		noPrompt = true
	}
	return &Pipeline{
		gallery:   g,
		extractor: extractor,
		prompt:    prompt,
		noPrompt:  noPrompt,
	}
}

// Prompt returns the caption prompt slot, for the UI to resolve.
func (p *Pipeline) Prompt() *CaptionPrompt {
	return p.prompt
}

// IngestFiles normalizes a batch of files into items. Per-file metadata
// and caption flows run concurrently (captions serialize on the prompt
// slot); the layout refresh fires exactly once after the whole batch is
// added. Unsupported files are skipped with a diagnostic, never an error.
func (p *Pipeline) IngestFiles(ctx context.Context, sources []Source) (*FilesOutput, error) {
	out := &FilesOutput{}
	if len(sources) == 0 {
		return out, nil
	}

	if err := p.gallery.BeginIngest(); err != nil {
		return nil, err
	}
	defer p.gallery.EndIngest()

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, src := range sources {
		kind, mime := classify(src)
		if kind == "" {
			out.Skipped++
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				FileName: src.Name,
				Message:  "unsupported file type, skipped",
			})
			continue
		}

		wg.Add(1)
		go func(src Source, kind item.Kind, mime string) {
			defer wg.Done()
			it := p.buildItem(ctx, src, kind, mime)
			p.gallery.Add(it)
			mu.Lock()
			out.Added++
			mu.Unlock()
		}(src, kind, mime)
	}
	wg.Wait()

	if err := p.gallery.Refresh(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// buildItem normalizes one classified source into an item. Metadata
// extraction failures degrade to the file modification time and an
// unknown location; they never fail the file.
func (p *Pipeline) buildItem(ctx context.Context, src Source, kind item.Kind, mime string) *item.Item {
	capturedAt := src.ModTime
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	it := &item.Item{
		ID:         item.NewID(),
		Kind:       kind,
		FileName:   src.Name,
		FileType:   mime,
		CapturedAt: capturedAt,
		Location:   item.LocationUnknown,
	}

	if kind == item.KindText {
		body := string(src.Data)
		if strings.TrimSpace(body) == "" {
			body = "[Empty File]"
		}
		it.TextContent = body
		return it
	}

	it.Data = src.Data
	if p.extractor != nil {
		meta := p.extractor.Extract(src.Data)
		if meta.CapturedAt != nil {
			it.CapturedAt = *meta.CapturedAt
		}
		if meta.Location != "" {
			it.Location = meta.Location
		}
	}

	if !p.noPrompt {
		caption, err := p.prompt.Request(ctx, src.Name)
		if err == nil {
			it.Caption = caption
		}
	}
	return it
}

// IngestText adds a written entry as a text item. Whitespace-only input is
// rejected with a user-visible message and no state change.
func (p *Pipeline) IngestText(ctx context.Context, raw string) (*TextOutput, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.NewInvalidRequest("write some text before adding")
	}

	if err := p.gallery.BeginIngest(); err != nil {
		return nil, err
	}
	defer p.gallery.EndIngest()

	now := time.Now()
	it := &item.Item{
		ID:          item.NewID(),
		Kind:        item.KindText,
		FileName:    fmt.Sprintf("Written Entry - %s.txt", now.Format("2006-01-02 15-04-05")),
		FileType:    "text/plain",
		TextContent: trimmed,
		CapturedAt:  now,
		Location:    item.LocationUnknown,
	}
	p.gallery.Add(it)

	if err := p.gallery.Refresh(ctx); err != nil {
		return nil, err
	}
	return &TextOutput{ID: it.ID, FileName: it.FileName}, nil
}

// classify decides an item kind by payload magic bytes, falling back to
// the .txt extension for text. Everything else is unsupported.
func classify(src Source) (item.Kind, string) {
	if filetype.IsImage(src.Data) {
		if kind, err := filetype.Match(src.Data); err == nil {
			return item.KindImage, kind.MIME.Value
		}
		return item.KindImage, "image/unknown"
	}
	if strings.HasSuffix(strings.ToLower(src.Name), ".txt") {
		return item.KindText, "text/plain"
	}
	return "", ""
}
