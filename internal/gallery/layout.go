package gallery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/BenWCode/MuseApp/internal/item"
	"github.com/BenWCode/MuseApp/internal/scene"
)

// Display geometry. Panels are sized to these bounds; the engine handles
// aspect-ratio fitting internally.
const (
	displayPanelWidth  = 3.5
	displayPanelHeight = 2.5
	textPanelScale     = 0.7
	infoPanelWidth     = 3.0
	infoPanelHeight    = 0.5

	defaultWallZ       = -5.0
	defaultDepthOffset = 0.01
)

// Refresh rebuilds the entire layout from the current collection: stable
// sort by capture time, a fresh render handle per item, room resized to fit.
// Not incremental: every handle is rebuilt so no stale geometry survives a
// settings or item-set change. The previous arena is disposed only after
// the new one is swapped in.
func (g *Gallery) Refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sorted := make([]*item.Item, len(g.items))
	copy(sorted, g.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CapturedAt.Before(sorted[j].CapturedAt)
	})

	n := len(sorted)
	next := make(map[string]placed, n)
	startX := -(float64(n-1) * g.spacing) / 2

	for i, it := range sorted {
		if err := ctx.Err(); err != nil {
			for _, p := range next {
				g.builder.Dispose(p.handle)
			}
			return err
		}

		main := g.buildContent(ctx, it)
		handle := main
		if info := g.infoText(it); info != "" {
			infoPanel := g.builder.CreateTextPanel(info, infoPanelWidth, infoPanelHeight)
			handle = g.builder.Group(main, infoPanel)
		}

		x := startX + float64(i)*g.spacing
		g.builder.Place(handle, x, 0, g.wallZ+g.depthOffset)
		next[it.ID] = placed{handle: handle, x: x}
	}

	visual := 0.0
	if n > 0 {
		visual = float64(n) * g.spacing
	}
	span := g.minSpan
	if visual+g.spacing > span {
		span = visual + g.spacing
	}
	g.builder.ResizeRoom(span)
	g.span = span

	old := g.arena
	g.arena = next
	for _, p := range old {
		g.builder.Dispose(p.handle)
	}
	return nil
}

// buildContent creates the main display panel for an item. Image decode
// failures and unresolvable payloads substitute a placeholder panel naming
// the file; text panels never fail.
func (g *Gallery) buildContent(ctx context.Context, it *item.Item) scene.Handle {
	if it.Kind == item.KindText {
		body := it.TextContent
		if strings.TrimSpace(body) == "" {
			body = "[No text content]"
		}
		text := it.FileName + "\n\n" + body
		return g.builder.CreateTextPanel(text, displayPanelWidth*textPanelScale, displayPanelHeight)
	}

	data := it.Data
	if len(data) == 0 && it.HasBlob && g.resolver != nil {
		resolved, err := g.resolver.Resolve(it.ID)
		if err == nil {
			data = resolved
		}
	}
	if len(data) == 0 {
		return g.placeholder("Image source missing:\n" + it.FileName)
	}

	panel, err := g.builder.CreateImagePanel(ctx, data)
	if err != nil {
		return g.placeholder("Error loading:\n" + it.FileName)
	}
	return panel
}

func (g *Gallery) placeholder(text string) scene.Handle {
	return g.builder.CreateTextPanel(text, displayPanelWidth*0.8, displayPanelHeight*0.8)
}

// infoText assembles the secondary panel text: date, caption if present,
// location unless it is empty or a sentinel.
func (g *Gallery) infoText(it *item.Item) string {
	parts := []string{it.CapturedAt.Format("2006-01-02 15:04:05")}
	if it.Caption != "" {
		parts = append(parts, fmt.Sprintf("Caption: %s", it.Caption))
	}
	if it.Location != "" && it.Location != item.LocationUnknown && it.Location != item.LocationDefault {
		parts = append(parts, fmt.Sprintf("Location: %s", it.Location))
	}
	return strings.Join(parts, "\n")
}
