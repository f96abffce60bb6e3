package ingest

import (
	"context"
	"sync"
)

// CaptionPrompt is the single pending-prompt slot. Image ingestions request
// a caption and suspend until the user resolves it; concurrent requests
// serialize here so only one prompt is ever visible.
type CaptionPrompt struct {
	turn sync.Mutex // held for the lifetime of a visible prompt

	mu       sync.Mutex
	pending  chan string
	fileName string

	// Notify, when set, is called with the file name as a prompt becomes
	// visible. The UI shows its input surface from here.
	Notify func(fileName string)
}

// Request makes a caption prompt visible for the given file and waits for
// Resolve. Requests from concurrent ingestions are served one at a time.
func (p *CaptionPrompt) Request(ctx context.Context, fileName string) (string, error) {
	p.turn.Lock()
	defer p.turn.Unlock()

	ch := make(chan string, 1)
	p.mu.Lock()
	p.pending = ch
	p.fileName = fileName
	notify := p.Notify
	p.mu.Unlock()

	if notify != nil {
		notify(fileName)
	}

	select {
	case <-ctx.Done():
		p.clear()
		return "", ctx.Err()
	case caption := <-ch:
		return caption, nil
	}
}

// Resolve completes the pending prompt with the given caption and clears
// the slot. A no-op when no prompt is pending.
func (p *CaptionPrompt) Resolve(caption string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return
	}
	p.pending <- caption
	p.pending = nil
	p.fileName = ""
}

// Abandon cancels the pending prompt; the waiting ingestion proceeds with
// an empty caption.
func (p *CaptionPrompt) Abandon() {
	p.Resolve("")
}

// Pending returns the file name of the visible prompt, if any.
func (p *CaptionPrompt) Pending() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fileName, p.pending != nil
}

func (p *CaptionPrompt) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	p.fileName = ""
}
