package feed

import (
	"context"
	"log"
	"sync"

	"shortfeed/pkg/types"
)

// FeedSource is the slice of the backend the pager needs.
type FeedSource interface {
	Feed(ctx context.Context, cursor string) ([]types.VideoRecord, string, error)
}

// Pager drives initial load, pull-to-refresh and forward pagination of the
// sequence. Load failures surface the gateway error unchanged so the UI can
// offer a retry; there is no automatic retry loop here.
type Pager struct {
	src FeedSource
	seq *Sequence

	mu        sync.Mutex
	cursor    string
	exhausted bool
}

func NewPager(src FeedSource, seq *Sequence) *Pager {
	return &Pager{src: src, seq: seq}
}

// LoadInitial fetches the first page and replaces the sequence with it.
func (p *Pager) LoadInitial(ctx context.Context) error {
	recs, next, err := p.src.Feed(ctx, "")
	if err != nil {
		return err
	}
	p.seq.Replace(recs)
	p.mu.Lock()
	p.cursor = next
	p.exhausted = next == ""
	p.mu.Unlock()
	log.Printf("[feed] loaded %d videos", p.seq.Len())
	return nil
}

// Refresh replaces the sequence wholesale with a fresh first page. The owner
// realigns the active index afterwards.
func (p *Pager) Refresh(ctx context.Context) error {
	recs, next, err := p.src.Feed(ctx, "")
	if err != nil {
		return err
	}
	p.seq.Replace(recs)
	p.mu.Lock()
	p.cursor = next
	p.exhausted = next == ""
	p.mu.Unlock()
	log.Printf("[feed] refreshed, %d videos", p.seq.Len())
	return nil
}

// LoadMore appends the next page using the stored continuation cursor.
// A no-op once the feed is exhausted; the backend currently serves a single
// page, so this is forward-compatibility plumbing.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.exhausted {
		p.mu.Unlock()
		return nil
	}
	cursor := p.cursor
	p.mu.Unlock()

	recs, next, err := p.src.Feed(ctx, cursor)
	if err != nil {
		return err
	}
	p.seq.Append(recs)
	p.mu.Lock()
	p.cursor = next
	p.exhausted = next == ""
	p.mu.Unlock()
	log.Printf("[feed] appended page, %d videos total", p.seq.Len())
	return nil
}
