package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"shortfeed/pkg/types"
)

// ViewGateway is the slice of the backend the batcher needs.
type ViewGateway interface {
	RecordView(ctx context.Context, videoID string, seconds float64) error
}

type queued struct {
	ev      types.WatchEvent
	spoolID int64 // 0 = not spooled
}

// Batcher delivers watch events to the gateway off the playback path.
// Submit never blocks: events go through a bounded queue drained by one
// worker, which preserves submission order (and therefore per-video order).
// Each event gets a bounded number of retries with exponential backoff and
// is then dropped with a log line; watch-time loss is tolerable telemetry
// and must never fail playback.
type Batcher struct {
	gw      ViewGateway
	spool   *Spool // optional
	mu      sync.Mutex
	closed  bool
	ch      chan queued
	done    chan struct{}
	retries uint64
	initial time.Duration
	sendTO  time.Duration
}

func NewBatcher(gw ViewGateway, spool *Spool, queueSize int, retries uint64, initialBackoff time.Duration) *Batcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if initialBackoff <= 0 {
		initialBackoff = 250 * time.Millisecond
	}
	b := &Batcher{
		gw:      gw,
		spool:   spool,
		ch:      make(chan queued, queueSize),
		done:    make(chan struct{}),
		retries: retries,
		initial: initialBackoff,
		sendTO:  10 * time.Second,
	}
	go b.run()
	return b
}

// Submit hands a watch event off for delivery. Fire-and-forget: the caller
// gets no result and is never blocked. With a full queue the event stays in
// the spool (resent next start) or, spool-less, is dropped.
func (b *Batcher) Submit(ev types.WatchEvent) {
	if ev.VideoID == "" || ev.Duration <= 0 {
		return
	}
	var id int64
	if b.spool != nil {
		n, err := b.spool.Add(context.Background(), ev)
		if err != nil {
			log.Printf("[spool] add failed video=%s: %v", ev.VideoID, err)
		} else {
			id = n
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		if id != 0 {
			log.Printf("[view] batcher closed, video=%s left in spool", ev.VideoID)
		} else {
			log.Printf("[view] batcher closed, dropping video=%s (%.1fs)", ev.VideoID, ev.Duration)
		}
		return
	}
	select {
	case b.ch <- queued{ev: ev, spoolID: id}:
	default:
		if id != 0 {
			log.Printf("[view] queue full, video=%s left in spool", ev.VideoID)
		} else {
			log.Printf("[view] queue full, dropping video=%s (%.1fs)", ev.VideoID, ev.Duration)
		}
	}
}

// Restore enqueues events left in the spool by a previous run. Call once at
// startup, before any Submit.
func (b *Batcher) Restore(ctx context.Context) error {
	if b.spool == nil {
		return nil
	}
	pend, err := b.spool.Pending(ctx, cap(b.ch))
	if err != nil {
		return err
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // everything stays spooled for the next start
	}
	for _, p := range pend {
		select {
		case b.ch <- queued{ev: p.Event, spoolID: p.ID}:
		default:
			b.mu.Unlock()
			return nil // rest stays spooled for the next start
		}
	}
	b.mu.Unlock()
	if len(pend) > 0 {
		log.Printf("[spool] restored %d pending watch events", len(pend))
	}
	return nil
}

func (b *Batcher) run() {
	defer close(b.done)
	for q := range b.ch {
		b.send(q)
	}
}

func (b *Batcher) send(q queued) {
	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), b.sendTO)
		defer cancel()
		return b.gw.RecordView(ctx, q.ev.VideoID, q.ev.Duration)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.initial
	if err := backoff.Retry(op, backoff.WithMaxRetries(bo, b.retries)); err != nil {
		log.Printf("[view] dropping watch event video=%s (%.1fs) after %d retries: %v",
			q.ev.VideoID, q.ev.Duration, b.retries, err)
	}
	// ack or permanent drop: either way the spool row is spent
	if b.spool != nil && q.spoolID != 0 {
		if err := b.spool.Delete(context.Background(), q.spoolID); err != nil {
			log.Printf("[spool] delete id=%d failed: %v", q.spoolID, err)
		}
	}
}

// Close stops intake and waits for the queue to drain, up to ctx's deadline.
// Submits arriving after Close are dropped (or left in the spool), not sent.
func (b *Batcher) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	b.mu.Unlock()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
