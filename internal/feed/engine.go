package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"shortfeed/pkg/types"
)

// Gateway is everything the engine needs from the backend.
type Gateway interface {
	FeedSource
	EngagementGateway
}

// ViewSink receives completed watch samples; Submit must never block.
type ViewSink interface {
	Submit(ev types.WatchEvent)
}

// Engine is the feed core: it owns the sequence, the active-item tracker,
// the engagement store and the single playback session, and wires completed
// sessions into the view sink. All state transitions happen under one mutex
// in event arrival order, so a deactivation always fully resolves before the
// next activation and at most one session is ever playing-capable.
type Engine struct {
	mu       sync.Mutex
	seq      *Sequence
	tracker  *Tracker
	store    *EngagementStore
	pager    *Pager
	sink     ViewSink
	clk      clock
	minWatch time.Duration
	session  *Session
	epochs   map[string]uint64 // videoID -> activation generation
	closed   bool
}

type Option func(*Engine)

// WithClock injects a fake clock for tests.
func WithClock(c clock) Option {
	return func(e *Engine) { e.clk = c }
}

// WithMinWatch overrides the minimum watch time below which no event is
// emitted (default 1s).
func WithMinWatch(d time.Duration) Option {
	return func(e *Engine) { e.minWatch = d }
}

func NewEngine(gw Gateway, sink ViewSink, threshold float64, notify Notifier, opts ...Option) *Engine {
	e := &Engine{
		sink:     sink,
		clk:      realClock{},
		minWatch: time.Second,
		epochs:   make(map[string]uint64),
	}
	for _, o := range opts {
		o(e)
	}
	e.seq = NewSequence()
	e.tracker = NewTracker(threshold, e.activate)
	e.store = NewEngagementStore(e.seq, gw, notify)
	e.pager = NewPager(gw, e.seq)
	return e
}

// --- feed pagination ---

func (e *Engine) LoadInitial(ctx context.Context) error { return e.pager.LoadInitial(ctx) }
func (e *Engine) LoadMore(ctx context.Context) error    { return e.pager.LoadMore(ctx) }

// Refresh replaces the sequence and realigns the active item: when the
// active record survived the refresh its session keeps playing at the new
// index; otherwise the session ends and the first record starts fresh.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	var activeID string
	if e.session != nil {
		activeID = e.session.VideoID
	}
	e.mu.Unlock()

	if err := e.pager.Refresh(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	if activeID != "" {
		if i := e.seq.IndexOf(activeID); i >= 0 {
			e.tracker.SetActive(i)
			log.Printf("[feed] refresh kept active video=%s at index %d", activeID, i)
			return nil
		}
	}
	e.endSessionLocked()
	if e.seq.Len() == 0 {
		e.tracker.SetActive(NoActive)
		return nil
	}
	e.tracker.SetActive(0)
	e.startSessionLocked(0)
	return nil
}

// Records returns a copy of the current sequence.
func (e *Engine) Records() []types.VideoRecord { return e.seq.Snapshot() }

// --- viewport events ---

// Report feeds a per-frame visibility report into the tracker.
func (e *Engine) Report(items []VisibleItem) { e.tracker.Report(items) }

// Settle marks the viewport as settled; this is the only point where the
// active item can change.
func (e *Engine) Settle() { e.tracker.Settle() }

// ActiveIndex returns the tracker's current index, or NoActive.
func (e *Engine) ActiveIndex() int { return e.tracker.Active() }

// activate runs as the tracker's change callback: end the previous session,
// then start one for the new index.
func (e *Engine) activate(prev, next int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	log.Printf("[tracker] active %d -> %d", prev, next)
	e.endSessionLocked()
	e.startSessionLocked(next)
}

func (e *Engine) startSessionLocked(index int) {
	rec, ok := e.seq.At(index)
	if !ok {
		log.Printf("[tracker] no record at index %d", index)
		return
	}
	e.epochs[rec.ID]++
	e.session = newSession(rec.ID, e.epochs[rec.ID], e.clk)
}

func (e *Engine) endSessionLocked() {
	if e.session == nil {
		return
	}
	ev, emit := e.session.end(e.minWatch)
	e.session = nil
	if emit && e.sink != nil {
		e.sink.Submit(ev)
	}
}

// --- media layer signals ---

// MediaReady reports that the underlying player for videoID is loaded and
// playing. The epoch guards stale completions: a load that finishes after
// the record was scrolled away (and possibly re-activated) is ignored.
func (e *Engine) MediaReady(videoID string, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.session
	if s == nil || s.VideoID != videoID || s.Epoch != epoch {
		log.Printf("[player] stale media-ready video=%s epoch=%d ignored", videoID, epoch)
		return
	}
	s.mediaReady()
}

// MediaStalled / MediaRecovered report underlying buffering transitions for
// the active record.
func (e *Engine) MediaStalled(videoID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.session; s != nil && s.VideoID == videoID {
		s.stall()
	}
}

func (e *Engine) MediaRecovered(videoID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.session; s != nil && s.VideoID == videoID {
		s.recovered()
	}
}

// TogglePause handles the user's tap on the active record.
func (e *Engine) TogglePause(videoID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.session; s != nil && s.VideoID == videoID {
		s.togglePause()
	}
}

// SessionEpoch returns the activation epoch of videoID's current session so
// the media layer can stamp its completion callbacks. ok is false when the
// record is not active.
func (e *Engine) SessionEpoch(videoID string) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.session; s != nil && s.VideoID == videoID {
		return s.Epoch, true
	}
	return 0, false
}

// SessionState exposes the active session's state for the UI overlay
// (spinner while Loading/Buffering, play glyph while Paused).
func (e *Engine) SessionState() (videoID string, st PlayerState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return "", StateIdle
	}
	return e.session.VideoID, e.session.State()
}

// --- engagement ---

func (e *Engine) ToggleLike(ctx context.Context, videoID string) error {
	return e.store.ToggleLike(ctx, videoID)
}

func (e *Engine) SubmitComment(ctx context.Context, videoID, text, image string) (types.Comment, error) {
	return e.store.SubmitComment(ctx, videoID, text, image)
}

// Store exposes the engagement store (comment count bumps from the comments
// modal, tests).
func (e *Engine) Store() *EngagementStore { return e.store }

// Close tears the feed down: the tracker stops accepting events and any open
// session is ended synchronously, flushing its watch sample.
func (e *Engine) Close() {
	e.tracker.Close()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.endSessionLocked()
}
