package feed

import (
	"sync"
)

// VisibleItem is one row of a viewport visibility report: which sequence
// index is on screen and how much of it.
type VisibleItem struct {
	Index    int
	Fraction float64 // 0..1
}

// NoActive marks "no record is active".
const NoActive = -1

// Tracker turns a stream of viewport visibility reports into a single active
// index. Reports arrive on every scroll frame and change nothing by
// themselves; only a settle signal can switch the active item, so fast flings
// through intermediate items never toggle playback. At most one change is
// emitted per settle.
type Tracker struct {
	mu        sync.Mutex
	threshold float64 // minimum visible fraction to qualify, e.g. 0.5
	latest    []VisibleItem
	crossed   map[int]bool // indexes over threshold at the previous settle
	active    int
	onChange  func(prev, next int)
	closed    bool
}

func NewTracker(threshold float64, onChange func(prev, next int)) *Tracker {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return &Tracker{
		threshold: threshold,
		crossed:   make(map[int]bool),
		active:    NoActive,
		onChange:  onChange,
	}
}

// Report records the current viewport state. Cheap; called per scroll frame.
func (t *Tracker) Report(items []VisibleItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.latest = append(t.latest[:0], items...)
}

// Settle evaluates the last reported viewport state and switches the active
// index if a qualified leader emerged. The leader is the index with the
// highest visible fraction at or over the threshold; ties prefer the lowest
// index that newly crossed the threshold since the previous settle (stable
// toward the scroll direction), then the lowest index outright.
func (t *Tracker) Settle() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}

	leader := NoActive
	var best float64
	newlyCrossed := false
	nowCrossed := make(map[int]bool, len(t.latest))
	for _, it := range t.latest {
		if it.Fraction < t.threshold {
			continue
		}
		nowCrossed[it.Index] = true
		fresh := !t.crossed[it.Index]
		switch {
		case leader == NoActive || it.Fraction > best:
			leader, best, newlyCrossed = it.Index, it.Fraction, fresh
		case it.Fraction == best:
			if (fresh && !newlyCrossed) || (fresh == newlyCrossed && it.Index < leader) {
				leader, newlyCrossed = it.Index, fresh
			}
		}
	}
	t.crossed = nowCrossed

	prev := t.active
	if leader == NoActive || leader == prev {
		t.mu.Unlock()
		return
	}
	t.active = leader
	fire := t.onChange
	t.mu.Unlock()

	if fire != nil {
		fire(prev, leader)
	}
}

// Active returns the current active index, or NoActive.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// SetActive force-moves the active index without emitting a change. Used
// after a refresh when the same record survived at a new position. Pending
// reports and crossing state refer to pre-refresh indices, so both are
// discarded; a settle before the next report is a no-op.
func (t *Tracker) SetActive(i int) {
	t.mu.Lock()
	t.active = i
	t.latest = t.latest[:0]
	t.crossed = make(map[int]bool)
	t.mu.Unlock()
}

// Close tears the tracker down; the owner must end any open playback session
// synchronously before dropping it. Subsequent reports and settles are
// ignored.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.latest = nil
	t.mu.Unlock()
}
