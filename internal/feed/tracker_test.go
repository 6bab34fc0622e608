package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectChanges(th float64) (*Tracker, *[][2]int) {
	var changes [][2]int
	t := NewTracker(th, func(prev, next int) {
		changes = append(changes, [2]int{prev, next})
	})
	return t, &changes
}

func TestTrackerNoActiveBeforeFirstSettle(t *testing.T) {
	tr, changes := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 0, Fraction: 1.0}})
	assert.Equal(t, NoActive, tr.Active())
	assert.Empty(t, *changes)

	tr.Settle()
	assert.Equal(t, 0, tr.Active())
	require.Len(t, *changes, 1)
	assert.Equal(t, [2]int{NoActive, 0}, (*changes)[0])
}

func TestTrackerReportsAloneNeverToggle(t *testing.T) {
	tr, changes := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 0, Fraction: 1.0}})
	tr.Settle()

	// a fast fling: frames sweep across items 1..3 without settling
	tr.Report([]VisibleItem{{Index: 0, Fraction: 0.4}, {Index: 1, Fraction: 0.6}})
	tr.Report([]VisibleItem{{Index: 1, Fraction: 0.3}, {Index: 2, Fraction: 0.7}})
	tr.Report([]VisibleItem{{Index: 2, Fraction: 0.2}, {Index: 3, Fraction: 0.8}})
	assert.Equal(t, 0, tr.Active())
	require.Len(t, *changes, 1)

	tr.Settle()
	assert.Equal(t, 3, tr.Active())
	require.Len(t, *changes, 2)
	assert.Equal(t, [2]int{0, 3}, (*changes)[1])
}

func TestTrackerThreshold(t *testing.T) {
	tr, changes := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 0, Fraction: 0.49}, {Index: 1, Fraction: 0.3}})
	tr.Settle()
	assert.Equal(t, NoActive, tr.Active())
	assert.Empty(t, *changes)
}

func TestTrackerTiePrefersNewlyCrossed(t *testing.T) {
	tr, _ := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 2, Fraction: 0.9}})
	tr.Settle()
	require.Equal(t, 2, tr.Active())

	// index 2 was already over threshold; on a tie the fresh index wins
	// even though 2 is lower... index 3 newly crossed, 2 held over.
	tr.Report([]VisibleItem{{Index: 2, Fraction: 0.6}, {Index: 3, Fraction: 0.6}})
	tr.Settle()
	assert.Equal(t, 3, tr.Active())
}

func TestTrackerTieBothFreshPrefersLowest(t *testing.T) {
	tr, _ := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 4, Fraction: 0.6}, {Index: 5, Fraction: 0.6}})
	tr.Settle()
	assert.Equal(t, 4, tr.Active())
}

func TestTrackerAtMostOneChangePerSettle(t *testing.T) {
	tr, changes := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 0, Fraction: 0.8}, {Index: 1, Fraction: 0.7}, {Index: 2, Fraction: 0.6}})
	tr.Settle()
	assert.Len(t, *changes, 1)

	// settling again on the same state emits nothing
	tr.Settle()
	assert.Len(t, *changes, 1)
}

func TestTrackerSetActiveDiscardsPendingReports(t *testing.T) {
	tr, changes := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 2, Fraction: 1.0}})
	tr.Settle()
	require.Equal(t, 2, tr.Active())

	// a report in flight when the sequence gets remapped refers to old
	// indices and must not survive the remap
	tr.Report([]VisibleItem{{Index: 2, Fraction: 1.0}})
	tr.SetActive(0)
	tr.Settle()

	assert.Equal(t, 0, tr.Active())
	require.Len(t, *changes, 1)
	assert.Equal(t, [2]int{NoActive, 2}, (*changes)[0])
}

func TestTrackerClosedIgnoresEvents(t *testing.T) {
	tr, changes := collectChanges(0.5)
	tr.Report([]VisibleItem{{Index: 0, Fraction: 1.0}})
	tr.Settle()
	tr.Close()

	tr.Report([]VisibleItem{{Index: 1, Fraction: 1.0}})
	tr.Settle()
	assert.Equal(t, 0, tr.Active())
	assert.Len(t, *changes, 1)
}
