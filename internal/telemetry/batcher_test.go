package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortfeed/pkg/types"
)

// fakeViewGateway records deliveries and can fail the first N attempts per
// event.
type fakeViewGateway struct {
	mu        sync.Mutex
	delivered []types.WatchEvent
	attempts  int
	failFirst int // fail this many attempts before succeeding
	alwaysErr error
}

func (g *fakeViewGateway) RecordView(_ context.Context, videoID string, seconds float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts++
	if g.alwaysErr != nil {
		return g.alwaysErr
	}
	if g.attempts <= g.failFirst {
		return errors.New("transient")
	}
	g.delivered = append(g.delivered, types.WatchEvent{VideoID: videoID, Duration: seconds})
	return nil
}

func (g *fakeViewGateway) snapshot() ([]types.WatchEvent, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]types.WatchEvent, len(g.delivered))
	copy(out, g.delivered)
	return out, g.attempts
}

func closeBatcher(t *testing.T, b *Batcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Close(ctx))
}

func TestBatcherDeliversInOrder(t *testing.T) {
	gw := &fakeViewGateway{}
	b := NewBatcher(gw, nil, 8, 2, time.Millisecond)

	b.Submit(types.WatchEvent{VideoID: "a", Duration: 1.5})
	b.Submit(types.WatchEvent{VideoID: "a", Duration: 2.5})
	b.Submit(types.WatchEvent{VideoID: "b", Duration: 3.0})
	closeBatcher(t, b)

	got, _ := gw.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].VideoID)
	assert.InDelta(t, 1.5, got[0].Duration, 0.001)
	assert.InDelta(t, 2.5, got[1].Duration, 0.001)
	assert.Equal(t, "b", got[2].VideoID)
}

func TestBatcherRetriesTransientFailure(t *testing.T) {
	gw := &fakeViewGateway{failFirst: 2}
	b := NewBatcher(gw, nil, 8, 2, time.Millisecond)

	b.Submit(types.WatchEvent{VideoID: "a", Duration: 1.5})
	closeBatcher(t, b)

	got, attempts := gw.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, 3, attempts) // initial try + 2 retries
}

func TestBatcherDropsAfterRetryBudget(t *testing.T) {
	gw := &fakeViewGateway{alwaysErr: errors.New("down")}
	b := NewBatcher(gw, nil, 8, 2, time.Millisecond)

	b.Submit(types.WatchEvent{VideoID: "a", Duration: 1.5})
	closeBatcher(t, b)

	got, attempts := gw.snapshot()
	assert.Empty(t, got)
	assert.Equal(t, 3, attempts) // bounded, then dropped
}

func TestBatcherWorkerOutlivesDrops(t *testing.T) {
	gw := &fakeViewGateway{failFirst: 3} // first event exhausts its budget
	b := NewBatcher(gw, nil, 8, 2, time.Millisecond)

	b.Submit(types.WatchEvent{VideoID: "a", Duration: 1.0})
	b.Submit(types.WatchEvent{VideoID: "b", Duration: 2.0})
	closeBatcher(t, b)

	got, _ := gw.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].VideoID)
}

func TestBatcherSubmitNeverBlocks(t *testing.T) {
	gw := &fakeViewGateway{alwaysErr: errors.New("down")}
	b := NewBatcher(gw, nil, 1, 0, time.Millisecond)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Submit(types.WatchEvent{VideoID: "a", Duration: 1.0})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked")
	}
	closeBatcher(t, b)
}

func TestBatcherSubmitAfterCloseDoesNotPanic(t *testing.T) {
	gw := &fakeViewGateway{}
	b := NewBatcher(gw, nil, 8, 0, time.Millisecond)
	closeBatcher(t, b)

	// teardown races intake: a late flush must be dropped, never panic
	b.Submit(types.WatchEvent{VideoID: "a", Duration: 2.0})
	closeBatcher(t, b) // Close is idempotent too

	got, attempts := gw.snapshot()
	assert.Empty(t, got)
	assert.Zero(t, attempts)
}

func TestBatcherSubmitAfterCloseKeepsEventSpooled(t *testing.T) {
	sp := tempSpool(t)
	gw := &fakeViewGateway{}
	b := NewBatcher(gw, sp, 8, 0, time.Millisecond)
	closeBatcher(t, b)

	b.Submit(types.WatchEvent{VideoID: "a", Duration: 2.0})

	pend, err := sp.Pending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pend, 1)
	assert.Equal(t, "a", pend[0].Event.VideoID)
	got, _ := gw.snapshot()
	assert.Empty(t, got)
}

func TestBatcherIgnoresEmptyEvents(t *testing.T) {
	gw := &fakeViewGateway{}
	b := NewBatcher(gw, nil, 8, 0, time.Millisecond)

	b.Submit(types.WatchEvent{VideoID: "", Duration: 5})
	b.Submit(types.WatchEvent{VideoID: "a", Duration: 0})
	closeBatcher(t, b)

	got, attempts := gw.snapshot()
	assert.Empty(t, got)
	assert.Zero(t, attempts)
}
