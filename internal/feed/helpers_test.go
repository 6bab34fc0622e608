package feed

import (
	"context"
	"sync"
	"time"

	"shortfeed/pkg/types"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeGateway implements Gateway with scriptable outcomes.
type fakeGateway struct {
	mu         sync.Mutex
	feed       []types.VideoRecord
	next       string
	likeErr    error
	unlikeErr  error
	commentErr error
	calls      []string
	gate       chan struct{} // when non-nil, Like/Unlike block on a receive
}

func (g *fakeGateway) Feed(_ context.Context, cursor string) ([]types.VideoRecord, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "feed:"+cursor)
	out := make([]types.VideoRecord, len(g.feed))
	copy(out, g.feed)
	return out, g.next, nil
}

func (g *fakeGateway) Like(ctx context.Context, videoID string) error {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "like:"+videoID)
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.likeErr
}

func (g *fakeGateway) Unlike(ctx context.Context, videoID string) error {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "unlike:"+videoID)
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.unlikeErr
}

func (g *fakeGateway) PostComment(_ context.Context, videoID, text, image string) (types.Comment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "comment:"+videoID)
	if g.commentErr != nil {
		return types.Comment{}, g.commentErr
	}
	return types.Comment{ID: "c-1", Text: text, Image: image}, nil
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

// fakeSink collects emitted watch events.
type fakeSink struct {
	mu     sync.Mutex
	events []types.WatchEvent
}

func (s *fakeSink) Submit(ev types.WatchEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *fakeSink) all() []types.WatchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.WatchEvent, len(s.events))
	copy(out, s.events)
	return out
}

func threeVideos() []types.VideoRecord {
	return []types.VideoRecord{
		{ID: "a", VideoURL: "http://cdn/a.mp4", Title: "A", Author: "ann", LikesCount: 10},
		{ID: "b", VideoURL: "http://cdn/b.mp4", Title: "B", Author: "bob", LikesCount: 5},
		{ID: "c", VideoURL: "http://cdn/c.mp4", Title: "C", Author: "cat", LikesCount: 0},
	}
}
