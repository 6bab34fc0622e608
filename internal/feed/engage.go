package feed

import (
	"context"
	"fmt"
	"log"
	"sync"

	"shortfeed/internal/gateway"
	"shortfeed/pkg/types"
)

// EngagementGateway is the slice of the backend the store needs.
type EngagementGateway interface {
	Like(ctx context.Context, videoID string) error
	Unlike(ctx context.Context, videoID string) error
	PostComment(ctx context.Context, videoID, text, image string) (types.Comment, error)
}

// Notifier surfaces a failed mutation for user-visible handling (a toast).
// Called at most once per failed mutation, never for telemetry.
type Notifier func(videoID string, err error)

// likeMutation is the rollback record for one optimistic cycle. ctx is the
// context of the toggle that started the cycle; each queued toggle resolves
// under its own caller's context, not the first caller's.
type likeMutation struct {
	target    bool
	prevLiked bool
	prevCount int
	ctx       context.Context
}

// pendingToggle is a toggle waiting behind an in-flight mutation.
type pendingToggle struct {
	target bool
	ctx    context.Context
}

// EngagementStore owns the engagement counters of the feed sequence and the
// optimistic like cycle. Toggles for the same video are serialized: while one
// mutation is in flight, later toggles queue behind its resolution, so rapid
// double-taps cannot drift the counter. Toggles on different videos are
// independent.
type EngagementStore struct {
	mu       sync.Mutex
	seq      *Sequence
	gw       EngagementGateway
	notify   Notifier
	inflight map[string]*likeMutation
	queued   map[string][]pendingToggle // FIFO per video
}

func NewEngagementStore(seq *Sequence, gw EngagementGateway, notify Notifier) *EngagementStore {
	return &EngagementStore{
		seq:      seq,
		gw:       gw,
		notify:   notify,
		inflight: make(map[string]*likeMutation),
		queued:   make(map[string][]pendingToggle),
	}
}

// ToggleLike flips the viewer's like state for videoID. The flip is applied
// to the displayed record immediately; the gateway call resolves in the
// background and rolls the record back on failure. Returns an error only for
// unknown ids; network/server outcomes arrive through the Notifier.
func (s *EngagementStore) ToggleLike(ctx context.Context, videoID string) error {
	s.mu.Lock()
	rec, ok := s.seq.Get(videoID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown video %q", videoID)
	}
	target := !rec.IsLiked
	if _, busy := s.inflight[videoID]; busy {
		s.queued[videoID] = append(s.queued[videoID], pendingToggle{target: target, ctx: ctx})
		s.mu.Unlock()
		return nil
	}
	s.applyLocked(videoID, rec, target, ctx)
	s.mu.Unlock()

	go s.drain(videoID)
	return nil
}

// ApplyOptimisticLike mutates the record before any network confirmation and
// records the previous state for rollback. Returns false if the id is
// unknown or a mutation is already in flight for it.
func (s *EngagementStore) ApplyOptimisticLike(videoID string, target bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.seq.Get(videoID)
	if !ok {
		return false
	}
	if _, busy := s.inflight[videoID]; busy {
		return false
	}
	s.applyLocked(videoID, rec, target, context.Background())
	return true
}

func (s *EngagementStore) applyLocked(videoID string, rec types.VideoRecord, target bool, ctx context.Context) {
	count := rec.LikesCount
	if target {
		count++
	} else {
		count--
	}
	s.seq.SetLike(videoID, target, count)
	s.inflight[videoID] = &likeMutation{target: target, prevLiked: rec.IsLiked, prevCount: rec.LikesCount, ctx: ctx}
}

// ConfirmLike discards the rollback record after gateway success.
func (s *EngagementStore) ConfirmLike(videoID string) {
	s.mu.Lock()
	delete(s.inflight, videoID)
	s.mu.Unlock()
}

// RollbackLike restores the record to its pre-mutation snapshot and raises
// the failure through the Notifier. Idempotent: a second call for the same
// mutation is a no-op and does not notify again.
func (s *EngagementStore) RollbackLike(videoID string) {
	s.rollback(videoID, gateway.ErrLikeFailed)
}

func (s *EngagementStore) rollback(videoID string, cause error) {
	s.mu.Lock()
	m := s.inflight[videoID]
	if m == nil {
		s.mu.Unlock()
		return
	}
	delete(s.inflight, videoID)
	s.seq.SetLike(videoID, m.prevLiked, m.prevCount)
	notify := s.notify
	s.mu.Unlock()

	log.Printf("[engage] like rollback video=%s target=%v: %v", videoID, m.target, cause)
	if notify != nil {
		notify(videoID, cause)
	}
}

// drain resolves the in-flight mutation for videoID, then promotes queued
// toggles one at a time. A queued toggle whose target already matches the
// displayed state (after a rollback) is dropped.
func (s *EngagementStore) drain(videoID string) {
	for {
		s.mu.Lock()
		m := s.inflight[videoID]
		s.mu.Unlock()
		if m == nil {
			return
		}

		var err error
		if m.target {
			err = s.gw.Like(m.ctx, videoID)
		} else {
			err = s.gw.Unlike(m.ctx, videoID)
		}
		if err != nil {
			s.rollback(videoID, err)
		} else {
			s.ConfirmLike(videoID)
		}

		s.mu.Lock()
		promoted := false
		for !promoted {
			q := s.queued[videoID]
			if len(q) == 0 {
				delete(s.queued, videoID)
				break
			}
			next := q[0]
			s.queued[videoID] = q[1:]
			rec, ok := s.seq.Get(videoID)
			if !ok {
				continue
			}
			if rec.IsLiked == next.target {
				continue // settled to the same state already
			}
			s.applyLocked(videoID, rec, next.target, next.ctx)
			promoted = true
		}
		s.mu.Unlock()
		if !promoted {
			return
		}
	}
}

// SubmitComment validates and posts a comment, bumping the record's comment
// counter only after the server accepts it (comment text must round-trip for
// canonical fields, so this path is not optimistic).
func (s *EngagementStore) SubmitComment(ctx context.Context, videoID, text, image string) (types.Comment, error) {
	c, err := s.gw.PostComment(ctx, videoID, text, image)
	if err != nil {
		return types.Comment{}, err
	}
	s.IncrementCommentCount(videoID)
	return c, nil
}

// IncrementCommentCount bumps the counter after a durably accepted comment.
func (s *EngagementStore) IncrementCommentCount(videoID string) {
	if !s.seq.BumpComments(videoID) {
		log.Printf("[engage] comment bump for unknown video=%s", videoID)
	}
}
