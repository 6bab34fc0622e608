package feed

import (
	"log"
	"time"

	"github.com/google/uuid"

	"shortfeed/pkg/types"
)

type PlayerState string

const (
	StateIdle      PlayerState = "idle"
	StateLoading   PlayerState = "loading"
	StatePlaying   PlayerState = "playing"
	StatePaused    PlayerState = "paused"
	StateBuffering PlayerState = "buffering"
	StateEnded     PlayerState = "ended"
)

// clock abstracts time for testability.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Session is the playback state machine of the single active record. It is
// created when the record becomes active and discarded at End. Watch time
// accumulates while Playing only; the media layer's ready/stall signals are
// epoch-guarded by the engine so a completion that arrives after the record
// was scrolled away cannot touch a newer session.
type Session struct {
	ID      string
	VideoID string
	Epoch   uint64

	state       PlayerState
	clk         clock
	startedAt   time.Time
	accumulated time.Duration
	playingFrom time.Time
}

func newSession(videoID string, epoch uint64, clk clock) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		VideoID: videoID,
		Epoch:   epoch,
		state:   StateLoading,
		clk:     clk,
	}
	s.startedAt = clk.Now()
	log.Printf("[player] session %s video=%s loading (epoch=%d)", s.ID[:8], videoID, epoch)
	return s
}

func (s *Session) State() PlayerState { return s.state }

// mediaReady moves Loading -> Playing when the media layer reports
// ready-and-playing.
func (s *Session) mediaReady() {
	if s.state != StateLoading {
		return
	}
	s.state = StatePlaying
	s.playingFrom = s.clk.Now()
	log.Printf("[player] session %s video=%s playing", s.ID[:8], s.VideoID)
}

// stall moves Playing -> Buffering; recovered moves it back.
func (s *Session) stall() {
	if s.state != StatePlaying {
		return
	}
	s.accumulated += s.clk.Now().Sub(s.playingFrom)
	s.state = StateBuffering
	log.Printf("[player] session %s video=%s buffering", s.ID[:8], s.VideoID)
}

func (s *Session) recovered() {
	if s.state != StateBuffering {
		return
	}
	s.state = StatePlaying
	s.playingFrom = s.clk.Now()
}

// togglePause handles the user's tap-to-pause / tap-to-resume while the
// record is still active.
func (s *Session) togglePause() {
	switch s.state {
	case StatePlaying:
		s.accumulated += s.clk.Now().Sub(s.playingFrom)
		s.state = StatePaused
		log.Printf("[player] session %s video=%s paused", s.ID[:8], s.VideoID)
	case StatePaused:
		s.state = StatePlaying
		s.playingFrom = s.clk.Now()
		log.Printf("[player] session %s video=%s resumed", s.ID[:8], s.VideoID)
	}
}

// watchTime returns the time accumulated in Playing so far.
func (s *Session) watchTime() time.Duration {
	if s.state == StatePlaying {
		return s.accumulated + s.clk.Now().Sub(s.playingFrom)
	}
	return s.accumulated
}

// end moves the session to Ended from any state and returns the WatchEvent
// to emit, or false when the accumulated watch time is under the minimum
// (noise from a rapid scroll-past).
func (s *Session) end(minWatch time.Duration) (types.WatchEvent, bool) {
	if s.state == StatePlaying {
		s.accumulated += s.clk.Now().Sub(s.playingFrom)
	}
	s.state = StateEnded
	held := s.accumulated
	log.Printf("[player] session %s video=%s ended watched=%s", s.ID[:8], s.VideoID, held.Truncate(time.Millisecond))
	if held < minWatch {
		return types.WatchEvent{}, false
	}
	return types.WatchEvent{VideoID: s.VideoID, Duration: held.Seconds()}, true
}

// playable reports whether the session occupies the playing-capable set
// {Loading, Playing, Buffering}.
func (s *Session) playable() bool {
	switch s.state {
	case StateLoading, StatePlaying, StateBuffering:
		return true
	}
	return false
}
