package feed

import (
	"sync"

	"shortfeed/pkg/types"
)

// Sequence is the ordered set of video records for one feed session.
// Insertion order is server order; ids are unique within the session.
// All reads and engagement mutations go through methods so a record's
// counters are never torn across callers.
type Sequence struct {
	mu      sync.Mutex
	records []*types.VideoRecord
	index   map[string]int // id -> position
}

func NewSequence() *Sequence {
	return &Sequence{index: make(map[string]int)}
}

// Replace swaps the whole sequence for a fresh page, dropping duplicate ids
// (first occurrence wins).
func (s *Sequence) Replace(recs []types.VideoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
	s.index = make(map[string]int, len(recs))
	s.appendLocked(recs)
}

// Append adds a follow-up page, skipping ids already present.
func (s *Sequence) Append(recs []types.VideoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(recs)
}

func (s *Sequence) appendLocked(recs []types.VideoRecord) {
	for i := range recs {
		r := recs[i]
		if _, dup := s.index[r.ID]; dup {
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, &r)
	}
}

func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// IndexOf returns the position of id, or -1.
func (s *Sequence) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// At returns a copy of the record at position i.
func (s *Sequence) At(i int) (types.VideoRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.records) {
		return types.VideoRecord{}, false
	}
	return *s.records[i], true
}

// Get returns a copy of the record with the given id.
func (s *Sequence) Get(id string) (types.VideoRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		return *s.records[i], true
	}
	return types.VideoRecord{}, false
}

// Snapshot returns a copy of all records in order.
func (s *Sequence) Snapshot() []types.VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.VideoRecord, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// SetLike overwrites the like state and count of one record in place.
func (s *Sequence) SetLike(id string, liked bool, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.records[i].IsLiked = liked
	if count < 0 {
		count = 0
	}
	s.records[i].LikesCount = count
	return true
}

// BumpComments adds one to the comment counter of id.
func (s *Sequence) BumpComments(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.records[i].CommentsCount++
	return true
}
