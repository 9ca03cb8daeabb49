package review

import (
	"context"

	"github.com/starford/mneme/internal/models"
)

// Stats is a snapshot of the review state.
type Stats struct {
	ScanStats
	State            string      `json:"state"`
	Buried           int         `json:"buried"`
	NewNotes         int         `json:"new_notes"`
	DueNotes         int         `json:"due_notes"`
	CardReviewsToday int         `json:"card_reviews_today"`
	NoteReviewsToday int         `json:"note_reviews_today"`
	CardsDueIn       map[int]int `json:"cards_due_in"`

	Recent []models.ReviewEntry `json:"recent"`
}

const recentReviews = 10

// Stats returns counters of the last scan together with today's review counts.
// CardsDueIn maps days from now to the number of scheduled cards due then.
// Recent lists the latest reviews, newest first.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	now := s.now()
	if err := s.rollDay(ctx, now); err != nil {
		s.mu.Unlock()
		return Stats{}, err
	}
	st := Stats{
		ScanStats:  s.snap.stats,
		State:      s.guard.State().String(),
		Buried:     s.postponed.Len(),
		NewNotes:   len(s.snap.newNotes),
		CardsDueIn: make(map[int]int, len(s.snap.cardHist)),
	}
	for _, e := range s.snap.scheduled {
		if e.schedule.IsDue(now) {
			st.DueNotes++
		}
	}
	for days, n := range s.snap.cardHist {
		st.CardsDueIn[days] = n
	}
	s.mu.Unlock()

	since := startOfDay(now)
	var err error
	if st.CardReviewsToday, err = s.idx.CountReviewsSince(ctx, models.ReviewCard, since); err != nil {
		return Stats{}, err
	}
	if st.NoteReviewsToday, err = s.idx.CountReviewsSince(ctx, models.ReviewNote, since); err != nil {
		return Stats{}, err
	}
	if st.Recent, err = s.idx.RecentReviews(ctx, recentReviews); err != nil {
		return Stats{}, err
	}
	if st.Recent == nil {
		st.Recent = []models.ReviewEntry{}
	}
	return st, nil
}
