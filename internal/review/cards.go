package review

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/starford/mneme/internal/apperr"
	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/models"
	"github.com/starford/mneme/internal/schedule"
	"github.com/starford/mneme/internal/scheduler"
	"github.com/starford/mneme/internal/topic"
)

// CardView is the transport form of a card.
type CardView struct {
	ID       string   `json:"id"`
	NotePath string   `json:"note_path"`
	Line     int      `json:"line"`
	Type     string   `json:"type"`
	Index    int      `json:"index"`
	Siblings int      `json:"siblings"`
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Topics   []string `json:"topics"`
	New      bool     `json:"new"`
	Due      string   `json:"due,omitempty"`
	Interval float64  `json:"interval,omitempty"`
	Ease     int      `json:"ease,omitempty"`
}

func newCardView(c *cards.Card) CardView {
	q := c.Question
	v := CardView{
		ID:       c.ID,
		NotePath: q.NotePath,
		Line:     q.Line,
		Type:     q.Type.String(),
		Index:    c.Index,
		Siblings: len(q.Cards) - 1,
		Front:    c.Front,
		Back:     c.Back,
		Topics:   make([]string, len(q.Topics)),
		New:      c.IsNew(),
	}
	for i, t := range q.Topics {
		v.Topics[i] = t.Key()
	}
	if c.Schedule != nil {
		v.Due = c.Schedule.Due.Format(schedule.DateLayout)
		v.Interval = c.Schedule.Interval
		v.Ease = c.Schedule.Ease
	}
	return v
}

// CardResult is the outcome of a card review.
type CardResult struct {
	Card CardView `json:"card"`
	// Persisted is false when the question could no longer be found in the note.
	Persisted      bool `json:"persisted"`
	BuriedSiblings int  `json:"buried_siblings"`
}

// Card returns the card with id from the last scan.
func (s *Service) Card(id string) (CardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.snap.cards[id]
	if !ok {
		return CardView{}, fmt.Errorf("review: card %s: %w", id, apperr.ErrNotFound)
	}
	return newCardView(c), nil
}

// NextCard returns the next reviewable card below the deck at deckPath,
// due cards first. An empty deckPath means the whole tree.
func (s *Service) NextCard(ctx context.Context, deckPath string) (CardView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if err := s.rollDay(ctx, now); err != nil {
		return CardView{}, err
	}
	d := s.reviewable()
	if deckPath != "" {
		if d = d.DeckByPath(topic.Parse(deckPath)); d == nil {
			return CardView{}, fmt.Errorf("review: deck %s: %w", deckPath, apperr.ErrNotFound)
		}
	}
	c := d.NextCard(now)
	if c == nil {
		return CardView{}, fmt.Errorf("review: no card left in %q: %w", deckPath, apperr.ErrNotFound)
	}
	return newCardView(c), nil
}

// ReviewCard schedules the card with id according to resp and writes the
// question's updated schedule comment back to its note. The card leaves every
// deck; its siblings are buried for the day when burying is enabled.
func (s *Service) ReviewCard(ctx context.Context, id string, resp scheduler.Response) (CardResult, error) {
	if !resp.IsValid() {
		return CardResult{}, fmt.Errorf("review: card %s: %w", id, scheduler.ErrInvalidResponse)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if err := s.rollDay(ctx, now); err != nil {
		return CardResult{}, err
	}
	c, ok := s.snap.cards[id]
	if !ok {
		return CardResult{}, fmt.Errorf("review: card %s: %w", id, apperr.ErrNotFound)
	}
	q := c.Question
	cfg := s.cfg.Scheduler

	// The card and histogram change only once the note is written.
	hist := maps.Clone(s.snap.cardHist)
	var res scheduler.Result
	switch {
	case resp == scheduler.Reset:
		res = scheduler.ResetSchedule(cfg)
	case c.Schedule != nil:
		res = scheduler.Schedule(resp, c.Schedule.Interval, c.Schedule.Ease, c.Schedule.Overdue(now), cfg, hist)
	default:
		ease := cfg.BaseEase
		if e, ok := s.snap.eases[q.NotePath]; ok {
			ease = int(e + 0.5)
		}
		res = scheduler.Schedule(resp, 1, ease, 0, cfg, hist)
	}
	prev := c.Schedule
	c.Schedule = schedule.FromInterval(now, res.Interval, res.Ease)

	persisted, err := s.persistQuestion(q)
	if err != nil {
		c.Schedule = prev
		return CardResult{}, err
	}
	s.snap.cardHist = hist

	result := CardResult{Card: newCardView(c), Persisted: persisted}
	_ = s.snap.root.DeleteCardFromAllDecks(c)
	if s.postponed.AddIfRequired(q.Hash) {
		for _, sib := range q.Siblings(c) {
			if err := s.snap.root.DeleteCardFromAllDecks(sib); err == nil {
				result.BuriedSiblings++
			}
		}
		if err := s.postponed.Save(ctx, s.day); err != nil {
			return CardResult{}, fmt.Errorf("review: save buried: %w", err)
		}
	}

	if _, err := s.idx.AppendReview(ctx, models.ReviewEntry{
		Kind:       models.ReviewCard,
		NotePath:   q.NotePath,
		CardID:     c.ID,
		Response:   resp.String(),
		Interval:   res.Interval,
		Ease:       res.Ease,
		Due:        c.Schedule.Due,
		ReviewedAt: now,
	}); err != nil {
		return CardResult{}, err
	}

	s.logger.Info("review: card reviewed",
		slog.String("card", c.ID),
		slog.String("path", q.NotePath),
		slog.String("response", resp.String()),
		slog.String("due", c.Schedule.Due.Format(schedule.DateLayout)))
	s.emit("card.reviewed", result)
	return result, nil
}

// persistQuestion writes q's current schedules into its note. It reports false,
// without error, when the question text is no longer where it was scanned.
// q's span is updated only after a successful write.
func (s *Service) persistQuestion(q *cards.Question) (bool, error) {
	data, err := s.store.Read(q.NotePath)
	if err != nil {
		return false, fmt.Errorf("review: read %s: %w", q.NotePath, err)
	}
	text, crlf := normalizeNewlines(string(data))
	repl := q.EncodeText(s.cfg.Scheduler.BaseEase, s.cfg.CommentOnSameLine)

	updated, rw, ok := planRewrite(text, q, repl)
	if !ok {
		s.logger.Warn("review: question text changed, schedule not written",
			slog.String("path", q.NotePath), slog.Int("line", q.Line))
		return false, nil
	}
	if err := s.store.Write(q.NotePath, []byte(restoreNewlines(updated, crlf))); err != nil {
		return false, fmt.Errorf("review: write %s: %w", q.NotePath, err)
	}
	rw.commit(s.snap.questions[q.NotePath])
	return true, nil
}

// startOfDay returns midnight of t's calendar date.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
