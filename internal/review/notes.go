package review

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strings"

	"github.com/starford/mneme/internal/apperr"
	"github.com/starford/mneme/internal/models"
	"github.com/starford/mneme/internal/schedule"
	"github.com/starford/mneme/internal/scheduler"
)

// linkFactorSaturation is the link count at which a note's neighbours reach maxLinkFactor weight.
const linkFactorSaturation = 64

// NoteItem is the transport form of a note in the review queue.
type NoteItem struct {
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	Rank     float64 `json:"rank"`
	Due      string  `json:"due,omitempty"`
	Interval float64 `json:"interval,omitempty"`
	Ease     int     `json:"ease,omitempty"`
}

// NoteQueue is the note review queue: unreviewed notes by importance, due and
// later notes by due date.
type NoteQueue struct {
	New   []NoteItem `json:"new"`
	Due   []NoteItem `json:"due"`
	Later []NoteItem `json:"later"`
}

func (s *Service) noteItem(e *noteEntry) NoteItem {
	it := NoteItem{Path: e.path, Title: e.title, Rank: s.snap.ranks[e.path]}
	if e.schedule != nil {
		it.Due = e.schedule.Due.Format(schedule.DateLayout)
		it.Interval = e.schedule.Interval
		it.Ease = e.schedule.Ease
	}
	return it
}

// NoteQueue returns the current note review queue.
func (s *Service) NoteQueue() NoteQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	q := NoteQueue{New: []NoteItem{}, Due: []NoteItem{}, Later: []NoteItem{}}
	for _, e := range s.snap.newNotes {
		q.New = append(q.New, s.noteItem(e))
	}
	for _, e := range s.snap.scheduled {
		if e.schedule.IsDue(now) {
			q.Due = append(q.Due, s.noteItem(e))
		} else {
			q.Later = append(q.Later, s.noteItem(e))
		}
	}
	return q
}

// ReviewNote schedules the whole note at path according to resp and writes the
// result to its sr-* frontmatter. A note reviewed for the first time starts from
// an ease derived from the notes it links with.
func (s *Service) ReviewNote(ctx context.Context, path string, resp scheduler.Response) (NoteItem, error) {
	if !resp.IsValid() {
		return NoteItem{}, fmt.Errorf("review: note %s: %w", path, scheduler.ErrInvalidResponse)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.snap.notes[path]
	if !ok {
		return NoteItem{}, fmt.Errorf("review: note %s: %w", path, apperr.ErrNotFound)
	}

	data, err := s.store.Read(path)
	if err != nil {
		return NoteItem{}, fmt.Errorf("review: read %s: %w", path, err)
	}
	text, crlf := normalizeNewlines(string(data))

	now := s.now()
	cfg := s.cfg.Scheduler
	hist := maps.Clone(s.snap.noteHist)
	var res scheduler.Result
	current, scheduled := schedule.ParseNoteSchedule(text)
	switch {
	case resp == scheduler.Reset:
		res = scheduler.ResetSchedule(cfg)
	case scheduled:
		res = scheduler.Schedule(resp, current.Interval, current.Ease, current.Overdue(now), cfg, hist)
	default:
		res = scheduler.Schedule(resp, 1, s.initialNoteEase(path), 0, cfg, hist)
	}
	info := schedule.FromInterval(now, res.Interval, res.Ease)

	updated := schedule.SetNoteSchedule(text, info)
	if err := s.store.Write(path, []byte(restoreNewlines(updated, crlf))); err != nil {
		return NoteItem{}, fmt.Errorf("review: write %s: %w", path, err)
	}
	s.snap.noteHist = hist
	s.shiftQuestions(path, strings.Count(updated, "\n")-strings.Count(text, "\n"))

	if entry.schedule == nil {
		s.snap.newNotes = removeEntry(s.snap.newNotes, entry)
		s.snap.scheduled = append(s.snap.scheduled, entry)
	}
	entry.schedule = info
	s.snap.eases.add(path, float64(info.Ease))
	sortScheduled(s.snap)

	if _, err := s.idx.AppendReview(ctx, models.ReviewEntry{
		Kind:       models.ReviewNote,
		NotePath:   path,
		Response:   resp.String(),
		Interval:   res.Interval,
		Ease:       res.Ease,
		Due:        info.Due,
		ReviewedAt: now,
	}); err != nil {
		return NoteItem{}, err
	}

	s.logger.Info("review: note reviewed",
		slog.String("path", path),
		slog.String("response", resp.String()),
		slog.String("due", info.Due.Format(schedule.DateLayout)))
	item := s.noteItem(entry)
	s.emit("note.reviewed", item)
	return item, nil
}

// initialNoteEase blends the base ease with the eases of linked notes,
// weighted by their rank and link count. The more links a note has, the more
// its neighbours count, up to maxLinkFactor.
func (s *Service) initialNoteEase(path string) int {
	cfg := s.cfg.Scheduler
	base := float64(cfg.BaseEase)

	var linkTotal, linkPGTotal float64
	totalLinkCount := 0
	weigh := func(other string, count int) {
		ease, ok := s.snap.eases[other]
		if !ok {
			return
		}
		rank := s.snap.ranks[other]
		totalLinkCount += count
		linkTotal += ease * rank * float64(count)
		linkPGTotal += rank * float64(count)
	}
	for target, count := range s.snap.links[path] {
		weigh(target, count)
	}
	for src, targets := range s.snap.links {
		if count, ok := targets[path]; ok && src != path {
			weigh(src, count)
		}
	}

	ease := base
	if totalLinkCount > 0 {
		lc := cfg.MaxLinkFactor * math.Min(1, math.Log(float64(totalLinkCount)+0.5)/math.Log(linkFactorSaturation))
		neighbours := lc * base
		if linkPGTotal > 0 {
			neighbours = lc * linkTotal / linkPGTotal
		}
		ease = (1-lc)*base + neighbours
	}
	if own, ok := s.snap.eases[path]; ok {
		ease = (ease + own) / 2
	}
	return int(math.Round(ease))
}

// shiftQuestions moves the cached line positions of a note's questions after
// its frontmatter grew or shrank by delta lines.
func (s *Service) shiftQuestions(path string, delta int) {
	if delta == 0 {
		return
	}
	for _, q := range s.snap.questions[path] {
		q.Line += delta
		q.FirstLine += delta
		q.LastLine += delta
	}
}

func removeEntry(entries []*noteEntry, e *noteEntry) []*noteEntry {
	for i, x := range entries {
		if x == e {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}
