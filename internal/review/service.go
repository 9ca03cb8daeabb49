// Package review builds decks and the note queue from the vault and applies
// card and note reviews back to the note text.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/deck"
	"github.com/starford/mneme/internal/models"
	"github.com/starford/mneme/internal/pagerank"
	"github.com/starford/mneme/internal/parser"
	"github.com/starford/mneme/internal/postpone"
	"github.com/starford/mneme/internal/schedule"
	"github.com/starford/mneme/internal/scheduler"
	"github.com/starford/mneme/internal/storage"
	"github.com/starford/mneme/internal/topic"
)

const (
	pageRankDamping = 0.85
	pageRankEpsilon = 1e-6
	// rankScale turns PageRank probabilities into readable importance scores.
	rankScale = 10000
)

// Index is the metadata store the service reads links from and logs reviews to.
type Index interface {
	postpone.Store
	ResolvedLinks(ctx context.Context) (map[string]map[string]int, error)
	AppendReview(ctx context.Context, e models.ReviewEntry) (models.ReviewEntry, error)
	CountReviewsSince(ctx context.Context, kind models.ReviewKind, since time.Time) (int, error)
	RecentReviews(ctx context.Context, limit int) ([]models.ReviewEntry, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEvents sets a callback that receives "scan.finished", "card.reviewed"
// and "note.reviewed" events. It must not block.
func WithEvents(publish func(kind string, data any)) Option {
	return func(s *Service) { s.publish = publish }
}

// Service owns the deck tree and note queue of the last scan. Reviews and
// scans are serialized; a scan requested while another runs is dropped.
type Service struct {
	cfg     Config
	store   storage.Provider
	idx     Index
	logger  *slog.Logger
	now     func() time.Time
	publish func(kind string, data any)

	guard scanGuard

	mu        sync.Mutex
	snap      *snapshot
	postponed *postpone.List
	day       string
}

// NewService returns a service with an empty deck tree. Call Scan to populate it.
func NewService(cfg Config, store storage.Provider, idx Index, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		store:     store,
		idx:       idx,
		logger:    slog.Default(),
		now:       time.Now,
		snap:      newSnapshot(time.Time{}),
		postponed: postpone.New(idx, cfg.BurySiblings),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(kind string, data any) {
	if s.publish != nil {
		s.publish(kind, data)
	}
}

// State returns whether a scan is running.
func (s *Service) State() ScanState {
	return s.guard.State()
}

// ScanStats summarizes what the last scan found.
type ScanStats struct {
	Notes          int       `json:"notes"`
	Failed         int       `json:"failed"`
	Rewritten      int       `json:"rewritten"`
	Questions      int       `json:"questions"`
	Cards          int       `json:"cards"`
	NewCards       int       `json:"new_cards"`
	DueCards       int       `json:"due_cards"`
	ScheduledCards int       `json:"scheduled_cards"`
	ReviewNotes    int       `json:"review_notes"`
	ScannedAt      time.Time `json:"scanned_at"`
}

type noteEntry struct {
	path     string
	title    string
	schedule *schedule.Info
}

// easeMap holds the known ease of each note. Adding a second value averages it in.
type easeMap map[string]float64

func (m easeMap) add(path string, ease float64) {
	if old, ok := m[path]; ok {
		m[path] = (old + ease) / 2
		return
	}
	m[path] = ease
}

type snapshot struct {
	stats     ScanStats
	root      *deck.Deck
	cards     map[string]*cards.Card
	questions map[string][]*cards.Question
	notes     map[string]*noteEntry
	newNotes  []*noteEntry
	scheduled []*noteEntry
	cardHist  scheduler.DueHistogram
	noteHist  scheduler.DueHistogram
	links     map[string]map[string]int
	ranks     map[string]float64
	eases     easeMap
}

func newSnapshot(at time.Time) *snapshot {
	return &snapshot{
		stats:     ScanStats{ScannedAt: at},
		root:      deck.New("root", nil),
		cards:     make(map[string]*cards.Card),
		questions: make(map[string][]*cards.Question),
		notes:     make(map[string]*noteEntry),
		cardHist:  make(scheduler.DueHistogram),
		noteHist:  make(scheduler.DueHistogram),
		links:     make(map[string]map[string]int),
		ranks:     make(map[string]float64),
		eases:     make(easeMap),
	}
}

// Scan rebuilds the deck tree, the note queue, and the link ranking from the
// vault. Notes are processed one at a time; a note that cannot be read is
// logged and skipped. Questions whose embedded schedule lists more tuples than
// siblings are rewritten. It returns ErrScanInProgress if a scan is already running.
func (s *Service) Scan(ctx context.Context) (ScanStats, error) {
	ticket, ok := s.guard.TryBeginScan()
	if !ok {
		return ScanStats{}, ErrScanInProgress
	}
	defer ticket.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	now := s.now()
	if err := s.rollDay(ctx, now); err != nil {
		return ScanStats{}, err
	}

	metas, err := s.store.List("")
	if err != nil {
		return ScanStats{}, fmt.Errorf("review: list notes: %w", err)
	}
	links, err := s.idx.ResolvedLinks(ctx)
	if err != nil {
		return ScanStats{}, fmt.Errorf("review: resolve links: %w", err)
	}

	snap := newSnapshot(now)
	snap.links = links
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return ScanStats{}, err
		}
		s.scanNote(snap, m.Path, now)
	}
	s.rank(snap)
	snap.root.SortSubdecks()

	s.snap = snap
	s.logger.Info("review: scan finished",
		slog.Int("notes", snap.stats.Notes),
		slog.Int("cards", snap.stats.Cards),
		slog.Int("due_cards", snap.stats.DueCards),
		slog.Int("new_cards", snap.stats.NewCards),
		slog.Int("review_notes", snap.stats.ReviewNotes),
		slog.Duration("took", time.Since(started)))
	s.emit("scan.finished", snap.stats)
	return snap.stats, nil
}

func (s *Service) scanNote(snap *snapshot, path string, now time.Time) {
	data, err := s.store.Read(path)
	if err != nil {
		s.logger.Warn("review: read failed", slog.String("path", path), slog.String("error", err.Error()))
		snap.stats.Failed++
		return
	}
	text, crlf := normalizeNewlines(string(data))
	note, err := parser.Parse([]byte(text))
	if err != nil {
		s.logger.Warn("review: parse failed", slog.String("path", path), slog.String("error", err.Error()))
		snap.stats.Failed++
		return
	}
	snap.stats.Notes++

	if hasAnyTag(note, s.cfg.ReviewTags) {
		entry := &noteEntry{path: path, title: note.Title}
		if info, ok := schedule.ParseNoteSchedule(text); ok {
			entry.schedule = info
			snap.noteHist.Add(info.DaysUntilDue(now))
			snap.eases.add(path, float64(info.Ease))
			snap.scheduled = append(snap.scheduled, entry)
		} else {
			snap.newNotes = append(snap.newNotes, entry)
		}
		snap.notes[path] = entry
		snap.stats.ReviewNotes++
	}

	qc := cards.QuestionContext{
		NotePath:      path,
		NoteTopics:    s.noteTopics(path, note),
		FlashcardTags: s.cfg.FlashcardTags,
		Parser:        s.cfg.Parser,
	}
	var questions []*cards.Question
	for _, b := range cards.Parse(text, s.cfg.Parser) {
		if q := cards.NewQuestion(b, qc); q != nil && len(q.Topics) > 0 {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return
	}

	s.rewriteDirty(snap, path, text, crlf, questions)

	for _, q := range questions {
		snap.stats.Questions++
		for _, c := range q.Cards {
			snap.cards[c.ID] = c
			snap.stats.Cards++
			if c.IsNew() {
				snap.root.AppendCard(q.Topics, c)
				snap.stats.NewCards++
				continue
			}
			snap.cardHist.Add(c.Schedule.DaysUntilDue(now))
			snap.eases.add(path, float64(c.Schedule.Ease))
			if c.IsDue(now) {
				snap.root.AppendCard(q.Topics, c)
				snap.stats.DueCards++
			} else {
				snap.stats.ScheduledCards++
			}
		}
	}
	snap.questions[path] = questions
}

// noteTopics returns the decks a note's cards go to unless a question names its own.
func (s *Service) noteTopics(path string, note *parser.Result) []topic.Path {
	if s.cfg.ConvertFoldersToDecks {
		return []topic.Path{topic.FromFolder(path)}
	}
	var out []topic.Path
	for _, tag := range note.Tags {
		if cards.MatchesTag(tag, s.cfg.FlashcardTags) {
			out = append(out, topic.FromTag(tag))
		}
	}
	return out
}

// rewriteDirty persists questions whose schedule comment lost excess tuples.
// The questions keep their scanned spans if the write fails.
func (s *Service) rewriteDirty(snap *snapshot, path, text string, crlf bool, questions []*cards.Question) {
	updated := text
	var planned []rewrite
	for i := len(questions) - 1; i >= 0; i-- {
		q := questions[i]
		if !q.Dirty {
			continue
		}
		repl := q.EncodeText(s.cfg.Scheduler.BaseEase, s.cfg.CommentOnSameLine)
		next, rw, ok := planRewrite(updated, q, repl)
		if !ok {
			s.logger.Warn("review: question not found for rewrite", slog.String("path", path), slog.Int("line", q.Line))
			continue
		}
		updated = next
		planned = append(planned, rw)
	}
	if len(planned) == 0 {
		return
	}
	if err := s.store.Write(path, []byte(restoreNewlines(updated, crlf))); err != nil {
		s.logger.Warn("review: write failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	for _, rw := range planned {
		rw.commit(questions)
	}
	snap.stats.Rewritten++
}

// rank scores notes by PageRank over link counts and orders the note queue.
func (s *Service) rank(snap *snapshot) {
	g := pagerank.New()
	sources := make([]string, 0, len(snap.links))
	for src := range snap.links {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		targets := make([]string, 0, len(snap.links[src]))
		for t := range snap.links[src] {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			g.Link(src, t, float64(snap.links[src][t]))
		}
	}
	if g.Len() > 0 {
		g.Rank(pageRankDamping, pageRankEpsilon, func(node string, score float64) {
			snap.ranks[node] = score * rankScale
		})
	}

	sort.SliceStable(snap.newNotes, func(i, j int) bool {
		a, b := snap.newNotes[i], snap.newNotes[j]
		if snap.ranks[a.path] != snap.ranks[b.path] {
			return snap.ranks[a.path] > snap.ranks[b.path]
		}
		return a.path < b.path
	})
	sortScheduled(snap)
}

func sortScheduled(snap *snapshot) {
	sort.SliceStable(snap.scheduled, func(i, j int) bool {
		a, b := snap.scheduled[i], snap.scheduled[j]
		if !a.schedule.Due.Equal(b.schedule.Due) {
			return a.schedule.Due.Before(b.schedule.Due)
		}
		if snap.ranks[a.path] != snap.ranks[b.path] {
			return snap.ranks[a.path] > snap.ranks[b.path]
		}
		return a.path < b.path
	})
}

// rollDay loads the buried questions of the current day, which empties the
// list once the calendar date changes.
func (s *Service) rollDay(ctx context.Context, now time.Time) error {
	day := now.Format(schedule.DateLayout)
	if day == s.day {
		return nil
	}
	if err := s.postponed.Load(ctx, day); err != nil {
		return fmt.Errorf("review: load buried: %w", err)
	}
	s.day = day
	return nil
}

func hasAnyTag(note *parser.Result, tags []string) bool {
	for _, t := range tags {
		if note.HasTag(t) {
			return true
		}
	}
	return false
}

// Decks returns the full deck tree of the last scan.
func (s *Service) Decks() deck.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.root.Summary()
}

// ReviewableDecks returns the deck tree without buried questions.
func (s *Service) ReviewableDecks(ctx context.Context) (deck.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rollDay(ctx, s.now()); err != nil {
		return deck.Summary{}, err
	}
	return s.reviewable().Summary(), nil
}

func (s *Service) reviewable() *deck.Deck {
	return s.snap.root.CopyWithCardFilter(func(c *cards.Card) bool {
		return !s.postponed.Includes(c.Question.Hash)
	})
}
