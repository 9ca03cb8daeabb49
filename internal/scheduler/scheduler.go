// Package scheduler computes review intervals with a modified SM-2 algorithm.
//
// Schedule is a pure function apart from the optional due histogram, which it
// updates in place to spread reviews over nearby days instead of fuzzing randomly.
package scheduler

import (
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mneme/internal/schedule"
)

// Config holds the tunable scheduling parameters.
type Config struct {
	BaseEase             int     `yaml:"base_ease"`
	EasyBonus            float64 `yaml:"easy_bonus"`
	LapsesIntervalChange float64 `yaml:"lapses_interval_change"`
	MaximumInterval      int     `yaml:"maximum_interval"`
	MaxLinkFactor        float64 `yaml:"max_link_factor"`
}

// DefaultConfig returns the stock scheduling parameters.
func DefaultConfig() Config {
	return Config{
		BaseEase:             250,
		EasyBonus:            1.3,
		LapsesIntervalChange: 0.5,
		MaximumInterval:      36525,
		MaxLinkFactor:        1.0,
	}
}

// Validate validates the scheduling parameters.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseEase, validation.Required, validation.Min(schedule.MinEase)),
		validation.Field(&c.EasyBonus, validation.Required, validation.Min(1.0)),
		validation.Field(&c.LapsesIntervalChange, validation.Required, validation.Min(0.01), validation.Max(1.0)),
		validation.Field(&c.MaximumInterval, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxLinkFactor, validation.Min(0.0), validation.Max(1.0)),
	)
}

// DueHistogram counts scheduled reviews per day offset from today.
type DueHistogram map[int]int

// Add records one review due in days.
func (h DueHistogram) Add(days int) {
	h[days]++
}

// Result is the outcome of scheduling one review.
type Result struct {
	Interval float64
	Ease     int
}

// Schedule computes the next interval and ease for a review answered with resp.
// overdue is the time elapsed since the item's due date. When hist is non-nil the
// interval is moved to the least loaded day of its fuzz window and recorded in
// hist; pass nil for previews. Reset is not handled here, see ResetSchedule.
func Schedule(resp Response, interval float64, ease int, overdue time.Duration, cfg Config, hist DueHistogram) Result {
	overdueDays := math.Max(0, math.Floor(overdue.Hours()/24))

	switch resp {
	case Easy:
		ease += 20
		interval = (interval + overdueDays) * float64(ease) / 100
		interval *= cfg.EasyBonus
	case Good:
		interval = (interval + overdueDays/2) * float64(ease) / 100
	case Hard:
		ease = max(schedule.MinEase, ease-20)
		interval = math.Max(1, (interval+overdueDays/4)*cfg.LapsesIntervalChange)
	}

	if hist != nil {
		interval = float64(balance(int(math.Round(interval)), hist))
	}

	interval = math.Min(interval, float64(cfg.MaximumInterval))
	interval = math.Round(interval*10) / 10
	return Result{Interval: interval, Ease: ease}
}

// ResetSchedule returns the schedule parameters of an item whose progress is discarded.
func ResetSchedule(cfg Config) Result {
	return Result{Interval: 1.0, Ease: cfg.BaseEase}
}

// FuzzWindow returns the inclusive range of days an interval may be moved to.
// Intervals of four days or fewer are never moved.
func FuzzWindow(interval int) (lo, hi int) {
	if interval <= 4 {
		return interval, interval
	}
	var fuzz int
	switch {
	case interval < 7:
		fuzz = 1
	case interval < 30:
		fuzz = max(2, int(math.Floor(float64(interval)*0.15)))
	default:
		fuzz = max(4, int(math.Floor(float64(interval)*0.05)))
	}
	return interval - fuzz, interval + fuzz
}

// balance picks the day in the fuzz window with the smallest load, earliest day
// first on ties, and records the review on it.
func balance(interval int, hist DueHistogram) int {
	lo, hi := FuzzWindow(interval)
	best := lo
	for day := lo + 1; day <= hi; day++ {
		if hist[day] < hist[best] {
			best = day
		}
	}
	hist.Add(best)
	return best
}
