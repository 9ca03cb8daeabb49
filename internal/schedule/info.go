// Package schedule encodes and decodes review schedules embedded in note text:
// per-card HTML comments and whole-note sr-* frontmatter fields.
package schedule

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the layout every due date is written with.
const DateLayout = "2006-01-02"

// MinEase is the lowest ease a schedule may carry.
const MinEase = 130

// dummyDue marks a placeholder tuple for a sibling that has never been reviewed.
const dummyDue = "2000-01-01"

// dueLayouts are the accepted read formats for due dates, tried in order.
var dueLayouts = []string{DateLayout, "02-01-2006", "Mon Jan 02 2006"}

// Info is the review schedule of one card or note.
// It is replaced wholesale on every review, never mutated.
type Info struct {
	Due      time.Time
	Interval float64
	Ease     int
}

// NewInfo returns a schedule due on the calendar date of due.
func NewInfo(due time.Time, interval float64, ease int) *Info {
	return &Info{Due: truncateDay(due), Interval: interval, Ease: ease}
}

// FromInterval returns the schedule of a review performed at now.
func FromInterval(now time.Time, interval float64, ease int) *Info {
	due := now.Add(time.Duration(interval * float64(24*time.Hour)))
	return NewInfo(due, interval, ease)
}

// Dummy returns the placeholder schedule written for unreviewed siblings.
func Dummy(baseEase int) *Info {
	due, _ := time.ParseInLocation(DateLayout, dummyDue, time.Local)
	return &Info{Due: due, Interval: 1, Ease: baseEase}
}

// IsDue reports whether the schedule is due at now.
func (i *Info) IsDue(now time.Time) bool {
	return !now.Before(i.Due)
}

// Overdue returns how long past its due date the schedule is at now.
// A negative result means it is not yet due.
func (i *Info) Overdue(now time.Time) time.Duration {
	return now.Sub(i.Due)
}

// DaysUntilDue returns the number of days from now to the due date, rounded up.
func (i *Info) DaysUntilDue(now time.Time) int {
	return int(math.Ceil(i.Due.Sub(now).Hours() / 24))
}

// String renders the tuple form "date,interval,ease".
func (i *Info) String() string {
	return fmt.Sprintf("%s,%s,%d", i.Due.Format(DateLayout), FormatInterval(i.Interval), i.Ease)
}

// ParseDate parses a due date in any accepted format.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("schedule: unrecognized due date %q", s)
}

// FormatInterval renders an interval with at most one decimal and no trailing zero.
func FormatInterval(interval float64) string {
	return strconv.FormatFloat(math.Round(interval*10)/10, 'f', -1, 64)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
