package scheduler

import (
	"errors"
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

const day = 24 * time.Hour

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %.4f, want %.4f", name, got, want)
	}
}

func TestSchedule_NewCardGood(t *testing.T) {
	res := Schedule(Good, 1, 250, 0, DefaultConfig(), nil)
	assertFloat(t, "interval", res.Interval, 2.5)
	if res.Ease != 250 {
		t.Errorf("ease = %d, want 250", res.Ease)
	}
}

func TestSchedule_Easy(t *testing.T) {
	// ease 270, 1 * 2.7 * 1.3 = 3.51 -> 3.5
	res := Schedule(Easy, 1, 250, 0, DefaultConfig(), nil)
	assertFloat(t, "interval", res.Interval, 3.5)
	if res.Ease != 270 {
		t.Errorf("ease = %d, want 270", res.Ease)
	}
}

func TestSchedule_Hard(t *testing.T) {
	res := Schedule(Hard, 10, 250, 0, DefaultConfig(), nil)
	assertFloat(t, "interval", res.Interval, 5)
	if res.Ease != 230 {
		t.Errorf("ease = %d, want 230", res.Ease)
	}

	res = Schedule(Hard, 1, 250, 0, DefaultConfig(), nil)
	assertFloat(t, "minimum interval", res.Interval, 1)
}

func TestSchedule_OverdueDays(t *testing.T) {
	// (10 + 4/2) * 2.5 = 30
	res := Schedule(Good, 10, 250, 4*day+5*time.Hour, DefaultConfig(), nil)
	assertFloat(t, "good", res.Interval, 30)

	// (10 + 4) * 2.7 * 1.3 = 49.14 -> 49.1
	res = Schedule(Easy, 10, 250, 4*day, DefaultConfig(), nil)
	assertFloat(t, "easy", res.Interval, 49.1)

	// (10 + 1) * 0.5 = 5.5
	res = Schedule(Hard, 10, 250, 4*day, DefaultConfig(), nil)
	assertFloat(t, "hard", res.Interval, 5.5)
}

func TestSchedule_NegativeOverdueClamped(t *testing.T) {
	early := Schedule(Good, 10, 250, -3*day, DefaultConfig(), nil)
	onTime := Schedule(Good, 10, 250, 0, DefaultConfig(), nil)
	assertFloat(t, "interval", early.Interval, onTime.Interval)
}

func TestSchedule_Monotonic(t *testing.T) {
	cfg := DefaultConfig()
	for _, ease := range []int{130, 200, 250, 300} {
		for _, overdue := range []int{0, 1, 5, 30} {
			for _, ivl := range []float64{1, 3, 10, 100} {
				d := time.Duration(overdue) * day
				easy := Schedule(Easy, ivl, ease, d, cfg, nil).Interval
				good := Schedule(Good, ivl, ease, d, cfg, nil).Interval
				hard := Schedule(Hard, ivl, ease, d, cfg, nil).Interval
				if easy < good || good < hard {
					t.Errorf("ease=%d overdue=%d ivl=%v: easy=%v good=%v hard=%v", ease, overdue, ivl, easy, good, hard)
				}
			}
		}
	}
}

func TestSchedule_Clamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaximumInterval = 365
	res := Schedule(Easy, 30000, 250, 0, cfg, nil)
	assertFloat(t, "interval", res.Interval, 365)

	res = Schedule(Easy, 300, 250, 0, cfg, DueHistogram{})
	if res.Interval > 365 {
		t.Errorf("interval = %v exceeds maximum", res.Interval)
	}

	for _, ease := range []int{130, 140, 149} {
		if got := Schedule(Hard, 10, ease, 0, cfg, nil).Ease; got < 130 {
			t.Errorf("ease %d -> %d, below floor", ease, got)
		}
	}
}

func TestFuzzWindow(t *testing.T) {
	cases := []struct {
		interval, lo, hi int
	}{
		{1, 1, 1},
		{4, 4, 4},
		{5, 4, 6},
		{6, 5, 7},
		{10, 8, 12},
		{20, 17, 23},
		{29, 25, 33},
		{30, 26, 34},
		{100, 95, 105},
	}
	for _, tc := range cases {
		lo, hi := FuzzWindow(tc.interval)
		if lo != tc.lo || hi != tc.hi {
			t.Errorf("FuzzWindow(%d) = [%d, %d], want [%d, %d]", tc.interval, lo, hi, tc.lo, tc.hi)
		}
	}
}

func TestSchedule_SmallIntervalNotMoved(t *testing.T) {
	hist := DueHistogram{2: 50, 3: 0, 4: 0}
	// 1 * 2.5 = 2.5 -> rounds to 3
	res := Schedule(Good, 1, 250, 0, DefaultConfig(), hist)
	assertFloat(t, "interval", res.Interval, 3)
	if hist[3] != 1 {
		t.Errorf("hist[3] = %d, want 1", hist[3])
	}
}

func TestSchedule_LoadBalancing(t *testing.T) {
	// 4 * 2.5 = 10, window [8, 12]
	hist := DueHistogram{8: 5, 9: 5, 10: 5, 11: 1, 12: 5}
	res := Schedule(Good, 4, 250, 0, DefaultConfig(), hist)
	assertFloat(t, "interval", res.Interval, 11)
	if hist[11] != 2 {
		t.Errorf("hist[11] = %d, want 2", hist[11])
	}
	if hist[10] != 5 {
		t.Errorf("hist[10] = %d, want 5 (untouched)", hist[10])
	}
}

func TestSchedule_LoadBalancingTieGoesToEarliest(t *testing.T) {
	hist := DueHistogram{}
	res := Schedule(Good, 4, 250, 0, DefaultConfig(), hist)
	assertFloat(t, "interval", res.Interval, 8)

	// Day 8 now has one review; the next tie among 9..12 resolves to 9.
	res = Schedule(Good, 4, 250, 0, DefaultConfig(), hist)
	assertFloat(t, "interval", res.Interval, 9)
}

func TestSchedule_Deterministic(t *testing.T) {
	h1 := DueHistogram{20: 3, 18: 1}
	h2 := DueHistogram{20: 3, 18: 1}
	for i := 0; i < 10; i++ {
		a := Schedule(Good, 8, 250, 0, DefaultConfig(), h1)
		b := Schedule(Good, 8, 250, 0, DefaultConfig(), h2)
		if a != b {
			t.Fatalf("run %d: %v != %v", i, a, b)
		}
	}
}

func TestResetSchedule(t *testing.T) {
	res := ResetSchedule(DefaultConfig())
	if res.Interval != 1 || res.Ease != 250 {
		t.Errorf("reset = %+v", res)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	cfg.BaseEase = 100
	if err := cfg.Validate(); err == nil {
		t.Error("base ease below 130 should fail")
	}
}

func TestParseResponse(t *testing.T) {
	for _, name := range []string{"easy", "Good", "HARD", "reset"} {
		r, err := ParseResponse(name)
		if err != nil {
			t.Errorf("ParseResponse(%q): %v", name, err)
			continue
		}
		if !r.IsValid() {
			t.Errorf("ParseResponse(%q) = %v, invalid", name, r)
		}
	}
	if _, err := ParseResponse("again"); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}
