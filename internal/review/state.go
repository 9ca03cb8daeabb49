package review

import (
	"errors"
	"sync"
)

// ErrScanInProgress is returned when a scan is requested while another one runs.
// The request is dropped, not queued.
var ErrScanInProgress = errors.New("review: scan in progress")

// ScanState tells whether a vault scan is running.
type ScanState int

const (
	Idle ScanState = iota
	Scanning
)

func (s ScanState) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "idle"
}

type scanGuard struct {
	mu    sync.Mutex
	state ScanState
	gen   uint64
}

// ScanTicket is held by the one running scan. End returns the guard to Idle.
type ScanTicket struct {
	g   *scanGuard
	gen uint64
}

// End releases the ticket. Only the ticket of the running scan can end it;
// a repeated or stale End is ignored.
func (t ScanTicket) End() {
	if t.g == nil {
		return
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.g.gen == t.gen {
		t.g.state = Idle
	}
}

// TryBeginScan moves the guard to Scanning and returns a ticket, or reports
// false when a scan is already running.
func (g *scanGuard) TryBeginScan() (ScanTicket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Scanning {
		return ScanTicket{}, false
	}
	g.state = Scanning
	g.gen++
	return ScanTicket{g: g, gen: g.gen}, true
}

// State returns the current scan state.
func (g *scanGuard) State() ScanState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
