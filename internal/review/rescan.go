package review

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const defaultRescanDelay = 500 * time.Millisecond

// Rescanner coalesces vault change notifications into one Scan per quiet period.
type Rescanner struct {
	svc    *Service
	delay  time.Duration
	notify chan struct{}
}

// NewRescanner returns a Rescanner for svc. A delay of zero uses 500ms.
func NewRescanner(svc *Service, delay time.Duration) *Rescanner {
	if delay <= 0 {
		delay = defaultRescanDelay
	}
	return &Rescanner{svc: svc, delay: delay, notify: make(chan struct{}, 1)}
}

// Notify schedules a rescan. It never blocks.
func (r *Rescanner) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Run rescans the vault after each burst of notifications until ctx is done.
// A rescan that collides with a running scan is retried after another delay.
func (r *Rescanner) Run(ctx context.Context) error {
	timer := time.NewTimer(r.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.notify:
			timer.Reset(r.delay)
		case <-timer.C:
			_, err := r.svc.Scan(ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrScanInProgress):
				r.svc.logger.Debug("review: rescan deferred, scan in progress")
				timer.Reset(r.delay)
			case ctx.Err() != nil:
				return nil
			default:
				r.svc.logger.Warn("review: rescan failed", slog.String("error", err.Error()))
			}
		}
	}
}
