// Package scheduler drives the periodic all-users sweep. One ticker fires
// at the poll interval; each tick walks the allow-listed users strictly
// sequentially with a short yield between them so interactive commands are
// not starved. Re-entrancy per user is prevented by the session flag inside
// the check service, not here.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultYield is the pause between users within one sweep.
const DefaultYield = 2 * time.Second

// Poller runs the scheduled sweep.
type Poller struct {
	users        []int64
	interval     time.Duration
	initialDelay time.Duration
	yield        time.Duration

	// runUser executes one per-user check; it must swallow its own errors.
	runUser func(ctx context.Context, userID int64)

	log    zerolog.Logger
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	nextRun time.Time
}

// New creates a Poller sweeping users every interval, first firing after
// initialDelay.
func New(users []int64, interval, initialDelay time.Duration, runUser func(ctx context.Context, userID int64), log zerolog.Logger) *Poller {
	return &Poller{
		users:        users,
		interval:     interval,
		initialDelay: initialDelay,
		yield:        DefaultYield,
		runUser:      runUser,
		log:          log.With().Str("component", "scheduler").Logger(),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine.
func (p *Poller) Start(ctx context.Context) {
	p.setNextRun(time.Now().Add(p.initialDelay))

	go func() {
		defer close(p.doneCh)

		first := time.NewTimer(p.initialDelay)
		defer first.Stop()
		select {
		case <-first.C:
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}

		p.sweep(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			p.setNextRun(time.Now().Add(p.interval))
			select {
			case <-ticker.C:
				p.sweep(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop and waits for the current sweep to finish.
func (p *Poller) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

// NextRun reports when the next sweep is due, for status queries.
func (p *Poller) NextRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextRun
}

func (p *Poller) setNextRun(t time.Time) {
	p.mu.Lock()
	p.nextRun = t
	p.mu.Unlock()
}

// sweep checks every user in order, yielding briefly between them.
func (p *Poller) sweep(ctx context.Context) {
	start := time.Now()
	for i, userID := range p.users {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		p.runUser(ctx, userID)

		if p.yield > 0 && i < len(p.users)-1 {
			select {
			case <-time.After(p.yield):
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}
	p.log.Info().Int("users", len(p.users)).Dur("took", time.Since(start)).Msg("sweep complete")
}
