/*
scheduler.go - Background expiry sweep

PURPOSE:
  Optionally finalizes stays whose exit date has passed without a checkout
  on a timer. Read paths already sweep on demand; the scheduler only makes
  expiry events go out when nobody is reading. Off unless
  HOTEL_SWEEP_INTERVAL is set.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Each run is one Service.Sweep call (one write transaction)

CONFIGURATION:
  - CheckInterval: How often to sweep (0 disables)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - booking/lifecycle.go: Sweep rules
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper finalizes lapsed stays. *booking.Service implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweepScheduler runs the expiry sweep on a ticker.
type SweepScheduler struct {
	Sweeper       Sweeper
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(s Sweeper) *SweepScheduler {
	return &SweepScheduler{
		Sweeper:       s,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled || ss.CheckInterval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if ss.ticker != nil {
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.stop = make(chan struct{})
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.RunNow()

	for {
		select {
		case <-ss.ticker.C:
			ss.RunNow()
		case <-ss.stop:
			return
		}
	}
}

// RunNow performs one sweep and returns how many stays it finalized.
func (ss *SweepScheduler) RunNow() int {
	n, err := ss.Sweeper.Sweep(context.Background())
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return 0
	}
	return n
}
