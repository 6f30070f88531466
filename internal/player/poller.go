package player

import (
	"sync"
	"time"
)

// progressPoller is the cancellable repeating task that tracks playback
// progress and fires auto-advance. The service owns at most one live poller;
// starting a new one supersedes the previous. Cancel is idempotent and safe
// to call when the poller never ran.
type progressPoller struct {
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once

	// fired guards single-shot auto-advance; a finished track must not
	// advance again on subsequent polls of the same terminal state.
	fired bool
}

func newProgressPoller(interval time.Duration) *progressPoller {
	return &progressPoller{
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (p *progressPoller) cancel() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// run ticks until cancelled or superseded. pollOnce reports whether this
// poller is still the live one.
func (p *progressPoller) run(s *Service) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if !s.pollOnce(p) {
				return
			}
		}
	}
}

// startPollerLocked supersedes any previous poller and launches a new one.
// Caller holds s.mu.
func (s *Service) startPollerLocked() {
	if s.poller != nil {
		s.poller.cancel()
	}
	p := newProgressPoller(s.pollInterval)
	s.poller = p
	go p.run(s)
}

// cancelPollerLocked cancels the live poller, if any. Caller holds s.mu.
func (s *Service) cancelPollerLocked() {
	if s.poller != nil {
		s.poller.cancel()
		s.poller = nil
	}
}

// pollOnce reads the adapter position, updates the cursor and fires
// auto-advance when the track finished. Returns false once this poller is
// no longer the live one.
func (s *Service) pollOnce(p *progressPoller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poller != p {
		return false // superseded between tick and lock
	}

	cur := s.cursor.Snapshot()
	elapsed := 0.0
	if ms := s.playback.ElapsedMillis(); ms >= 0 {
		elapsed = float64(ms) / 1000.0
	}
	total := float64(cur.Total)
	fraction := 0.0
	if total > 0 {
		fraction = elapsed / total
		if fraction > 1 {
			fraction = 1
		}
	}
	s.cursor.SetProgress(int(elapsed), cur.Total)

	if s.playback.IsBusy() || total <= 0 || fraction < s.threshold || p.fired {
		return true
	}

	// Track finished: advance exactly once. Playing the next song starts a
	// fresh poller; an empty choice resets to the stopped state.
	p.fired = true
	if next := s.navigateLocked(+1); next != nil {
		if err := s.playLocked(*next, s.cursor.Snapshot().Mode); err != nil {
			s.logger.WithError(err).WithField("id", next.ID).Warn("Auto-advance playback failed")
		}
		return false
	}
	s.stopLocked()
	return false
}
