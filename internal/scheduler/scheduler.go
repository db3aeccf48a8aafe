package scheduler

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homesim/internal/clock"
)

// Action runs when an armed trigger fires. gen is the generation the trigger
// was armed with; the action must confirm it is still current (see IsCurrent)
// under its own lock before mutating anything.
type Action func(gen uint64)

type slot struct {
	gen    uint64
	timer  clock.Timer
	fireAt time.Time
	armed  bool
}

// Scheduler keeps at most one pending deferred trigger per key. Every Arm and
// Cancel bumps the key's generation, so a timer that was already in flight
// when it got superseded sees a stale generation and does nothing.
type Scheduler struct {
	logger *log.Logger
	clock  clock.Clock

	mu    sync.Mutex
	slots map[string]*slot
}

func NewScheduler(logger *log.Logger, clk clock.Clock) *Scheduler {
	return &Scheduler{logger: logger, clock: clk, slots: map[string]*slot{}}
}

// Arm schedules action to run at fireAt, replacing any trigger already armed
// for key. It returns the new generation.
func (s *Scheduler) Arm(key string, fireAt time.Time, action Action) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotFor(key)
	s.stop(sl)
	sl.gen++
	gen := sl.gen
	sl.fireAt = fireAt
	sl.armed = true

	delay := fireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	sl.timer = s.clock.AfterFunc(delay, func() {
		if !s.IsCurrent(key, gen) {
			s.logger.Debug("stale trigger fired, ignoring", "key", key, "gen", gen)
			return
		}
		action(gen)
	})

	s.logger.Debug("trigger armed", "key", key, "fireAt", fireAt, "gen", gen)
	return gen
}

// Cancel invalidates any trigger armed for key. Safe to call when none is armed.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		return
	}
	if sl.armed {
		s.logger.Debug("trigger cancelled", "key", key, "gen", sl.gen)
	}
	s.stop(sl)
	sl.gen++
}

// CancelAll invalidates every armed trigger.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range s.slots {
		s.stop(sl)
		sl.gen++
	}
}

// IsCurrent reports whether gen is still the live armed generation for key.
func (s *Scheduler) IsCurrent(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	return ok && sl.armed && sl.gen == gen
}

// Complete marks the trigger with generation gen as consumed. It returns false
// if the trigger was superseded in the meantime.
func (s *Scheduler) Complete(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok || !sl.armed || sl.gen != gen {
		return false
	}
	sl.armed = false
	sl.timer = nil
	return true
}

// Pending returns the deadline of the trigger armed for key, if any.
func (s *Scheduler) Pending(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok || !sl.armed {
		return time.Time{}, false
	}
	return sl.fireAt, true
}

func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sl := range s.slots {
		if sl.armed {
			n++
		}
	}
	return n
}

func (s *Scheduler) slotFor(key string) *slot {
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{}
		s.slots[key] = sl
	}
	return sl
}

func (s *Scheduler) stop(sl *slot) {
	if sl.timer != nil {
		sl.timer.Stop()
		sl.timer = nil
	}
	sl.armed = false
	sl.fireAt = time.Time{}
}
