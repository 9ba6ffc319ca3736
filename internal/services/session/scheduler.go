package session

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// timerEntry is the per-key slot. The entry is fully built before the
// timer is armed, so the callback can identify its own slot without
// touching the *time.Timer field.
type timerEntry struct {
	timer *time.Timer
}

// Scheduler owns delayed callbacks keyed by string. Each key holds at most
// one pending timer: scheduling replaces any prior timer for the key, so a
// stale callback can never fire alongside its replacement. Cancel on an
// absent key is a no-op.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*timerEntry
	logger *slog.Logger
}

// NewScheduler creates a new Scheduler
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*timerEntry),
		logger: logger.With(slog.String("component", "scheduler")),
	}
}

// Schedule registers fn to run after d, replacing any pending timer for key.
// A panic inside fn is recovered and logged so a failing callback cannot
// take down the scheduler.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[key]; ok {
		existing.timer.Stop()
	}

	entry := &timerEntry{}
	entry.timer = time.AfterFunc(d, func() {
		s.clear(key, entry)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("timer callback panicked",
					slog.String("key", key),
					slog.Any("panic", r),
				)
			}
		}()
		fn()
	})
	s.timers[key] = entry
}

// Cancel stops and removes the pending timer for key, if any
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.timers[key]; ok {
		entry.timer.Stop()
		delete(s.timers, key)
	}
}

// CancelPrefix stops and removes every pending timer whose key starts with
// prefix. Used to tear down all of a room's timers when it is deleted.
func (s *Scheduler) CancelPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.timers {
		if strings.HasPrefix(key, prefix) {
			entry.timer.Stop()
			delete(s.timers, key)
		}
	}
}

// Pending reports whether a timer is scheduled for key
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// Stop cancels all pending timers
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.timers {
		entry.timer.Stop()
		delete(s.timers, key)
	}
}

// clear removes the slot for key only if it still holds the given entry,
// so a replacement scheduled while the callback races is left alone
func (s *Scheduler) clear(key string, entry *timerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.timers[key]; ok && current == entry {
		delete(s.timers, key)
	}
}
