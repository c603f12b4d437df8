package core

import (
	"context"
	"sync"
	"time"
)

// Autosave defaults.
const (
	DefaultSaveDebounce     = 2 * time.Second
	DefaultAutosaveInterval = 30 * time.Second
)

// SaveScheduler coalesces mutation-triggered saves behind a debounce window
// and additionally persists on a fixed interval while running. The save
// function it drives must be safe for concurrent use.
type SaveScheduler struct {
	mu       sync.Mutex
	save     func(context.Context) error
	debounce time.Duration
	interval time.Duration
	pending  *time.Timer
	stop     chan struct{}
	done     chan struct{}
	running  bool
}

// NewSaveScheduler builds a scheduler around save. Zero durations take the
// defaults; a negative interval disables the periodic tick.
func NewSaveScheduler(save func(context.Context) error, debounce, interval time.Duration) *SaveScheduler {
	if debounce == 0 {
		debounce = DefaultSaveDebounce
	}
	if interval == 0 {
		interval = DefaultAutosaveInterval
	}
	return &SaveScheduler{save: save, debounce: debounce, interval: interval}
}

// Start launches the interval loop. Calling Start on a running scheduler is
// a no-op.
func (s *SaveScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.interval < 0 {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
}

func (s *SaveScheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = s.save(context.Background())
		}
	}
}

// Touch records a mutation: the save fires once the debounce window elapses
// without another Touch.
func (s *SaveScheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Reset(s.debounce)
		return
	}
	s.pending = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		_ = s.save(context.Background())
	})
}

// Flush cancels any pending debounce and saves immediately.
func (s *SaveScheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()
	return s.save(ctx)
}

// Close stops the interval loop and cancels pending work without a final
// save.
func (s *SaveScheduler) Close() {
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()
	close(stop)
	<-done
}
