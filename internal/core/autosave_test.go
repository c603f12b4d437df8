package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebounceCoalescesBursts(t *testing.T) {
	var saves atomic.Int64
	s := NewSaveScheduler(func(context.Context) error {
		saves.Add(1)
		return nil
	}, 30*time.Millisecond, -1)

	for i := 0; i < 5; i++ {
		s.Touch()
		time.Sleep(5 * time.Millisecond)
	}
	if got := saves.Load(); got != 0 {
		t.Fatalf("save fired inside the debounce window: %d", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for saves.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := saves.Load(); got != 1 {
		t.Fatalf("burst of touches produced %d saves, want 1", got)
	}
}

func TestFlushCancelsPendingDebounce(t *testing.T) {
	var saves atomic.Int64
	s := NewSaveScheduler(func(context.Context) error {
		saves.Add(1)
		return nil
	}, 50*time.Millisecond, -1)

	s.Touch()
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := saves.Load(); got != 1 {
		t.Fatalf("flush saves = %d, want 1", got)
	}

	// The cancelled debounce never fires afterwards.
	time.Sleep(120 * time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Fatalf("cancelled debounce fired anyway: %d", got)
	}
}

func TestIntervalLoopSavesPeriodically(t *testing.T) {
	var saves atomic.Int64
	s := NewSaveScheduler(func(context.Context) error {
		saves.Add(1)
		return nil
	}, time.Hour, 20*time.Millisecond)

	s.Start()
	deadline := time.Now().Add(2 * time.Second)
	for saves.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Close()
	if got := saves.Load(); got < 2 {
		t.Fatalf("interval loop produced %d saves", got)
	}

	// Closed scheduler stays quiet.
	final := saves.Load()
	time.Sleep(60 * time.Millisecond)
	if saves.Load() != final {
		t.Fatalf("scheduler saved after Close")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s := NewSaveScheduler(func(context.Context) error { return nil }, time.Hour, time.Hour)
	s.Start()
	s.Start()
	s.Close()
	s.Close()
}
