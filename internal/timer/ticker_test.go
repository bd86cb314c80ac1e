package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerCallsFn(t *testing.T) {
	var n atomic.Int32
	tk := New(func() { n.Add(1) }, Config{Interval: 10 * time.Millisecond})
	if tk == nil {
		t.Fatal("New returned nil for a positive interval")
	}
	defer tk.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("ticks = %d, want >= 3", n.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTickerDisabled(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if tk := New(func() {}, Config{Interval: d}); tk != nil {
			tk.Stop()
			t.Errorf("New(%v) = non-nil, want nil", d)
		}
	}
	if tk := New(nil, Config{Interval: time.Second}); tk != nil {
		tk.Stop()
		t.Error("New(nil fn) = non-nil, want nil")
	}
}

func TestTickerStopHaltsTicks(t *testing.T) {
	var n atomic.Int32
	tk := New(func() { n.Add(1) }, Config{Interval: 5 * time.Millisecond})
	time.Sleep(30 * time.Millisecond)
	tk.Stop()

	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got != after {
		t.Errorf("ticks after Stop = %d, want %d", got, after)
	}
}

func TestTickerStopIdempotent(t *testing.T) {
	tk := New(func() {}, Config{Interval: time.Hour})
	tk.Stop()
	tk.Stop()

	var nilTicker *Ticker
	nilTicker.Stop()
}
