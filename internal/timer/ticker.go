// Package timer drives the periodic status broadcast.
package timer

import (
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/msglog/internal/model"
)

// Config holds configuration for the ticker.
type Config struct {
	Interval time.Duration
}

// Ticker calls a function on a fixed interval until stopped.
type Ticker struct {
	interval time.Duration
	fn       func()
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New starts a ticker that calls fn every interval. Returns nil when the
// interval is 0 or negative (disabled). A nil *Ticker is safe to Stop.
func New(fn func(), conf ...Config) *Ticker {
	interval := model.DefaultTimerInterval
	if len(conf) > 0 {
		interval = conf[0].Interval
	}
	if interval <= 0 || fn == nil {
		return nil
	}

	t := &Ticker{
		interval: interval,
		fn:       fn,
		done:     make(chan struct{}),
	}

	t.wg.Add(1)
	go t.tickLoop()

	log.Printf("timer: ticking every %s", interval)
	return t
}

func (t *Ticker) tickLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.fn()
		case <-t.done:
			return
		}
	}
}

// Stop signals the ticker to stop and waits for an in-flight tick to finish.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		close(t.done)
		t.wg.Wait()
	})
}
