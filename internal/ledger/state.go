// Package ledger holds the single mutable aggregate of the service: the
// bounded message history, per-channel counters and the registry of
// connected push clients.
//
// State performs no locking. Exactly one goroutine may mutate it at a time;
// app.Service provides that guarantee.
package ledger

import (
	"time"

	"github.com/tinytelemetry/msglog/internal/model"
)

// Clock returns the current time. A failing clock yields timestamp 0.
type Clock func() (time.Time, error)

func systemClock() (time.Time, error) { return time.Now(), nil }

// State is the aggregate mutated by every inbound event.
type State struct {
	History []model.LogEntry
	Counts  []ChannelCount
	Config  model.AppConfig
	Clients []Client

	clock Clock
}

// New creates an empty state with cfg. A negative MaxHistory is treated as 0.
func New(cfg model.AppConfig) *State {
	if cfg.MaxHistory < 0 {
		cfg.MaxHistory = 0
	}
	return &State{
		History: make([]model.LogEntry, 0, cfg.MaxHistory+1),
		Config:  cfg,
		clock:   systemClock,
	}
}

// Restore adopts cfg after a reload. History beyond the new bound is
// dropped oldest first and the client registry is emptied, since no
// connection survives a restart. Counters are kept.
func (s *State) Restore(cfg model.AppConfig) {
	if cfg.MaxHistory < 0 {
		cfg.MaxHistory = 0
	}
	s.Config = cfg
	if s.History == nil {
		s.History = make([]model.LogEntry, 0, cfg.MaxHistory+1)
	}
	if over := len(s.History) - cfg.MaxHistory; over > 0 {
		s.History = append(s.History[:0:0], s.History[over:]...)
	}
	s.Clients = nil
}

// SetClock replaces the time source used for new entries.
func (s *State) SetClock(c Clock) {
	if c == nil {
		c = systemClock
	}
	s.clock = c
}

// Init records the synthetic startup entry.
func (s *State) Init() {
	s.LogEvent(model.NewEvent("System", model.ChannelInternal, model.Other("Initialization"), "Application started"))
}

// LogEvent appends ev to the history, bumps its channel counter and evicts
// the oldest entry when the history exceeds Config.MaxHistory. It never fails.
func (s *State) LogEvent(ev model.Event) {
	var content *string
	if s.Config.LogContent && ev.Content != nil {
		c := *ev.Content
		content = &c
	}

	s.History = append(s.History, model.LogEntry{
		Source:    ev.Source,
		Channel:   ev.Channel.String(),
		TypeName:  ev.Type.String(),
		Content:   content,
		Timestamp: s.timestamp(),
	})

	s.incrementCount(ev.Channel)

	// Each call appends one entry, so one eviction restores the bound.
	if len(s.History) > s.Config.MaxHistory {
		s.History[0] = model.LogEntry{}
		s.History = s.History[1:]
	}
}

// Clear drops all history and channel counters. Connected clients are kept.
func (s *State) Clear() {
	s.History = s.History[:0:0]
	s.Counts = nil
}

func (s *State) timestamp() uint64 {
	clock := s.clock
	if clock == nil {
		clock = systemClock
	}
	now, err := clock()
	if err != nil {
		return 0
	}
	secs := now.Unix()
	if secs < 0 {
		return 0
	}
	return uint64(secs)
}
