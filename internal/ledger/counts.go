package ledger

import "github.com/tinytelemetry/msglog/internal/model"

// ChannelCount is one entry of the counter table. The table is kept as an
// ordered list so channel stats come out in first-seen order.
type ChannelCount struct {
	Channel model.ChannelKind
	Count   uint64
}

func (s *State) incrementCount(ch model.ChannelKind) {
	for i := range s.Counts {
		if s.Counts[i].Channel == ch {
			s.Counts[i].Count++
			return
		}
	}
	s.Counts = append(s.Counts, ChannelCount{Channel: ch, Count: 1})
}

// Count returns the cumulative count for ch since the last clear.
func (s *State) Count(ch model.ChannelKind) uint64 {
	for _, c := range s.Counts {
		if c.Channel == ch {
			return c.Count
		}
	}
	return 0
}
