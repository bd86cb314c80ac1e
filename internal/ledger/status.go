package ledger

import "github.com/tinytelemetry/msglog/internal/model"

// Status summarizes the state. It does not mutate s.
func (s *State) Status() model.StatusResponse {
	stats := make([]model.ChannelStat, 0, len(s.Counts))
	for _, c := range s.Counts {
		stats = append(stats, model.ChannelStat{Channel: c.Channel.String(), Count: c.Count})
	}
	return model.StatusResponse{
		ClientCount:  uint64(len(s.Clients)),
		MessageCount: uint64(len(s.History)),
		ChannelStats: stats,
	}
}

// HistoryCopy returns a copy of the retained history, oldest first.
func (s *State) HistoryCopy() model.HistoryResponse {
	entries := make([]model.LogEntry, len(s.History))
	for i, e := range s.History {
		if e.Content != nil {
			c := *e.Content
			e.Content = &c
		}
		entries[i] = e
	}
	return model.HistoryResponse{Entries: entries}
}
