package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/tinytelemetry/msglog/internal/model"
)

// stateJSON is the persisted layout. Counts and clients are written as
// [key, value] pairs to keep their order.
type stateJSON struct {
	MessageHistory   []model.LogEntry     `json:"message_history"`
	MessageCounts    [][2]json.RawMessage `json:"message_counts"`
	Config           model.AppConfig      `json:"config"`
	ConnectedClients [][2]json.RawMessage `json:"connected_clients"`
}

func (s *State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		MessageHistory:   s.History,
		MessageCounts:    make([][2]json.RawMessage, 0, len(s.Counts)),
		Config:           s.Config,
		ConnectedClients: make([][2]json.RawMessage, 0, len(s.Clients)),
	}
	if out.MessageHistory == nil {
		out.MessageHistory = []model.LogEntry{}
	}
	for _, c := range s.Counts {
		pair, err := rawPair(c.Channel, c.Count)
		if err != nil {
			return nil, fmt.Errorf("ledger: encode count: %w", err)
		}
		out.MessageCounts = append(out.MessageCounts, pair)
	}
	for _, c := range s.Clients {
		pair, err := rawPair(c.ID, c.Path)
		if err != nil {
			return nil, fmt.Errorf("ledger: encode client: %w", err)
		}
		out.ConnectedClients = append(out.ConnectedClients, pair)
	}
	return json.Marshal(out)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("ledger: decode state: %w", err)
	}

	counts := make([]ChannelCount, 0, len(in.MessageCounts))
	for i, pair := range in.MessageCounts {
		var c ChannelCount
		if err := json.Unmarshal(pair[0], &c.Channel); err != nil {
			return fmt.Errorf("ledger: decode count %d: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &c.Count); err != nil {
			return fmt.Errorf("ledger: decode count %d: %w", i, err)
		}
		counts = append(counts, c)
	}

	clients := make([]Client, 0, len(in.ConnectedClients))
	for i, pair := range in.ConnectedClients {
		var c Client
		if err := json.Unmarshal(pair[0], &c.ID); err != nil {
			return fmt.Errorf("ledger: decode client %d: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &c.Path); err != nil {
			return fmt.Errorf("ledger: decode client %d: %w", i, err)
		}
		clients = append(clients, c)
	}

	s.History = in.MessageHistory
	s.Counts = counts
	s.Config = in.Config
	s.Clients = clients
	if s.clock == nil {
		s.clock = systemClock
	}
	return nil
}

func rawPair(k, v any) ([2]json.RawMessage, error) {
	var pair [2]json.RawMessage
	kb, err := json.Marshal(k)
	if err != nil {
		return pair, err
	}
	vb, err := json.Marshal(v)
	if err != nil {
		return pair, err
	}
	pair[0], pair[1] = kb, vb
	return pair, nil
}
