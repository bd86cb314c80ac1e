package ledger

// Client is a connected push-capable client and the path it bound to.
type Client struct {
	ID   uint32
	Path string
}

// AddClient registers id. Callers register each connection once; a
// duplicate id is stored as a second entry.
func (s *State) AddClient(id uint32, path string) {
	s.Clients = append(s.Clients, Client{ID: id, Path: path})
}

// RemoveClient drops every entry registered under id.
func (s *State) RemoveClient(id uint32) {
	kept := s.Clients[:0]
	for _, c := range s.Clients {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(s.Clients); i++ {
		s.Clients[i] = Client{}
	}
	s.Clients = kept
}

// ClientPath returns the path of the first entry registered under id.
func (s *State) ClientPath(id uint32) (string, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c.Path, true
		}
	}
	return "", false
}

// ClientIDs lists registered ids in registration order.
func (s *State) ClientIDs() []uint32 {
	ids := make([]uint32, 0, len(s.Clients))
	for _, c := range s.Clients {
		ids = append(ids, c.ID)
	}
	return ids
}
