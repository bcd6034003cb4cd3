package playback

import "sync"

// Cell holds the last accepted State. The ingestion server is its only
// writer; readers get copies, never a reference into the cell.
type Cell struct {
	mu    sync.Mutex
	state State
	set   bool
}

func NewCell() *Cell {
	return &Cell{}
}

func (c *Cell) Set(s State) {
	c.mu.Lock()
	c.state = s
	c.set = true
	c.mu.Unlock()
}

// Get returns the latest state and false if nothing was ever set.
func (c *Cell) Get() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.set
}

// Snapshot is Get for JSON consumers: nil until the first beacon.
func (c *Cell) Snapshot() *State {
	s, ok := c.Get()
	if !ok {
		return nil
	}
	return &s
}
