package web

import "sync"

// inflight remembers which (session, action) pairs have a mutation
// outstanding. A second submit of the same action from the same browser is
// refused until the first returns.
type inflight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{active: make(map[string]struct{})}
}

// begin claims the (sessionID, action) slot. When ok is false the slot is
// taken and done must not be called.
func (f *inflight) begin(sessionID, action string) (done func(), ok bool) {
	key := sessionID + "|" + action

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.active[key]; busy {
		return nil, false
	}
	f.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.active, key)
			f.mu.Unlock()
		})
	}, true
}

// generations numbers page loads per (session, page). Only the newest load
// of a page may render; older ones are stale. Numbers come from one counter
// so a key that was dropped never reuses a generation.
type generations struct {
	mu   sync.Mutex
	seq  uint64
	last map[string]uint64
}

func newGenerations() *generations {
	return &generations{last: make(map[string]uint64)}
}

// next starts a load and returns its generation.
func (g *generations) next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.last[key] = g.seq
	return g.seq
}

// current reports whether gen is still the newest load for key.
func (g *generations) current(key string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last[key] == gen
}

// finish forgets key if gen is still its newest load.
func (g *generations) finish(key string, gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last[key] == gen {
		delete(g.last, key)
	}
}
