// Package session holds the client's authentication token.
//
// A Store only knows whether a token is present. It never parses or
// validates the token; the backend is the only judge of validity, and an
// expired token keeps "working" until a request comes back 401.
package session

import "sync"

// Store is the client-side session contract.
type Store interface {
	Set(token string)
	Get() (string, bool)
	Clear()
	IsAuthenticated() bool
}

// Memory is a Store for a single process: CLI tools, tests, and the API
// client when it is used outside a browser request.
type Memory struct {
	mu    sync.RWMutex
	token string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store, optionally seeded with a token.
func NewMemory(token ...string) *Memory {
	m := &Memory{}
	if len(token) > 0 {
		m.token = token[0]
	}
	return m
}

func (m *Memory) Set(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) Clear() {
	m.Set("")
}

func (m *Memory) IsAuthenticated() bool {
	_, ok := m.Get()
	return ok
}
