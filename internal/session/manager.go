package session

import (
	"sync"
	"time"
)

// Manager orders outbound dispatch per LINE user: the push batch and reply
// for one message finish before the next message of that user starts
// sending. Users do not wait on each other.
type Manager struct {
	mu    sync.Mutex
	users map[string]*dispatchLock
}

type dispatchLock struct {
	mu       sync.Mutex
	waiting  int // goroutines holding or queued on mu; guarded by Manager.mu
	lastUsed time.Time
}

func NewManager() *Manager {
	return &Manager{
		users: make(map[string]*dispatchLock),
	}
}

// WithLock runs fn as userID's only dispatch in flight. Events without a
// user run unordered.
func (m *Manager) WithLock(userID string, fn func() error) error {
	if userID == "" {
		return fn()
	}

	dl := m.acquire(userID)
	dl.mu.Lock()
	defer m.release(dl)
	return fn()
}

func (m *Manager) acquire(userID string) *dispatchLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	dl, ok := m.users[userID]
	if !ok {
		dl = &dispatchLock{}
		m.users[userID] = dl
	}
	dl.waiting++
	dl.lastUsed = time.Now()
	return dl
}

func (m *Manager) release(dl *dispatchLock) {
	m.mu.Lock()
	dl.waiting--
	dl.lastUsed = time.Now()
	m.mu.Unlock()
	dl.mu.Unlock()
}

// Cleanup forgets users idle for longer than maxAge. Locks still held or
// waited on are kept whatever their age.
func (m *Manager) Cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, dl := range m.users {
		if dl.waiting == 0 && now.Sub(dl.lastUsed) > maxAge {
			delete(m.users, id)
		}
	}
}

// Len reports how many users currently have a lock entry.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
