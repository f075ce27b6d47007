package sessions

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
	"sync"
	"time"

	"codeberg.org/qapilot/server/internal/agent"
)

const cleanupInterval = 5 * time.Minute

// a chat conversation kept on the server
type Session struct {
	ID           string
	History      []agent.Message
	Environment  string
	LastActivity time.Time
	ExpiresAt    time.Time
}

// manages chat sessions in memory
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

// returns a new session manager; Close stops its cleanup goroutine
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	go m.cleanupExpiredSessions()

	return m
}

// returns a new random session ID
func GenerateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// creates a new session
func (m *Manager) CreateSession() (*Session, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:           id,
		History:      []agent.Message{},
		LastActivity: now,
		ExpiresAt:    now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return session.snapshot(), nil
}

// retrieves a copy of a live session by ID
func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, false
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, false
	}

	return session.snapshot(), true
}

// returns the live session with the given ID, or a fresh one
func (m *Manager) GetOrCreate(sessionID string) (*Session, error) {
	if sessionID != "" {
		if session, ok := m.GetSession(sessionID); ok {
			return session, nil
		}
	}

	return m.CreateSession()
}

// appends turns to a session's history and extends its lifetime; history is never rewritten
func (m *Manager) AppendTurns(sessionID, environment string, turns ...agent.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		delete(m.sessions, sessionID)
		return ErrSessionExpired
	}

	now := time.Now()
	session.History = append(session.History, turns...)
	if environment != "" {
		session.Environment = environment
	}
	session.LastActivity = now
	session.ExpiresAt = now.Add(m.ttl)

	return nil
}

// removes a session
func (m *Manager) DeleteSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// returns the number of stored sessions
func (m *Manager) GetSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// stops the cleanup goroutine
func (m *Manager) Close() {
	m.once.Do(func() {
		close(m.done)
	})
}

// runs periodically to remove expired sessions
func (m *Manager) cleanupExpiredSessions() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired(time.Now())
		}
	}
}

func (m *Manager) removeExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}

func (s *Session) snapshot() *Session {
	cp := *s
	cp.History = slices.Clone(s.History)
	if cp.History == nil {
		cp.History = []agent.Message{}
	}
	return &cp
}
