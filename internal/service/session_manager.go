package service

import (
	"context"
	"sync"
	"time"

	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"
	"doc-quiz/internal/presenter"
	"doc-quiz/internal/util"

	"go.uber.org/zap"
)

// SessionManager is the in-memory registry of conversations. Sessions share nothing
// but the stateless QuizService.
type SessionManager struct {
	quizzes QuizService
	ticks   presenter.TickerFunc
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Conversation
}

// NewSessionManager creates an empty registry. A zero idleTTL disables expiry.
func NewSessionManager(quizzes QuizService, ticks presenter.TickerFunc, idleTTL time.Duration) *SessionManager {
	return &SessionManager{
		quizzes:  quizzes,
		ticks:    ticks,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Conversation),
	}
}

// Create starts a new idle session.
func (m *SessionManager) Create() *Conversation {
	conv := newConversation(util.NewULID(), m.quizzes, m.ticks, m.now)

	m.mu.Lock()
	m.sessions[conv.ID()] = conv
	m.mu.Unlock()

	logger.Get().Info("Session created", zap.String("session_id", conv.ID()))
	return conv
}

// Get returns SESSION_NOT_FOUND for unknown or expired ids.
func (m *SessionManager) Get(id string) (*Conversation, error) {
	m.mu.RLock()
	conv, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.NewSessionNotFoundError(id)
	}
	return conv, nil
}

// Delete ends a session and releases its reveal and subscribers.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	conv, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.NewSessionNotFoundError(id)
	}

	conv.Close()
	logger.Get().Info("Session deleted", zap.String("session_id", id))
	return nil
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire removes sessions idle for longer than the TTL. Sessions with a pipeline run in
// flight are kept regardless of age.
func (m *SessionManager) Expire() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	var expired []*Conversation
	m.mu.Lock()
	for id, conv := range m.sessions {
		if conv.LastActiveAt().Before(cutoff) && conv.tryIdle() {
			expired = append(expired, conv)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, conv := range expired {
		conv.Close()
	}
	if len(expired) > 0 {
		logger.Get().Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run expires idle sessions every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Expire()
		}
	}
}

// CloseAll ends every session. Used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Conversation)
	m.mu.Unlock()

	for _, conv := range sessions {
		conv.Close()
	}
}
