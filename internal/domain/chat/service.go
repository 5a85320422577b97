// Package chat exposes the conversation agent over HTTP: login, one-turn
// chat, and the supervisor audit view.
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sasilab/medbot/internal/domain/agent"
	"github.com/sasilab/medbot/internal/domain/policy"
)

// AgentFactory builds a fresh session agent for an authenticated user.
type AgentFactory func(username string, role policy.Role) (*agent.Agent, error)

// session pairs an agent with the lock that serializes its turns. Agents are
// single-owner state machines; the lock enforces one in-flight query per
// session even when a client pipelines requests.
type session struct {
	mu    sync.Mutex
	agent *agent.Agent
}

// Manager tracks live sessions by session ID.
type Manager struct {
	factory  AgentFactory
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewManager creates a session manager backed by factory.
func NewManager(factory AgentFactory) *Manager {
	return &Manager{factory: factory, sessions: make(map[uuid.UUID]*session)}
}

// Create registers a session for a freshly authenticated user.
func (m *Manager) Create(id uuid.UUID, username string, role policy.Role) error {
	a, err := m.factory(username, role)
	if err != nil {
		return fmt.Errorf("create session agent: %w", err)
	}
	m.mu.Lock()
	m.sessions[id] = &session{agent: a}
	m.mu.Unlock()
	return nil
}

// HandleInput runs one turn for the given session, serializing concurrent
// requests for the same session.
func (m *Manager) HandleInput(ctx context.Context, id uuid.UUID, username string, role policy.Role, input string) (string, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		// Token outlived the process that issued it: recreate the session
		// with an empty history rather than rejecting a valid login.
		a, err := m.factory(username, role)
		if err != nil {
			m.mu.Unlock()
			return "", fmt.Errorf("recreate session agent: %w", err)
		}
		s = &session{agent: a}
		m.sessions[id] = s
	}
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.HandleInput(ctx, input)
}

// Drop removes a session.
func (m *Manager) Drop(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
