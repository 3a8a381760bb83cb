// Package session ties one editing surface to its undo history and
// export lifecycle. Each session owns an independent editor and export
// controller.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framecut/framecut-engine/internal/export"
	"github.com/framecut/framecut-engine/internal/render"
	"github.com/framecut/framecut-engine/internal/timeline"
)

type Session struct {
	ID        string
	Editor    *timeline.Editor
	Exporter  *export.Controller
	CreatedAt time.Time
}

// Manager creates and tracks sessions. Sessions are in-memory; a closed
// session drops its undo history and stops any in-flight export.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	renderClient render.Client
	resolver     timeline.DurationResolver
	artifactsDir string
	pollInterval time.Duration
	historyDepth int
	logger       *slog.Logger
}

func NewManager(renderClient render.Client, resolver timeline.DurationResolver, artifactsDir string, pollInterval time.Duration, historyDepth int, logger *slog.Logger) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		renderClient: renderClient,
		resolver:     resolver,
		artifactsDir: artifactsDir,
		pollInterval: pollInterval,
		historyDepth: historyDepth,
		logger:       logger,
	}
}

func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Editor:    timeline.NewEditor(m.historyDepth, m.resolver, m.logger),
		Exporter:  export.NewController(m.renderClient, m.artifactsDir, m.pollInterval, m.logger),
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("session created", "session_id", s.ID)
	}
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close removes a session and stops its export polling. Returns false
// when the session does not exist.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	s.Exporter.Close()
	if m.logger != nil {
		m.logger.Info("session closed", "session_id", id)
	}
	return true
}

// CloseAll tears down every session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Exporter.Close()
	}
}
