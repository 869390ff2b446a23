package workspace

import (
	"sync"

	"github.com/google/uuid"
)

// Manager keeps one workspace per signed-in user
type Manager struct {
	mu         sync.Mutex
	cfg        Config
	workspaces map[uuid.UUID]*Workspace
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, workspaces: make(map[uuid.UUID]*Workspace)}
}

// Open returns the workspace of p, creating it on first use. A new session
// of the same user keeps the already fetched state.
func (m *Manager) Open(p Principal) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.workspaces[p.UserID]; ok {
		ws.identity.Set(&p)
		return ws
	}
	ws := New(p, m.cfg)
	m.workspaces[p.UserID] = ws
	return ws
}

func (m *Manager) Get(userID uuid.UUID) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[userID]
	return ws, ok
}

// SignOut drives the user's identity to none, which clears the workspace,
// and forgets it.
func (m *Manager) SignOut(userID uuid.UUID) {
	m.mu.Lock()
	ws, ok := m.workspaces[userID]
	delete(m.workspaces, userID)
	m.mu.Unlock()

	if ok {
		ws.close()
	}
}

// Close signs every user out, releasing staged files
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[uuid.UUID]*Workspace)
	m.mu.Unlock()

	for _, ws := range all {
		ws.close()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}
