// Package stream pushes live session events to browsers over WebSocket.
package stream

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Registry tracks the WebSocket connections watching each session, one per
// browser tab.
type Registry struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// GetActive returns the connection of a tab watching a session.
func (m *Registry) GetActive(sessionID, tabID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tabs, ok := m.active[sessionID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Count returns the number of connections watching a session.
func (m *Registry) Count(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active[sessionID])
}

// Register adds a connection. A previous connection from the same tab is closed.
func (m *Registry) Register(sessionID, tabID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[sessionID]; !exists {
		m.active[sessionID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := m.active[sessionID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "stream replaced")
	}

	m.active[sessionID][tabID] = conn
	slog.Info("Session stream registered", "session_id", sessionID, "tab_id", tabID)
}

// Unregister removes conn if it is still the current connection of the tab.
func (m *Registry) Unregister(sessionID, tabID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabs, ok := m.active[sessionID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(m.active, sessionID)
			}
			slog.Info("Session stream unregistered", "session_id", sessionID, "tab_id", tabID)
		}
	}
}

// CloseSession closes every stream watching a session.
func (m *Registry) CloseSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabs, ok := m.active[sessionID]
	if !ok {
		return
	}

	for tid, conn := range tabs {
		_ = conn.Close(websocket.StatusNormalClosure, "session evicted")
		slog.Info("Session stream closed", "session_id", sessionID, "tab_id", tid)
	}
	delete(m.active, sessionID)
}
