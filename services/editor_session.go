package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"shop_visit_app_go/models"
)

// DefaultEditorIdleTimeout is how long an editor session may sit idle
// before the janitor flushes and closes it.
const DefaultEditorIdleTimeout = 30 * time.Minute

var ErrEditorSessionNotFound = fmt.Errorf("editor session not found")

// EditorSession binds one open visit form to its lifecycle controller
type EditorSession struct {
	ID        string
	UserID    string
	Lifecycle *VisitLifecycle

	lastTouched time.Time
}

// EditorSessionManager tracks the lifecycles of all currently open
// visit forms. Each browser form gets its own session so debounce
// timers never bleed between editors.
type EditorSessionManager struct {
	store       VisitStore
	clock       Clock
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*EditorSession
}

// NewEditorSessionManager creates a manager. Pass a nil clock for the
// system clock.
func NewEditorSessionManager(store VisitStore, clock Clock) *EditorSessionManager {
	if clock == nil {
		clock = SystemClock()
	}
	return &EditorSessionManager{
		store:       store,
		clock:       clock,
		idleTimeout: DefaultEditorIdleTimeout,
		sessions:    make(map[string]*EditorSession),
	}
}

// StartSession opens a new editor for a fresh visit. When customerID is
// set the draft is pre-filled and the debounced creation armed.
func (m *EditorSessionManager) StartSession(user *models.User, customerID string) (*EditorSession, error) {
	lifecycle := NewVisitLifecycle(m.store, LifecycleOptions{
		Clock: m.clock,
		Actor: user,
	})

	if customerID != "" {
		if err := lifecycle.StartWithCustomer(customerID); err != nil {
			lifecycle.Close()
			return nil, err
		}
	}

	return m.register(user, lifecycle), nil
}

// OpenSession opens an editor for an existing visit record
func (m *EditorSessionManager) OpenSession(user *models.User, visitID string) (*EditorSession, error) {
	lifecycle := NewVisitLifecycle(m.store, LifecycleOptions{
		Clock: m.clock,
		Actor: user,
	})
	if err := lifecycle.Load(visitID); err != nil {
		lifecycle.Close()
		return nil, err
	}

	return m.register(user, lifecycle), nil
}

func (m *EditorSessionManager) register(user *models.User, lifecycle *VisitLifecycle) *EditorSession {
	session := &EditorSession{
		ID:          uuid.New().String(),
		Lifecycle:   lifecycle,
		lastTouched: m.clock.Now(),
	}
	if user != nil {
		session.UserID = user.ID
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get returns the session if it exists and belongs to the user
func (m *EditorSessionManager) Get(sessionID, userID string) (*EditorSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, ErrEditorSessionNotFound
	}
	session.lastTouched = m.clock.Now()
	return session, nil
}

// CloseSession flushes pending changes and releases the session
func (m *EditorSessionManager) CloseSession(sessionID, userID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok && session.UserID == userID {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok || session.UserID != userID {
		return ErrEditorSessionNotFound
	}

	if err := session.Lifecycle.Flush(); err != nil {
		log.Printf("[VISIT] Flush on editor close failed: %v", err)
	}
	session.Lifecycle.Close()
	return nil
}

// SweepIdle closes sessions that have been idle longer than the
// timeout. Returns how many were closed.
func (m *EditorSessionManager) SweepIdle() int {
	cutoff := m.clock.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	var stale []*EditorSession
	for id, session := range m.sessions {
		if session.lastTouched.Before(cutoff) {
			stale = append(stale, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, session := range stale {
		if err := session.Lifecycle.Flush(); err != nil {
			log.Printf("[VISIT] Flush on idle editor sweep failed: %v", err)
		}
		session.Lifecycle.Close()
	}
	return len(stale)
}

// StartJanitor sweeps idle sessions on an interval until stop is closed
func (m *EditorSessionManager) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.SweepIdle(); n > 0 {
					log.Printf("[VISIT] Closed %d idle editor sessions", n)
				}
			case <-stop:
				return
			}
		}
	}()
}
