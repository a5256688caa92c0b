package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/cache"
	"github.com/syh52/lexicon-srs/internal/domain"
)

// Manager tracks the live session per (learner, catalog) pair for this
// process. Entries share the session TTL so an abandoned sitting ages
// out together with its persisted state.
type Manager struct {
	sessions *cache.Cache[string, *StudySession]
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: cache.New[string, *StudySession](domain.SessionTTL),
	}
}

func managerKey(learnerID uuid.UUID, catalogID string) string {
	return fmt.Sprintf("%s:%s", learnerID, catalogID)
}

// Get returns the live session for the pair, if any.
func (m *Manager) Get(learnerID uuid.UUID, catalogID string) (*StudySession, bool) {
	return m.sessions.Get(managerKey(learnerID, catalogID))
}

// Put registers the session as the pair's live session, replacing any
// previous one.
func (m *Manager) Put(s *StudySession) {
	m.sessions.Set(managerKey(s.learnerID, s.catalogID), s)
}

// Delete drops the pair's live session.
func (m *Manager) Delete(learnerID uuid.UUID, catalogID string) {
	m.sessions.Delete(managerKey(learnerID, catalogID))
}
