package store

import (
	"fmt"

	"github.com/google/uuid"
)

// Remote store collection names.
const (
	SessionCollection = "study_sessions"
	ArchiveCollection = "session_archive"
	CardCollection    = "user_cards"
)

// SessionKey returns the local-store key holding the session state for a
// (learner, catalog) pair. One state exists per pair; it is overwritten
// at the start of each new calendar day's session.
func SessionKey(learnerID uuid.UUID, catalogID string) string {
	return fmt.Sprintf("session:%s:%s", learnerID, catalogID)
}

// CardSetKey returns the local-store key holding a learner's card set
// for one catalog.
func CardSetKey(learnerID uuid.UUID, catalogID string) string {
	return fmt.Sprintf("cards:%s:%s", learnerID, catalogID)
}
