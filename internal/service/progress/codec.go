package progress

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/store"
)

// encodeLocal serializes a session state for the local key-value store.
func encodeLocal(state *domain.SessionState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session state: %w", err)
	}
	return data, nil
}

// decodeLocal deserializes a session state read from the local store.
func decodeLocal(data []byte) (*domain.SessionState, error) {
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return &state, nil
}

// encodeRemote wraps a session state into a remote document. The state
// itself travels as an opaque JSON payload; only the fields the remote
// side filters or orders on are lifted to the top level.
func encodeRemote(state *domain.SessionState) (store.Record, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session state: %w", err)
	}
	return store.Record{
		"key":              store.SessionKey(state.LearnerID, state.CatalogID),
		"learner_id":       state.LearnerID.String(),
		"catalog_id":       state.CatalogID,
		"session_id":       state.SessionID.String(),
		"payload":          string(payload),
		"last_update_time": state.LastUpdateTime.UnixMilli(),
	}, nil
}

// decodeRemote unwraps a session state from a remote document.
func decodeRemote(record store.Record) (*domain.SessionState, error) {
	payload, ok := record["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: remote record has no payload", store.ErrInvalidEntity)
	}
	return decodeLocal([]byte(payload))
}

// remoteFilter returns the filter selecting the pair's remote document.
func remoteFilter(learnerID uuid.UUID, catalogID string) store.Record {
	return store.Record{"key": store.SessionKey(learnerID, catalogID)}
}
