// Package cards persists a learner's scheduling cards. The full card
// set for a (learner, catalog) pair lives under one local key so loads
// need no scan support from the KV store, while the remote side keeps
// one document per card so other devices can sync incrementally.
package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/platform/logger"
	"github.com/syh52/lexicon-srs/internal/retry"
	"github.com/syh52/lexicon-srs/internal/store"
)

const defaultRemoteTimeout = 5 * time.Second

// Service stores and loads card sets with the same local-first, remote
// best-effort discipline the progress service uses.
type Service struct {
	local  store.LocalStore
	remote store.RemoteStore
	logger *slog.Logger

	retryCfg      retry.Config
	remoteTimeout time.Duration

	runAsync func(fn func(ctx context.Context))
}

// Option customizes a Service.
type Option func(*Service)

// WithRetryConfig overrides the remote retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Service) { s.retryCfg = cfg }
}

// WithSynchronousWrites makes remote writes run inline for tests.
func WithSynchronousWrites() Option {
	return func(s *Service) {
		s.runAsync = func(fn func(ctx context.Context)) {
			ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
			defer cancel()
			fn(ctx)
		}
	}
}

// NewService creates a card persistence service.
func NewService(local store.LocalStore, remote store.RemoteStore, log *slog.Logger, opts ...Option) *Service {
	if local == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("local store cannot be nil")
	}
	if remote == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("remote store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		local:         local,
		remote:        remote,
		logger:        log.With(slog.String("component", "card_service")),
		retryCfg:      retry.DefaultConfig(),
		remoteTimeout: defaultRemoteTimeout,
	}
	s.runAsync = func(fn func(ctx context.Context)) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
			defer cancel()
			fn(ctx)
		}()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadSet returns the learner's cards for one catalog, keyed by item ID.
// A missing set is an empty map, not an error: a learner who has never
// studied the catalog simply has no cards yet. When the local store has
// nothing the remote store is consulted and, if it has cards, the set is
// copied down.
func (s *Service) LoadSet(ctx context.Context, learnerID uuid.UUID, catalogID string) (map[string]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if learnerID == uuid.Nil {
		return nil, domain.ErrEmptyLearnerID
	}
	if catalogID == "" {
		return nil, domain.ErrEmptyCatalogID
	}

	key := store.CardSetKey(learnerID, catalogID)
	data, err := s.local.Get(ctx, key)
	if err == nil {
		set, err := decodeSet(data)
		if err == nil {
			return set, nil
		}
		log.Warn("discarding corrupt local card set",
			slog.String("key", key),
			slog.String("error", err.Error()))
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load card set: %w", err)
	}

	set, err := s.loadRemoteSet(ctx, learnerID, catalogID)
	if err != nil {
		if store.IsUnavailableError(err) {
			log.Warn("remote store unavailable, starting with empty card set",
				slog.String("catalog_id", catalogID))
			return map[string]*domain.Card{}, nil
		}
		return nil, err
	}
	if len(set) > 0 {
		if err := s.writeLocalSet(ctx, learnerID, catalogID, set); err != nil {
			log.Warn("failed to copy remote card set to local store",
				slog.String("error", err.Error()))
		}
	}
	return set, nil
}

// SaveCard records one updated card: the local set is rewritten
// synchronously and the single card is pushed to the remote store
// best-effort. The caller passes the full current set so the bundle can
// be rewritten without a read-modify-write race.
func (s *Service) SaveCard(ctx context.Context, catalogID string, set map[string]*domain.Card, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if card == nil {
		return domain.ErrValidation
	}
	if err := card.Validate(); err != nil {
		return err
	}
	if catalogID == "" {
		return domain.ErrEmptyCatalogID
	}

	set[card.ItemID] = card
	if err := s.writeLocalSet(ctx, card.LearnerID, catalogID, set); err != nil {
		log.Warn("local card write failed, will retry on next review",
			slog.String("item_id", card.ItemID),
			slog.String("error", err.Error()))
	}

	s.pushCardAsync(catalogID, *card)
	return nil
}

// SaveSet rewrites the whole set locally and pushes every card remotely.
// Used after restoring a session from another device's state.
func (s *Service) SaveSet(ctx context.Context, learnerID uuid.UUID, catalogID string, set map[string]*domain.Card) error {
	if err := s.writeLocalSet(ctx, learnerID, catalogID, set); err != nil {
		return err
	}
	for _, card := range set {
		s.pushCardAsync(catalogID, *card)
	}
	return nil
}

func (s *Service) writeLocalSet(ctx context.Context, learnerID uuid.UUID, catalogID string, set map[string]*domain.Card) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode card set: %w", err)
	}
	return s.local.Set(ctx, store.CardSetKey(learnerID, catalogID), data)
}

func decodeSet(data []byte) (map[string]*domain.Card, error) {
	var set map[string]*domain.Card
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to decode card set: %w", err)
	}
	if set == nil {
		set = map[string]*domain.Card{}
	}
	return set, nil
}

func (s *Service) loadRemoteSet(ctx context.Context, learnerID uuid.UUID, catalogID string) (map[string]*domain.Card, error) {
	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	records, err := s.remote.Query(rctx, store.CardCollection, store.Record{
		"learner_id": learnerID.String(),
		"catalog_id": catalogID,
	})
	if err != nil {
		return nil, err
	}

	set := make(map[string]*domain.Card, len(records))
	for _, record := range records {
		card, err := decodeCard(record)
		if err != nil {
			s.logger.Warn("skipping malformed remote card",
				slog.String("error", err.Error()))
			continue
		}
		set[card.ItemID] = card
	}
	return set, nil
}

func (s *Service) pushCardAsync(catalogID string, card domain.Card) {
	s.runAsync(func(ctx context.Context) {
		record, err := encodeCard(catalogID, &card)
		if err != nil {
			s.logger.Warn("failed to encode card for remote store",
				slog.String("item_id", card.ItemID),
				slog.String("error", err.Error()))
			return
		}
		filter := store.Record{
			"learner_id": card.LearnerID.String(),
			"catalog_id": catalogID,
			"item_id":    card.ItemID,
		}
		err = retry.Do(ctx, s.retryCfg, s.logger, "card_push_remote", func(ctx context.Context) error {
			return s.remote.Upsert(ctx, store.CardCollection, filter, record)
		})
		if err != nil {
			s.logger.Warn("remote card push failed, will retry on next review",
				slog.String("item_id", card.ItemID),
				slog.String("error", err.Error()))
		}
	})
}

func encodeCard(catalogID string, card *domain.Card) (store.Record, error) {
	payload, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return store.Record{
		"learner_id": card.LearnerID.String(),
		"catalog_id": catalogID,
		"item_id":    card.ItemID,
		"payload":    string(payload),
	}, nil
}

func decodeCard(record store.Record) (*domain.Card, error) {
	payload, ok := record["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: remote card record has no payload", store.ErrInvalidEntity)
	}
	var card domain.Card
	if err := json.Unmarshal([]byte(payload), &card); err != nil {
		return nil, fmt.Errorf("failed to decode card: %w", err)
	}
	return &card, nil
}
