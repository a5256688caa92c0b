// Package progress implements the dual-store session state store:
// durable, resumable, cross-device-consistent persistence of one
// SessionState per (learner, catalog) pair.
//
// Writes follow a local-first, remote-best-effort discipline: the local
// write completes synchronously before the caller proceeds, while the
// remote write is fire-and-forget with a bounded timeout. Two devices
// that diverge are reconciled by last-writer-wins on load and by the
// monotonic Merge in the background.
package progress

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/platform/logger"
	"github.com/syh52/lexicon-srs/internal/retry"
	"github.com/syh52/lexicon-srs/internal/store"
)

// defaultRemoteTimeout bounds every remote store call so a dead network
// can never block a study session.
const defaultRemoteTimeout = 5 * time.Second

// pair identifies one (learner, catalog) progress record.
type pair struct {
	learnerID uuid.UUID
	catalogID string
}

// Service is the session state store over a local KV store and a remote
// document store.
type Service struct {
	local  store.LocalStore
	remote store.RemoteStore
	clock  store.Clock
	logger *slog.Logger

	retryCfg      retry.Config
	remoteTimeout time.Duration

	// runAsync executes fire-and-forget remote work. Replaced with an
	// inline executor in tests.
	runAsync func(operation string, fn func(ctx context.Context))

	mu      sync.Mutex
	tracked map[pair]struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithRemoteTimeout overrides the per-call remote store timeout.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Service) { s.remoteTimeout = d }
}

// WithRetryConfig overrides the remote retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Service) { s.retryCfg = cfg }
}

// WithSynchronousWrites makes fire-and-forget work run inline. Used in
// tests to keep assertions deterministic.
func WithSynchronousWrites() Option {
	return func(s *Service) {
		s.runAsync = func(operation string, fn func(ctx context.Context)) {
			ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
			defer cancel()
			fn(ctx)
		}
	}
}

// NewService creates a progress service over the given stores.
func NewService(local store.LocalStore, remote store.RemoteStore, clock store.Clock, log *slog.Logger, opts ...Option) *Service {
	if local == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("local store cannot be nil")
	}
	if remote == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("remote store cannot be nil")
	}
	if clock == nil {
		clock = store.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		local:         local,
		remote:        remote,
		clock:         clock,
		logger:        log.With(slog.String("component", "progress_service")),
		retryCfg:      retry.DefaultConfig(),
		remoteTimeout: defaultRemoteTimeout,
		tracked:       make(map[pair]struct{}),
	}
	s.runAsync = func(operation string, fn func(ctx context.Context)) {
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

// Save persists the state: synchronously to the local store, then
// best-effort to the remote store. Storage failures never surface to
// the caller: a failed local write is logged and simply retried by the
// next save, and remote failures are retried opportunistically.
// Only an invalid state is an error.
func (s *Service) Save(ctx context.Context, state *domain.SessionState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if state == nil {
		return domain.ErrValidation
	}
	if err := state.Validate(); err != nil {
		return err
	}

	s.track(state.LearnerID, state.CatalogID)

	data, err := encodeLocal(state)
	if err != nil {
		return err
	}
	key := store.SessionKey(state.LearnerID, state.CatalogID)
	if err := s.local.Set(ctx, key, data); err != nil {
		log.Warn("local save failed, will retry on next choice",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	s.saveRemoteAsync(state.Clone())
	return nil
}

// Load reads both stores in parallel and resolves what it finds.
// A state past its TTL is expired: neither resumed nor merged. When
// only one side has live data it wins and is propagated to the other;
// when both do and they disagree, last-writer-wins by LastUpdateTime
// with ties favoring local, and the winner is written back to the
// losing side so both converge. Returns nil when no live state exists.
func (s *Service) Load(ctx context.Context, learnerID uuid.UUID, catalogID string) (*domain.SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if learnerID == uuid.Nil {
		return nil, domain.ErrEmptyLearnerID
	}
	if catalogID == "" {
		return nil, domain.ErrEmptyCatalogID
	}

	s.track(learnerID, catalogID)
	now := s.clock.Now()

	type remoteResult struct {
		state *domain.SessionState
		err   error
	}
	remoteCh := make(chan remoteResult, 1)
	go func() {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		defer cancel()
		state, err := s.loadRemote(rctx, learnerID, catalogID)
		remoteCh <- remoteResult{state: state, err: err}
	}()

	local := s.loadLocal(ctx, learnerID, catalogID, log)

	res := <-remoteCh
	if res.err != nil && !store.IsNotFoundError(res.err) {
		// Trust local on remote expiry or outage.
		log.Debug("remote load failed, trusting local",
			slog.String("error", res.err.Error()))
	}
	remote := res.state

	if local != nil && local.IsExpired(now) {
		log.Debug("local session state expired",
			slog.String("session_id", local.SessionID.String()))
		local = nil
	}
	if remote != nil && remote.IsExpired(now) {
		log.Debug("remote session state expired",
			slog.String("session_id", remote.SessionID.String()))
		remote = nil
	}

	switch {
	case local == nil && remote == nil:
		return nil, nil

	case remote == nil:
		s.saveRemoteAsync(local.Clone())
		return local, nil

	case local == nil:
		if data, err := encodeLocal(remote); err == nil {
			if err := s.local.Set(ctx, store.SessionKey(learnerID, catalogID), data); err != nil {
				log.Warn("failed to propagate remote state to local store",
					slog.String("error", err.Error()))
			}
		}
		return remote, nil
	}

	if !s.conflicting(local, remote) {
		return local, nil
	}

	winner, loser := local, remote
	winnerSide := "local"
	if remote.LastUpdateTime.After(local.LastUpdateTime) {
		winner, loser = remote, local
		winnerSide = "remote"
	}

	log.Info("resolved session state conflict",
		slog.String("learner_id", learnerID.String()),
		slog.String("catalog_id", catalogID),
		slog.String("winner", winnerSide),
		slog.Int("winner_completed", winner.CompletedCount),
		slog.Int("loser_completed", loser.CompletedCount))

	if winnerSide == "remote" {
		if data, err := encodeLocal(winner); err == nil {
			if err := s.local.Set(ctx, store.SessionKey(learnerID, catalogID), data); err != nil {
				log.Warn("failed to back-write winning state to local store",
					slog.String("error", err.Error()))
			}
		}
	} else {
		s.saveRemoteAsync(winner.Clone())
	}

	return winner, nil
}

// Archive copies a finished session into the remote archive collection,
// keyed by session ID, where the optimizer reads it as history. Purely
// best-effort: an unreachable remote just leaves a gap in the analytics.
func (s *Service) Archive(ctx context.Context, state *domain.SessionState) {
	if state == nil {
		return
	}
	snapshot := state.Clone()
	s.runAsync("progress_archive", func(ctx context.Context) {
		record, err := encodeRemote(snapshot)
		if err != nil {
			s.logger.Warn("failed to encode state for archive",
				slog.String("error", err.Error()))
			return
		}
		filter := store.Record{"session_id": snapshot.SessionID.String()}
		err = retry.Do(ctx, s.retryCfg, s.logger, "progress_archive", func(ctx context.Context) error {
			return s.remote.Upsert(ctx, store.ArchiveCollection, filter, record)
		})
		if err != nil {
			s.logger.Warn("failed to archive session state",
				slog.String("session_id", snapshot.SessionID.String()),
				slog.String("error", err.Error()))
		}
	})
}

// LoadRecent returns up to n archived sessions for the pair, oldest
// first. An unreachable remote yields an empty slice, not an error.
func (s *Service) LoadRecent(ctx context.Context, learnerID uuid.UUID, catalogID string, n int) ([]*domain.SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	records, err := s.remote.Query(rctx, store.ArchiveCollection, store.Record{
		"learner_id": learnerID.String(),
		"catalog_id": catalogID,
	})
	if err != nil {
		if store.IsUnavailableError(err) {
			log.Debug("archive unavailable, analyzing without history")
			return nil, nil
		}
		return nil, err
	}

	states := make([]*domain.SessionState, 0, len(records))
	for _, record := range records {
		state, err := decodeRemote(record)
		if err != nil {
			log.Warn("skipping malformed archived session",
				slog.String("error", err.Error()))
			continue
		}
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].StartTime.Before(states[j].StartTime)
	})
	if n > 0 && len(states) > n {
		states = states[len(states)-n:]
	}
	return states, nil
}

// Clear removes the pair's state from both stores. Used on completion
// or explicit reset. Remote failures are logged, not returned.
func (s *Service) Clear(ctx context.Context, learnerID uuid.UUID, catalogID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.local.Remove(ctx, store.SessionKey(learnerID, catalogID)); err != nil {
		return err
	}

	filter := remoteFilter(learnerID, catalogID)
	s.runAsync("progress_clear_remote", func(ctx context.Context) {
		err := retry.Do(ctx, s.retryCfg, s.logger, "progress_clear_remote", func(ctx context.Context) error {
			return s.remote.Remove(ctx, store.SessionCollection, filter)
		})
		if err != nil {
			log.Warn("failed to clear remote session state",
				slog.String("learner_id", learnerID.String()),
				slog.String("catalog_id", catalogID),
				slog.String("error", err.Error()))
		}
	})

	s.untrack(learnerID, catalogID)
	return nil
}

// Reconcile merges both sides of every tracked pair. It runs from the
// background task loop; conflicts are resolved by Merge and the result
// written to both stores. Safe to invoke repeatedly and concurrently
// with new saves.
func (s *Service) Reconcile(ctx context.Context) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, p := range s.trackedPairs() {
		local := s.loadLocal(ctx, p.learnerID, p.catalogID, log)

		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		remote, err := s.loadRemote(rctx, p.learnerID, p.catalogID)
		cancel()
		if err != nil && !store.IsNotFoundError(err) {
			log.Debug("skipping reconciliation, remote unavailable",
				slog.String("catalog_id", p.catalogID),
				slog.String("error", err.Error()))
			continue
		}

		if local == nil && remote == nil {
			s.untrack(p.learnerID, p.catalogID)
			continue
		}

		now := s.clock.Now()
		if (local != nil && local.IsExpired(now)) || (remote != nil && remote.IsExpired(now)) {
			continue
		}

		merged := Merge(local, remote)
		if statesEqual(merged, local) && statesEqual(merged, remote) {
			continue
		}

		if data, err := encodeLocal(merged); err == nil {
			if err := s.local.Set(ctx, store.SessionKey(p.learnerID, p.catalogID), data); err != nil {
				log.Warn("failed to write merged state locally",
					slog.String("error", err.Error()))
			}
		}
		s.saveRemoteAsync(merged.Clone())

		log.Debug("reconciled session state",
			slog.String("learner_id", p.learnerID.String()),
			slog.String("catalog_id", p.catalogID),
			slog.Int("completed_count", merged.CompletedCount))
	}
}

// conflicting reports whether the two copies have diverged: differing
// session identity, completed count, or history length.
func (s *Service) conflicting(a, b *domain.SessionState) bool {
	return a.SessionID != b.SessionID ||
		a.CompletedCount != b.CompletedCount ||
		len(a.ChoiceHistory) != len(b.ChoiceHistory)
}

func statesEqual(a, b *domain.SessionState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SessionID == b.SessionID &&
		a.CompletedCount == b.CompletedCount &&
		len(a.ChoiceHistory) == len(b.ChoiceHistory) &&
		a.IsCompleted == b.IsCompleted
}

func (s *Service) loadLocal(ctx context.Context, learnerID uuid.UUID, catalogID string, log *slog.Logger) *domain.SessionState {
	data, err := s.local.Get(ctx, store.SessionKey(learnerID, catalogID))
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Warn("local load failed",
				slog.String("error", err.Error()))
		}
		return nil
	}
	state, err := decodeLocal(data)
	if err != nil {
		// A corrupt local record is treated as absent rather than fatal;
		// the remote copy (if any) will repopulate it.
		log.Warn("discarding corrupt local session state",
			slog.String("error", err.Error()))
		return nil
	}
	return state
}

func (s *Service) loadRemote(ctx context.Context, learnerID uuid.UUID, catalogID string) (*domain.SessionState, error) {
	records, err := s.remote.Query(ctx, store.SessionCollection, remoteFilter(learnerID, catalogID))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrSessionStateNotFound
	}
	return decodeRemote(records[0])
}

// saveRemoteAsync writes the state to the remote store without blocking
// the caller. Failures are logged and absorbed; the next save or the
// reconciliation loop retries.
func (s *Service) saveRemoteAsync(state *domain.SessionState) {
	s.runAsync("progress_save_remote", func(ctx context.Context) {
		record, err := encodeRemote(state)
		if err != nil {
			s.logger.Warn("failed to encode state for remote store",
				slog.String("error", err.Error()))
			return
		}
		filter := remoteFilter(state.LearnerID, state.CatalogID)
		err = retry.Do(ctx, s.retryCfg, s.logger, "progress_save_remote", func(ctx context.Context) error {
			return s.remote.Upsert(ctx, store.SessionCollection, filter, record)
		})
		if err != nil {
			s.logger.Warn("remote save failed, will retry on next save",
				slog.String("learner_id", state.LearnerID.String()),
				slog.String("catalog_id", state.CatalogID),
				slog.String("error", err.Error()))
		}
	})
}

func (s *Service) track(learnerID uuid.UUID, catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[pair{learnerID: learnerID, catalogID: catalogID}] = struct{}{}
}

func (s *Service) untrack(learnerID uuid.UUID, catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked, pair{learnerID: learnerID, catalogID: catalogID})
}

func (s *Service) trackedPairs() []pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pair, 0, len(s.tracked))
	for p := range s.tracked {
		out = append(out, p)
	}
	return out
}
