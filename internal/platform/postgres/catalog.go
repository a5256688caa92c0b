// Package postgres implements the read-only catalog provider. Catalog
// content is authored elsewhere; the engine only pages through it when
// generating daily plans.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the pgx driver

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/store"
)

// Open connects to the catalog database and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	return db, nil
}

// CatalogStore is the postgres-backed store.CatalogProvider.
type CatalogStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.CatalogProvider = (*CatalogStore)(nil)

// NewCatalogStore creates a CatalogStore over an opened database handle.
// If logger is nil, a default logger will be used.
func NewCatalogStore(db *sql.DB, logger *slog.Logger) *CatalogStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

// GetItems implements store.CatalogProvider. Items are returned in a
// stable ID order so pagination never skips or repeats entries.
func (s *CatalogStore) GetItems(ctx context.Context, catalogID string, limit, offset int) ([]domain.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, catalog_id, term, definition, created_at
		FROM catalog_items
		WHERE catalog_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, catalogID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog %q: %w", catalogID, err)
	}
	defer func() { _ = rows.Close() }()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.CatalogID, &item.Term, &item.Definition, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog %q: %w", catalogID, err)
	}

	// Page past the end of a known catalog is an empty page; a first page
	// with no rows means the catalog itself does not exist.
	if len(items) == 0 && offset == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM catalogs WHERE id = $1)", catalogID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check catalog %q: %w", catalogID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %q", store.ErrCatalogNotFound, catalogID)
		}
	}
	return items, nil
}
