package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/market-ar/market/internal/models"
)

// ErrNotFound is returned when no listing has the requested id
var ErrNotFound = errors.New("listing not found")

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	product_name TEXT NOT NULL CHECK (length(trim(product_name)) > 0),
	category     TEXT NOT NULL,
	price        REAL NOT NULL CHECK (price >= 0),
	condition    TEXT NOT NULL,
	image_url    TEXT,
	model_url    TEXT
);
CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category);
`

const listingColumns = `id, product_name, category, price, condition, image_url, model_url`

// ListingStore persists listings in a single SQLite table
type ListingStore struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the SQLite catalog at path
func Open(path string) (*ListingStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Debug("Opened listing store", "path", path)
	return &ListingStore{db: db}, nil
}

// Close releases the underlying database handle
func (s *ListingStore) Close() error {
	return s.db.Close()
}

// GetAll returns every listing in insertion order
func (s *ListingStore) GetAll(ctx context.Context) ([]models.Listing, error) {
	var list []models.Listing
	err := s.db.SelectContext(ctx, &list, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return list, nil
}

// GetByID returns the listing with the given id or ErrNotFound
func (s *ListingStore) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	var l models.Listing
	err := s.db.GetContext(ctx, &l, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listing %d: %w", id, err)
	}
	return &l, nil
}

// Insert stores a new listing and returns its assigned id. The ID field of
// the argument is ignored and overwritten.
func (s *ListingStore) Insert(ctx context.Context, l *models.Listing) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO listings (product_name, category, price, condition, image_url, model_url)
		VALUES (:product_name, :category, :price, :condition, :image_url, :model_url)
	`, l)
	if err != nil {
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	l.ID = id
	return id, nil
}

// Update replaces the stored row with the same id. Updating a missing id is
// not an error.
func (s *ListingStore) Update(ctx context.Context, l models.Listing) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE listings SET
			product_name = :product_name,
			category     = :category,
			price        = :price,
			condition    = :condition,
			image_url    = :image_url,
			model_url    = :model_url
		WHERE id = :id
	`, l)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", l.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.Debug("Update matched no listing", "id", l.ID)
	}
	return nil
}

// Delete removes the listing with l.ID
func (s *ListingStore) Delete(ctx context.Context, l models.Listing) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, l.ID); err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", l.ID, err)
	}
	return nil
}
