package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/jayjaytrn/URLMapper/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS urls (
	id       INTEGER PRIMARY KEY,
	longurl  TEXT NOT NULL,
	shorturl TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS urls_longurl_idx ON urls (longurl);
`

// Manager is a ShortenerStorage backed by a SQLite database file.
type Manager struct {
	db *sql.DB
}

// NewManager opens the database at path and creates the urls table if needed.
// A path starting with "file:" is used as a DSN unchanged.
func NewManager(path string) (*Manager, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = fmt.Sprintf("file:%s?_journal_mode=wal&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite database: %w", err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY between our own requests
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Manager{db: db}, nil
}

// FindByShortCode returns the mapping that owns code.
func (m *Manager) FindByShortCode(ctx context.Context, code string) (types.URLMapping, error) {
	return m.findOne(ctx, code, "SELECT id, longurl, shorturl FROM urls WHERE shorturl = ?", code)
}

// FindByLongURL returns the oldest mapping for longURL.
func (m *Manager) FindByLongURL(ctx context.Context, longURL string) (types.URLMapping, error) {
	return m.findOne(ctx, longURL, "SELECT id, longurl, shorturl FROM urls WHERE longurl = ? ORDER BY id LIMIT 1", longURL)
}

// FindByID returns the mapping with the given id.
func (m *Manager) FindByID(ctx context.Context, id int64) (types.URLMapping, error) {
	return m.findOne(ctx, strconv.FormatInt(id, 10), "SELECT id, longurl, shorturl FROM urls WHERE id = ?", id)
}

func (m *Manager) findOne(ctx context.Context, key, query string, arg any) (types.URLMapping, error) {
	var u types.URLMapping
	err := m.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.LongURL, &u.ShortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.URLMapping{}, &types.NotFoundError{Key: key}
		}
		return types.URLMapping{}, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	return u, nil
}

// List returns every mapping ordered by id.
func (m *Manager) List(ctx context.Context) ([]types.URLMapping, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT id, longurl, shorturl FROM urls ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	mappings := []types.URLMapping{}
	for rows.Next() {
		var u types.URLMapping
		if err = rows.Scan(&u.ID, &u.LongURL, &u.ShortCode); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		mappings = append(mappings, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	return mappings, nil
}

// Exists reports whether code is already taken.
func (m *Manager) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM urls WHERE shorturl = ?)", code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if code exists: %w", err)
	}
	return exists, nil
}

// Insert stores a new mapping and returns its id. A taken code yields a ConflictError.
func (m *Manager) Insert(ctx context.Context, longURL, code string) (int64, error) {
	res, err := m.db.ExecContext(ctx, "INSERT INTO urls (longurl, shorturl) VALUES (?, ?)", longURL, code)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, &types.ConflictError{ShortCode: code}
		}
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// Update replaces the long URL of the mapping with the given id.
func (m *Manager) Update(ctx context.Context, id int64, longURL string) (types.URLMapping, error) {
	var u types.URLMapping
	err := m.db.QueryRowContext(ctx,
		"UPDATE urls SET longurl = ? WHERE id = ? RETURNING id, longurl, shorturl", longURL, id,
	).Scan(&u.ID, &u.LongURL, &u.ShortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.URLMapping{}, &types.NotFoundError{Key: strconv.FormatInt(id, 10)}
		}
		return types.URLMapping{}, fmt.Errorf("failed to update URL %d: %w", id, err)
	}
	return u, nil
}

// Delete removes the mapping with the given id.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM urls WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete URL %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete URL %d: %w", id, err)
	}
	if n == 0 {
		return &types.NotFoundError{Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

// Ping checks the database connection.
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Close closes the database connection.
func (m *Manager) Close(_ context.Context) error {
	return m.db.Close()
}
