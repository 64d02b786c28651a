package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
	key      TEXT PRIMARY KEY,
	state    JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore stores documents as JSONB rows in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the documents table if it does not exist
func (ps *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := ps.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return errors.Wrap(err, "create documents table")
	}
	return nil
}

// Load decodes the row stored under key into dst
func (ps *PostgresStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	var (
		state   []byte
		savedAt time.Time
	)
	err := ps.db.QueryRowContext(ctx,
		"SELECT state, saved_at FROM documents WHERE key = $1",
		key,
	).Scan(&state, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "select document %s", key)
	}

	doc := Document{Key: key, State: state, SavedAt: savedAt}
	if err := doc.Decode(dst); err != nil {
		return false, err
	}
	return true, nil
}

// Save upserts the row stored under key
func (ps *PostgresStore) Save(ctx context.Context, key string, src any) error {
	doc, err := NewDocument(key, src)
	if err != nil {
		return err
	}

	_, err = ps.db.ExecContext(ctx,
		`INSERT INTO documents (key, state, saved_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET state = EXCLUDED.state, saved_at = EXCLUDED.saved_at`,
		doc.Key,
		[]byte(doc.State),
		doc.SavedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert document %s", key)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// A single shop process needs only a handful of connections
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
