// Package postgres provides a Postgres-backed digest record store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/sha256-digest/internal/digest"
)

const defaultTable = "digests"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStoreConfig controls the Postgres connection pool used for digest rows.
type RecordStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// RecordStore reads and writes digest rows in Postgres.
type RecordStore struct {
	pool  pool
	table string
}

// NewRecordStore creates a Postgres-backed RecordStore using the provided config.
func NewRecordStore(ctx context.Context, cfg RecordStoreConfig) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordStore{pool: p, table: table}, nil
}

// poolConfig parses the DSN and applies the positive pool overrides.
func poolConfig(cfg RecordStoreConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	return poolCfg, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(p pool, table string) (*RecordStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: p, table: table}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the digest table when it does not exist.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	digest     CHAR(64) NOT NULL,
	size       BIGINT NOT NULL,
	source     TEXT NOT NULL,
	blob_uri   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveRecord inserts a digest row into Postgres.
func (s *RecordStore) SaveRecord(ctx context.Context, record digest.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("record store is not configured")
	}
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	digest,
	size,
	source,
	blob_uri,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)

	if _, err := s.pool.Exec(ctx, query,
		record.ID,
		record.Digest,
		record.Size,
		record.Source,
		record.BlobURI,
		record.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetRecord loads a digest row by ID.
func (s *RecordStore) GetRecord(ctx context.Context, id string) (digest.Record, error) {
	if s == nil || s.pool == nil {
		return digest.Record{}, fmt.Errorf("record store is not configured")
	}
	query := fmt.Sprintf(
		`SELECT id, digest, size, source, blob_uri, created_at FROM %s WHERE id = $1`,
		s.table,
	)
	var rec digest.Record
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Digest,
		&rec.Size,
		&rec.Source,
		&rec.BlobURI,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return digest.Record{}, digest.ErrNotFound
	}
	if err != nil {
		return digest.Record{}, fmt.Errorf("select record: %w", err)
	}
	return rec, nil
}
