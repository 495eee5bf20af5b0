package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notiongate/notiongate/internal/schema"
)

// PgStore keeps one JSONB document per database id in a single table
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore connects to postgres and ensures the schema table exists
func NewPgStore(ctx context.Context, url string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %v", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gateway_schemas (
			id       TEXT PRIMARY KEY,
			document JSONB NOT NULL
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema table: %v", err)
	}

	return &PgStore{pool: pool}, nil
}

// List loads every schema record
func (ps *PgStore) List(ctx context.Context) ([]*schema.Schema, error) {
	rows, err := ps.pool.Query(ctx, `SELECT document FROM gateway_schemas`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %v", err)
	}
	defer rows.Close()

	var schemas []*schema.Schema
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %v", err)
		}
		var s schema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode schema row: %v", err)
		}
		schemas = append(schemas, &s)
	}
	return schemas, rows.Err()
}

// Load reads a single schema record, nil when absent
func (ps *PgStore) Load(ctx context.Context, id string) (*schema.Schema, error) {
	var data []byte
	err := ps.pool.QueryRow(ctx,
		`SELECT document FROM gateway_schemas WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %v", id, err)
	}
	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %v", id, err)
	}
	return &s, nil
}

// Save writes a schema record
func (ps *PgStore) Save(ctx context.Context, s *schema.Schema) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode schema %s: %v", s.ID, err)
	}
	_, err = ps.pool.Exec(ctx, `
		INSERT INTO gateway_schemas (id, document) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document`,
		s.ID, data)
	if err != nil {
		return fmt.Errorf("failed to write schema %s: %v", s.ID, err)
	}
	return nil
}

// Delete removes a schema record
func (ps *PgStore) Delete(ctx context.Context, id string) error {
	_, err := ps.pool.Exec(ctx, `DELETE FROM gateway_schemas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schema %s: %v", id, err)
	}
	return nil
}

// Close releases the connection pool
func (ps *PgStore) Close() {
	ps.pool.Close()
}
