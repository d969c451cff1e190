package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"

	"contact-scraper/models"
	"contact-scraper/utils"
)

const (
	batchSize    = 50
	pingAttempts = 10
	pingInterval = 2 * time.Second
)

// PostgresStore persists the roster and consolidated contacts to PostgreSQL.
// Both tables are keyed by NameKey so re-runs against a growing dataset only
// add new people or improve existing contacts.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects, waits for the server and runs migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, eris.Wrap(ctx.Err(), "postgres: ping")
		case <-time.After(pingInterval):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "postgres: ping failed after retries")
	}

	s := NewPostgresStoreFromDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection without migrating.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agents (
			id         BIGSERIAL,
			name_key   TEXT        PRIMARY KEY,
			name       TEXT        NOT NULL,
			city       TEXT        NOT NULL DEFAULT '',
			source     TEXT        NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS contacts (
			name_key   TEXT        PRIMARY KEY,
			name       TEXT        NOT NULL,
			email      TEXT        NOT NULL DEFAULT '',
			phone      TEXT        NOT NULL DEFAULT '',
			source_url TEXT        NOT NULL DEFAULT '',
			score      INT         NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_agents_source ON agents(source);
	`)
	if err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// WriteRoster inserts roster entries not already stored.
func (s *PostgresStore) WriteRoster(ctx context.Context, roster []models.Agent) error {
	return s.inBatches(ctx, len(roster), func(tx *sqlx.Tx, lo, hi int) error {
		values := make([]string, 0, hi-lo)
		args := make([]any, 0, (hi-lo)*4)
		for i, a := range roster[lo:hi] {
			values = append(values, placeholders(i, 4))
			args = append(args, utils.NameKey(a.Name), a.Name, a.City, a.Source)
		}
		query := fmt.Sprintf(`
			INSERT INTO agents (name_key, name, city, source)
			VALUES %s
			ON CONFLICT (name_key) DO NOTHING
		`, strings.Join(values, ","))
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

type agentRow struct {
	Name   string `db:"name"`
	City   string `db:"city"`
	Source string `db:"source"`
}

// FetchRoster returns the stored roster in insertion order.
func (s *PostgresStore) FetchRoster(ctx context.Context) ([]models.Agent, error) {
	var rows []agentRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT name, city, source FROM agents ORDER BY id`); err != nil {
		return nil, eris.Wrap(err, "postgres: fetch roster")
	}
	roster := make([]models.Agent, len(rows))
	for i, r := range rows {
		roster[i] = models.Agent{Name: r.Name, City: r.City, Source: r.Source}
	}
	return roster, nil
}

// ReadRoster implements RosterReader.
func (s *PostgresStore) ReadRoster(ctx context.Context) ([]models.Agent, error) {
	return s.FetchRoster(ctx)
}

// WriteContacts upserts contacts. A stored contact is only replaced by one
// with a strictly higher score.
func (s *PostgresStore) WriteContacts(ctx context.Context, contacts []models.Observation) error {
	return s.inBatches(ctx, len(contacts), func(tx *sqlx.Tx, lo, hi int) error {
		values := make([]string, 0, hi-lo)
		args := make([]any, 0, (hi-lo)*6)
		for i, c := range contacts[lo:hi] {
			values = append(values, placeholders(i, 6))
			args = append(args, utils.NameKey(c.Name), c.Name, c.Email, c.Phone, c.SourceURL, c.Score())
		}
		query := fmt.Sprintf(`
			INSERT INTO contacts (name_key, name, email, phone, source_url, score)
			VALUES %s
			ON CONFLICT (name_key) DO UPDATE SET
				name = EXCLUDED.name,
				email = EXCLUDED.email,
				phone = EXCLUDED.phone,
				source_url = EXCLUDED.source_url,
				score = EXCLUDED.score,
				updated_at = NOW()
			WHERE contacts.score < EXCLUDED.score
		`, strings.Join(values, ","))
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) inBatches(ctx context.Context, n int, insert func(tx *sqlx.Tx, lo, hi int) error) error {
	if n == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	for lo := 0; lo < n; lo += batchSize {
		hi := min(lo+batchSize, n)
		if err := insert(tx, lo, hi); err != nil {
			_ = tx.Rollback()
			return eris.Wrapf(err, "postgres: insert batch %d-%d", lo, hi)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}

// placeholders renders "($a,$b,...)" for row idx of a multi-row insert.
func placeholders(idx, cols int) string {
	ph := make([]string, cols)
	for c := range ph {
		ph[c] = fmt.Sprintf("$%d", idx*cols+c+1)
	}
	return "(" + strings.Join(ph, ",") + ")"
}
