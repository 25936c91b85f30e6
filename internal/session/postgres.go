package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/salesflow/internal/domain"
)

// PostgresStore keeps sessions in the sessions table next to users.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore builds a store on pool. A nil clock defaults to time.Now.
func NewPostgresStore(pool *pgxpool.Pool, now func() time.Time) *PostgresStore {
	return &PostgresStore{pool: pool, now: clockOrDefault(now)}
}

func (p *PostgresStore) Put(ctx context.Context, s *domain.Session) error {
	if s == nil || s.Token == "" {
		return errors.New("session token required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	const query = `
        INSERT INTO sessions (token, data, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`

	_, err = p.pool.Exec(ctx, query, s.Token, string(data), s.ExpiresAt.UTC())
	return err
}

func (p *PostgresStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	const query = `
        SELECT data FROM sessions
        WHERE token = $1 AND expires_at > $2`

	var data []byte
	if err := p.pool.QueryRow(ctx, query, token, p.now().UTC()).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, token string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (p *PostgresStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	cmd, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
