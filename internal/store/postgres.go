package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medibook-console/internal/model"
)

const schema = `CREATE TABLE IF NOT EXISTS client_sessions (
	profile    TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres keeps one row per profile, for workstations that share a
// session across machines.
type Postgres struct {
	pool    *pgxpool.Pool
	profile string
}

func NewPostgres(ctx context.Context, url, profile string) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("store: DATABASE_URL is required for the postgres driver")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("store: db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: db ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Postgres{pool: pool, profile: profile}, nil
}

func (p *Postgres) Load(ctx context.Context) (*model.User, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM client_sessions WHERE profile = $1`, p.profile,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := json.Unmarshal(payload, u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return u, nil
}

func (p *Postgres) Save(ctx context.Context, u *model.User) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO client_sessions (profile, payload) VALUES ($1, $2)
		 ON CONFLICT (profile) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		p.profile, payload,
	)
	return err
}

func (p *Postgres) Clear(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM client_sessions WHERE profile = $1`, p.profile)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
