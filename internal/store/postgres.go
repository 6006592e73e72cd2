package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/courtscout/internal/db"
	"github.com/sells-group/courtscout/internal/venue"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	indoor     BOOLEAN NOT NULL,
	access     TEXT NOT NULL,
	venue_type TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_venues_indoor ON venues(indoor);
CREATE INDEX IF NOT EXISTS idx_venues_city ON venues(city);
`

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]venue.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, city, lat, lng, address, indoor, access, venue_type, source FROM venues ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list venues")
	}
	defer rows.Close()

	var out []venue.Record
	for rows.Next() {
		var (
			r                         venue.Record
			access, venueType, source string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.City, &r.Lat, &r.Lng, &r.Address, &r.Indoor, &access, &venueType, &source); err != nil {
			return nil, eris.Wrap(err, "postgres: scan venue")
		}
		r.Access = venue.Access(access)
		r.VenueType = venue.VenueType(venueType)
		r.Source = venue.Source(source)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate venues")
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, r venue.Record) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO venues (id, name, city, lat, lng, address, indoor, access, venue_type, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Name, r.City, r.Lat, r.Lng, r.Address, r.Indoor, string(r.Access), string(r.VenueType), string(r.Source),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert venue %s", r.ID)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateType implements Store.
func (s *PostgresStore) UpdateType(ctx context.Context, req UpdateTypeRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	query := `UPDATE venues SET venue_type = $1, access = COALESCE(NULLIF($2, ''), access) WHERE name ILIKE $3 ESCAPE '\'`
	args := []any{string(req.VenueType), string(req.Access), req.NamePattern}
	if req.Indoor != nil {
		query += ` AND indoor = $4`
		args = append(args, *req.Indoor)
	}
	if req.UnsetOnly {
		query += ` AND COALESCE(venue_type, '') = ''`
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: update type %q", req.NamePattern)
	}
	return tag.RowsAffected(), nil
}
