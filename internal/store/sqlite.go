package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/courtscout/internal/venue"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	indoor     INTEGER NOT NULL,
	access     TEXT NOT NULL,
	venue_type TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_venues_indoor ON venues(indoor);
CREATE INDEX IF NOT EXISTS idx_venues_city ON venues(city);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]venue.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, city, lat, lng, address, indoor, access, venue_type, source FROM venues ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list venues")
	}
	defer rows.Close() //nolint:errcheck

	var out []venue.Record
	for rows.Next() {
		var (
			r                         venue.Record
			access, venueType, source string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.City, &r.Lat, &r.Lng, &r.Address, &r.Indoor, &access, &venueType, &source); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan venue")
		}
		r.Access = venue.Access(access)
		r.VenueType = venue.VenueType(venueType)
		r.Source = venue.Source(source)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate venues")
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, r venue.Record) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO venues (id, name, city, lat, lng, address, indoor, access, venue_type, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Name, r.City, r.Lat, r.Lng, r.Address, r.Indoor, string(r.Access), string(r.VenueType), string(r.Source),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert venue %s", r.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

// UpdateType implements Store.
func (s *SQLiteStore) UpdateType(ctx context.Context, req UpdateTypeRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	query := `UPDATE venues SET venue_type = ?, access = COALESCE(NULLIF(?, ''), access) WHERE name LIKE ? ESCAPE '\'`
	args := []any{string(req.VenueType), string(req.Access), req.NamePattern}
	if req.Indoor != nil {
		query += ` AND indoor = ?`
		args = append(args, *req.Indoor)
	}
	if req.UnsetOnly {
		query += ` AND COALESCE(venue_type, '') = ''`
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: update type %q", req.NamePattern)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, nil
}
