// Package store persists venue records. Backends: a remote records API over
// HTTP, SQLite and Postgres.
package store

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/courtscout/internal/config"
	"github.com/sells-group/courtscout/internal/venue"
)

// Store defines the persistence interface for venue records.
type Store interface {
	// List returns every persisted record.
	List(ctx context.Context) ([]venue.Record, error)
	// Create inserts r unless a record with the same id exists. created is
	// false for the no-op case.
	Create(ctx context.Context, r venue.Record) (created bool, err error)
	// UpdateType sets the venue type (and optionally access) on every record
	// whose name matches req.NamePattern. With req.UnsetOnly, records that
	// already carry a type are left alone.
	UpdateType(ctx context.Context, req UpdateTypeRequest) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// UpdateTypeRequest is a bulk classification update. NamePattern uses SQL
// LIKE syntax: '%' matches any run of characters, '_' any single character,
// '\' escapes the next one, and matching ignores case.
type UpdateTypeRequest struct {
	VenueType   venue.VenueType
	Access      venue.Access // optional
	NamePattern string
	Indoor      *bool // optional scope
	UnsetOnly   bool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LiteralPattern returns a NamePattern matching name exactly (ignoring case).
func LiteralPattern(name string) string {
	return likeEscaper.Replace(name)
}

// Validate checks the request.
func (r UpdateTypeRequest) Validate() error {
	if !r.VenueType.Valid() {
		return eris.Errorf("store: invalid venue type %q", r.VenueType)
	}
	if r.Access != "" && !r.Access.Valid() {
		return eris.Errorf("store: invalid access %q", r.Access)
	}
	if strings.TrimSpace(r.NamePattern) == "" {
		return eris.New("store: name_pattern is required")
	}
	return nil
}

// CreateResult is the JSON body returned by the create endpoint.
type CreateResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// UpdateResult is the JSON body returned by the update-type endpoint.
type UpdateResult struct {
	Updated int64 `json:"updated"`
}

// RecordQuery encodes r as create-endpoint query parameters.
func RecordQuery(r venue.Record) url.Values {
	q := url.Values{}
	q.Set("id", r.ID)
	q.Set("name", r.Name)
	q.Set("city", r.City)
	q.Set("lat", strconv.FormatFloat(r.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(r.Lng, 'f', -1, 64))
	if r.Address != "" {
		q.Set("address", r.Address)
	}
	q.Set("indoor", strconv.FormatBool(r.Indoor))
	q.Set("access", string(r.Access))
	if r.VenueType != "" {
		q.Set("venue_type", string(r.VenueType))
	}
	q.Set("source", string(r.Source))
	return q
}

// RecordFromQuery decodes create-endpoint query parameters and validates the
// resulting record.
func RecordFromQuery(q url.Values) (venue.Record, error) {
	r := venue.Record{
		ID:        q.Get("id"),
		Name:      q.Get("name"),
		City:      q.Get("city"),
		Address:   q.Get("address"),
		Access:    venue.Access(q.Get("access")),
		VenueType: venue.VenueType(q.Get("venue_type")),
		Source:    venue.Source(q.Get("source")),
	}
	var err error
	if r.Lat, err = strconv.ParseFloat(q.Get("lat"), 64); err != nil {
		return r, eris.Wrap(err, "store: parse lat")
	}
	if r.Lng, err = strconv.ParseFloat(q.Get("lng"), 64); err != nil {
		return r, eris.Wrap(err, "store: parse lng")
	}
	if r.Indoor, err = strconv.ParseBool(q.Get("indoor")); err != nil {
		return r, eris.Wrap(err, "store: parse indoor")
	}
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// UpdateTypeQuery encodes req as update-type query parameters.
func UpdateTypeQuery(req UpdateTypeRequest) url.Values {
	q := url.Values{}
	q.Set("venue_type", string(req.VenueType))
	q.Set("name_pattern", req.NamePattern)
	if req.Access != "" {
		q.Set("access", string(req.Access))
	}
	if req.Indoor != nil {
		q.Set("indoor", strconv.FormatBool(*req.Indoor))
	}
	if req.UnsetOnly {
		q.Set("unset_only", "true")
	}
	return q
}

// UpdateTypeFromQuery decodes and validates update-type query parameters.
func UpdateTypeFromQuery(q url.Values) (UpdateTypeRequest, error) {
	req := UpdateTypeRequest{
		VenueType:   venue.VenueType(q.Get("venue_type")),
		Access:      venue.Access(q.Get("access")),
		NamePattern: q.Get("name_pattern"),
	}
	if s := q.Get("indoor"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return req, eris.Wrap(err, "store: parse indoor")
		}
		req.Indoor = &b
	}
	if s := q.Get("unset_only"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return req, eris.Wrap(err, "store: parse unset_only")
		}
		req.UnsetOnly = b
	}
	return req, req.Validate()
}

// Open returns the Store selected by cfg.Driver and applies migrations for
// database backends.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "http", "":
		timeout := time.Duration(cfg.TimeoutSecs) * time.Second
		s = NewHTTP(cfg.BaseURL, WithTimeout(timeout))
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
