package pgship

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Storage is the pgx-backed store for shipments, orders, tracking events,
// rate cards and carrier documents.
type Storage struct {
	db *pgxpool.Pool
}

// ErrDuplicateEvent means a webhook scan event hit the dedup key of one
// already stored. Callers treat it as success, not failure.
var ErrDuplicateEvent = errors.New("tracking event already processed")

// ErrNotFound is returned for lookups that matched nothing.
var ErrNotFound = errors.New("not found")

func New(connString string) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	s := &Storage{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
