// Package store provides storage backends for BrandDiscovery.
//
// It includes an in-memory store for tests and demos and SQL stores backed by
// SQLite or PostgreSQL. Lookups of missing records return nil with a nil error.
package store

import (
	"strings"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// Store persists sessions and everything derived from them.
type Store interface {
	CreateSession(s models.SessionRecord) error
	GetSession(id string) (*models.SessionRecord, error)
	UpdateSession(s models.SessionRecord) error

	AddMessage(m models.MessageRecord) error
	ListMessages(sessionID string) ([]models.MessageRecord, error)

	AddRapidFireResponse(r models.RapidFireRecord) error
	ListRapidFireResponses(sessionID string) ([]models.RapidFireRecord, error)

	// UpsertValue inserts or updates a value keyed by session and name.
	UpsertValue(v models.ValueRecord) error
	// ListValues returns values in display order.
	ListValues(sessionID string) ([]models.ValueRecord, error)
	MarkValuesFinal(sessionID string) error

	// SaveDeliverable inserts or updates the deliverable keyed by session.
	SaveDeliverable(d models.DeliverableRecord) error
	GetDeliverableBySession(sessionID string) (*models.DeliverableRecord, error)
	GetDeliverableBySlug(slug string) (*models.DeliverableRecord, error)

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string // data source name for the backing database
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType returns the database/sql driver name for dsn: "postgres" for
// PostgreSQL URLs and keyword strings, "sqlite3" otherwise.
func DetectDSNType(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// New opens the backend matching opts. With no DSN it returns an in-memory store.
func New(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		return NewInMemoryStore(), nil
	case DetectDSNType(cfg.DSN) == "postgres":
		return NewPostgresStore(opts...)
	default:
		return NewSQLiteStore(opts...)
	}
}
