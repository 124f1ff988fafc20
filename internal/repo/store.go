// Package repo implements the persistence layer for submissions captured by
// the funnel. Handlers and services depend on the Store interface only; the
// concrete backend (in-memory, SQLite or Postgres) is chosen at startup.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/go-compliance-backend/internal/config"
	"github.com/tbourn/go-compliance-backend/internal/domain"
)

// ErrNotFound is returned when a lookup finds no live record.
var ErrNotFound = errors.New("not found")

// Store persists onboarding submissions and contact messages.
//
// Create* assigns a fresh UUID and a UTC timestamp, persists the record and
// returns the stored copy; the argument is not modified. List* returns every
// stored record; order is not part of the contract. There is no read-by-id,
// update or delete.
type Store interface {
	CreateOnboarding(ctx context.Context, in *domain.OnboardingSubmission) (*domain.OnboardingSubmission, error)
	ListOnboarding(ctx context.Context) ([]domain.OnboardingSubmission, error)
	CreateContact(ctx context.Context, in *domain.ContactMessage) (*domain.ContactMessage, error)
	ListContacts(ctx context.Context) ([]domain.ContactMessage, error)
}

// Backend bundles a Store with the idempotency records kept next to it and a
// closer for the underlying resources.
type Backend struct {
	Store       Store
	Idempotency IdempotencyStore
	Close       func() error
}

// Open builds the backend selected by cfg.Store.Driver.
func Open(cfg config.Config) (*Backend, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return &Backend{
			Store:       NewMemoryStore(),
			Idempotency: NewMemoryIdempotency(),
			Close:       func() error { return nil },
		}, nil
	case "sqlite":
		db, err := OpenSQLite(cfg.Store.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", cfg.Store.DBPath, err)
		}
		return gormBackend(db)
	case "postgres":
		db, err := OpenPostgres(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return gormBackend(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
