package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-compliance-backend/internal/domain"
)

// ErrDuplicate indicates that a live idempotency record already exists for
// the given (scope, key) pair.
var ErrDuplicate = errors.New("duplicate")

// IdempotencyStore remembers which resource a keyed request created.
// Records past their ExpiresAt are treated as absent.
type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error)
	Create(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

func newIdempotency(scope, key, resourceID string, status int, ttl time.Duration) *domain.Idempotency {
	now := time.Now().UTC()
	return &domain.Idempotency{
		ID:         uuid.NewString(),
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// ---- memory ----

// minSweep is the map size at which Create first drops expired records.
const minSweep = 1024

// MemoryIdempotency is an IdempotencyStore held in process memory. Expired
// records are evicted by Create whenever the map reaches sweepAt; the
// threshold then tracks twice the surviving size so sweeps stay amortised.
type MemoryIdempotency struct {
	mu      sync.Mutex
	recs    map[[2]string]domain.Idempotency
	sweepAt int
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{recs: make(map[[2]string]domain.Idempotency), sweepAt: minSweep}
}

// sweep drops records expired at now. Callers hold mu.
func (m *MemoryIdempotency) sweep(now time.Time) {
	for id, rec := range m.recs {
		if !rec.ExpiresAt.After(now) {
			delete(m.recs, id)
		}
	}
	m.sweepAt = max(minSweep, 2*len(m.recs))
}

func (m *MemoryIdempotency) Get(_ context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[[2]string{scope, key}]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryIdempotency) Create(_ context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	rec := newIdempotency(scope, key, resourceID, status, ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	id := [2]string{scope, key}
	if cur, ok := m.recs[id]; ok && cur.ExpiresAt.After(rec.CreatedAt) {
		return nil, ErrDuplicate
	}
	if len(m.recs) >= m.sweepAt {
		m.sweep(rec.CreatedAt)
	}
	m.recs[id] = *rec
	return rec, nil
}

// ---- gorm ----

// GormIdempotency is an IdempotencyStore backed by the idempotency table.
type GormIdempotency struct {
	db *gorm.DB
}

func NewGormIdempotency(db *gorm.DB) *GormIdempotency {
	return &GormIdempotency{db: db}
}

// Get returns a non-expired record or ErrNotFound.
func (g *GormIdempotency) Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := g.db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a record and returns ErrDuplicate on unique violation. An
// expired record holding the same (scope, key) is removed first.
func (g *GormIdempotency) Create(ctx context.Context, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	rec := newIdempotency(scope, key, resourceID, status, ttl)
	db := g.db.WithContext(ctx)
	if err := db.Where("scope = ? AND key = ? AND expires_at <= ?", scope, key, rec.CreatedAt).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}
	if err := db.Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations;
	// Postgres reports SQLSTATE 23505.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "sqlstate 23505") ||
		strings.Contains(low, "duplicate key value")
}
