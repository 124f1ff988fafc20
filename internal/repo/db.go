package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-compliance-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	tune(db, 10)
	return db, nil
}

// OpenPostgres connects to Postgres using a DSN or URL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	tune(db, 25)
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func tune(db *gorm.DB, maxOpen int) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.OnboardingSubmission{},
		&domain.ContactMessage{},
		&domain.Idempotency{},
	)
}

func gormBackend(db *gorm.DB) (*Backend, error) {
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &Backend{
		Store:       NewGormStore(db),
		Idempotency: NewGormIdempotency(db),
		Close:       sqlDB.Close,
	}, nil
}

// GormStore is a Store backed by a relational database through GORM. Every
// create is a single-row INSERT, so a failed write leaves nothing behind.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db. The schema must already be migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateOnboarding(ctx context.Context, in *domain.OnboardingSubmission) (*domain.OnboardingSubmission, error) {
	rec := *in
	rec.ID = uuid.NewString()
	rec.SubmittedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) ListOnboarding(ctx context.Context) ([]domain.OnboardingSubmission, error) {
	out := []domain.OnboardingSubmission{}
	err := s.db.WithContext(ctx).Order("submitted_at ASC, id ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) CreateContact(ctx context.Context, in *domain.ContactMessage) (*domain.ContactMessage, error) {
	rec := *in
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) ListContacts(ctx context.Context) ([]domain.ContactMessage, error) {
	out := []domain.ContactMessage{}
	err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}
