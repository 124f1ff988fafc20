package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-compliance-backend/internal/domain"
)

// MemoryStore is a process-local Store. Inserts are serialized by a mutex;
// reads load an immutable snapshot without locking. The backing slices are
// append-only, so a published snapshot never observes later writes.
type MemoryStore struct {
	mu         sync.Mutex
	onboarding atomic.Pointer[[]domain.OnboardingSubmission]
	contacts   atomic.Pointer[[]domain.ContactMessage]
	now        func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) CreateOnboarding(ctx context.Context, in *domain.OnboardingSubmission) (*domain.OnboardingSubmission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := *in
	rec.ID = uuid.NewString()
	rec.SubmittedAt = s.now().UTC()

	s.mu.Lock()
	var next []domain.OnboardingSubmission
	if cur := s.onboarding.Load(); cur != nil {
		next = *cur
	}
	next = append(next, rec)
	s.onboarding.Store(&next)
	s.mu.Unlock()

	return &rec, nil
}

func (s *MemoryStore) ListOnboarding(ctx context.Context) ([]domain.OnboardingSubmission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cur := s.onboarding.Load()
	if cur == nil {
		return []domain.OnboardingSubmission{}, nil
	}
	out := make([]domain.OnboardingSubmission, len(*cur))
	copy(out, *cur)
	return out, nil
}

func (s *MemoryStore) CreateContact(ctx context.Context, in *domain.ContactMessage) (*domain.ContactMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := *in
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()

	s.mu.Lock()
	var next []domain.ContactMessage
	if cur := s.contacts.Load(); cur != nil {
		next = *cur
	}
	next = append(next, rec)
	s.contacts.Store(&next)
	s.mu.Unlock()

	return &rec, nil
}

func (s *MemoryStore) ListContacts(ctx context.Context) ([]domain.ContactMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cur := s.contacts.Load()
	if cur == nil {
		return []domain.ContactMessage{}, nil
	}
	out := make([]domain.ContactMessage, len(*cur))
	copy(out, *cur)
	return out, nil
}
