package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-compliance-backend/internal/domain"
	"github.com/tbourn/go-compliance-backend/internal/observability"
	"github.com/tbourn/go-compliance-backend/internal/repo"
	"github.com/tbourn/go-compliance-backend/internal/validation"
)

// Submission kinds, used as span attributes and metric labels.
const (
	KindOnboarding = "onboarding"
	KindContact    = "contact"
)

// SubmissionService validates form payloads and persists them.
//
// Errors: *validation.Error when the payload is rejected (nothing is
// written), or an error wrapping ErrStoreFailure when the store fails.
type SubmissionService struct {
	Store repo.Store
}

// Onboard validates raw as an onboarding submission and stores it.
func (s *SubmissionService) Onboard(ctx context.Context, raw map[string]any) (*domain.OnboardingSubmission, error) {
	ctx, span := observability.Tracer("services/SubmissionService").Start(ctx, "Onboard",
		trace.WithAttributes(attribute.String("submission.kind", KindOnboarding)),
	)
	defer span.End()

	in, err := validation.Onboarding(raw)
	if err != nil {
		return nil, s.rejected(span, KindOnboarding, err)
	}
	out, err := s.Store.CreateOnboarding(ctx, &in)
	if err != nil {
		return nil, s.failed(span, KindOnboarding, "create onboarding submission", err)
	}
	s.created(span, KindOnboarding, out.ID)
	return out, nil
}

// Contact validates raw as a contact message and stores it.
func (s *SubmissionService) Contact(ctx context.Context, raw map[string]any) (*domain.ContactMessage, error) {
	ctx, span := observability.Tracer("services/SubmissionService").Start(ctx, "Contact",
		trace.WithAttributes(attribute.String("submission.kind", KindContact)),
	)
	defer span.End()

	in, err := validation.Contact(raw)
	if err != nil {
		return nil, s.rejected(span, KindContact, err)
	}
	out, err := s.Store.CreateContact(ctx, &in)
	if err != nil {
		return nil, s.failed(span, KindContact, "create contact message", err)
	}
	s.created(span, KindContact, out.ID)
	return out, nil
}

// ListOnboarding returns every stored onboarding submission.
func (s *SubmissionService) ListOnboarding(ctx context.Context) ([]domain.OnboardingSubmission, error) {
	out, err := s.Store.ListOnboarding(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list onboarding submissions: %v", ErrStoreFailure, err)
	}
	return out, nil
}

// ListContacts returns every stored contact message.
func (s *SubmissionService) ListContacts(ctx context.Context) ([]domain.ContactMessage, error) {
	out, err := s.Store.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list contact messages: %v", ErrStoreFailure, err)
	}
	return out, nil
}

func (s *SubmissionService) rejected(span trace.Span, kind string, err error) error {
	if ve, ok := validation.AsError(err); ok {
		span.SetAttributes(attribute.Int("validation.failures", len(ve.Fields)))
	}
	observability.Submissions.WithLabelValues(kind, "invalid").Inc()
	return err
}

func (s *SubmissionService) failed(span trace.Span, kind, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	observability.Submissions.WithLabelValues(kind, "failed").Inc()
	return fmt.Errorf("%w: %s: %v", ErrStoreFailure, op, err)
}

func (s *SubmissionService) created(span trace.Span, kind, id string) {
	span.SetAttributes(attribute.String("submission.id", id))
	observability.Submissions.WithLabelValues(kind, "created").Inc()
}
