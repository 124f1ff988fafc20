package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tbourn/go-compliance-backend/internal/domain"
	"github.com/tbourn/go-compliance-backend/internal/repo"
	"github.com/tbourn/go-compliance-backend/internal/validation"
)

// failingStore fails every call.
type failingStore struct{}

var errDisk = errors.New("disk full")

func (failingStore) CreateOnboarding(context.Context, *domain.OnboardingSubmission) (*domain.OnboardingSubmission, error) {
	return nil, errDisk
}
func (failingStore) ListOnboarding(context.Context) ([]domain.OnboardingSubmission, error) {
	return nil, errDisk
}
func (failingStore) CreateContact(context.Context, *domain.ContactMessage) (*domain.ContactMessage, error) {
	return nil, errDisk
}
func (failingStore) ListContacts(context.Context) ([]domain.ContactMessage, error) {
	return nil, errDisk
}

func onboardingPayload() map[string]any {
	return map[string]any{
		"address":            "12 Example Street, SW1A 1AA",
		"buildingType":       "residential-block",
		"yearBuilt":          "1971-1990",
		"heightBand":         "11-18m",
		"numberOfUnits":      json.Number("24"),
		"hasLifts":           true,
		"hasCommercialUnits": false,
		"email":              "a@b.com",
	}
}

func TestOnboard_StoresValidSubmission(t *testing.T) {
	svc := &SubmissionService{Store: repo.NewMemoryStore()}
	got, err := svc.Onboard(context.Background(), onboardingPayload())
	if err != nil {
		t.Fatalf("Onboard: %v", err)
	}
	if got.ID == "" || got.NumberOfUnits != 24 || got.SubmittedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", got)
	}
	list, err := svc.ListOnboarding(context.Background())
	if err != nil || len(list) != 1 || list[0].ID != got.ID {
		t.Fatalf("ListOnboarding = %+v, err=%v", list, err)
	}
}

func TestOnboard_ListReturnsFieldsAsSubmitted(t *testing.T) {
	svc := &SubmissionService{Store: repo.NewMemoryStore()}
	in := onboardingPayload()
	in["address"] = "  12 Example Street  "
	in["numberOfUnits"] = json.Number("24.0")
	got, err := svc.Onboard(context.Background(), in)
	if err != nil {
		t.Fatalf("Onboard: %v", err)
	}
	list, err := svc.ListOnboarding(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("ListOnboarding = %+v, err=%v", list, err)
	}
	want := domain.OnboardingSubmission{
		ID:                 got.ID,
		Address:            "  12 Example Street  ",
		BuildingType:       "residential-block",
		YearBuilt:          "1971-1990",
		HeightBand:         "11-18m",
		NumberOfUnits:      24,
		HasLifts:           true,
		HasCommercialUnits: false,
		Email:              "a@b.com",
		SubmittedAt:        got.SubmittedAt,
	}
	if list[0] != want {
		t.Fatalf("stored %+v; want %+v", list[0], want)
	}
}

func TestOnboard_ValidationErrorWritesNothing(t *testing.T) {
	store := repo.NewMemoryStore()
	svc := &SubmissionService{Store: store}
	raw := onboardingPayload()
	delete(raw, "email")

	_, err := svc.Onboard(context.Background(), raw)
	ve, ok := validation.AsError(err)
	if !ok || !ve.Has("email") {
		t.Fatalf("expected validation error naming email, got %v", err)
	}
	if errors.Is(err, ErrStoreFailure) {
		t.Fatalf("validation error must not look like a store failure")
	}
	list, _ := store.ListOnboarding(context.Background())
	if len(list) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(list))
	}
}

func TestSubmissions_StoreFailureIsWrapped(t *testing.T) {
	svc := &SubmissionService{Store: failingStore{}}
	ctx := context.Background()

	if _, err := svc.Onboard(ctx, onboardingPayload()); !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("Onboard: expected ErrStoreFailure, got %v", err)
	}
	contact := map[string]any{"name": "Sam", "email": "sam@example.com", "message": "Hello there, testing."}
	if _, err := svc.Contact(ctx, contact); !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("Contact: expected ErrStoreFailure, got %v", err)
	}
	if _, err := svc.ListOnboarding(ctx); !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("ListOnboarding: expected ErrStoreFailure, got %v", err)
	}
	if _, err := svc.ListContacts(ctx); !errors.Is(err, ErrStoreFailure) {
		t.Fatalf("ListContacts: expected ErrStoreFailure, got %v", err)
	}
}

func TestContact_EmptyNameRejected(t *testing.T) {
	svc := &SubmissionService{Store: repo.NewMemoryStore()}
	_, err := svc.Contact(context.Background(), map[string]any{
		"name": "", "email": "a@b.com", "message": "Hello there, testing.",
	})
	ve, ok := validation.AsError(err)
	if !ok || !ve.Has("name") || len(ve.Fields) != 1 {
		t.Fatalf("expected a single name failure, got %v", err)
	}
}

func TestContact_Stores(t *testing.T) {
	svc := &SubmissionService{Store: repo.NewMemoryStore()}
	got, err := svc.Contact(context.Background(), map[string]any{
		"name": " Sam ", "email": "sam@example.com", "message": "Hello there, testing.",
	})
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if got.Name != "Sam" || got.ID == "" {
		t.Fatalf("unexpected record: %+v", got)
	}
	list, _ := svc.ListContacts(context.Background())
	if len(list) != 1 {
		t.Fatalf("expected one contact, got %d", len(list))
	}
}
