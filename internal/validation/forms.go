package validation

import (
	"reflect"

	"github.com/tbourn/go-compliance-backend/internal/domain"
)

// Tag sets offered by the onboarding form.
var (
	BuildingTypes = []string{
		"residential-block",
		"mixed-use",
		"converted-house",
		"purpose-built",
		"retirement",
		"other",
	}
	YearBuiltBands = []string{
		"pre-1900",
		"1900-1945",
		"1946-1970",
		"1971-1990",
		"1991-2010",
		"post-2010",
		"unknown",
	}
	HeightBands = []string{
		"under-11m",
		"11-18m",
		"over-18m",
		"unknown",
	}
)

type onboardingInput struct {
	Address            string `json:"address"            validate:"required,min=5"`
	BuildingType       string `json:"buildingType"       validate:"required,building_type"`
	YearBuilt          string `json:"yearBuilt"          validate:"required,year_built"`
	HeightBand         string `json:"heightBand"         validate:"required,height_band"`
	NumberOfUnits      int    `json:"numberOfUnits"      validate:"required,min=1"`
	HasLifts           bool   `json:"hasLifts"`
	HasCommercialUnits bool   `json:"hasCommercialUnits"`
	Email              string `json:"email"              validate:"required,email"`
}

var onboardingSpecs = []fieldSpec{
	{"address", reflect.String, "Please enter a valid address", true},
	{"buildingType", reflect.String, "Please select a building type", false},
	{"yearBuilt", reflect.String, "Please select when the building was built", false},
	{"heightBand", reflect.String, "Please select the building height", false},
	{"numberOfUnits", reflect.Int, "Please enter number of units", false},
	{"hasLifts", reflect.Bool, "", false},
	{"hasCommercialUnits", reflect.Bool, "", false},
	{"email", reflect.String, "Please enter a valid email address", false},
}

// Onboarding validates a raw onboarding payload. hasLifts and
// hasCommercialUnits default to false when absent. The returned record has
// no ID or timestamp; those are assigned by the store.
func Onboarding(raw map[string]any) (domain.OnboardingSubmission, error) {
	var in onboardingInput
	if err := bind(raw, &in, onboardingSpecs); err != nil {
		return domain.OnboardingSubmission{}, err
	}
	return domain.OnboardingSubmission{
		Address:            in.Address,
		BuildingType:       in.BuildingType,
		YearBuilt:          in.YearBuilt,
		HeightBand:         in.HeightBand,
		NumberOfUnits:      in.NumberOfUnits,
		HasLifts:           in.HasLifts,
		HasCommercialUnits: in.HasCommercialUnits,
		Email:              in.Email,
	}, nil
}

type contactInput struct {
	Name    string `json:"name"    validate:"required,min=1"`
	Email   string `json:"email"   validate:"required,email"`
	Message string `json:"message" validate:"required,min=10"`
}

var contactSpecs = []fieldSpec{
	{"name", reflect.String, "Name is required", true},
	{"email", reflect.String, "Valid email required", false},
	{"message", reflect.String, "Message must be at least 10 characters", true},
}

// Contact validates a raw contact-form payload.
func Contact(raw map[string]any) (domain.ContactMessage, error) {
	var in contactInput
	if err := bind(raw, &in, contactSpecs); err != nil {
		return domain.ContactMessage{}, err
	}
	return domain.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Message: in.Message,
	}, nil
}
