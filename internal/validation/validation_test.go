package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOnboarding() map[string]any {
	return map[string]any{
		"address":            "12 High Street, Leeds LS1 1AA",
		"buildingType":       "residential-block",
		"yearBuilt":          "1971-1990",
		"heightBand":         "11-18m",
		"numberOfUnits":      json.Number("24"),
		"hasLifts":           true,
		"hasCommercialUnits": false,
		"email":              "manager@example.com",
	}
}

func fieldCodes(t *testing.T, err error) map[string]string {
	t.Helper()
	ve, ok := AsError(err)
	require.True(t, ok, "expected *validation.Error, got %T (%v)", err, err)
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Code
	}
	return out
}

func TestOnboarding_Valid(t *testing.T) {
	sub, err := Onboarding(validOnboarding())
	require.NoError(t, err)
	assert.Equal(t, "12 High Street, Leeds LS1 1AA", sub.Address)
	assert.Equal(t, "residential-block", sub.BuildingType)
	assert.Equal(t, 24, sub.NumberOfUnits)
	assert.True(t, sub.HasLifts)
	assert.False(t, sub.HasCommercialUnits)
	assert.Empty(t, sub.ID)
}

func TestOnboarding_DefaultsBooleans(t *testing.T) {
	raw := validOnboarding()
	delete(raw, "hasLifts")
	delete(raw, "hasCommercialUnits")

	sub, err := Onboarding(raw)
	require.NoError(t, err)
	assert.False(t, sub.HasLifts)
	assert.False(t, sub.HasCommercialUnits)
}

func TestOnboarding_EmptyObjectReportsEveryRequiredField(t *testing.T) {
	_, err := Onboarding(map[string]any{})
	codes := fieldCodes(t, err)

	for _, f := range []string{"address", "buildingType", "yearBuilt", "heightBand", "numberOfUnits", "email"} {
		assert.Equal(t, CodeRequired, codes[f], f)
	}
	assert.NotContains(t, codes, "hasLifts")
	assert.NotContains(t, codes, "hasCommercialUnits")
}

func TestOnboarding_FieldOrderFollowsForm(t *testing.T) {
	_, err := Onboarding(map[string]any{})
	ve, ok := AsError(err)
	require.True(t, ok)
	require.Len(t, ve.Fields, 6)
	assert.Equal(t, "address", ve.Fields[0].Field)
	assert.Equal(t, "email", ve.Fields[5].Field)
	assert.Equal(t, "Please enter a valid address", ve.Fields[0].Message)
}

func TestOnboarding_RuleFailures(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value any
		code  string
	}{
		{"short address", "address", "abcd", CodeTooSmall},
		{"whitespace address", "address", "   ab   ", CodeTooSmall},
		{"unknown building type", "buildingType", "castle", CodeInvalidEnum},
		{"unknown year band", "yearBuilt", "1066", CodeInvalidEnum},
		{"unknown height band", "heightBand", "tall", CodeInvalidEnum},
		{"zero units", "numberOfUnits", json.Number("0"), CodeRequired},
		{"negative units", "numberOfUnits", json.Number("-3"), CodeTooSmall},
		{"bad email", "email", "not-an-email", CodeInvalidMail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validOnboarding()
			raw[tc.field] = tc.value
			_, err := Onboarding(raw)
			codes := fieldCodes(t, err)
			assert.Equal(t, map[string]string{tc.field: tc.code}, codes)
		})
	}
}

func TestOnboarding_TypeErrors(t *testing.T) {
	cases := []struct {
		field string
		value any
	}{
		{"address", json.Number("12")},
		{"numberOfUnits", "twelve"},
		{"numberOfUnits", json.Number("2.5")},
		{"numberOfUnits", 2.5},
		{"hasLifts", "yes"},
		{"email", []any{"a@b.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			raw := validOnboarding()
			raw[tc.field] = tc.value
			_, err := Onboarding(raw)
			codes := fieldCodes(t, err)
			assert.Equal(t, map[string]string{tc.field: CodeInvalidType}, codes)
		})
	}
}

func TestOnboarding_AcceptsPlainNumbers(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  int
	}{
		{"float64", float64(3), 3},
		{"trailing zero", json.Number("24.0"), 24},
		{"exponent", json.Number("1e2"), 100},
		{"max int64", json.Number("9223372036854775807"), 9223372036854775807},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validOnboarding()
			raw["numberOfUnits"] = tc.value
			sub, err := Onboarding(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, sub.NumberOfUnits)
		})
	}
}

func TestOnboarding_UnitsOutOfRange(t *testing.T) {
	cases := []struct {
		value any
		code  string
	}{
		{json.Number("99999999999999999999"), CodeTooBig},
		{json.Number("1e400"), CodeTooBig},
		{json.Number("9223372036854775808"), CodeTooBig},
		{float64(1e19), CodeTooBig},
		{json.Number("-99999999999999999999"), CodeTooSmall},
	}
	for _, tc := range cases {
		raw := validOnboarding()
		raw["numberOfUnits"] = tc.value
		_, err := Onboarding(raw)
		ve, ok := AsError(err)
		require.True(t, ok, "%v: %v", tc.value, err)
		require.Len(t, ve.Fields, 1)
		assert.Equal(t, FieldError{Field: "numberOfUnits", Message: "Please enter number of units", Code: tc.code}, ve.Fields[0], tc.value)
	}
}

func TestOnboarding_StoresSubmittedText(t *testing.T) {
	raw := validOnboarding()
	raw["address"] = "  12 Example Street  "
	sub, err := Onboarding(raw)
	require.NoError(t, err)
	assert.Equal(t, "  12 Example Street  ", sub.Address)
	assert.Equal(t, "manager@example.com", sub.Email)
}

func TestOnboarding_PaddedValuesOutsideFreeTextRejected(t *testing.T) {
	cases := []struct {
		field string
		value string
		code  string
	}{
		{"email", " a@b.com ", CodeInvalidMail},
		{"buildingType", " mixed-use ", CodeInvalidEnum},
	}
	for _, tc := range cases {
		raw := validOnboarding()
		raw[tc.field] = tc.value
		_, err := Onboarding(raw)
		assert.Equal(t, map[string]string{tc.field: tc.code}, fieldCodes(t, err), tc.field)
	}
}

func TestOnboarding_AllTagSetsAccepted(t *testing.T) {
	for _, bt := range BuildingTypes {
		raw := validOnboarding()
		raw["buildingType"] = bt
		_, err := Onboarding(raw)
		assert.NoError(t, err, bt)
	}
	for _, y := range YearBuiltBands {
		raw := validOnboarding()
		raw["yearBuilt"] = y
		_, err := Onboarding(raw)
		assert.NoError(t, err, y)
	}
	for _, h := range HeightBands {
		raw := validOnboarding()
		raw["heightBand"] = h
		_, err := Onboarding(raw)
		assert.NoError(t, err, h)
	}
}

func TestContact_MessageLengthBoundary(t *testing.T) {
	raw := map[string]any{"name": "Sam", "email": "sam@example.com", "message": strings.Repeat("x", 9)}
	_, err := Contact(raw)
	codes := fieldCodes(t, err)
	assert.Equal(t, map[string]string{"message": CodeTooSmall}, codes)

	raw["message"] = strings.Repeat("x", 10)
	msg, err := Contact(raw)
	require.NoError(t, err)
	assert.Equal(t, "Sam", msg.Name)
	assert.Equal(t, 10, len(msg.Message))
}

func TestContact_StoresSubmittedText(t *testing.T) {
	raw := map[string]any{"name": " Sam ", "email": "sam@example.com", "message": "  Ten chars!  "}
	msg, err := Contact(raw)
	require.NoError(t, err)
	assert.Equal(t, " Sam ", msg.Name)
	assert.Equal(t, "  Ten chars!  ", msg.Message)

	raw["name"] = "   "
	_, err = Contact(raw)
	assert.Equal(t, map[string]string{"name": CodeRequired}, fieldCodes(t, err))
}

func TestContact_CountsCharactersNotBytes(t *testing.T) {
	raw := map[string]any{"name": "Zoë", "email": "zoe@example.com", "message": "ééééééééé"}
	_, err := Contact(raw)
	assert.Equal(t, map[string]string{"message": CodeTooSmall}, fieldCodes(t, err))
}

func TestContact_MissingEverything(t *testing.T) {
	_, err := Contact(map[string]any{})
	ve, ok := AsError(err)
	require.True(t, ok)
	require.Len(t, ve.Fields, 3)
	assert.Equal(t, "name", ve.Fields[0].Field)
	assert.Equal(t, "Name is required", ve.Fields[0].Message)
	assert.Equal(t, "Valid email required", ve.Fields[1].Message)
	assert.Equal(t, "Message must be at least 10 characters", ve.Fields[2].Message)
	assert.True(t, ve.Has("email"))
	assert.False(t, ve.Has("phone"))
	assert.Equal(t, "validation failed: name, email, message", ve.Error())
}

func TestContact_NullTreatedAsMissing(t *testing.T) {
	raw := map[string]any{"name": nil, "email": "a@b.co", "message": "long enough text"}
	_, err := Contact(raw)
	assert.Equal(t, map[string]string{"name": CodeRequired}, fieldCodes(t, err))
}

func TestDecodeObject(t *testing.T) {
	raw, err := DecodeObject([]byte(`{"numberOfUnits": 4, "a": "b"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("4"), raw["numberOfUnits"])

	for _, body := range []string{``, `null`, `[]`, `"x"`, `{`, `{} {}`} {
		_, err := DecodeObject([]byte(body))
		codes := fieldCodes(t, err)
		assert.Equal(t, map[string]string{"body": CodeInvalidJSON}, codes, body)
	}
}
