// Package validation turns raw form payloads into typed domain records.
//
// Each entry point takes an untyped JSON object (map[string]any) and returns
// either a fully populated record or an *Error listing every field that
// failed, not only the first one. Rules are expressed as go-playground
// validator tags on private input structs; the JSON name of a field is what
// appears in the error details.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Failure codes reported in FieldError.Code.
const (
	CodeRequired    = "required"
	CodeInvalidType = "invalid_type"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
	CodeInvalidEnum = "invalid_enum_value"
	CodeInvalidMail = "invalid_string"
	CodeInvalidJSON = "invalid_json"
)

// FieldError describes one failing field.
type FieldError struct {
	Field   string `json:"field"   example:"email"`
	Message string `json:"message" example:"Please enter a valid email address"`
	Code    string `json:"code"    example:"invalid_string"`
}

// Error is returned when a payload violates one or more field constraints.
// It is always recoverable by the caller correcting its input.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// Has reports whether field is among the failures.
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// AsError unwraps err to *Error.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DecodeObject parses body as a single JSON object. Numbers are kept as
// json.Number so integer fields can be told apart from fractional ones.
// Anything other than an object yields an *Error on the "body" field.
func DecodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, &Error{Fields: []FieldError{{
			Field:   "body",
			Message: "Request body must be a JSON object",
			Code:    CodeInvalidJSON,
		}}}
	}
	if dec.More() {
		return nil, &Error{Fields: []FieldError{{
			Field:   "body",
			Message: "Request body must contain a single JSON object",
			Code:    CodeInvalidJSON,
		}}}
	}
	return raw, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// engine returns the shared validator. validator.Validate caches struct
// metadata and is safe for concurrent use.
func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("building_type", inSet(BuildingTypes))
		_ = v.RegisterValidation("year_built", inSet(YearBuiltBands))
		_ = v.RegisterValidation("height_band", inSet(HeightBands))
		validate = v
	})
	return validate
}

func inSet(allowed []string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// fieldSpec drives the raw-map to struct conversion for one field.
type fieldSpec struct {
	name    string
	kind    reflect.Kind
	message string // friendly message for any rule failure
	text    bool   // free text: rules see the trimmed NFC form
}

// bind copies raw values into the struct pointed to by dst following specs,
// and runs the validator. Type mismatches are reported as invalid_type and
// suppress rule failures for the same field. Strings reach dst exactly as
// submitted once every rule has passed.
func bind(raw map[string]any, dst any, specs []fieldSpec) error {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	byName := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		byName[strings.SplitN(rt.Field(i).Tag.Get("json"), ",", 2)[0]] = i
	}

	failed := make(map[string]FieldError, len(specs))
	submitted := make(map[int]string)
	for _, s := range specs {
		v, present := raw[s.name]
		if !present || v == nil {
			continue // zero value; "required" rules catch it
		}
		i := byName[s.name]
		if str, ok := v.(string); ok && s.kind == reflect.String {
			submitted[i] = str
		}
		if msg, code := assign(rv.Field(i), s, v); code != "" {
			if msg == "" {
				msg = s.message
			}
			failed[s.name] = FieldError{Field: s.name, Message: msg, Code: code}
		}
	}

	if err := engine().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		messages := make(map[string]string, len(specs))
		for _, s := range specs {
			messages[s.name] = s.message
		}
		for _, fe := range verrs {
			name := fe.Field()
			if _, already := failed[name]; already {
				continue
			}
			failed[name] = FieldError{Field: name, Message: messages[name], Code: codeFor(fe.Tag())}
		}
	}

	if len(failed) == 0 {
		for i, str := range submitted {
			rv.Field(i).SetString(str)
		}
		return nil
	}
	out := &Error{Fields: make([]FieldError, 0, len(failed))}
	for _, s := range specs {
		if fe, ok := failed[s.name]; ok {
			out.Fields = append(out.Fields, fe)
		}
	}
	return out
}

// assign stores v into f, converting JSON types. A non-empty code reports a
// conversion failure; an empty msg means the field's own message applies.
func assign(f reflect.Value, s fieldSpec, v any) (msg, code string) {
	switch s.kind {
	case reflect.String:
		str, ok := v.(string)
		if !ok {
			return "Expected string, received " + typeName(v), CodeInvalidType
		}
		if s.text {
			str = cleanText(str)
		}
		f.SetString(str)
	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return "Expected boolean, received " + typeName(v), CodeInvalidType
		}
		f.SetBool(b)
	case reflect.Int:
		n, msg, code := toInt(v)
		if code != "" {
			return msg, code
		}
		f.SetInt(n)
	}
	return "", ""
}

// Bounds of int64 as float64; 2^63 itself is out of range.
const (
	minIntFloat = -(1 << 63)
	maxIntFloat = 1 << 63
)

// toInt accepts any JSON number with an integral value (24, 24.0, 1e2).
func toInt(v any) (n int64, msg, code string) {
	const notInt = "Expected integer, received float"
	var f float64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, "", ""
		}
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, notInt, CodeInvalidType
		}
		f = parsed
	case float64:
		f = x
	case int:
		return int64(x), "", ""
	case int64:
		return x, "", ""
	default:
		return 0, "Expected number, received " + typeName(v), CodeInvalidType
	}
	switch {
	case math.IsNaN(f):
		return 0, notInt, CodeInvalidType
	case f >= maxIntFloat:
		return 0, "", CodeTooBig
	case f < minIntFloat:
		return 0, "", CodeTooSmall
	case f != math.Trunc(f):
		return 0, notInt, CodeInvalidType
	}
	return int64(f), "", ""
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func codeFor(tag string) string {
	switch tag {
	case "required":
		return CodeRequired
	case "min", "gte":
		return CodeTooSmall
	case "email":
		return CodeInvalidMail
	case "building_type", "year_built", "height_band":
		return CodeInvalidEnum
	default:
		return tag
	}
}

// cleanText trims surrounding whitespace and applies Unicode NFC so length
// rules count composed characters.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
