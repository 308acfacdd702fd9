package templates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

const (
	maxTextLength     = 200
	maxTextareaLength = 2000
)

// Values is a validated, string-only view of submitted form values.
type Values map[string]string

// Get returns the trimmed value for a field id.
func (v Values) Get(id string) string {
	return strings.TrimSpace(v[id])
}

// ValidationError aggregates every missing and malformed field of a submission.
type ValidationError struct {
	DocumentType  string
	MissingFields []string
	InvalidFields map[string]string
}

func (e *ValidationError) Error() string {
	parts := []string{}
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) > 0 {
		invalid := make([]string, 0, len(e.InvalidFields))
		for id, msg := range e.InvalidFields {
			invalid = append(invalid, id+" "+msg)
		}
		parts = append(parts, "invalid fields: "+strings.Join(invalid, "; "))
	}
	return fmt.Sprintf("template %s: %s", e.DocumentType, strings.Join(parts, "; "))
}

func (e *ValidationError) details() map[string]any {
	details := map[string]any{"document_type": e.DocumentType}
	if len(e.MissingFields) > 0 {
		details["missing_fields"] = e.MissingFields
	}
	if len(e.InvalidFields) > 0 {
		details["invalid_fields"] = e.InvalidFields
	}
	return details
}

var (
	validate = newValidator()
	datePat  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Bikram Sambat months run to 32 days, so time.Parse is too strict.
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		m := datePat.FindStringSubmatch(fl.Field().String())
		if m == nil {
			return false
		}
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return month >= 1 && month <= 12 && day >= 1 && day <= 32
	})
	return v
}

func tagFor(f FieldSpec) string {
	switch f.Kind {
	case KindNumber:
		return "numeric"
	case KindDate:
		return "calendar_date"
	case KindSelect:
		values := make([]string, 0, len(f.Options))
		for _, opt := range f.Options {
			values = append(values, opt.Value)
		}
		return "oneof=" + strings.Join(values, " ")
	case KindTextarea:
		return fmt.Sprintf("max=%d", maxTextareaLength)
	default:
		return fmt.Sprintf("max=%d", maxTextLength)
	}
}

func invalidMessage(f FieldSpec) string {
	switch f.Kind {
	case KindNumber:
		return "must be a number"
	case KindDate:
		return "must be a date in YYYY-MM-DD form"
	case KindSelect:
		return "must be one of the listed options"
	case KindTextarea:
		return fmt.Sprintf("must be at most %d characters", maxTextareaLength)
	default:
		return fmt.Sprintf("must be at most %d characters", maxTextLength)
	}
}

// Validate checks raw submitted values against the template's field table.
// All problems are reported at once. On success the values are returned
// trimmed, stringified and with Devanagari digits folded to ASCII in numeric
// fields.
func Validate(documentType string, raw map[string]any) (Values, error) {
	tmpl := Resolve(documentType)
	values := Stringify(raw)

	verr := &ValidationError{DocumentType: tmpl.ID, InvalidFields: map[string]string{}}
	for _, field := range tmpl.Fields {
		value := values.Get(field.ID)
		if value == "" {
			if field.Required {
				verr.MissingFields = append(verr.MissingFields, field.ID)
			}
			continue
		}
		if field.Kind == KindNumber || field.Kind == KindDate {
			value = foldDigits(value)
		}
		if err := validate.Var(value, tagFor(field)); err != nil {
			verr.InvalidFields[field.ID] = invalidMessage(field)
			continue
		}
		values[field.ID] = value
	}

	if len(verr.MissingFields) > 0 || len(verr.InvalidFields) > 0 {
		if len(verr.InvalidFields) == 0 {
			verr.InvalidFields = nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, verr, "required fields are missing or invalid").
			WithDetails(verr.details())
	}
	return values, nil
}

// Stringify converts decoded JSON values into trimmed strings, dropping nulls.
func Stringify(raw map[string]any) Values {
	out := make(Values, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[key] = strings.TrimSpace(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		default:
			out[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

var devanagariDigits = strings.NewReplacer(
	"०", "0", "१", "1", "२", "2", "३", "3", "४", "4",
	"५", "5", "६", "6", "७", "7", "८", "8", "९", "9",
)

func foldDigits(value string) string {
	return devanagariDigits.Replace(value)
}
