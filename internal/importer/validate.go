package importer

// validate.go is the per-row rule checker. Every applicable rule runs and
// errors accumulate, so a user sees all of a row's problems in one pass
// rather than fixing them one upload at a time.
//
// Whitespace-only cells are treated identically to absent cells for every
// optional field: they become nil, never "present but invalid".

import (
	"fmt"
	"strings"

	"github.com/crewdeck/roster/internal/roster"
)

// RawRow maps a source column header to the raw cell value for one CSV line.
type RawRow map[string]string

// ValidationError describes a single failed rule on a single row.
// Value carries the offending raw cell, or nil when the cell was absent.
type ValidationError struct {
	Column  Field   `json:"column"`
	Message string  `json:"message"`
	Value   *string `json:"value"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Column, e.Message)
}

// cell returns the trimmed cell for a mapped field and whether it is
// present. Unmapped fields and whitespace-only cells are both absent.
func cell(raw RawRow, mapping ColumnMapping, field Field) (string, bool) {
	header := mapping[field]
	if header == "" {
		return "", false
	}
	v := strings.TrimSpace(raw[header])
	if v == "" {
		return "", false
	}
	return v, true
}

// ValidateRow checks one raw row against the mapping and produces either a
// normalized athlete record or the full list of field-level errors.
// Exactly one of the two is meaningful: an empty error list means success.
func ValidateRow(raw RawRow, mapping ColumnMapping) (roster.AthleteParams, []ValidationError) {
	var errs []ValidationError
	params := roster.AthleteParams{IsManaged: true}

	// Required names.
	if v, ok := cell(raw, mapping, FieldFirstName); ok {
		params.FirstName = v
	} else {
		errs = append(errs, requiredError(FieldFirstName))
	}
	if v, ok := cell(raw, mapping, FieldLastName); ok {
		params.LastName = v
	} else {
		errs = append(errs, requiredError(FieldLastName))
	}

	// Optional email.
	if v, ok := cell(raw, mapping, FieldEmail); ok {
		if validEmail(v) {
			params.Email = &v
		} else {
			errs = append(errs, invalidError(FieldEmail, "Invalid email format", v))
		}
	}

	// Optional side preference.
	if v, ok := cell(raw, mapping, FieldSide); ok {
		if side, ok := parseSide(v); ok {
			params.Side = &side
		} else {
			errs = append(errs, invalidError(FieldSide, "Unrecognized side value", v))
		}
	}

	// Boolean flags: absent means false.
	if v, ok := cell(raw, mapping, FieldCanScull); ok {
		if b, ok := parseFlag(v); ok {
			params.CanScull = b
		} else {
			errs = append(errs, invalidError(FieldCanScull, "Expected boolean value", v))
		}
	}
	if v, ok := cell(raw, mapping, FieldCanCox); ok {
		if b, ok := parseFlag(v); ok {
			params.CanCox = b
		} else {
			errs = append(errs, invalidError(FieldCanCox, "Expected boolean value", v))
		}
	}

	// Biometrics.
	if v, ok := cell(raw, mapping, FieldHeightCm); ok {
		if f, ok := parseMeasure(v); ok {
			params.HeightCm = &f
		} else {
			errs = append(errs, invalidError(FieldHeightCm, "Must be a positive number under 300", v))
		}
	}
	if v, ok := cell(raw, mapping, FieldWeightKg); ok {
		if f, ok := parseMeasure(v); ok {
			params.WeightKg = &f
		} else {
			errs = append(errs, invalidError(FieldWeightKg, "Must be a positive number under 300", v))
		}
	}

	if len(errs) > 0 {
		return roster.AthleteParams{}, errs
	}
	return params, nil
}

func requiredError(field Field) ValidationError {
	return ValidationError{
		Column:  field,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func invalidError(field Field, message, value string) ValidationError {
	return ValidationError{
		Column:  field,
		Message: message,
		Value:   &value,
	}
}
