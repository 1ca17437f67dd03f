// Package importer implements the CSV-to-roster import pipeline: parsing an
// uploaded file, auto-detecting column-to-field mappings, validating each row
// against the athlete domain rules, and partitioning rows into valid and
// invalid sets for preview before a bulk create.
//
// Validation errors are data, not exceptions: a malformed cell produces a
// ValidationError attached to its row, never a Go error. Only structurally
// unreadable files and storage failures surface as errors.
package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/crewdeck/roster/internal/roster"
)

// Field is a target athlete field that a CSV column can map to.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldSide      Field = "side"
	FieldCanScull  Field = "canScull"
	FieldCanCox    Field = "canCox"
	FieldHeightCm  Field = "heightCm"
	FieldWeightKg  Field = "weightKg"
)

// Fields lists all target fields in mapping priority order.
var Fields = []Field{
	FieldFirstName, FieldLastName, FieldEmail, FieldSide,
	FieldCanScull, FieldCanCox, FieldHeightCm, FieldWeightKg,
}

// RequiredFields must be mapped to a source column before a validation run.
var RequiredFields = []Field{FieldFirstName, FieldLastName}

// MaxMeasure is the upper bound for height (cm) and weight (kg) cells.
const MaxMeasure = 300

// emailRegex checks the standard user@host.tld shape. Deliverability is not
// the importer's problem; obvious typos are.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validEmail reports whether s looks like an email address.
func validEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// parseFlag interprets boolean-like cell values.
// "true"/"yes"/"1" are true; "false"/"no"/"0" are false; anything else is
// rejected. Blank cells are handled by the caller (absent means false).
func parseFlag(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	default:
		return false, false
	}
}

// parseMeasure parses a biometric cell (height in cm, weight in kg).
// The value must be a positive finite number no greater than MaxMeasure.
func parseMeasure(s string) (value float64, ok bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v <= 0 || v > MaxMeasure {
		return 0, false
	}
	return v, true
}

// parseSide matches a cell against the side-preference enum.
func parseSide(s string) (roster.Side, bool) {
	return roster.ParseSide(s)
}
