package importer

// mapper.go guesses which CSV header corresponds to each target field.
//
// The synonym table is an immutable configuration structure; it is consulted
// in priority order, so a header that could satisfy several synonyms is
// claimed by the first one that matches. Absence of a mapping is a valid,
// representable state: required fields left unmapped surface later as a
// precondition failure, not here.

import "strings"

// ColumnMapping associates target fields with chosen source headers.
// A missing key means the field is unmapped.
type ColumnMapping map[Field]string

// fieldSynonyms lists, per target field, the header spellings seen in the
// wild, highest priority first. Matching is case-insensitive; a header
// matches a synonym when it equals it or contains it as a substring.
var fieldSynonyms = map[Field][]string{
	FieldFirstName: {"first name", "firstname", "first", "fname", "given name"},
	FieldLastName:  {"last name", "lastname", "last", "lname", "surname", "family name"},
	FieldEmail:     {"email", "e-mail", "mail"},
	FieldSide:      {"side preference", "side", "port/starboard"},
	FieldCanScull:  {"can scull", "scull", "sculling"},
	FieldCanCox:    {"can cox", "cox", "coxswain"},
	FieldHeightCm:  {"height (cm)", "height cm", "height"},
	FieldWeightKg:  {"weight (kg)", "weight kg", "weight"},
}

// AutoMapColumns guesses a column mapping from the detected headers.
// Deterministic for a given header list; no side effects; never fails.
func AutoMapColumns(headers []string) ColumnMapping {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mapping := make(ColumnMapping, len(Fields))
	for _, field := range Fields {
		for _, syn := range fieldSynonyms[field] {
			if i, ok := findHeader(lowered, syn); ok {
				mapping[field] = headers[i]
				break
			}
		}
	}
	return mapping
}

// findHeader returns the first header that equals or contains the synonym.
func findHeader(lowered []string, synonym string) (int, bool) {
	for i, h := range lowered {
		if h == synonym || strings.Contains(h, synonym) {
			return i, true
		}
	}
	return 0, false
}

// Validate checks the precondition for a validation run: every required
// field must be mapped to a source header. Returns a *MappingError naming
// the missing fields.
func (m ColumnMapping) Validate() error {
	var missing []string
	for _, f := range RequiredFields {
		if m[f] == "" {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return &MappingError{Missing: missing}
	}
	return nil
}

// Source returns the mapped header for a field, or "" when unmapped.
func (m ColumnMapping) Source(f Field) string {
	return m[f]
}
