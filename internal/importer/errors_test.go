package importer

import (
	"errors"
	"fmt"
	"testing"
)

// ============================================================================
// MapError Tests
// ============================================================================

func TestMapError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse failure", fmt.Errorf("parse CSV: record on line 2"), "IMP001"},
		{"empty file", ErrEmptyFile, "IMP002"},
		{"no data rows", ErrNoDataRows, "IMP002"},
		{"too many rows", ErrTooManyRows, "IMP003"},
		{"mapping incomplete", &MappingError{Missing: []string{"firstName"}}, "IMP004"},
		{"unknown column", fmt.Errorf("%w: column %q not found", ErrUnknownColumn, "x"), "IMP005"},
		{"nothing to import", ErrNothingToImport, "IMP006"},
		{"session not found", ErrSessionNotFound, "IMP007"},
		{"wrong step", fmt.Errorf("%w: cannot preview at the upload step", ErrInvalidStep), "IMP008"},
		{"limiter full", ErrTooManyImports, "IMP009"},
		{"body too large", errors.New("http: request body too large"), "IMP011"},
		{"no file", errors.New("no file provided"), "IMP012"},
		{"duplicate key", errors.New(`duplicate key value violates unique constraint "athletes_pkey"`), "DB001"},
		{"db down", errors.New("failed to connect to `host=localhost`"), "DB002"},
		{"timeout", errors.New("context deadline exceeded"), "DB003"},
		{"unknown", errors.New("something weird"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.want {
				t.Errorf("MapError(%v).Code = %s, want %s", tt.err, got.Code, tt.want)
			}
			if got.Message == "" {
				t.Error("mapped message should never be empty")
			}
		})
	}
}

func TestMapError_WrappedErrorsStillMatch(t *testing.T) {
	err := fmt.Errorf("bulk create athletes: %w",
		errors.New("ERROR: duplicate key value violates unique constraint"))

	if got := MapError(err); got.Code != "DB001" {
		t.Errorf("Code = %s, want DB001", got.Code)
	}
}

func TestMapError_CaseInsensitive(t *testing.T) {
	if got := MapError(errors.New("DUPLICATE KEY value")); got.Code != "DB001" {
		t.Errorf("Code = %s, want DB001", got.Code)
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got.Code != "" {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestMappingError_Message(t *testing.T) {
	err := &MappingError{Missing: []string{"firstName", "lastName"}}

	want := "mapping incomplete: unmapped required fields: firstName, lastName"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
