package importer

// errors.go defines the importer's sentinel errors and maps any error that
// escapes the service into a user-friendly message with a support code.
//
// Per-row validation problems never reach this file: they travel as
// ValidationError data inside InvalidRow entries. Everything here covers
// the exception-like failures (structural file problems, session and state
// misuse, storage errors) that are caught at the HTTP boundary and turned
// into a user-visible message.
//
// Error codes, for support reference:
//
//	IMP001 - file could not be parsed as CSV
//	IMP002 - file empty or without data rows
//	IMP003 - file exceeds the row budget
//	IMP004 - required columns unmapped (precondition failure)
//	IMP005 - mapped column not present in the file
//	IMP006 - nothing importable in the preview
//	IMP007 - session not found or expired
//	IMP008 - action not legal at the current wizard step
//	IMP009 - too many concurrent imports
//	IMP010 - per-IP request rate exceeded
//	IMP011 - uploaded file exceeds the size limit
//	IMP012 - request carried no usable file
//	DB001  - duplicate key on commit
//	DB002  - database unavailable
//	DB003  - commit timed out or was cancelled
//	ERR000 - anything else
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for session and pipeline failures.
var (
	ErrSessionNotFound = errors.New("import session not found")
	ErrInvalidStep     = errors.New("invalid wizard step")
	ErrNothingToImport = errors.New("no valid rows to import")
	ErrTooManyImports  = errors.New("too many concurrent imports, please try again later")
	ErrTooManyRows     = errors.New("file has too many rows")
	ErrUnknownColumn   = errors.New("unknown column")
)

// MappingError reports the precondition failure: required target fields
// with no mapped source column. It blocks preview, not individual rows.
type MappingError struct {
	Missing []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping incomplete: unmapped required fields: %s",
		strings.Join(e.Missing, ", "))
}

// UserMessage is the client-facing rendering of an internal error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorMapping struct {
	patterns []string
	message  UserMessage
}

var errorMappings = []errorMapping{
	{
		patterns: []string{"parse csv"},
		message: UserMessage{
			Message: "The file could not be read as CSV",
			Action:  "Ensure the file is comma-separated UTF-8 text with a header row",
			Code:    "IMP001",
		},
	},
	{
		patterns: []string{"empty file", "no data rows"},
		message: UserMessage{
			Message: "The file has no data rows",
			Action:  "Upload a CSV with a header row followed by athlete rows",
			Code:    "IMP002",
		},
	},
	{
		patterns: []string{"too many rows"},
		message: UserMessage{
			Message: "The file has too many rows",
			Action:  "Split the roster into smaller files and import them separately",
			Code:    "IMP003",
		},
	},
	{
		patterns: []string{"mapping incomplete"},
		message: UserMessage{
			Message: "First name and last name columns must be mapped",
			Action:  "Assign a source column to each required field before previewing",
			Code:    "IMP004",
		},
	},
	{
		patterns: []string{"unknown column"},
		message: UserMessage{
			Message: "The mapping refers to a column the file does not have",
			Action:  "Pick columns from the uploaded file's headers",
			Code:    "IMP005",
		},
	},
	{
		patterns: []string{"no valid rows"},
		message: UserMessage{
			Message: "No rows passed validation, so there is nothing to import",
			Action:  "Fix the reported rows and upload again",
			Code:    "IMP006",
		},
	},
	{
		patterns: []string{"session not found"},
		message: UserMessage{
			Message: "This import session has expired",
			Action:  "Start a new import",
			Code:    "IMP007",
		},
	},
	{
		patterns: []string{"invalid wizard step"},
		message: UserMessage{
			Message: "That action is not available at this point of the import",
			Action:  "Reload the import wizard to see its current step",
			Code:    "IMP008",
		},
	},
	{
		patterns: []string{"too many concurrent imports"},
		message: UserMessage{
			Message: "The server is busy with other imports",
			Action:  "Wait a moment and try committing again",
			Code:    "IMP009",
		},
	},
	{
		patterns: []string{"request body too large", "file too large"},
		message: UserMessage{
			Message: "The file is too large",
			Action:  "Upload a smaller file, or split the roster across several files",
			Code:    "IMP011",
		},
	},
	{
		patterns: []string{"no file provided", "invalid multipart form"},
		message: UserMessage{
			Message: "No file was uploaded",
			Action:  "Attach a CSV file to the request",
			Code:    "IMP012",
		},
	},
	{
		patterns: []string{"duplicate key", "unique constraint", "violates unique"},
		message: UserMessage{
			Message: "An athlete in this file already exists on the roster",
			Action:  "Remove duplicates from the file and retry",
			Code:    "DB001",
		},
	},
	{
		patterns: []string{"connection refused", "connection reset", "failed to connect"},
		message: UserMessage{
			Message: "The database is currently unreachable",
			Action:  "Try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		patterns: []string{"context deadline exceeded", "context canceled", "timeout"},
		message: UserMessage{
			Message: "The import did not finish in time",
			Action:  "Retry the commit; nothing was imported",
			Code:    "DB003",
		},
	},
}

// RateLimited is returned directly by the HTTP rate limiter, which rejects
// before any importer error exists to map.
var RateLimited = UserMessage{
	Message: "Too many requests",
	Action:  "Slow down and try again shortly",
	Code:    "IMP010",
}

// defaultMessage is the fallback when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Try again, and quote the error code if the problem persists",
	Code:    "ERR000",
}

// MapError converts an internal error into a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range errorMappings {
		for _, p := range m.patterns {
			if strings.Contains(msg, p) {
				return m.message
			}
		}
	}
	return defaultMessage
}
