package importer

// session.go models the import wizard's per-session state machine:
//
//	Upload -> Mapping -> Preview -> Importing -> Complete
//
// with Back transitions Mapping->Upload and Preview->Mapping. Importing is
// reached only when the preview found at least one valid row; Complete is
// terminal. Sessions are transient, in-memory, and discarded on abort or
// expiry; nothing persists beyond the wizard.

import (
	"fmt"
	"sync"
	"time"
)

// Step is a stage of the import wizard.
type Step string

const (
	StepUpload    Step = "upload"
	StepMapping   Step = "mapping"
	StepPreview   Step = "preview"
	StepImporting Step = "importing"
	StepComplete  Step = "complete"
)

// Session holds all state for one import wizard run.
// All entities inside are scoped to the session and discarded with it.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	step      Step
	fileName  string
	file      *ParsedFile
	mapping   ColumnMapping
	partition *Partition
	summary   *Summary
	imported  int
	touchedAt time.Time
}

// SessionState is a read-only snapshot of a session for API responses.
type SessionState struct {
	ID       string        `json:"id"`
	Step     Step          `json:"step"`
	FileName string        `json:"fileName,omitempty"`
	Headers  []string      `json:"headers,omitempty"`
	RowCount int           `json:"rowCount"`
	Mapping  ColumnMapping `json:"mapping,omitempty"`
	Summary  *Summary      `json:"summary,omitempty"`
	Imported int           `json:"imported"`
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		step:      StepUpload,
		touchedAt: now,
	}
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		ID:       s.ID,
		Step:     s.step,
		FileName: s.fileName,
		Mapping:  s.mapping,
		Summary:  s.summary,
		Imported: s.imported,
	}
	if s.file != nil {
		state.Headers = s.file.Headers
		state.RowCount = len(s.file.Rows)
	}
	return state
}

// attachFile stores a parsed upload and advances Upload -> Mapping with an
// auto-detected column mapping.
func (s *Session) attachFile(fileName string, file *ParsedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepUpload {
		return stepError(s.step, "attach a file")
	}

	s.fileName = fileName
	s.file = file
	s.mapping = AutoMapColumns(file.Headers)
	s.step = StepMapping
	s.touch()
	return nil
}

// setMapping replaces the column mapping. Legal only at the Mapping step;
// sources must be headers that actually exist in the uploaded file.
func (s *Session) setMapping(mapping ColumnMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepMapping {
		return stepError(s.step, "adjust the mapping")
	}

	for field, header := range mapping {
		if header == "" {
			continue
		}
		if !containsHeader(s.file.Headers, header) {
			return fmt.Errorf("%w: column %q not found in file for field %s",
				ErrUnknownColumn, header, field)
		}
	}

	s.mapping = mapping
	s.touch()
	return nil
}

// preview runs the partition and advances Mapping -> Preview.
// The mapping precondition is enforced by ValidateAll.
func (s *Session) preview() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepMapping {
		return Summary{}, stepError(s.step, "preview")
	}

	partition, err := ValidateAll(s.file.Rows, s.mapping)
	if err != nil {
		return Summary{}, err
	}

	summary := Summarize(partition)
	s.partition = &partition
	s.summary = &summary
	s.step = StepPreview
	s.touch()
	return summary, nil
}

// back moves one step backwards: Preview -> Mapping discards the partition,
// Mapping -> Upload discards the file and mapping.
func (s *Session) back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepPreview:
		s.partition = nil
		s.summary = nil
		s.step = StepMapping
	case StepMapping:
		s.file = nil
		s.fileName = ""
		s.mapping = nil
		s.step = StepUpload
	default:
		return stepError(s.step, "go back")
	}
	s.touch()
	return nil
}

// beginImport moves Preview -> Importing, handing the valid partition to the
// caller. Rejected when the preview found nothing importable.
func (s *Session) beginImport() (*Partition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepPreview {
		return nil, stepError(s.step, "import")
	}
	if s.summary == nil || s.summary.TotalValid == 0 {
		return nil, ErrNothingToImport
	}

	s.step = StepImporting
	s.touch()
	return s.partition, nil
}

// finishImport records the commit outcome. Success is terminal; failure
// returns the session to Preview so the caller may retry the same commit.
func (s *Session) finishImport(imported int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.step = StepPreview
	} else {
		s.imported = imported
		s.step = StepComplete
	}
	s.touch()
}

// expired reports whether the session has been idle longer than ttl.
func (s *Session) expired(ttl time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.touchedAt) > ttl
}

func (s *Session) touch() {
	s.touchedAt = time.Now()
}

func stepError(current Step, action string) error {
	return fmt.Errorf("%w: cannot %s at the %s step", ErrInvalidStep, action, current)
}

func containsHeader(headers []string, h string) bool {
	for _, header := range headers {
		if header == h {
			return true
		}
	}
	return false
}
