package importer

// service.go coordinates import sessions: one Service owns the in-memory
// session registry, the commit concurrency limiter, and the storage handle.
// Each session's validation runs synchronously on the calling goroutine; the
// only asynchronous boundary is the bulk create against Postgres.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewdeck/roster/internal/logging"
	"github.com/crewdeck/roster/internal/metrics"
	"github.com/crewdeck/roster/internal/roster"
)

// AthleteStore is the storage surface the importer commits to.
// Implemented by *roster.Store.
type AthleteStore interface {
	BulkCreate(ctx context.Context, athletes []roster.AthleteParams) (int, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxRows       int           // maximum data rows per upload
	MaxConcurrent int           // parallel commit limit
	MaxWaitTime   time.Duration // how long a commit waits for a limiter slot
	SessionTTL    time.Duration // idle time before a session is discarded
	SweepInterval time.Duration // how often expired sessions are collected
	CommitTimeout time.Duration // per-commit database deadline
}

// Defaults for Options fields left unset.
const (
	DefaultMaxRows       = 10000
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
	DefaultCommitTimeout = time.Minute
)

// Service owns all active import sessions.
type Service struct {
	store   AthleteStore
	limiter *ImportLimiter
	opts    Options

	sessions *sessionRegistry
}

// NewService creates a Service backed by the given athlete store.
func NewService(store AthleteStore, opts Options) *Service {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}

	return &Service{
		store:    store,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		opts:     opts,
		sessions: newSessionRegistry(),
	}
}

// CreateSession starts a new wizard session from an uploaded file: the file
// is tokenized, columns are auto-mapped, and the session lands at Mapping.
func (s *Service) CreateSession(fileName string, data []byte) (SessionState, error) {
	file, err := s.parse(data)
	if err != nil {
		return SessionState{}, err
	}

	session := newSession(uuid.New().String())
	if err := session.attachFile(fileName, file); err != nil {
		return SessionState{}, err
	}

	s.sessions.put(session)
	metrics.ImportSessionsStarted.Inc()
	return session.State(), nil
}

// AttachFile re-uploads a file into an existing session at the Upload step
// (reached via Back from Mapping).
func (s *Service) AttachFile(sessionID, fileName string, data []byte) (SessionState, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return SessionState{}, err
	}

	file, err := s.parse(data)
	if err != nil {
		return SessionState{}, err
	}

	if err := session.attachFile(fileName, file); err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

// Get returns the current state of a session.
func (s *Service) Get(sessionID string) (SessionState, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

// UpdateMapping replaces a session's column mapping.
func (s *Service) UpdateMapping(sessionID string, mapping ColumnMapping) (SessionState, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	if err := session.setMapping(mapping); err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

// Preview validates every row and returns the partition summary.
// The required-field mapping precondition is enforced before any row runs.
func (s *Service) Preview(sessionID string) (Summary, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return Summary{}, err
	}

	summary, err := session.preview()
	if err != nil {
		return Summary{}, err
	}

	metrics.RowsValidated.WithLabelValues("valid").Add(float64(summary.TotalValid))
	metrics.RowsValidated.WithLabelValues("invalid").Add(float64(summary.TotalInvalid))
	return summary, nil
}

// Back moves a session one wizard step backwards.
func (s *Service) Back(sessionID string) (SessionState, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return SessionState{}, err
	}
	if err := session.back(); err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

// InvalidRows returns the file headers and every invalid row of the current
// partition, for export. Only meaningful once a preview has run.
func (s *Service) InvalidRows(sessionID string) ([]string, []InvalidRow, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.partition == nil {
		return nil, nil, stepError(session.step, "export invalid rows")
	}

	headers := session.file.Headers
	invalid := make([]InvalidRow, len(session.partition.Invalid))
	copy(invalid, session.partition.Invalid)
	return headers, invalid, nil
}

// Commit bulk-creates the session's valid rows. Single attempt, no partial
// success: on failure the session stays at Preview and the same commit may
// be retried; on success the session completes with the imported count.
func (s *Service) Commit(ctx context.Context, sessionID string) (int, error) {
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return 0, err
	}

	partition, err := session.beginImport()
	if err != nil {
		return 0, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		session.finishImport(0, err)
		return 0, err
	}
	defer s.limiter.Release()

	commitCtx, cancel := context.WithTimeout(ctx, s.opts.CommitTimeout)
	defer cancel()

	logger := logging.WithFields(ctx, "session_id", sessionID, "rows", len(partition.Valid))
	start := time.Now()

	imported, err := s.store.BulkCreate(commitCtx, partition.Valid)
	session.finishImport(imported, err)
	if err != nil {
		logger.Error("import commit failed", "error", err)
		return 0, fmt.Errorf("bulk create athletes: %w", err)
	}

	logger.Info("import committed",
		"imported", imported,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	metrics.ImportsCommitted.Inc()
	metrics.AthletesImported.Add(float64(imported))
	return imported, nil
}

// Abort discards a session and all of its state.
func (s *Service) Abort(sessionID string) error {
	return s.sessions.remove(sessionID)
}

// ActiveSessions returns the number of live sessions.
func (s *Service) ActiveSessions() int {
	return s.sessions.count()
}

// LimiterStatus reports the commit limiter's current state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight commits drain or ctx expires.
// Used for graceful shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// StartJanitor periodically discards sessions idle past the TTL.
// Runs until ctx is cancelled; call from main as a background job.
func (s *Service) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.sessions.sweep(s.opts.SessionTTL)
			if removed > 0 {
				logging.FromContext(ctx).Debug("expired import sessions discarded", "count", removed)
			}
		}
	}
}

// parse tokenizes an upload and enforces the row budget.
func (s *Service) parse(data []byte) (*ParsedFile, error) {
	file, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(file.Rows) > s.opts.MaxRows {
		return nil, fmt.Errorf("%w: %d rows (limit %d)", ErrTooManyRows, len(file.Rows), s.opts.MaxRows)
	}
	return file, nil
}
