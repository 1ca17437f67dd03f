package importer

import (
	"errors"
	"testing"
	"time"
)

// ============================================================================
// Session Registry Tests
// ============================================================================

func TestSessionRegistry_PutGet(t *testing.T) {
	r := newSessionRegistry()
	s := newSession("s1")

	r.put(s)

	got, err := r.get("s1")
	if err != nil {
		t.Fatalf("get() error = %v", err)
	}
	if got != s {
		t.Error("get() returned a different session")
	}
	if r.count() != 1 {
		t.Errorf("count() = %d, want 1", r.count())
	}
}

func TestSessionRegistry_GetMissing(t *testing.T) {
	r := newSessionRegistry()

	if _, err := r.get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionRegistry_Remove(t *testing.T) {
	r := newSessionRegistry()
	r.put(newSession("s1"))

	if err := r.remove("s1"); err != nil {
		t.Fatalf("remove() error = %v", err)
	}
	if err := r.remove("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second remove() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionRegistry_Sweep(t *testing.T) {
	r := newSessionRegistry()

	stale := newSession("stale")
	stale.touchedAt = time.Now().Add(-time.Hour)
	r.put(stale)
	r.put(newSession("fresh"))

	removed := r.sweep(30 * time.Minute)

	if removed != 1 {
		t.Errorf("sweep() = %d, want 1", removed)
	}
	if _, err := r.get("stale"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session should be gone")
	}
	if _, err := r.get("fresh"); err != nil {
		t.Errorf("fresh session should survive, got %v", err)
	}
}
