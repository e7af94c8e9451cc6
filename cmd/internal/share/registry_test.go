package share

import (
	"testing"
	"time"
)

func TestInMemoryRegistry_RegisterUnregisterCount(t *testing.T) {
	t.Parallel()

	r := NewInMemoryRegistry()

	if r.Count() != 0 {
		t.Fatalf("fresh registry should be empty")
	}

	s1 := r.Register("sess-1", "client-1", "alice", time.Time{})
	if s1.SessionID != "sess-1" || s1.DisplayName != "alice" {
		t.Fatalf("unexpected session: %+v", s1)
	}
	if s1.ConnectedAt.IsZero() {
		t.Fatalf("ConnectedAt must default to now")
	}
	if r.Count() != 1 {
		t.Fatalf("count=%d want 1", r.Count())
	}

	r.Register("sess-2", "client-2", "bob", time.Time{})
	if r.Count() != 2 {
		t.Fatalf("count=%d want 2", r.Count())
	}

	r.Unregister("sess-1")
	if r.Count() != 1 {
		t.Fatalf("count=%d want 1 after unregister", r.Count())
	}

	// Unknown ids are a no-op.
	r.Unregister("sess-unknown")
	if r.Count() != 1 {
		t.Fatalf("count=%d want 1 after noop unregister", r.Count())
	}
}

func TestInMemoryRegistry_AllReturnsCopies(t *testing.T) {
	t.Parallel()

	r := NewInMemoryRegistry()
	r.Register("sess-1", "c1", "alice", time.Time{})
	r.Register("sess-2", "c2", "bob", time.Time{})

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("len(all)=%d want 2", len(all))
	}

	seen := map[string]bool{}
	for _, s := range all {
		seen[s.DisplayName] = true
	}
	if !seen["alice"] || !seen["bob"] {
		t.Fatalf("missing sessions in All(): %+v", all)
	}

	// Mutating the returned slice must not affect the registry.
	all[0].DisplayName = "mallory"
	for _, s := range r.All() {
		if s.DisplayName == "mallory" {
			t.Fatalf("All() must return copies")
		}
	}
}
