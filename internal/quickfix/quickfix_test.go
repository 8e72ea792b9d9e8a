package quickfix

import "testing"

func TestRegistryReplacesWholesale(t *testing.T) {
	r := NewRegistry()
	first := Set{}
	first.Add("alexLintError-1", "primary")
	first.Add("alexLintError-1", "main")
	first.Add("alexLintError-2", "folks")
	r.Set("file:///a", first)

	fixes := r.Get("file:///a", "alexLintError-1")
	if len(fixes) != 2 || fixes[0].Replacement != "primary" || fixes[1].Replacement != "main" {
		t.Fatalf("unexpected fixes: %+v", fixes)
	}
	if fixes[0].Label != "Change to `primary`" {
		t.Fatalf("unexpected label: %q", fixes[0].Label)
	}

	second := Set{}
	second.Add("alexLintError-1", "allowlist")
	r.Set("file:///a", second)
	if got := r.Get("file:///a", "alexLintError-2"); got != nil {
		t.Fatalf("stale fixes survived: %+v", got)
	}
	if got := r.Get("file:///a", "alexLintError-1"); len(got) != 1 || got[0].Replacement != "allowlist" {
		t.Fatalf("unexpected fixes after replace: %+v", got)
	}
}

func TestRegistryEmptySetClears(t *testing.T) {
	r := NewRegistry()
	s := Set{}
	s.Add("alexLintError-1", "x")
	r.Set("file:///a", s)
	r.Set("file:///a", Set{})
	if !r.Has("file:///a") {
		t.Fatal("expected an (empty) set to be installed")
	}
	if got := r.Get("file:///a", "alexLintError-1"); got != nil {
		t.Fatalf("expected no fixes, got %+v", got)
	}
}

func TestRegistryIsolatesDocumentsAndCopies(t *testing.T) {
	r := NewRegistry()
	s := Set{}
	s.Add("alexLintError-1", "x")
	r.Set("file:///a", s)
	s.Add("alexLintError-1", "y")
	if got := r.Get("file:///a", "alexLintError-1"); len(got) != 1 {
		t.Fatalf("registry aliases caller's set: %+v", got)
	}
	if got := r.Get("file:///b", "alexLintError-1"); got != nil {
		t.Fatalf("fixes leaked across documents: %+v", got)
	}
	r.Delete("file:///a")
	if r.Has("file:///a") {
		t.Fatal("expected delete to drop the set")
	}
}

func TestSetCodesSorted(t *testing.T) {
	s := Set{}
	s.Add("b", "1")
	s.Add("a", "2")
	codes := s.Codes()
	if len(codes) != 2 || codes[0] != "a" || codes[1] != "b" {
		t.Fatalf("unexpected codes: %v", codes)
	}
}
