package translate

import (
	"context"
	"testing"

	"alexls/internal/lint"
	"alexls/internal/lint/wordlist"
)

func TestTranslateSuggestionExample(t *testing.T) {
	res := Translate([]lint.Message{{
		Reason: "X, use `a`, `b`",
		Location: &lint.Location{
			Start: lint.Position{Line: 2, Column: 3},
			End:   lint.Position{Line: 2, Column: 6},
		},
	}})
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	if d.Severity != SeverityWarning {
		t.Fatalf("expected warning, got %v", d.Severity)
	}
	want := Range{Start: Position{Line: 1, Character: 2}, End: Position{Line: 1, Character: 5}}
	if d.Range != want {
		t.Fatalf("unexpected range: %+v", d.Range)
	}
	if d.Message != "X" || d.Code != "alexLintError-1" || d.Source != "alexLinter" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	fixes := res.Fixes[d.Code]
	if len(fixes) != 2 || fixes[0].Replacement != "a" || fixes[1].Replacement != "b" {
		t.Fatalf("unexpected fixes: %+v", fixes)
	}
}

func TestTranslateFatalIsError(t *testing.T) {
	res := Translate([]lint.Message{{Reason: "bad", Fatal: true}})
	if res.Diagnostics[0].Severity != SeverityError {
		t.Fatalf("expected error, got %v", res.Diagnostics[0].Severity)
	}
	if len(res.Fixes) != 0 {
		t.Fatalf("expected no fixes, got %+v", res.Fixes)
	}
}

func TestTranslatePositionFallbacks(t *testing.T) {
	res := Translate([]lint.Message{
		{Reason: "flat", Line: 4, Column: 7},
		{Reason: "none"},
		{Reason: "start only", Location: &lint.Location{Start: lint.Position{Line: 3, Column: 2}}},
		{Reason: "flat end", Line: 5, Column: 9, Location: &lint.Location{Start: lint.Position{Line: 5, Column: 2}}},
	})
	cases := []Range{
		{Start: Position{Line: 3, Character: 6}, End: Position{Line: 3, Character: 6}},
		{Start: Position{}, End: Position{}},
		{Start: Position{Line: 2, Character: 1}, End: Position{Line: 2, Character: 1}},
		{Start: Position{Line: 4, Character: 1}, End: Position{Line: 4, Character: 8}},
	}
	for i, want := range cases {
		if got := res.Diagnostics[i].Range; got != want {
			t.Fatalf("message %d: got %+v want %+v", i, got, want)
		}
	}
}

func TestTranslateCodesAreOrdinal(t *testing.T) {
	res := Translate([]lint.Message{{Reason: "a"}, {Reason: "b"}, {Reason: "c"}})
	for i, d := range res.Diagnostics {
		want := "alexLintError-" + string(rune('1'+i))
		if d.Code != want {
			t.Fatalf("diagnostic %d: code %q want %q", i, d.Code, want)
		}
	}
}

func TestTranslateEmptyInputStillHasFixSet(t *testing.T) {
	res := Translate(nil)
	if res.Fixes == nil || len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseReason(t *testing.T) {
	cases := []struct {
		reason    string
		message   string
		repl      []string
		malformed bool
	}{
		{"plain message", "plain message", nil, false},
		{"`he` may be insensitive, use `they`, `it` instead", "`he` may be insensitive", []string{"they", "it"}, false},
		{"X, use `` or `b`", "X", []string{"b"}, false},
		{"X, use `a", "X", nil, true},
		{"X, use nothing quoted", "X", nil, false},
	}
	for _, tc := range cases {
		got := ParseReason(tc.reason)
		if got.Message != tc.message || got.Malformed != tc.malformed || !equalStrings(got.Replacements, tc.repl) {
			t.Fatalf("%q: got %+v", tc.reason, got)
		}
	}
}

func TestTranslateMarksMalformed(t *testing.T) {
	res := Translate([]lint.Message{{Reason: "X, use `a"}})
	if len(res.Malformed) != 1 || res.Malformed[0] != "alexLintError-1" {
		t.Fatalf("expected malformed code, got %v", res.Malformed)
	}
	if len(res.Fixes) != 0 {
		t.Fatalf("malformed suggestion produced fixes: %+v", res.Fixes)
	}
}

func TestWordlistReasonsRoundTrip(t *testing.T) {
	out, err := wordlist.New().Lint(context.Background(), lint.Request{Text: "our whitelist"})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	res := Translate(out.Messages)
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	if d.Message != "`whitelist` may be insensitive" {
		t.Fatalf("unexpected message %q", d.Message)
	}
	if d.Range.Start != (Position{Line: 0, Character: 4}) || d.Range.End != (Position{Line: 0, Character: 13}) {
		t.Fatalf("unexpected range %+v", d.Range)
	}
	if len(res.Fixes[d.Code]) == 0 || res.Fixes[d.Code][0].Replacement != "allowlist" {
		t.Fatalf("unexpected fixes %+v", res.Fixes[d.Code])
	}
}

func TestGroup(t *testing.T) {
	if Group("alexLintError-12") != "alexLintError" || Group("plain") != "plain" {
		t.Fatal("unexpected group")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
