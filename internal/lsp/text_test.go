package lsp

import (
	"path/filepath"
	"testing"

	"alexls/internal/translate"
)

func span(l1, c1, l2, c2 int) *translate.Range {
	return &translate.Range{
		Start: translate.Position{Line: l1, Character: c1},
		End:   translate.Position{Line: l2, Character: c2},
	}
}

func TestApplyChanges(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		changes []textDocumentContentChangeEvent
		want    string
	}{
		{"full replace", "old", []textDocumentContentChangeEvent{{Text: "new"}}, "new"},
		{"insert", "one\ntwo\n", []textDocumentContentChangeEvent{{Range: span(1, 0, 1, 0), Text: "> "}}, "one\n> two\n"},
		{"replace across lines", "ab\ncd", []textDocumentContentChangeEvent{{Range: span(0, 1, 1, 1), Text: "X"}}, "aXd"},
		{"utf16 columns", "😀 whitelist", []textDocumentContentChangeEvent{{Range: span(0, 3, 0, 12), Text: "allowlist"}}, "😀 allowlist"},
		{"sequential", "abc", []textDocumentContentChangeEvent{
			{Range: span(0, 0, 0, 1), Text: "z"},
			{Range: span(0, 3, 0, 3), Text: "!"},
		}, "zbc!"},
		{"past end clamps", "ab", []textDocumentContentChangeEvent{{Range: span(5, 0, 6, 0), Text: "c"}}, "abc"},
	}
	for _, tc := range cases {
		if got := applyChanges(tc.text, tc.changes); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestCanonicalURI(t *testing.T) {
	cases := map[string]string{
		"file:///c%3A/Docs/a.md":   "file:///c:/Docs/a.md",
		"file:///home/me/a%20b.md": "file:///home/me/a%20b.md",
		"untitled:Untitled-1":      "untitled:Untitled-1",
		"":                         "",
	}
	for in, want := range cases {
		if got := canonicalURI(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestFilePath(t *testing.T) {
	if _, ok := filePath("untitled:Untitled-1"); ok {
		t.Fatal("untitled buffer has no path")
	}
	got, ok := filePath(pathToURI(filepath.Join("docs", "a b.md")))
	if !ok || filepath.Base(got) != "a b.md" || !filepath.IsAbs(got) {
		t.Fatalf("got %q %v", got, ok)
	}
}
