// Package fix turns quick fixes into text edits and applies them to text.
package fix

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"alexls/internal/quickfix"
	"alexls/internal/translate"
)

var (
	// ErrNoFixes is returned when no fixes were applicable.
	ErrNoFixes = errors.New("no applicable fixes found")
	// ErrConflict is returned when edits overlap.
	ErrConflict = errors.New("overlapping edits")
)

// TextEdit replaces Range with NewText. Positions are 0-based with UTF-16
// character offsets.
type TextEdit struct {
	Range   translate.Range `json:"range"`
	NewText string          `json:"newText"`
}

// ApplyMode determines which diagnostics contribute edits.
type ApplyMode uint8

const (
	ApplyModeAll ApplyMode = iota
	ApplyModeGroup
	ApplyModeOnce
)

// ApplyOptions configures fix selection.
type ApplyOptions struct {
	Mode ApplyMode
	// Group restricts ApplyModeGroup to codes whose rule group matches.
	Group string
}

// SkippedFix records a diagnostic whose fix was not planned.
type SkippedFix struct {
	Code   string
	Reason string
}

// Plan is the set of non-overlapping edits chosen for one document.
type Plan struct {
	Edits   []TextEdit
	Skipped []SkippedFix
}

type candidate struct {
	diag  translate.Diagnostic
	edit  TextEdit
	order int
}

// Build picks the first replacement of every fixable diagnostic, in document
// order. An edit overlapping an earlier one is skipped.
func Build(diagnostics []translate.Diagnostic, fixes quickfix.Set, opts ApplyOptions) Plan {
	plan := Plan{Edits: make([]TextEdit, 0), Skipped: make([]SkippedFix, 0)}
	cands := make([]candidate, 0, len(diagnostics))
	for i, d := range diagnostics {
		if opts.Mode == ApplyModeGroup && opts.Group != "" && translate.Group(d.Code) != opts.Group {
			continue
		}
		list := fixes[d.Code]
		if len(list) == 0 {
			continue
		}
		cands = append(cands, candidate{
			diag:  d,
			edit:  TextEdit{Range: d.Range, NewText: list[0].Replacement},
			order: i,
		})
	}
	sortCandidates(cands)

	for _, c := range cands {
		if conflictsWithExisting(plan.Edits, c.edit) {
			plan.Skipped = append(plan.Skipped, SkippedFix{
				Code:   c.diag.Code,
				Reason: "conflicts with a previously planned edit",
			})
			continue
		}
		plan.Edits = insertEditSorted(plan.Edits, c.edit)
		if opts.Mode == ApplyModeOnce {
			break
		}
	}
	return plan
}

func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].edit.Range, cands[j].edit.Range
		if a.Start != b.Start {
			return less(a.Start, b.Start)
		}
		if a.End != b.End {
			return less(a.End, b.End)
		}
		return cands[i].order < cands[j].order
	})
}

func conflictsWithExisting(existing []TextEdit, edit TextEdit) bool {
	for _, prev := range existing {
		if spansConflict(prev.Range, edit.Range) {
			return true
		}
	}
	return false
}

// spansConflict reports whether two half-open ranges overlap. Two empty
// ranges never conflict; an empty range conflicts with a span containing it.
func spansConflict(a, b translate.Range) bool {
	aEmpty := a.Start == a.End
	bEmpty := b.Start == b.End
	switch {
	case aEmpty && bEmpty:
		return false
	case aEmpty:
		return !less(a.Start, b.Start) && less(a.Start, b.End)
	case bEmpty:
		return !less(b.Start, a.Start) && less(b.Start, a.End)
	}
	return less(a.Start, b.End) && less(b.Start, a.End)
}

func insertEditSorted(edits []TextEdit, edit TextEdit) []TextEdit {
	idx := sort.Search(len(edits), func(i int) bool {
		return !less(edits[i].Range.Start, edit.Range.Start)
	})
	edits = append(edits, TextEdit{})
	copy(edits[idx+1:], edits[idx:])
	edits[idx] = edit
	return edits
}

func less(a, b translate.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

// ApplyText applies edits to text. Edits must not overlap.
func ApplyText(text string, edits []TextEdit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}
	type span struct {
		start, end int
		newText    string
	}
	spans := make([]span, 0, len(edits))
	for _, e := range edits {
		if less(e.Range.End, e.Range.Start) {
			return "", fmt.Errorf("fix: inverted range %+v", e.Range)
		}
		spans = append(spans, span{
			start:   Offset(text, e.Range.Start),
			end:     Offset(text, e.Range.End),
			newText: e.NewText,
		})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return "", ErrConflict
		}
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, s := range spans {
		b.WriteString(text[prev:s.start])
		b.WriteString(s.newText)
		prev = s.end
	}
	b.WriteString(text[prev:])
	return b.String(), nil
}

// Offset converts pos to a byte offset in text, clamping to the end of the
// line or text.
func Offset(text string, pos translate.Position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	line := 0
	i := 0
	for i < len(text) && line < pos.Line {
		if text[i] == '\n' {
			line++
		}
		i++
	}
	if line < pos.Line {
		return len(text)
	}
	units := 0
	for i < len(text) && units < pos.Character {
		if text[i] == '\n' {
			break
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}
