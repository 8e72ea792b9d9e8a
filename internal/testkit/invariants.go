// Package testkit holds invariant checks shared by package tests.
package testkit

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"alexls/internal/translate"
)

// CheckResult verifies the structural invariants of a translated lint result
// against the text it was produced from:
//  1. codes are CodePrefix-1..n in message order
//  2. every range is non-inverted and lies within the text
//  3. every fix belongs to a diagnostic of this result and has a non-empty
//     replacement
func CheckResult(text string, res translate.Result) error {
	lines := strings.Split(text, "\n")
	codes := make(map[string]bool, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		want := translate.CodePrefix + "-" + strconv.Itoa(i+1)
		if d.Code != want {
			return fmt.Errorf("diagnostic %d: code %q, want %q", i, d.Code, want)
		}
		codes[d.Code] = true
		r := d.Range
		if r.End.Line < r.Start.Line || (r.End.Line == r.Start.Line && r.End.Character < r.Start.Character) {
			return fmt.Errorf("%s: inverted range %+v", d.Code, r)
		}
		for _, p := range []translate.Position{r.Start, r.End} {
			if err := checkPosition(lines, p); err != nil {
				return fmt.Errorf("%s: %w", d.Code, err)
			}
		}
	}
	for code, fixes := range res.Fixes {
		if !codes[code] {
			return fmt.Errorf("fix for unknown code %q", code)
		}
		for _, f := range fixes {
			if f.Replacement == "" {
				return fmt.Errorf("%s: empty replacement", code)
			}
		}
	}
	return nil
}

func checkPosition(lines []string, p translate.Position) error {
	if p.Line < 0 || p.Line >= len(lines) {
		return fmt.Errorf("line %d outside %d lines", p.Line, len(lines))
	}
	width, err := safecast.Conv[int](utf16Len(lines[p.Line]))
	if err != nil {
		return err
	}
	if p.Character < 0 || p.Character > width {
		return fmt.Errorf("character %d outside line %d of width %d", p.Character, p.Line, width)
	}
	return nil
}

func utf16Len(s string) uint32 {
	var n uint32
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
