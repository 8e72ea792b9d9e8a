package lsp

import "alexls/internal/fix"

// applyChanges applies content changes in order. A change without a range
// replaces the whole text.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := fix.Offset(text, change.Range.Start)
		end := fix.Offset(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}
