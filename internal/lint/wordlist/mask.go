package wordlist

import (
	"path"
	"strings"
)

type textMode uint8

const (
	modePlain textMode = iota
	modeMarkdown
	modeLatex
)

func detectMode(languageID, uri string) textMode {
	switch strings.ToLower(languageID) {
	case "markdown", "mdx":
		return modeMarkdown
	case "latex", "tex":
		return modeLatex
	case "":
	default:
		return modePlain
	}
	switch strings.ToLower(path.Ext(uri)) {
	case ".md", ".markdown", ".mdx", ".mkd":
		return modeMarkdown
	case ".tex":
		return modeLatex
	}
	return modePlain
}

// maskFor marks byte ranges that must not be linted. It returns nil when
// nothing is masked. Masking never changes the text, so offsets stay valid.
func maskFor(mode textMode, text string) []bool {
	switch mode {
	case modeMarkdown:
		return maskMarkdown(text)
	case modeLatex:
		return maskLatex(text)
	}
	return nil
}

// maskMarkdown hides fenced code blocks and inline code spans.
func maskMarkdown(text string) []bool {
	mask := make([]bool, len(text))
	inFence := false
	fence := ""
	off := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if marker := fenceMarker(trimmed); marker != "" && (!inFence || strings.HasPrefix(trimmed, fence)) {
			if inFence {
				inFence = false
			} else {
				inFence = true
				fence = marker
			}
			fill(mask, off, off+len(line))
			off += len(line)
			continue
		}
		if inFence {
			fill(mask, off, off+len(line))
		} else {
			maskInlineCode(mask, line, off)
		}
		off += len(line)
	}
	return mask
}

func fenceMarker(line string) string {
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, marker) {
			return marker
		}
	}
	return ""
}

// maskInlineCode hides `code` spans; an opening run of N backticks closes
// at the next run of exactly N backticks on the same line.
func maskInlineCode(mask []bool, line string, base int) {
	i := 0
	for i < len(line) {
		if line[i] != '`' {
			i++
			continue
		}
		run := countRun(line, i, '`')
		closeAt := -1
		for j := i + run; j < len(line); {
			if line[j] != '`' {
				j++
				continue
			}
			n := countRun(line, j, '`')
			if n == run {
				closeAt = j + n
				break
			}
			j += n
		}
		if closeAt < 0 {
			i += run
			continue
		}
		fill(mask, base+i, base+closeAt)
		i = closeAt
	}
}

// maskLatex hides control sequences and comments.
func maskLatex(text string) []bool {
	mask := make([]bool, len(text))
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			j := i + 1
			for j < len(text) && isASCIILetter(text[j]) {
				j++
			}
			if j == i+1 && j < len(text) {
				j++
			}
			fill(mask, i, j)
			i = j - 1
		case '%':
			if i > 0 && text[i-1] == '\\' {
				continue
			}
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				j = len(text) - i
			}
			fill(mask, i, i+j)
			i += j - 1
		}
	}
	return mask
}

func countRun(s string, i int, b byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == b {
		n++
	}
	return n
}

func fill(mask []bool, from, to int) {
	if to > len(mask) {
		to = len(mask)
	}
	for i := from; i < to; i++ {
		mask[i] = true
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
