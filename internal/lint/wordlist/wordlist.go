// Package wordlist is the built-in prose linter: a table of insensitive,
// inconsiderate and profane phrases with suggested replacements.
//
// Reasons are worded the way alex words them, so suggestions can be recovered
// from the message text alone:
//
//	`master` may be insensitive, use `primary`, `main`, `leader` instead
package wordlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"alexls/internal/lint"
)

// ErrAllowAndDeny is returned when both allow and deny lists are configured.
var ErrAllowAndDeny = errors.New("do not provide both allow and deny configuration parameters")

type phrase struct {
	rule  int
	words []string
}

// Linter matches text against a rule table. It is safe for concurrent use.
type Linter struct {
	rules []Rule
	index map[string][]phrase
}

var _ lint.Linter = (*Linter)(nil)

// New builds a linter over rules. With no rules it uses DefaultRules.
func New(rules ...Rule) *Linter {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	l := &Linter{
		rules: rules,
		index: make(map[string][]phrase),
	}
	fold := cases.Fold()
	for i, r := range rules {
		for _, p := range r.Phrases {
			words := strings.Fields(normalizeWord(fold, p))
			if len(words) == 0 {
				continue
			}
			l.index[words[0]] = append(l.index[words[0]], phrase{rule: i, words: words})
		}
	}
	for key, list := range l.index {
		sort.SliceStable(list, func(i, j int) bool { return len(list[i].words) > len(list[j].words) })
		l.index[key] = list
	}
	return l
}

type token struct {
	norm   string
	start  int
	end    int
	line   int
	col    int
	endCol int
	joined bool
}

// Lint reports every enabled rule match in req.Text.
func (l *Linter) Lint(ctx context.Context, req lint.Request) (lint.Result, error) {
	opts := req.Options
	if len(opts.Allow) > 0 && len(opts.Deny) > 0 {
		return lint.Result{}, ErrAllowAndDeny
	}
	mask := maskFor(detectMode(req.LanguageID, req.URI), req.Text)
	toks, err := scan(ctx, req.Text, mask)
	if err != nil {
		return lint.Result{}, err
	}
	allow := toSet(opts.Allow)
	deny := toSet(opts.Deny)

	messages := make([]lint.Message, 0)
	for i := 0; i < len(toks); {
		ruleIdx, n := l.match(toks, i)
		if ruleIdx < 0 {
			i++
			continue
		}
		rule := l.rules[ruleIdx]
		if !enabled(rule, opts, allow, deny) {
			i += n
			continue
		}
		first, last := toks[i], toks[i+n-1]
		actual := req.Text[first.start:last.end]
		start := lint.Position{Line: first.line + 1, Column: first.col + 1}
		messages = append(messages, lint.Message{
			Reason: reasonFor(rule, actual),
			Fatal:  rule.Fatal,
			Location: &lint.Location{
				Start: start,
				End:   lint.Position{Line: last.line + 1, Column: last.endCol + 1},
			},
			Line:     start.Line,
			Column:   start.Column,
			RuleID:   rule.ID,
			Source:   rule.Category.String(),
			Actual:   actual,
			Expected: append([]string(nil), rule.Suggest...),
		})
		i += n
	}
	return lint.Result{Messages: messages}, nil
}

// match returns the longest phrase starting at toks[i].
func (l *Linter) match(toks []token, i int) (int, int) {
	for _, p := range l.index[toks[i].norm] {
		n := len(p.words)
		if i+n > len(toks) {
			continue
		}
		ok := true
		for k := 1; k < n; k++ {
			if !toks[i+k].joined || toks[i+k].norm != p.words[k] {
				ok = false
				break
			}
		}
		if ok {
			return p.rule, n
		}
	}
	return -1, 0
}

func enabled(rule Rule, opts lint.Options, allow, deny map[string]struct{}) bool {
	if _, ok := allow[rule.ID]; ok {
		return false
	}
	if len(deny) > 0 {
		if _, ok := deny[rule.ID]; !ok {
			return false
		}
	}
	if rule.Binary && !opts.NoBinary {
		return false
	}
	if rule.Category == CategoryProfanity && rule.Sureness < opts.ProfanitySureness {
		return false
	}
	return true
}

func reasonFor(rule Rule, actual string) string {
	if rule.Category == CategoryProfanity {
		return fmt.Sprintf("Don’t use `%s`, it’s profane", actual)
	}
	if len(rule.Suggest) == 0 {
		return fmt.Sprintf("`%s` may be insensitive, try not to use it", actual)
	}
	quoted := make([]string, len(rule.Suggest))
	for i, s := range rule.Suggest {
		quoted[i] = "`" + s + "`"
	}
	return fmt.Sprintf("`%s` may be insensitive, use %s instead", actual, strings.Join(quoted, ", "))
}

// scan splits text into word tokens with 0-based UTF-16 columns.
func scan(ctx context.Context, text string, mask []bool) ([]token, error) {
	fold := cases.Fold()
	toks := make([]token, 0, len(text)/6)
	line, col := 0, 0
	clean := false
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			line++
			col = 0
			i += size
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		masked := mask != nil && mask[i]
		if !masked && isWordRune(r) {
			start, startCol := i, col
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				if !isWordRune(r) || (mask != nil && mask[i]) {
					break
				}
				col += utf16Len(r)
				i += size
			}
			toks = append(toks, token{
				norm:   normalizeWord(fold, text[start:i]),
				start:  start,
				end:    i,
				line:   line,
				col:    startCol,
				endCol: col,
				joined: len(toks) > 0 && clean,
			})
			clean = true
			continue
		}
		if masked || !unicode.IsSpace(r) {
			clean = false
		}
		col += utf16Len(r)
		i += size
	}
	return toks, nil
}

func normalizeWord(fold cases.Caser, s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	return fold.String(norm.NFC.String(s))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’'
}

func utf16Len(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

func toSet(list []string) map[string]struct{} {
	if len(list) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(list))
	for _, v := range list {
		out[v] = struct{}{}
	}
	return out
}
