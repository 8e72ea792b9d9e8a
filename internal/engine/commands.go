package engine

import (
	"context"
	"fmt"
	"strconv"

	"alexls/internal/translate"
)

// Command names understood by ExecuteCommand.
const (
	CommandLint         = "alexLinter.lint"
	CommandQuickFix     = "alexLinter.quickFix"
	CommandQuickFixFile = "alexLinter.quickFixFile"
)

// Commands lists every command name, for capability advertisement.
var Commands = []string{CommandLint, CommandQuickFix, CommandQuickFixFile}

// Request is a typed command invocation.
type Request interface {
	Command() string
}

// LintRequest forces a validation of one document.
type LintRequest struct {
	URI string
}

// Command implements Request.
func (LintRequest) Command() string { return CommandLint }

// Command implements Request.
func (QuickFixRequest) Command() string { return CommandQuickFix }

// Command implements Request.
func (FixAllRequest) Command() string { return CommandQuickFixFile }

// ExecuteCommand dispatches a command request.
func (o *Orchestrator) ExecuteCommand(ctx context.Context, req Request) error {
	switch r := req.(type) {
	case LintRequest:
		_, err := o.Validate(ctx, r.URI, ValidateOptions{Force: true})
		return err
	case QuickFixRequest:
		return o.applier.ApplyFix(ctx, r)
	case FixAllRequest:
		return o.applier.ApplyFixesInFile(ctx, r)
	case nil:
		return fmt.Errorf("%w: <nil>", ErrUnknownCommand)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command())
	}
}

// CodeAction offers a command for some diagnostics.
type CodeAction struct {
	Title       string
	Diagnostics []translate.Diagnostic
	Preferred   bool
	Request     Request
}

// CodeActions returns one quick fix per registered replacement of each
// diagnostic, the first of each being preferred. When more than one
// diagnostic is fixable a whole-file action is appended.
func (o *Orchestrator) CodeActions(uri string, diagnostics []translate.Diagnostic) []CodeAction {
	actions := make([]CodeAction, 0)
	fixable := make([]translate.Diagnostic, 0, len(diagnostics))
	for i := range diagnostics {
		d := diagnostics[i]
		fixes := o.fixes.Get(uri, d.Code)
		if len(fixes) == 0 {
			continue
		}
		fixable = append(fixable, d)
		for j, f := range fixes {
			actions = append(actions, CodeAction{
				Title:       "Fix: " + f.Label,
				Diagnostics: []translate.Diagnostic{d},
				Preferred:   j == 0,
				Request:     QuickFixRequest{Diagnostic: &d, URI: uri, Replacement: f.Replacement},
			})
		}
	}
	if len(fixable) > 1 {
		actions = append(actions, CodeAction{
			Title:       "Fix: all " + strconv.Itoa(len(fixable)) + " issues in file",
			Diagnostics: fixable,
			Request:     FixAllRequest{URI: uri, Diagnostics: fixable},
		})
	}
	return actions
}
