package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"alexls/internal/engine"
	"alexls/internal/translate"
)

var errBadArguments = errors.New("bad command arguments")

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	actions := s.o.CodeActions(uri, params.Context.Diagnostics)
	out := make([]codeAction, 0, len(actions))
	for _, a := range actions {
		cmd, ok := commandFor(a)
		if !ok {
			continue
		}
		out = append(out, codeAction{
			Title:       a.Title,
			Kind:        "quickfix",
			Diagnostics: a.Diagnostics,
			IsPreferred: a.Preferred,
			Command:     cmd,
		})
	}
	return s.sendResponse(msg.ID, out)
}

// commandFor encodes a request as positional command arguments:
//
//	alexLinter.lint         [uri]
//	alexLinter.quickFix     [diagnostic, uri, replacement]
//	alexLinter.quickFixFile [uri, diagnostics]
func commandFor(a engine.CodeAction) (*command, bool) {
	switch r := a.Request.(type) {
	case engine.LintRequest:
		return &command{Title: a.Title, Command: r.Command(), Arguments: []any{r.URI}}, true
	case engine.QuickFixRequest:
		return &command{Title: a.Title, Command: r.Command(), Arguments: []any{r.Diagnostic, r.URI, r.Replacement}}, true
	case engine.FixAllRequest:
		return &command{Title: a.Title, Command: r.Command(), Arguments: []any{r.URI, r.Diagnostics}}, true
	default:
		return nil, false
	}
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	req, err := parseCommand(params, s.o.Active())
	if err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	id := msg.ID
	s.spawn(params.Command, func(ctx context.Context) error {
		if err := s.o.ExecuteCommand(ctx, req); err != nil {
			s.log.Warn("command failed", "command", params.Command, "err", err)
			return s.sendError(id, codeRequestFailed, err.Error())
		}
		return s.sendResponse(id, nil)
	})
	return nil
}

// parseCommand decodes positional arguments into a typed request. The lint
// command without arguments targets the active document.
func parseCommand(params executeCommandParams, active string) (engine.Request, error) {
	args := params.Arguments
	switch params.Command {
	case engine.CommandLint:
		uri := active
		if len(args) > 0 {
			if err := json.Unmarshal(args[0], &uri); err != nil {
				return nil, fmt.Errorf("%w: uri: %w", errBadArguments, err)
			}
		}
		if uri == "" {
			return nil, fmt.Errorf("%w: no document to lint", errBadArguments)
		}
		return engine.LintRequest{URI: canonicalURI(uri)}, nil
	case engine.CommandQuickFix:
		if len(args) != 3 {
			return nil, fmt.Errorf("%w: want [diagnostic, uri, replacement], got %d arguments", errBadArguments, len(args))
		}
		var (
			// a JSON null leaves diag nil and the applier rejects it
			diag *translate.Diagnostic
			uri  string
			repl string
		)
		if err := json.Unmarshal(args[0], &diag); err != nil {
			return nil, fmt.Errorf("%w: diagnostic: %w", errBadArguments, err)
		}
		if err := json.Unmarshal(args[1], &uri); err != nil {
			return nil, fmt.Errorf("%w: uri: %w", errBadArguments, err)
		}
		if err := json.Unmarshal(args[2], &repl); err != nil {
			return nil, fmt.Errorf("%w: replacement: %w", errBadArguments, err)
		}
		return engine.QuickFixRequest{Diagnostic: diag, URI: canonicalURI(uri), Replacement: repl}, nil
	case engine.CommandQuickFixFile:
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: want [uri, diagnostics], got %d arguments", errBadArguments, len(args))
		}
		var (
			uri   string
			diags []translate.Diagnostic
		)
		if err := json.Unmarshal(args[0], &uri); err != nil {
			return nil, fmt.Errorf("%w: uri: %w", errBadArguments, err)
		}
		if err := json.Unmarshal(args[1], &diags); err != nil {
			return nil, fmt.Errorf("%w: diagnostics: %w", errBadArguments, err)
		}
		return engine.FixAllRequest{URI: canonicalURI(uri), Diagnostics: diags}, nil
	default:
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownCommand, params.Command)
	}
}
