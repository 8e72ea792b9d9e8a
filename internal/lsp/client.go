package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"alexls/internal/engine"
	"alexls/internal/settings"
	"alexls/internal/translate"
)

// Publish implements engine.Publisher.
func (s *Server) Publish(_ context.Context, uri string, diagnostics []translate.Diagnostic) error {
	if diagnostics == nil {
		diagnostics = []translate.Diagnostic{}
	}
	params := publishDiagnosticsParams{URI: uri, Diagnostics: diagnostics}
	if doc, ok := s.docs.Get(uri); ok {
		params.Version = &doc.Version
	}
	return s.notify("textDocument/publishDiagnostics", params)
}

// Status implements engine.StatusSink.
func (s *Server) Status(_ context.Context, ev engine.StatusEvent) {
	params := statusParams{
		ID:             ev.TaskID,
		State:          ev.Kind.String(),
		Documents:      []statusDocument{},
		LastFileName:   ev.LastFileName,
		LastLintTimeMs: ev.ElapsedMs(),
	}
	if ev.URI != "" {
		params.Documents = append(params.Documents, statusDocument{DocumentURI: ev.URI})
	}
	if err := s.notify("alexLinter/status", params); err != nil {
		s.log.Warn("status notification failed", "state", params.State, "err", err)
	}
}

// Submit implements engine.EditSubmitter with a workspace/applyEdit request.
// An edit against a version other than the open one is refused locally.
func (s *Server) Submit(ctx context.Context, edit engine.VersionedEdit) error {
	doc, ok := s.docs.Get(edit.URI)
	if !ok || doc.Version != edit.Version {
		return fmt.Errorf("%w: %s version %d", engine.ErrStaleVersion, edit.URI, edit.Version)
	}
	params := applyWorkspaceEditParams{
		Label: "alexLinter: fix",
		Edit: workspaceEdit{DocumentChanges: []textDocumentEdit{{
			TextDocument: versionedTextDocumentIdentifier{URI: edit.URI, Version: edit.Version},
			Edits:        edit.Edits,
		}}},
	}
	var res applyWorkspaceEditResult
	if err := s.call(ctx, "workspace/applyEdit", params, &res); err != nil {
		return err
	}
	if !res.Applied {
		if res.FailureReason != "" {
			return fmt.Errorf("%w: %s", engine.ErrEditRejected, res.FailureReason)
		}
		return engine.ErrEditRejected
	}
	return nil
}

// Fetch implements settings.Source by asking the client for the
// alexLinter section scoped to uri. Clients without workspace/configuration
// support contribute nothing.
func (s *Server) Fetch(ctx context.Context, uri string) (settings.Config, error) {
	if !s.pullConfig.Load() {
		return settings.Config{}, nil
	}
	params := configurationParams{Items: []configurationItem{{ScopeURI: uri, Section: configSection}}}
	var items []json.RawMessage
	if err := s.call(ctx, "workspace/configuration", params, &items); err != nil {
		return settings.Config{}, err
	}
	var cfg settings.Config
	if len(items) == 0 || string(bytes.TrimSpace(items[0])) == "null" {
		return cfg, nil
	}
	if err := json.Unmarshal(items[0], &cfg); err != nil {
		return settings.Config{}, fmt.Errorf("decode %s settings: %w", configSection, err)
	}
	return cfg, nil
}

// call sends a request to the client and waits for its response.
func (s *Server) call(ctx context.Context, method string, params, result any) error {
	id := s.nextID.Add(1)
	key := strconv.FormatInt(id, 10)
	ch := make(chan *rpcMessage, 1)
	s.mu.Lock()
	s.pending[key] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	if err := s.send(msg); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
		return nil
	}
}

// deliver routes a client response to the waiting call.
func (s *Server) deliver(msg *rpcMessage) {
	key := string(bytes.Trim(bytes.TrimSpace(msg.ID), `"`))
	s.mu.Lock()
	ch := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if ch == nil {
		s.log.Debug("response to unknown request", "id", key)
		return
	}
	ch <- msg
}

func (s *Server) notify(method string, params any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
