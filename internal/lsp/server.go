// Package lsp serves the lint orchestrator over stdio JSON-RPC.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"alexls/internal/engine"
	"alexls/internal/settings"
	"alexls/internal/trace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

const configSection = "alexLinter"

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Settings receives configuration pushed by the client. Optional.
	Settings *settings.Client
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Version  string
	// OnOpen is called with the file path of every opened file document.
	OnOpen func(path string)
}

// Server handles stdio JSON-RPC for alexls. It is the orchestrator's
// publisher, status sink and edit submitter, and a settings source that
// pulls configuration from the client when the client supports it.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	docs     *Documents
	settings *settings.Client
	o        *engine.Orchestrator
	log      *slog.Logger
	tracer   trace.Tracer
	version  string
	onOpen   func(path string)

	mu                sync.Mutex
	shutdownRequested bool
	pending           map[string]chan *rpcMessage
	nextID            atomic.Int64
	pullConfig        atomic.Bool
	registerConfig    atomic.Bool

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewServer constructs a server. Bind must be called before Run.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Server{
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		docs:     NewDocuments(),
		settings: opts.Settings,
		log:      log.With("component", "lsp"),
		tracer:   tracer,
		version:  opts.Version,
		onOpen:   opts.OnOpen,
		pending:  make(map[string]chan *rpcMessage),
		baseCtx:  context.Background(),
	}
}

// Documents returns the open-document store.
func (s *Server) Documents() *Documents {
	return s.docs
}

// Bind attaches the orchestrator that document events are routed to.
func (s *Server) Bind(o *engine.Orchestrator) {
	s.o = o
}

// Run serves LSP messages until the input closes or the client exits.
// Handlers still running when Run returns see a cancelled context and are
// waited for.
func (s *Server) Run(ctx context.Context) error {
	if s.o == nil {
		return errors.New("lsp: no orchestrator bound")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
	}()
	s.baseCtx = ctx

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Warn("failed to parse message", "err", err)
			if err := s.sendError(json.RawMessage("null"), codeParseError, "parse error"); err != nil {
				return err
			}
			continue
		}
		if msg.Method == "" {
			if len(msg.ID) > 0 {
				s.deliver(&msg)
			}
			continue
		}
		trace.Point(s.tracer, trace.ScopeDetail, msg.Method, "", 0)
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		s.handleInitialized()
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.mu.Lock()
		requested := s.shutdownRequested
		s.mu.Unlock()
		if requested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		s.handleDidChangeConfiguration(msg)
		return nil
	case "textDocument/didOpen":
		s.handleDidOpen(msg)
		return nil
	case "textDocument/didChange":
		s.handleDidChange(msg)
		return nil
	case "textDocument/didSave":
		s.handleDidSave(msg)
		return nil
	case "textDocument/didClose":
		s.handleDidClose(msg)
		return nil
	case "alexLinter/activeDocument":
		s.handleActiveDocument(msg)
		return nil
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/formatting":
		return s.handleFormatting(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	s.pullConfig.Store(params.Capabilities.Workspace.Configuration)
	s.registerConfig.Store(params.Capabilities.Workspace.DidChangeConfiguration.DynamicRegistration)
	s.log.Info("initialize",
		"root", params.RootURI,
		"pullConfig", params.Capabilities.Workspace.Configuration,
		"applyEdit", params.Capabilities.Workspace.ApplyEdit)

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save:      saveOptions{IncludeText: true},
			},
			CodeActionProvider:         codeActionOptions{CodeActionKinds: []string{"quickfix"}},
			ExecuteCommandProvider:     executeCommandOptions{Commands: engine.Commands},
			DocumentFormattingProvider: true,
		},
		ServerInfo: serverInfo{Name: "alexls", Version: s.version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.o.Close()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) {
	var params didChangeConfigurationParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			s.log.Warn("bad didChangeConfiguration params", "err", err)
			return
		}
	}
	if s.settings != nil && len(params.Settings) > 0 {
		var pushed lspSettings
		if err := json.Unmarshal(params.Settings, &pushed); err != nil {
			s.log.Warn("ignoring unreadable settings", "err", err)
		} else if pushed.AlexLinter != nil {
			s.settings.Update(*pushed.AlexLinter)
		}
	}
	s.o.ConfigChanged()
}

func (s *Server) handleDidOpen(msg *rpcMessage) {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("bad didOpen params", "err", err)
		return
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return
	}
	s.docs.Open(engine.Document{
		URI:        uri,
		Version:    params.TextDocument.Version,
		Text:       params.TextDocument.Text,
		LanguageID: params.TextDocument.LanguageID,
	})
	if path, ok := filePath(uri); ok && s.onOpen != nil {
		s.onOpen(path)
	}
	s.spawn("didOpen", func(ctx context.Context) error {
		return s.o.DidOpen(ctx, uri)
	})
}

func (s *Server) handleDidChange(msg *rpcMessage) {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("bad didChange params", "err", err)
		return
	}
	uri := canonicalURI(params.TextDocument.URI)
	if !s.docs.Change(uri, params.TextDocument.Version, params.ContentChanges) {
		s.log.Debug("change for unopened document", "uri", uri)
		return
	}
	s.spawn("didChange", func(ctx context.Context) error {
		return s.o.DidChange(ctx, uri)
	})
}

func (s *Server) handleDidSave(msg *rpcMessage) {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("bad didSave params", "err", err)
		return
	}
	uri := canonicalURI(params.TextDocument.URI)
	if _, ok := s.docs.Get(uri); !ok {
		return
	}
	s.docs.Save(uri, params.Text)
	s.spawn("didSave", func(ctx context.Context) error {
		return s.o.DidSave(ctx, uri)
	})
}

func (s *Server) handleDidClose(msg *rpcMessage) {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("bad didClose params", "err", err)
		return
	}
	uri := canonicalURI(params.TextDocument.URI)
	s.docs.Close(uri)
	s.o.DidClose(s.baseCtx, uri)
}

func (s *Server) handleActiveDocument(msg *rpcMessage) {
	var params activeDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn("bad activeDocument params", "err", err)
		return
	}
	s.o.SetActive(canonicalURI(params.URI))
}

func (s *Server) handleFormatting(msg *rpcMessage) error {
	var params documentFormattingParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	id := msg.ID
	s.spawn("formatting", func(ctx context.Context) error {
		edits, err := s.o.Format(ctx, uri)
		if err != nil {
			return s.sendError(id, codeRequestFailed, err.Error())
		}
		if edits == nil {
			edits = []engine.TextEdit{}
		}
		return s.sendResponse(id, edits)
	})
	return nil
}

// spawn runs fn off the read loop so outbound requests made by fn can be
// answered.
// handleInitialized asks clients that register configuration notifications
// dynamically to send workspace/didChangeConfiguration.
func (s *Server) handleInitialized() {
	if !s.registerConfig.Load() {
		return
	}
	s.spawn("registerCapability", func(ctx context.Context) error {
		params := registrationParams{Registrations: []registration{{
			ID:     configSection + ".didChangeConfiguration",
			Method: "workspace/didChangeConfiguration",
		}}}
		if err := s.call(ctx, "client/registerCapability", params, nil); err != nil {
			s.log.Warn("configuration registration failed", "err", err)
		}
		return nil
	})
}

func (s *Server) spawn(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(s.baseCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn(name+" failed", "err", err)
		}
	}()
}
