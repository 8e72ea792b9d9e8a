package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"alexls/internal/engine"
	"alexls/internal/lint/cache"
	"alexls/internal/observ"
	"alexls/internal/quickfix"
	"alexls/internal/settings"
	"alexls/internal/translate"
	"alexls/internal/ui"
)

// session runs lint cycles for files named on the command line through the
// same orchestrator the language server uses.
type session struct {
	ws     *workspace
	o      *engine.Orchestrator
	log    *slog.Logger
	timer  *observ.Timer
	cached *cache.Linter
	jobs   int
}

// fileReport is the outcome for one file.
type fileReport struct {
	Path        string
	Text        string
	Diagnostics []translate.Diagnostic
	Fixes       map[string][]quickfix.Fix
	// Applied counts edits written by fix.
	Applied int
	Err     error
}

func (r fileReport) failed() bool { return r.Err != nil }

// newSession builds the logger, tracer, profilers, linter and orchestrator
// for a CLI run. overrides win over workspace config files.
func newSession(cmd *cobra.Command, overrides settings.Config, jobs int) (*session, func(), error) {
	log, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	tracer, stopTrace, err := setupTracing(cmd)
	if err != nil {
		return nil, nil, err
	}
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		stopTrace()
		return nil, nil, err
	}
	cleanup := func() {
		stopProf()
		stopTrace()
	}
	linter, cached, err := buildLinter(cmd, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// files named on the command line are always linted
	overrides.Strategy = string(settings.StrategyOnType)

	ws := newWorkspace()
	o := engine.New(engine.Config{
		Linter:      linter,
		Settings:    settings.NewCache(settings.Layered{settings.FileSource{}, settings.Static(overrides)}),
		Documents:   ws,
		Publisher:   ws,
		Status:      ws,
		Edits:       ws,
		Logger:      log,
		Tracer:      tracer,
		BaseContext: cmd.Context(),
	})
	s := &session{ws: ws, o: o, log: log, timer: observ.NewTimer(), cached: cached, jobs: jobs}
	return s, func() {
		o.Close()
		cleanup()
	}, nil
}

// lintAll lints files with at most s.jobs in flight. Reports keep the order
// of files.
func (s *session) lintAll(ctx context.Context, files []string) []fileReport {
	return s.each(ctx, files, func(ctx context.Context, path string) fileReport {
		return s.lintFile(ctx, path)
	})
}

// fixAll applies every first-choice fix to files, writing them back unless
// dryRun is set.
func (s *session) fixAll(ctx context.Context, files []string, dryRun bool) []fileReport {
	return s.each(ctx, files, func(ctx context.Context, path string) fileReport {
		return s.fixFile(ctx, path, dryRun)
	})
}

func (s *session) each(ctx context.Context, files []string, fn func(context.Context, string) fileReport) []fileReport {
	reports := make([]fileReport, len(files))
	var g errgroup.Group
	g.SetLimit(max(1, min(s.jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			idx := s.timer.Begin(path)
			r := fn(ctx, path)
			s.timer.End(idx, strconv.Itoa(len(r.Diagnostics))+" findings")
			s.finished(r)
			reports[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (s *session) finished(r fileReport) {
	ev := ui.Event{File: r.Path, Status: ui.StatusDone, Findings: len(r.Diagnostics)}
	if r.failed() {
		ev.Status = ui.StatusError
	}
	s.ws.progress.Report(ev)
}

func (s *session) lintFile(ctx context.Context, path string) fileReport {
	uri, err := s.ws.load(path)
	if err != nil {
		return fileReport{Path: path, Err: err}
	}
	if _, err := s.o.Validate(ctx, uri, engine.ValidateOptions{Force: true}); err != nil {
		return fileReport{Path: path, Err: err}
	}
	return s.report(path, uri)
}

func (s *session) fixFile(ctx context.Context, path string, dryRun bool) fileReport {
	uri, err := s.ws.load(path)
	if err != nil {
		return fileReport{Path: path, Err: err}
	}
	before, _ := s.ws.Get(uri)
	edits, err := s.o.Validate(ctx, uri, engine.ValidateOptions{Force: true, Fix: true})
	if err != nil {
		return fileReport{Path: path, Err: err}
	}
	if len(edits) > 0 {
		edit := engine.VersionedEdit{URI: uri, Version: before.Version, Edits: edits}
		if err := s.ws.Submit(ctx, edit); err != nil {
			return fileReport{Path: path, Err: err}
		}
		// report what the fixes left behind
		if _, err := s.o.Validate(ctx, uri, engine.ValidateOptions{Force: true}); err != nil {
			return fileReport{Path: path, Err: err}
		}
	}
	r := s.report(path, uri)
	r.Applied = len(edits)
	if r.Applied == 0 || dryRun || r.failed() {
		return r
	}
	info, err := os.Stat(path)
	if err != nil {
		r.Err = err
		return r
	}
	if err := os.WriteFile(path, []byte(r.Text), info.Mode().Perm()); err != nil {
		r.Err = fmt.Errorf("write %s: %w", path, err)
	}
	return r
}

func (s *session) report(path, uri string) fileReport {
	doc, _ := s.ws.Get(uri)
	diags, failed := s.ws.result(uri)
	r := fileReport{Path: path, Text: doc.Text, Diagnostics: diags}
	if failed {
		r.Err = fmt.Errorf("%s: linter failed", path)
		return r
	}
	reg := s.o.Fixes()
	for _, d := range diags {
		if fixes := reg.Get(uri, d.Code); len(fixes) > 0 {
			if r.Fixes == nil {
				r.Fixes = make(map[string][]quickfix.Fix)
			}
			r.Fixes[d.Code] = fixes
		}
	}
	return r
}

func (s *session) logCacheStats() {
	if s.cached == nil {
		return
	}
	st := s.cached.Stats()
	s.log.Debug("lint cache", "hits", st.Hits, "misses", st.Misses)
}
