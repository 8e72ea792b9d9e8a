package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"alexls/internal/engine"
	"alexls/internal/lsp"
	"alexls/internal/metrics"
	"alexls/internal/settings"
	"alexls/internal/version"
	"alexls/internal/watch"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Duration("config-quiet", engine.DefaultConfigQuiet, "quiet window before open documents are revalidated after a configuration change")
	lspCmd.Flags().Duration("revalidate-delay", engine.FormatRevalidateDelay, "delay before a formatted document is checked again")
	lspCmd.Flags().Int("sweep-workers", 4, "max documents revalidated in parallel after a configuration change")
	lspCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	lspCmd.Flags().Bool("no-watch", false, "do not watch workspace config files")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	configQuiet, err := flags.GetDuration("config-quiet")
	if err != nil {
		return fmt.Errorf("failed to get config-quiet flag: %w", err)
	}
	revalidateDelay, err := flags.GetDuration("revalidate-delay")
	if err != nil {
		return fmt.Errorf("failed to get revalidate-delay flag: %w", err)
	}
	sweepWorkers, err := flags.GetInt("sweep-workers")
	if err != nil {
		return fmt.Errorf("failed to get sweep-workers flag: %w", err)
	}
	metricsAddr, err := flags.GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("failed to get metrics-addr flag: %w", err)
	}
	noWatch, err := flags.GetBool("no-watch")
	if err != nil {
		return fmt.Errorf("failed to get no-watch flag: %w", err)
	}

	log, err := newLogger(cmd, os.Stderr)
	if err != nil {
		return err
	}
	tracer, stopTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer stopTrace()
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProf()
	linter, cached, err := buildLinter(cmd, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	opts := lsp.ServerOptions{
		Settings: settings.NewClient(settings.Config{}),
		Logger:   log,
		Tracer:   tracer,
		Version:  version.Current().Version,
	}

	// the watcher only starts once the orchestrator exists; paths added
	// before then are picked up when it does
	var watcher *watch.ConfigWatcher
	var o *engine.Orchestrator
	if !noWatch {
		watcher, err = watch.New(settings.ConfigFileNames, func(path string) {
			log.Info("config file changed", "path", path)
			o.ConfigChanged()
		}, log)
		if err != nil {
			log.Warn("config file watching disabled", "err", err)
			watcher = nil
		} else {
			opts.OnOpen = watcher.WatchAncestors
		}
	}
	srv := lsp.NewServer(os.Stdin, os.Stdout, opts)

	cfg := engine.Config{
		Linter: linter,
		// later layers win: a workspace config file overrides editor settings
		Settings:        settings.NewCache(settings.Layered{opts.Settings, srv, settings.FileSource{}}),
		Documents:       srv.Documents(),
		Publisher:       srv,
		Status:          srv,
		Edits:           srv,
		Logger:          log,
		Tracer:          tracer,
		ConfigQuiet:     configQuiet,
		RevalidateDelay: revalidateDelay,
		SweepWorkers:    sweepWorkers,
		BaseContext:     ctx,
	}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		cfg.Metrics = metrics.NewCollector(reg)
		if cached != nil {
			metrics.RegisterCache(reg, func() (uint64, uint64) {
				st := cached.Stats()
				return st.Hits, st.Misses
			})
		}
		go func() {
			if err := metrics.Serve(ctx, metricsAddr, reg); err != nil {
				log.Error("metrics endpoint failed", "addr", metricsAddr, "err", err)
			}
		}()
		log.Info("serving metrics", "addr", metricsAddr)
	}
	o = engine.New(cfg)
	defer o.Close()
	srv.Bind(o)

	if watcher != nil {
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	log.Info("alexls language server started", "version", opts.Version)
	if err := srv.Run(ctx); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return exitError{code: 1}
		}
		return err
	}
	return nil
}
