// Package trace records spans and point events for the language server.
//
// Spans cover configuration sweeps, document validations and the phases
// inside them (settings, lint, publish). They help answer "why is this
// document slow" and "where did the server stall" without a profiler.
//
// # Usage
//
//	alexls lsp --trace=/tmp/alexls.ndjson --trace-level=document
//
// # Tracers
//
//   - Nop: disabled, zero overhead
//   - StreamTracer: writes each event as it happens
//   - RingTracer: keeps the last N events for a dump on demand
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// Each event has a scope; the level decides which scopes are kept:
//
//   - LevelServer: ScopeServer (sessions, sweeps)
//   - LevelDocument: adds ScopeDocument (one validation)
//   - LevelPhase: adds ScopePhase (settings, lint, publish)
//   - LevelDebug: everything
//
// Tracers travel in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDocument, "validate", 0)
//	defer span.End("")
package trace
