// Package trace is the logging and tracing subsystem of unitd.
//
// Builds report spans (unit.build, tidy.init, tidy.match) and point events
// for degraded paths (unit.session-start-failed, unit.execute-failed,
// unit.replay-file-not-found). Point events carry the file in Extra.
//
// # Usage
//
//	unitd build --trace=- --trace-level=detail main.c
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for crash dumps
//   - MultiTracer: combines multiple tracers
//
// # Levels and scopes
//
// LevelPhase emits ScopeDriver, ScopeUnit and ScopePhase events;
// LevelDetail adds ScopeDetail. LevelError keeps only the ring for dumps.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeUnit, "unit.build")
//	defer span.End("")
//	trace.Log(ctx, trace.ScopeUnit, "unit.execute-failed", err.Error(), "file", name)
package trace
