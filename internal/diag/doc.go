// Package diag defines the diagnostic model shared by every stage of a build.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     configuration parsing, the lexer, the preprocessor, the parser, semantic
//     analysis and pluggable checks.
//   - Offer light-weight utilities (Reporter, Bag, ReportBuilder) so producers
//     emit diagnostics without knowing where they are stored.
//   - Model fix suggestions as structured text edits.
//
// # Scope
//
// Package diag does no formatting and no IO. Rendering lives in
// internal/diagfmt, applying fixes in internal/fix, and the level-adjusting
// pipeline (escalation, suppression, repair) in internal/unit.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Ignored, Note, Warning, Error or Fatal.
//   - Code – compact numeric identifier (codes.go) with a stable string form.
//   - Message – short, actionable text.
//   - Primary – the source.Span the finding points at.
//   - Check – name of the pluggable check that produced it; empty for
//     compiler diagnostics.
//   - Notes – secondary spans/messages.
//   - Fixes – candidate edits. Fixes are additive and never change severity.
//
// Severity Ignored is a real value: suppressed diagnostics are kept in the
// list so consumers can audit suppression decisions.
package diag
