// Package fuzztests houses Go fuzz harnesses for the front of the build:
// the lexer, preamble bounds and a whole unit.Build over arbitrary main
// file contents. The goal is to catch panics and hangs, not to check
// diagnostics.
//
// Purpose: feed arbitrary bytes through the lexer, ComputeBounds and
// unit.Build with checks and the include fixer enabled.
//
// Does not: generate corpora, write files or run the CLI.
package fuzztests
