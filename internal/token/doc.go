// Package token defines lexical token kinds and trivia for the C front end.
// Invariants:
//   - Token.Text is the exact source spelling (no escapes resolved).
//   - For lexed tokens Span matches Text exactly.
//   - Tokens produced by macro expansion carry FlagFromMacro; their Span is
//     the expansion site (the macro name at the use) and Spelling points into
//     the macro definition.
//   - Comments and whitespace never appear in the token stream; they are
//     attached to the following token as Leading trivia.
package token
