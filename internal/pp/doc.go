// Package pp is the C preprocessor of the front end.
//
// A Preprocessor owns a stack of lexers (one per entered file), the macro
// table, the conditional stacks and header search. It produces the
// macro-expanded token stream the parser consumes and reports what it sees
// to an explicit, ordered list of Callbacks.
//
// Listener order: AddCallbacks appends, and every event is delivered to the
// listeners in registration order, oldest first. A listener registered
// later therefore observes an event after every earlier listener has
// finished handling it.
//
// The main file is entered first, then the synthetic "<built-in>" prologue
// holding predefined macros, command-line -D/-U and forced includes. Leaving
// the prologue fires FileChanged(ExitFile) with prev set to the prologue's
// FileID; preamble replay keys on that event.
package pp
