// Package sema checks C declarations as the parser completes them.
//
// The parser asks IsTypeName to tell declarations from expressions and
// hands every top-level declaration group to HandleTopLevelDecl. Sema keeps
// file and block scopes, binds identifiers to declarations and reports:
//   - undeclared identifiers and calls to undeclared functions;
//   - unknown type names;
//   - uses of incomplete struct/union types;
//   - redefinitions, with a note at the previous definition;
//   - wrong argument counts and missing members.
//
// Before an unresolved-name diagnostic is reported the ExternalSource, if
// any, is told about the name so it can prepare a repair.
//
// Snapshot exports file scope in a session-independent form (names, tags,
// locations by path); New seeds a later session from it.
package sema
