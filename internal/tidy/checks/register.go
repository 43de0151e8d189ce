// Package checks holds the checks shipped with unitd.
package checks

import (
	"unitd/internal/tidy"
)

var all = map[string]tidy.Factory{
	"readability-duplicate-include": newDuplicateInclude,
	"readability-identifier-length": newIdentifierLength,
	"bugprone-mutable-global":       newMutableGlobal,
	"misc-macro-parentheses":        newMacroParentheses,
}

// Register adds every shipped check to reg.
func Register(reg *tidy.Registry) error {
	for name, f := range all {
		if err := reg.Register(name, f); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the shipped checks.
func NewRegistry() *tidy.Registry {
	reg := tidy.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}
