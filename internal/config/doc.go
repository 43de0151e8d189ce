// Package config turns compile commands and project files into the
// resolved compiler configuration a session runs with.
//
// ParseCommand understands the clang-style driver flags the front end cares
// about (search paths, macro definitions, forced includes, language and
// standard, error limit) and reports everything else as configuration-time
// diagnostics instead of failing. Project settings come from unitd.toml,
// found by walking up from the main file's directory.
package config
