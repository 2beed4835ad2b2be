// Package version exposes build metadata for the project and the ordering
// used to rank plugin versions.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds.
// Compare defines a total order over version strings, including pre-release
// qualifiers, and never fails on malformed input.
package version
