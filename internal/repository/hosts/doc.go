// Package hosts persists the set of registered repository hosts.
//
// The registry is the only mutable shared state the updater owns: the
// scanner reads it concurrently while toggle calls mutate it one host at a
// time. The file-backed implementation stores the set as YAML so it
// survives process restarts; the in-memory implementation backs tests.
package hosts
