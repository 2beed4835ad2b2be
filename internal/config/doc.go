// Package config defines updater settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the managed plugin identity, the early-access channel
// host URL and the paths of the files the updater persists state to.
package config
