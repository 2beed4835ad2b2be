// Package installer runs the install task: registering the selected
// descriptor with the plugin-state tracker, preparing and applying the
// update, and delivering exactly one terminal outcome per invocation.
//
// A marker file guards against two installs running in parallel; stale
// markers are recovered the same way stale updater processes are cleaned up.
package installer
