// Package plugins is the I/O boundary for actually fetching and applying
// plugin binaries.
//
// The Tracker interface mirrors the host environment's plugin-state tracker:
// a descriptor is registered as pending, prepared (downloaded and verified),
// applied, and the pending entry is cleared when the cycle's outcome is
// delivered. FileTracker is the file-backed default: artifacts are fetched
// over HTTP into a temporary directory, verified against their SHA-512
// checksum and applied atomically via go-update.
package plugins
