// Package update holds the domain model of the early-access update flow:
// plugin descriptors advertised by repository hosts, the downloader handle
// binding one descriptor to a target build, and the terminal outcome of a
// background operation.
package update
