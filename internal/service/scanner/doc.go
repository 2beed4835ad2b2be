// Package scanner queries repository hosts, in sequence, for plugin version
// descriptors and selects the best candidate across all hosts.
package scanner
