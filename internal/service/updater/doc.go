// Package updater drives the early-access subscription toggle.
//
// A toggle either ends the subscription outright or runs one
// scan -> decide -> install cycle: the registered hosts are scanned for a
// newer plugin version, the user confirms with a three-way choice, and an
// accepted candidate is installed as a background task. Scan and install
// each deliver exactly one terminal outcome, and every terminal state of a
// cycle emits exactly one user notification.
package updater
