// Package channel manages membership in the early-access release channel
// on top of the persisted host registry.
package channel
