// Package clock provides a tiny time abstraction.
//
// Expiry decisions read time through Clocker so tests can drive them with a
// Frozen clock instead of sleeping.
package clock
