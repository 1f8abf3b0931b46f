// Package pmbus provides the global suspend/resume notification bus.
//
// The bus delivers two-phase sleep transition events: a prepare event
// before the platform suspends or hibernates and a post event once it
// is back. Handlers observe the events, report whether they handled
// them, and can neither delay nor veto the transition.
//
// Dispatcher is the in-process bus. DbusSource feeds a Dispatcher from
// systemd-logind's PrepareForSleep signal so real platform transitions
// appear on it.
package pmbus
