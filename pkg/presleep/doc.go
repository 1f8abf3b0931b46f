// Package presleep provides a priority-ordered suspend/resume hook
// chain tied to the display power pipeline.
//
// The chain fires on the user-visible sleep transition, which is a
// separate trigger from the global suspend/resume bus: the display can
// go dark well before the platform actually suspends. Suspend hooks
// run from the lowest level up, resume hooks from the highest level
// down, the strict inverse.
//
// WaylandWatcher drives a Chain from the compositor's idle state via
// the ext-idle-notify protocol.
package presleep
