// Package periodic provides self-rearming periodic mechanisms with
// three distinct execution contexts:
//
//   - Cooperative runs on a shared worker pool with best-effort timing.
//   - Ticker fires directly on the timer facility's context; handlers
//     must be short and non-blocking.
//   - WakeAlarm is sourced from the real-time clock and, on platforms
//     that support it, wakes the system from sleep at expiry.
//
// Each mechanism re-arms itself at the end of every firing; nothing
// external re-triggers it. Stopping Cooperative and Ticker is
// cancel-and-wait: once Stop returns, no in-flight or future firing
// can be observed. Stopping WakeAlarm is best-effort synchronous, see
// WakeAlarm.Stop.
package periodic
