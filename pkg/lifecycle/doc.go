// Package lifecycle composes the wake hold, the suspend/resume bus
// monitor, the pre-sleep hook pair and the three periodic mechanisms
// into one coordinator with a fixed start order and the exact reverse
// stop order.
package lifecycle
