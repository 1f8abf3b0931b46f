package hold

import "io"

// Source creates wake holds.
//
// A hold is held from the moment Acquire returns and released by closing
// the returned Closer. Closing also destroys the hold's backing record;
// a hold must not be used after Close. Acquiring twice without an
// intervening Close is a caller error, the overlap is not defined.
type Source interface {

	// Acquire creates and immediately holds a named wake hold.
	// who identifies the program holding it, why states the reason.
	// While the hold is open the platform must not enter low-power
	// sleep.
	Acquire(who string, why string) (io.Closer, error)
}
