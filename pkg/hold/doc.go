// Package hold provides wake holds: sleep-inhibiting tokens that keep
// the platform from entering low-power sleep while they are open.
// The default implementation takes block-mode inhibitor locks from
// systemd-logind using its D-Bus interface, [org.freedesktop.login1].
//
// [org.freedesktop.login1]: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.login1.html
package hold
