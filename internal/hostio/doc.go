// Package hostio provides the collaborators the node needs when it runs as
// a process on a Linux host rather than as firmware: the system clock, a
// sleeper that blocks instead of powering down, a sensor that reads samples
// from a file, and an SMS modem backed by an smsd outbox directory.
package hostio
