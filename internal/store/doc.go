// Package store provides the persistent key-value medium every other
// component of the node writes through.
//
// Nothing lives across a power cycle except what is in a Store. Three
// implementations are provided:
//
//   - FS: one file per record under a root directory. This is the layout
//     earlier firmware wrote, so it is the default.
//   - SQLite: one row per record, for hosts where a database file is more
//     robust than a directory of small files.
//   - Memory: process-local, used by tests and bench runs.
//
// # Durability
//
// FS.Write goes through a temporary file, fsync and rename, so an
// interrupted write leaves either the old record or the new one. Stray
// temporary files are invisible to List and removed by Sweep. Appends are
// fsynced before returning.
//
// # Errors
//
// A full medium is reported as ErrFull and a read-only one as ErrReadOnly.
// Callers treat both as "no durable write this cycle".
package store
