// Package database provides SQLite connectivity for the node's sqlite
// storage backend.
//
// This package manages:
//   - Opening the database file with synchronous=FULL so commits survive
//     power loss
//   - Forward-only schema migrations embedded in the binary
//   - Health checks and lifecycle management
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// The records table itself is owned by package store; this package only
// knows how to open the file and bring its schema up to date.
package database
