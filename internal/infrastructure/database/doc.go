// Package database provides the SQLite connection behind the session
// journal.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Applying embedded schema migrations (one transaction each)
//   - Connection lifecycle and health checks
//
// The database file is created with 0600 permissions. All queries in this
// module use ? placeholders.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
