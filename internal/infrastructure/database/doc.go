// Package database opens and migrates the SQLite registry store.
//
// The store holds two tables, devices and entities, mirroring the Home
// Assistant registries the watcher tracks. Repositories in the registry
// package query the embedded *sql.DB directly; this package owns the
// connection lifecycle, the schema_migrations bookkeeping, and health checks.
//
// WAL mode keeps registry reads from blocking snapshot writes, and the
// database file is chmodded to 0600 after creation.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
