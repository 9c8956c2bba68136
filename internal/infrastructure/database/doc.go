// Package database provides the SQLite connection used by the link store.
//
// The database holds one generic table, kv_store, which backs every managed
// provider (item-channel links, item-thing links, things, items, rules).
// Schema changes ship as embedded migration files registered by the
// migrations package.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. Migrations are additive; existing columns are never
// renamed or dropped.
package database
