// Package database provides SQLite connectivity for the capture bridge.
//
// The bridge keeps one table of its own, capture_packets, which records
// every packet handed to a stream's observers (see internal/commandlog).
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is chmod 0600
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive-only. Each version has an .up.sql and a
// .down.sql file named YYYYMMDD_HHMMSS_description.
package database
