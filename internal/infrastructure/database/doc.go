// Package database provides the SQLite store backing hearthctl's local
// state history.
//
// It manages:
//   - The connection, opened in WAL mode so the relay can append while
//     the CLI reads
//   - Embedded schema migrations, applied in version order
//   - File permissions (0600, the history can reveal occupancy)
//
// Usage:
//
//	db, err := database.Open(cfg.Relay.History.Path)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations/ directory and are
// embedded into the binary; each change ships an .up.sql and a
// .down.sql.
package database
