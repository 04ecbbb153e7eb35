// Package database provides row access helpers and the local SQLite store.
//
// This package manages:
//   - Dynamic row scanning (Record) shared by the MySQL and SQLite paths
//   - Identifier validation for schema-mapped table and column names
//   - A local SQLite database used as a development mirror of the remote store
//   - Additive schema migrations for that local mirror
//
// Security Considerations:
//   - Values are always bound as parameters
//   - Table and column names are validated with ValidateIdentifier before interpolation
//   - The local database file is created with 0600 permissions
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/poolwatch.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
//	users, err := database.QueryRecords(ctx, db, "SELECT * FROM Users WHERE UserId = ?", 7)
package database
