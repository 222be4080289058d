// Package migrations contains dialect-aware Go database migrations. The books
// table needs a different auto-increment and timestamp syntax per database, so
// every schema change lives here instead of in a shared .sql file.
package migrations

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect for Go migrations.
// Must be called before goose.Up. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}
