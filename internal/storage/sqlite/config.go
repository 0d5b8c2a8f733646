// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:report.db?cache=shared"
	//   "report.db" (interpreted by the driver)
	DSN string

	// Table is the target table name, e.g. "cleaned_orders". Dotted names
	// such as "main.cleaned_orders" are quoted segment by segment.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
