// Package all wires every built-in storage backend into the storage factory.
//
// Importing it (as a blank import) runs the init functions of each backend,
// which register their factories and DDL bootstrappers:
//
//   - "postgres" (salesreport/internal/storage/postgres)
//   - "mssql"    (salesreport/internal/storage/mssql)
//   - "mysql"    (salesreport/internal/storage/mysql)
//   - "sqlite"   (salesreport/internal/storage/sqlite)
//
// Typical usage, in cmd/salesreport:
//
//	import _ "salesreport/internal/storage/all"
//
//	n, err := storage.Sink(ctx, storage.SinkOptions{Kind: cfg.Storage.Kind, ...}, recs)
package all

import (
	_ "salesreport/internal/storage/mssql"
	_ "salesreport/internal/storage/mysql"
	_ "salesreport/internal/storage/postgres"
	_ "salesreport/internal/storage/sqlite"
)
