package storage

import (
	"context"
	"fmt"
	"sync"

	"salesreport/internal/ddl"
)

// DDLBootstrapper renders backend-specific DDL for def and applies it via
// repo.Exec. Backends register one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable creates the cleaned-record table named table when missing,
// using the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind, table string, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, CleanedTable(table))
}

// ApplyDDL is the common bootstrapper body: render with d, then Exec.
func ApplyDDL(ctx context.Context, d ddl.Dialect, repo Repository, def ddl.TableDef) error {
	stmt, err := ddl.BuildCreateTableSQL(d, def)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}
