// Package storage contains the backend-agnostic contract for the optional
// database sink: a Repository interface, a kind-keyed factory registry, a DDL
// bootstrap registry and a batched loader.
//
// Concrete backends (postgres, sqlite, mysql, mssql) register themselves in
// init; callers import internal/storage/all and stay backend-agnostic.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal surface the sink needs from a backend.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns into the configured table
	// and returns the number of rows the backend reports as inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases the connection pool.
	Close()
}

// Config is the backend-agnostic repository configuration.
type Config struct {
	Kind  string // "postgres", "sqlite", "mysql", "mssql"
	DSN   string
	Table string // destination table, optionally schema-qualified

	// Columns is the ordered column list used by CopyFrom.
	Columns []string
}

// Factory builds a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
