package storage

import (
	"context"
	"fmt"

	"salesreport/internal/transformer"
)

// SinkOptions configures one write of the cleaned record set.
type SinkOptions struct {
	Kind            string
	DSN             string
	Table           string
	AutoCreateTable bool
	BatchSize       int
	RunID           string
}

// Sink opens the backend for opt.Kind, optionally creates the destination
// table, and loads recs in batches. It returns the inserted row count.
func Sink(ctx context.Context, opt SinkOptions, recs []transformer.Record) (int64, error) {
	repo, err := New(ctx, Config{
		Kind:    opt.Kind,
		DSN:     opt.DSN,
		Table:   opt.Table,
		Columns: CleanedColumns(),
	})
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", opt.Kind, err)
	}
	defer repo.Close()

	if opt.AutoCreateTable {
		if err := EnsureTable(ctx, opt.Kind, opt.Table, repo); err != nil {
			return 0, fmt.Errorf("ensure table %s: %w", opt.Table, err)
		}
	}
	return WriteRecords(ctx, repo, opt.RunID, recs, opt.BatchSize)
}
