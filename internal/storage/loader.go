package storage

import (
	"context"
	"log"
	"time"

	"salesreport/internal/transformer"
)

// WriteRecords loads recs into repo in input order, batchSize rows per
// CopyFrom call (all rows in one call when batchSize <= 0). Every row is
// tagged with runID. It returns the rows the backend reported as inserted,
// including a partial count from a failing batch.
//
// The context is checked between batches; a canceled run stops before the
// next CopyFrom and returns ctx.Err().
func WriteRecords(ctx context.Context, repo Repository, runID string, recs []transformer.Record, batchSize int) (int64, error) {
	if len(recs) == 0 {
		log.Printf("storage: no records to load")
		return 0, nil
	}
	if batchSize <= 0 || batchSize > len(recs) {
		batchSize = len(recs)
	}

	cols := CleanedColumns()
	rows := make([][]any, 0, batchSize)
	p := progress{start: time.Now()}
	p.last = p.start

	for lo := 0; lo < len(recs); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return p.total, err
		}
		hi := min(lo+batchSize, len(recs))

		rows = rows[:0]
		for _, r := range recs[lo:hi] {
			rows = append(rows, RecordRow(runID, r))
		}

		n, err := repo.CopyFrom(ctx, cols, rows)
		p.total += n
		if err != nil {
			log.Printf("storage: batch #%d failed (records %d-%d) inserted=%d total=%d: %v",
				p.batches+1, lo+1, hi, n, p.total, err)
			return p.total, err
		}
		p.batch(n)
	}

	log.Printf("storage: loaded %d records in %d batches (%s)",
		p.total, p.batches, time.Since(p.start).Truncate(time.Millisecond))
	return p.total, nil
}

// progress tracks running totals for the per-batch log line.
type progress struct {
	start, last time.Time
	total       int64
	batches     int
}

func (p *progress) batch(n int64) {
	p.batches++
	now := time.Now()
	since := now.Sub(p.last)
	rps := float64(0)
	if since > 0 {
		rps = float64(n) / since.Seconds()
	}
	log.Printf("storage: batch #%d rows=%d rps=%.0f total_inserted=%d elapsed=%s",
		p.batches, n, rps, p.total, now.Sub(p.start).Truncate(time.Millisecond))
	p.last = now
}
