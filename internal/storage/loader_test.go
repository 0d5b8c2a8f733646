package storage

import (
	"context"
	"errors"
	"testing"
)

func TestWriteRecords_Batches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		n         int
		batchSize int
		want      []int
	}{
		{name: "uneven_tail", n: 7, batchSize: 3, want: []int{3, 3, 1}},
		{name: "exact", n: 4, batchSize: 2, want: []int{2, 2}},
		{name: "batch_larger_than_input", n: 3, batchSize: 100, want: []int{3}},
		{name: "zero_means_one_batch", n: 5, batchSize: 0, want: []int{5}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeRepo{}
			n, err := WriteRecords(context.Background(), repo, "run-7", sampleRecords(c.n), c.batchSize)
			if err != nil {
				t.Fatalf("WriteRecords: %v", err)
			}
			if n != int64(c.n) {
				t.Fatalf("inserted = %d, want %d", n, c.n)
			}
			if len(repo.batches) != len(c.want) {
				t.Fatalf("batches = %d, want %d", len(repo.batches), len(c.want))
			}
			for i, b := range repo.batches {
				if len(b) != c.want[i] {
					t.Fatalf("batch %d has %d rows, want %d", i, len(b), c.want[i])
				}
			}
		})
	}
}

func TestWriteRecords_RowsFollowRecordOrder(t *testing.T) {
	t.Parallel()

	recs := sampleRecords(5)
	repo := &fakeRepo{}
	if _, err := WriteRecords(context.Background(), repo, "run-7", recs, 2); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	cols := CleanedColumns()
	salesIx := -1
	for i, c := range cols {
		if c == "sales" {
			salesIx = i
		}
	}
	var i int
	for _, b := range repo.batches {
		for _, row := range b {
			if row[0] != "run-7" {
				t.Fatalf("row %d run_id = %v, want run-7", i, row[0])
			}
			if row[salesIx] != recs[i].Sales {
				t.Fatalf("row %d sales = %v, want %v", i, row[salesIx], recs[i].Sales)
			}
			i++
		}
	}
	if i != len(recs) {
		t.Fatalf("loaded %d rows, want %d", i, len(recs))
	}
}

func TestWriteRecords_StopsAtFirstFailedBatch(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{failAt: 2}
	n, err := WriteRecords(context.Background(), repo, "r", sampleRecords(10), 3)
	if err == nil {
		t.Fatal("expected copy error")
	}
	if n != 3 {
		t.Fatalf("inserted = %d, want 3 from the first batch", n)
	}
	if len(repo.batches) != 2 {
		t.Fatalf("CopyFrom calls = %d, want 2", len(repo.batches))
	}
}

func TestWriteRecords_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeRepo{}
	n, err := WriteRecords(ctx, repo, "r", sampleRecords(4), 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n != 0 || len(repo.batches) != 0 {
		t.Fatalf("inserted=%d batches=%d after cancel, want none", n, len(repo.batches))
	}
}

func TestWriteRecords_Empty(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	n, err := WriteRecords(context.Background(), repo, "r", nil, 10)
	if err != nil || n != 0 || len(repo.batches) != 0 {
		t.Fatalf("n=%d err=%v batches=%d", n, err, len(repo.batches))
	}
}
