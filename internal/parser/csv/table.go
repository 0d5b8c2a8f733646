// Package csv reads a delimited text table into memory.
//
// The report works on small-to-medium exports, so the whole table is held as
// a header row plus [][]string rows. Header cells keep their original
// spelling (minus a leading UTF-8 BOM); column matching is left to the
// schema resolver.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"salesreport/internal/config"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Table is an in-memory delimited table.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the header cell equal to name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ReadTable reads the header and every data row from r.
//
// Options (parser.options):
//   - comma (string, default ","): field delimiter
//   - trim_space (bool, default true): trim data cells
//   - lazy_quotes (bool, default false): tolerate stray quotes
//   - skip_bad_rows (bool, default false): skip malformed rows instead of failing
//
// Rows shorter than the header are padded with empty cells. A row that is
// longer than the header, or that encoding/csv rejects, fails the read with a
// *csv.ParseError (csv.ErrFieldCount for width). With skip_bad_rows the row is
// reported through onError (when non-nil) and skipped instead. Returns the
// table and the number of skipped rows.
func ReadTable(ctx context.Context, r io.Reader, opts config.Options, onError func(line int, err error)) (*Table, int, error) {
	cr := csv.NewReader(r)
	if comma := opts.Rune("comma", ','); comma != 0 {
		cr.Comma = comma
	}
	cr.LazyQuotes = opts.Bool("lazy_quotes", false)
	// Width is enforced below.
	cr.FieldsPerRecord = -1
	trim := opts.Bool("trim_space", true)
	skipBad := opts.Bool("skip_bad_rows", false)

	h, err := cr.Read()
	if err == io.EOF {
		return nil, 0, ErrNoHeader
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	t := &Table{Header: StripHeaderBOM(append([]string(nil), h...))}
	width := len(t.Header)

	skipped := 0
	for {
		select {
		case <-ctx.Done():
			return nil, skipped, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err == nil && len(rec) > width {
			line, _ := cr.FieldPos(0)
			err = &csv.ParseError{StartLine: line, Line: line, Column: 1, Err: csv.ErrFieldCount}
		}
		if err != nil {
			if !skipBad {
				return nil, skipped, fmt.Errorf("read csv: %w", err)
			}
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			skipped++
			if onError != nil {
				onError(line, fmt.Errorf("parse: %w", err))
			}
			continue
		}

		row := make([]string, width)
		for i, v := range rec {
			if trim {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, skipped, nil
}
