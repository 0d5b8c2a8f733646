// Package transformer turns raw table rows into cleaned, typed report records.
//
// Cleaning runs three steps per row:
//   - coercion: date and numeric cells become tagged optionals (NullDate,
//     NullFloat); bad cells are never errors
//   - filtering: rows missing sales, profit, or order date are dropped
//   - derivation: Year and Month ("YYYY-MM") come from the order date
//
// A per-field column plan is compiled once so the row loop does positional
// lookups only.
package transformer

import (
	"fmt"

	pcsv "salesreport/internal/parser/csv"
	"salesreport/internal/schema"
)

// Record is one cleaned order line.
type Record struct {
	OrderID     string
	OrderDate   NullDate
	ShipDate    NullDate
	Country     string
	Region      string
	Segment     string
	Category    string
	SubCategory string
	ProductName string
	Sales       float64
	Quantity    NullFloat
	Discount    NullFloat
	Profit      float64

	Year  int
	Month string
}

// Drop reasons reported through the onReject callback of Clean.
const (
	ReasonMissingSales     = "missing sales"
	ReasonMissingProfit    = "missing profit"
	ReasonMissingOrderDate = "missing order date"
)

// Stats summarizes one Clean call. A row missing several required values
// counts once in Dropped and once under each matching reason.
type Stats struct {
	RowsRead int `json:"rows_read"`
	RowsKept int `json:"rows_kept"`
	Dropped  int `json:"rows_dropped"`

	MissingSales     int `json:"missing_sales"`
	MissingProfit    int `json:"missing_profit"`
	MissingOrderDate int `json:"missing_order_date"`

	// Date cells that were empty or could not be parsed, kept rows included.
	OrderDateMisses int `json:"order_date_misses"`
	ShipDateMisses  int `json:"ship_date_misses"`

	// HasDiscount is false when the discount column was not resolved.
	HasDiscount bool `json:"has_discount"`
}

// plan holds the column index for every logical field, -1 when the field is
// absent from the mapping.
type plan map[schema.Field]int

func compilePlan(header []string, m schema.Mapping) (plan, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	p := make(plan, len(schema.DefaultFields()))
	for _, spec := range schema.DefaultFields() {
		col, ok := m.Column(spec.Field)
		if !ok {
			p[spec.Field] = -1
			continue
		}
		ix, ok := pos[col]
		if !ok {
			return nil, fmt.Errorf("mapped column %q for %s not in header", col, spec.Field)
		}
		p[spec.Field] = ix
	}
	return p, nil
}

func (p plan) cell(row []string, f schema.Field) string {
	ix := p[f]
	if ix < 0 || ix >= len(row) {
		return ""
	}
	return row[ix]
}

// Clean coerces, filters and derives every row of t using mapping m. Records
// come back in input order. onReject, when non-nil, is called for each
// dropped row with its zero-based data row index and the reasons.
func Clean(t *pcsv.Table, m schema.Mapping, onReject func(row int, reasons []string)) ([]Record, Stats, error) {
	p, err := compilePlan(t.Header, m)
	if err != nil {
		return nil, Stats{}, err
	}

	st := Stats{RowsRead: len(t.Rows), HasDiscount: p[schema.Discount] >= 0}
	out := make([]Record, 0, len(t.Rows))

	for i, row := range t.Rows {
		rec := Record{
			OrderID:     p.cell(row, schema.OrderID),
			OrderDate:   ParseDate(p.cell(row, schema.OrderDate)),
			ShipDate:    ParseDate(p.cell(row, schema.ShipDate)),
			Country:     p.cell(row, schema.Country),
			Region:      p.cell(row, schema.Region),
			Segment:     p.cell(row, schema.Segment),
			Category:    p.cell(row, schema.Category),
			SubCategory: p.cell(row, schema.SubCategory),
			ProductName: p.cell(row, schema.ProductName),
			Quantity:    ParseNumber(p.cell(row, schema.Quantity)),
			Discount:    ParseNumber(p.cell(row, schema.Discount)),
		}
		sales := ParseNumber(p.cell(row, schema.Sales))
		profit := ParseNumber(p.cell(row, schema.Profit))

		if !rec.OrderDate.Valid {
			st.OrderDateMisses++
		}
		if !rec.ShipDate.Valid {
			st.ShipDateMisses++
		}

		var reasons []string
		if !sales.Valid {
			st.MissingSales++
			reasons = append(reasons, ReasonMissingSales)
		}
		if !profit.Valid {
			st.MissingProfit++
			reasons = append(reasons, ReasonMissingProfit)
		}
		if !rec.OrderDate.Valid {
			st.MissingOrderDate++
			reasons = append(reasons, ReasonMissingOrderDate)
		}
		if len(reasons) > 0 {
			st.Dropped++
			if onReject != nil {
				onReject(i, reasons)
			}
			continue
		}

		rec.Sales = sales.Float64
		rec.Profit = profit.Float64
		rec.Year = rec.OrderDate.Time.Year()
		rec.Month = rec.OrderDate.Time.Format("2006-01")
		out = append(out, rec)
	}

	st.RowsKept = len(out)
	return out, st, nil
}
