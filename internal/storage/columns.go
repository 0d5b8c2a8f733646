package storage

import (
	"salesreport/internal/ddl"
	"salesreport/internal/transformer"
)

// cleanedColumns is the column layout of the cleaned-record table. run_id
// tags every row with the run that produced it.
var cleanedColumns = []ddl.ColumnDef{
	{Name: "run_id", Kind: ddl.KindText},
	{Name: "order_id", Kind: ddl.KindText},
	{Name: "order_date", Kind: ddl.KindDate},
	{Name: "ship_date", Kind: ddl.KindDate, Nullable: true},
	{Name: "country", Kind: ddl.KindText},
	{Name: "region", Kind: ddl.KindText},
	{Name: "segment", Kind: ddl.KindText},
	{Name: "category", Kind: ddl.KindText},
	{Name: "sub_category", Kind: ddl.KindText},
	{Name: "product_name", Kind: ddl.KindText},
	{Name: "sales", Kind: ddl.KindFloat},
	{Name: "quantity", Kind: ddl.KindFloat, Nullable: true},
	{Name: "discount", Kind: ddl.KindFloat, Nullable: true},
	{Name: "profit", Kind: ddl.KindFloat},
	{Name: "year", Kind: ddl.KindInt},
	{Name: "month", Kind: ddl.KindText},
}

// CleanedTable returns the table definition for the cleaned record set.
func CleanedTable(fqn string) ddl.TableDef {
	cols := make([]ddl.ColumnDef, len(cleanedColumns))
	copy(cols, cleanedColumns)
	return ddl.TableDef{FQN: fqn, Columns: cols}
}

// CleanedColumns returns the column names in CopyFrom order.
func CleanedColumns() []string {
	out := make([]string, len(cleanedColumns))
	for i, c := range cleanedColumns {
		out[i] = c.Name
	}
	return out
}

// RecordRow converts a cleaned record to a row aligned with CleanedColumns.
// Missing optionals become nil (SQL NULL).
func RecordRow(runID string, r transformer.Record) []any {
	return []any{
		runID,
		r.OrderID,
		r.OrderDate.Time,
		nullTime(r.ShipDate),
		r.Country,
		r.Region,
		r.Segment,
		r.Category,
		r.SubCategory,
		r.ProductName,
		r.Sales,
		nullFloat(r.Quantity),
		nullFloat(r.Discount),
		r.Profit,
		int64(r.Year),
		r.Month,
	}
}

func nullTime(d transformer.NullDate) any {
	if !d.Valid {
		return nil
	}
	return d.Time
}

func nullFloat(f transformer.NullFloat) any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}
