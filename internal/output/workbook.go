package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salesreport/internal/report"
)

// WorkbookFile is the optional spreadsheet export of the report tables.
const WorkbookFile = "sales_report.xlsx"

// Sheet names, one per table.
const (
	sheetKPIs     = "kpis"
	sheetRegion   = "sales_by_region"
	sheetMonth    = "sales_by_month"
	sheetTop      = "top_products"
	sheetCategory = "category_sales_profit"
	sheetSegment  = "segment_sales"
)

// WorkbookArtifact writes every table to its own sheet plus a native line
// chart of monthly sales next to the month table.
func WorkbookArtifact(rep report.Report, chartTitle string) Artifact {
	return Artifact{Name: WorkbookFile, Write: func(w io.Writer) error {
		f := excelize.NewFile()
		defer f.Close()

		if err := f.SetSheetName("Sheet1", sheetKPIs); err != nil {
			return err
		}
		var avg any
		if rep.KPIs.AvgDiscount != nil {
			avg = *rep.KPIs.AvgDiscount
		}
		if err := setRows(f, sheetKPIs, []string{"metric", "value"}, [][]any{
			{"total_sales", rep.KPIs.TotalSales},
			{"total_profit", rep.KPIs.TotalProfit},
			{"avg_discount", avg},
			{"orders", rep.KPIs.Orders},
		}); err != nil {
			return err
		}

		tables := []struct {
			sheet  string
			header []string
			rows   [][]any
		}{
			{sheetRegion, []string{"region", "sales"}, rowsOf(rep.ByRegion, func(r report.RegionSales) []any { return []any{r.Region, r.Sales} })},
			{sheetMonth, []string{"month", "sales"}, rowsOf(rep.ByMonth, func(r report.MonthSales) []any { return []any{r.Month, r.Sales} })},
			{sheetTop, []string{"product_name", "profit"}, rowsOf(rep.TopProducts, func(r report.ProductProfit) []any { return []any{r.ProductName, r.Profit} })},
			{sheetCategory, []string{"category", "sales", "profit"}, rowsOf(rep.ByCategory, func(r report.CategoryTotals) []any { return []any{r.Category, r.Sales, r.Profit} })},
			{sheetSegment, []string{"segment", "sales"}, rowsOf(rep.BySegment, func(r report.SegmentTotal) []any { return []any{r.Segment, r.Sales} })},
		}
		for _, t := range tables {
			if _, err := f.NewSheet(t.sheet); err != nil {
				return fmt.Errorf("sheet %s: %w", t.sheet, err)
			}
			if err := setRows(f, t.sheet, t.header, t.rows); err != nil {
				return err
			}
		}

		if n := len(rep.ByMonth); n > 0 {
			last := n + 1
			if err := f.AddChart(sheetMonth, "D2", &excelize.Chart{
				Type: excelize.Line,
				Series: []excelize.ChartSeries{{
					Name:       fmt.Sprintf("%s!$B$1", sheetMonth),
					Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetMonth, last),
					Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheetMonth, last),
				}},
				Title:  []excelize.RichTextRun{{Text: chartTitle}},
				Legend: excelize.ChartLegend{Position: "none"},
			}); err != nil {
				return fmt.Errorf("chart: %w", err)
			}
		}

		return f.Write(w)
	}}
}

func rowsOf[T any](in []T, fn func(T) []any) [][]any {
	out := make([][]any, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func setRows(f *excelize.File, sheet string, header []string, rows [][]any) error {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := r
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
