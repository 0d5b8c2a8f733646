package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"salesreport/internal/chart"
	"salesreport/internal/report"
)

// Fixed report file names.
const (
	KPIsFile        = "kpis.json"
	RegionFile      = "sales_by_region.csv"
	MonthFile       = "sales_by_month.csv"
	TopProductsFile = "top10_products_by_profit.csv"
	CategoryFile    = "category_sales_profit.csv"
	SegmentFile     = "segment_sales.csv"
	ChartFile       = "sales_by_month.png"
)

// FormatFloat renders v with the shortest decimal form that round-trips.
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// ReportArtifacts returns the seven files every run produces.
func ReportArtifacts(rep report.Report, chartOpt chart.Options) []Artifact {
	region := make([][]string, len(rep.ByRegion))
	for i, r := range rep.ByRegion {
		region[i] = []string{r.Region, FormatFloat(r.Sales)}
	}
	month := make([][]string, len(rep.ByMonth))
	for i, r := range rep.ByMonth {
		month[i] = []string{r.Month, FormatFloat(r.Sales)}
	}
	top := make([][]string, len(rep.TopProducts))
	for i, r := range rep.TopProducts {
		top[i] = []string{r.ProductName, FormatFloat(r.Profit)}
	}
	cat := make([][]string, len(rep.ByCategory))
	for i, r := range rep.ByCategory {
		cat[i] = []string{r.Category, FormatFloat(r.Sales), FormatFloat(r.Profit)}
	}
	seg := make([][]string, len(rep.BySegment))
	for i, r := range rep.BySegment {
		seg[i] = []string{r.Segment, FormatFloat(r.Sales)}
	}

	return []Artifact{
		{Name: KPIsFile, Write: func(w io.Writer) error { return writeJSON(w, rep.KPIs) }},
		csvArtifact(RegionFile, []string{"region", "sales"}, region),
		csvArtifact(MonthFile, []string{"month", "sales"}, month),
		csvArtifact(TopProductsFile, []string{"product_name", "profit"}, top),
		csvArtifact(CategoryFile, []string{"category", "sales", "profit"}, cat),
		csvArtifact(SegmentFile, []string{"segment", "sales"}, seg),
		{Name: ChartFile, Write: func(w io.Writer) error { return chart.RenderMonthlySales(w, rep.ByMonth, chartOpt) }},
	}
}

func csvArtifact(name string, header []string, rows [][]string) Artifact {
	return Artifact{Name: name, Write: func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	}}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
