package report

import (
	"sort"

	"salesreport/internal/transformer"
)

// DefaultTopN is the number of products kept by TopProductsByProfit.
const DefaultTopN = 10

// RegionSales is one row of sales_by_region.csv.
type RegionSales struct {
	Region string
	Sales  float64
}

// MonthSales is one row of sales_by_month.csv.
type MonthSales struct {
	Month string
	Sales float64
}

// ProductProfit is one row of top10_products_by_profit.csv.
type ProductProfit struct {
	ProductName string
	Profit      float64
}

// CategoryTotals is one row of category_sales_profit.csv.
type CategoryTotals struct {
	Category string
	Sales    float64
	Profit   float64
}

// SegmentTotal is one row of segment_sales.csv.
type SegmentTotal struct {
	Segment string
	Sales   float64
}

// group accumulates one or two sums per key, in record order. An empty key is
// its own group so every rollup partitions the record set.
type group struct {
	keys []string
	a, b map[string]float64
}

func groupBy(recs []transformer.Record, key func(transformer.Record) string, a, b func(transformer.Record) float64) group {
	g := group{a: make(map[string]float64), b: make(map[string]float64)}
	for _, r := range recs {
		k := key(r)
		if _, seen := g.a[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.a[k] += a(r)
		if b != nil {
			g.b[k] += b(r)
		}
	}
	sort.Strings(g.keys)
	return g
}

func sales(r transformer.Record) float64  { return r.Sales }
func profit(r transformer.Record) float64 { return r.Profit }

// SalesByRegion sums sales per region, sorted by region.
func SalesByRegion(recs []transformer.Record) []RegionSales {
	g := groupBy(recs, func(r transformer.Record) string { return r.Region }, sales, nil)
	out := make([]RegionSales, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, RegionSales{Region: k, Sales: g.a[k]})
	}
	return out
}

// SalesByMonth sums sales per "YYYY-MM" month, ascending.
func SalesByMonth(recs []transformer.Record) []MonthSales {
	g := groupBy(recs, func(r transformer.Record) string { return r.Month }, sales, nil)
	out := make([]MonthSales, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, MonthSales{Month: k, Sales: g.a[k]})
	}
	return out
}

// TopProductsByProfit sums profit per product and returns the n most
// profitable, ties broken by product name ascending. n <= 0 means
// DefaultTopN.
func TopProductsByProfit(recs []transformer.Record, n int) []ProductProfit {
	if n <= 0 {
		n = DefaultTopN
	}
	g := groupBy(recs, func(r transformer.Record) string { return r.ProductName }, profit, nil)
	out := make([]ProductProfit, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, ProductProfit{ProductName: k, Profit: g.a[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].ProductName < out[j].ProductName
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CategorySalesProfit sums sales and profit per category, sorted by category.
func CategorySalesProfit(recs []transformer.Record) []CategoryTotals {
	g := groupBy(recs, func(r transformer.Record) string { return r.Category }, sales, profit)
	out := make([]CategoryTotals, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, CategoryTotals{Category: k, Sales: g.a[k], Profit: g.b[k]})
	}
	return out
}

// SegmentSales sums sales per segment, sorted by segment.
func SegmentSales(recs []transformer.Record) []SegmentTotal {
	g := groupBy(recs, func(r transformer.Record) string { return r.Segment }, sales, nil)
	out := make([]SegmentTotal, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, SegmentTotal{Segment: k, Sales: g.a[k]})
	}
	return out
}
