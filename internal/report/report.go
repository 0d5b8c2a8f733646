package report

import "salesreport/internal/transformer"

// Report bundles the KPI summary and the five rollups of one run.
type Report struct {
	KPIs        KPIs
	ByRegion    []RegionSales
	ByMonth     []MonthSales
	TopProducts []ProductProfit
	ByCategory  []CategoryTotals
	BySegment   []SegmentTotal
}

// Build computes every table from the cleaned records.
func Build(recs []transformer.Record, hasDiscount bool, topN int) Report {
	return Report{
		KPIs:        ComputeKPIs(recs, hasDiscount),
		ByRegion:    SalesByRegion(recs),
		ByMonth:     SalesByMonth(recs),
		TopProducts: TopProductsByProfit(recs, topN),
		ByCategory:  CategorySalesProfit(recs),
		BySegment:   SegmentSales(recs),
	}
}
