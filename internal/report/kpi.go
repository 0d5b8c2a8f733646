// Package report computes the KPI summary and the grouped rollups over the
// cleaned record set. Everything here is pure and single-threaded.
package report

import (
	"encoding/json"
	"math"

	"salesreport/internal/transformer"
)

// KPIs is the fixed-shape summary written to kpis.json. AvgDiscount is nil
// when no discount column was resolved or no record carries a discount.
type KPIs struct {
	TotalSales  float64  `json:"total_sales"`
	TotalProfit float64  `json:"total_profit"`
	AvgDiscount *float64 `json:"avg_discount"`
	Orders      int      `json:"orders"`
}

// MarshalJSON writes non-finite totals (sums that overflowed float64) as
// null, since JSON has no representation for them.
func (k KPIs) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalSales  *float64 `json:"total_sales"`
		TotalProfit *float64 `json:"total_profit"`
		AvgDiscount *float64 `json:"avg_discount"`
		Orders      int      `json:"orders"`
	}{finite(k.TotalSales), finite(k.TotalProfit), k.AvgDiscount, k.Orders})
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ComputeKPIs sums sales and profit in record order, averages the present
// discounts and counts distinct non-empty order ids.
func ComputeKPIs(recs []transformer.Record, hasDiscount bool) KPIs {
	var k KPIs
	var discSum float64
	var discN int
	orders := make(map[string]struct{})

	for _, r := range recs {
		k.TotalSales += r.Sales
		k.TotalProfit += r.Profit
		if hasDiscount && r.Discount.Valid {
			discSum += r.Discount.Float64
			discN++
		}
		if r.OrderID != "" {
			orders[r.OrderID] = struct{}{}
		}
	}
	if discN > 0 {
		avg := discSum / float64(discN)
		k.AvgDiscount = &avg
	}
	k.Orders = len(orders)
	return k
}
