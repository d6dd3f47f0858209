package dashboard

import (
	"sort"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// SalesView is the sales performance page.
type SalesView struct {
	KPIs       []KPI        `json:"kpis"`
	Trend      Trend        `json:"trend"`
	ByCategory Groups       `json:"by_category"`
	Scatter    Scatter      `json:"scatter"`
	Discount   Distribution `json:"discount_distribution"`
	TotalCost  Distribution `json:"total_cost_distribution"`
	LossMakers Table        `json:"loss_makers"`
}

// Scatter pairs sales with profit per row, tagged with segment and discount
// when those columns exist.
type Scatter struct {
	Section
	Points []ScatterPoint `json:"points,omitempty"`
}

type ScatterPoint struct {
	Sales    float64  `json:"sales"`
	Profit   float64  `json:"profit"`
	Segment  string   `json:"segment,omitempty"`
	Discount *float64 `json:"discount,omitempty"`
}

var lossColumns = []table.Metric{
	table.OrderID, table.Product, table.SubCat, table.Category,
	table.Sales, table.Profit, table.Cost, table.Discount,
}

// Sales computes the sales page.
func Sales(t *table.Table, p Params) SalesView {
	p = p.withDefaults()
	c := resolve(t, table.Sales, table.Quantity, table.Cost, table.GrossSales, table.Profit, table.Discount,
		table.MonthYear, table.Category, table.Segment, table.OrderID, table.Product, table.SubCat)

	return SalesView{
		KPIs: []KPI{
			c.sumKPI("total_sales", "Total sales", table.Sales),
			c.sumKPI("total_quantity", "Total quantity", table.Quantity),
			c.sumKPI("total_cost", "Total cost", table.Cost),
			c.sumKPI("total_gross_sales", "Total gross sales", table.GrossSales),
			c.sumKPI("total_profit", "Total profit", table.Profit),
			discountKPI(c),
		},
		Trend:      c.trend(table.GrossSales, table.Sales, table.Profit),
		ByCategory: c.groups("sales by category", []table.Metric{table.Category}, []table.Metric{table.Sales, table.Profit}, 0, 0, false),
		Scatter:    scatter(c),
		Discount:   c.distribution(table.Discount, p.HistogramBins),
		TotalCost:  c.distribution(table.Cost, p.HistogramBins),
		LossMakers: lossMakers(c, p.RankTopN),
	}
}

func discountKPI(c columns) KPI {
	const key, label = "mean_discount_pct", "Mean discount %"
	if !c.has(table.Discount) {
		return missingKPI(key, label)
	}
	m, ok := analysis.Mean(c.col(table.Discount))
	if !ok {
		return missingKPI(key, label)
	}
	return kpi(key, label, m*100)
}

func scatter(c columns) Scatter {
	sec := c.need("sales vs profit scatter", table.Sales, table.Profit)
	if !sec.Available {
		return Scatter{Section: sec}
	}
	sales, profit := c.col(table.Sales), c.col(table.Profit)
	var seg, disc *table.Column
	if c.has(table.Segment) {
		seg = c.col(table.Segment)
	}
	if c.has(table.Discount) {
		disc = c.col(table.Discount)
	}
	s := Scatter{Section: available()}
	for i := 0; i < sales.Len(); i++ {
		sv, ok1 := sales.Float(i)
		pv, ok2 := profit.Float(i)
		if !ok1 || !ok2 {
			continue
		}
		pt := ScatterPoint{Sales: sv, Profit: pv}
		if seg != nil {
			pt.Segment = seg.String(i)
		}
		if disc != nil {
			if d, ok := disc.Float(i); ok {
				pt.Discount = &d
			}
		}
		s.Points = append(s.Points, pt)
	}
	return s
}

// lossMakers lists the n rows with the most negative profit.
func lossMakers(c columns, n int) Table {
	if !c.has(table.Profit) {
		return Table{Section: unavailable("loss makers need the profit column", string(table.Profit))}
	}
	profit := c.col(table.Profit)
	var rows []int
	for i := 0; i < profit.Len(); i++ {
		if v, ok := profit.Float(i); ok && v < 0 {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		va, _ := profit.Float(rows[a])
		vb, _ := profit.Float(rows[b])
		return va < vb
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	var cols []*table.Column
	out := Table{Section: available()}
	for _, m := range lossColumns {
		if c.has(m) {
			cols = append(cols, c.col(m))
			out.Columns = append(out.Columns, c.name(m))
		}
	}
	for _, r := range rows {
		rec := make([]string, len(cols))
		for j, col := range cols {
			rec[j] = col.String(r)
		}
		out.Rows = append(out.Rows, rec)
	}
	if len(out.Rows) == 0 {
		out.Notice = "no loss-making rows in the current selection"
	}
	return out
}
