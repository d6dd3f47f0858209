package dashboard

import (
	"fmt"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// ProductsView is the product and cohort page.
type ProductsView struct {
	KPIs          []KPI         `json:"kpis"`
	SegmentStacks SegmentStacks `json:"segment_stacks"`
	Pareto        ParetoSection `json:"pareto"`
	ProfitGains   Groups        `json:"profit_gains"`
	ProfitLosses  Groups        `json:"profit_losses"`
	Cohort        CohortSection `json:"cohort"`
}

// SegmentStacks holds category x sub_category sales per segment.
type SegmentStacks struct {
	Section
	Segments []SegmentStack `json:"segments,omitempty"`
}

type SegmentStack struct {
	Segment string              `json:"segment"`
	Rows    []analysis.GroupRow `json:"rows"`
}

// ParetoSection is the ABC analysis of products by sales.
type ParetoSection struct {
	Section
	Total      float64               `json:"total"`
	Products   int                   `json:"products"`
	TierCounts map[analysis.Tier]int `json:"tier_counts,omitempty"`
	Rows       []analysis.ParetoRow  `json:"rows,omitempty"`
}

// CohortSection is the customer retention matrix.
type CohortSection struct {
	Section
	Entity     string      `json:"entity,omitempty"`
	Normalized bool        `json:"normalized"`
	Cohorts    []string    `json:"cohorts,omitempty"`
	Offsets    []int       `json:"offsets,omitempty"`
	Sizes      []int       `json:"sizes,omitempty"`
	Values     [][]float64 `json:"values,omitempty"`
}

// Products computes the product page.
func Products(t *table.Table, p Params) ProductsView {
	p = p.withDefaults()
	c := resolve(t, table.Product, table.Sales, table.Profit, table.Quantity,
		table.Segment, table.Category, table.SubCat, table.Customer)
	return ProductsView{
		KPIs: []KPI{
			c.distinctKPI("unique_products", "Unique products", table.Product),
			c.sumKPI("total_sales", "Total sales", table.Sales),
			c.sumKPI("total_profit", "Total profit", table.Profit),
			c.sumKPI("total_quantity", "Total quantity", table.Quantity),
		},
		SegmentStacks: segmentStacks(c),
		Pareto:        pareto(c, p),
		ProfitGains:   c.groups("top product profits", []table.Metric{table.Product}, []table.Metric{table.Profit}, 0, p.RankTopN, false),
		ProfitLosses:  productLosses(c, p.RankTopN),
		Cohort:        Cohort(t, p),
	}
}

func segmentStacks(c columns) SegmentStacks {
	sec := c.need("segment breakdown", table.Segment, table.Category, table.SubCat, table.Sales)
	if !sec.Available {
		return SegmentStacks{Section: sec}
	}
	rows, err := analysis.GroupSum(c.t,
		[]string{c.name(table.Segment), c.name(table.Category), c.name(table.SubCat)},
		[]string{c.name(table.Sales)})
	if err != nil {
		return SegmentStacks{Section: unavailable(err.Error())}
	}
	s := SegmentStacks{Section: available()}
	idx := map[string]int{}
	for _, r := range rows {
		seg := r.Keys[0]
		i, ok := idx[seg]
		if !ok {
			i = len(s.Segments)
			idx[seg] = i
			s.Segments = append(s.Segments, SegmentStack{Segment: seg})
		}
		s.Segments[i].Rows = append(s.Segments[i].Rows, analysis.GroupRow{Keys: r.Keys[1:], Sums: r.Sums, Count: r.Count})
	}
	for i := range s.Segments {
		s.Segments[i].Rows = analysis.TopGroups(s.Segments[i].Rows, 0, 0, false)
	}
	return s
}

func pareto(c columns, p Params) ParetoSection {
	sec := c.need("Pareto analysis", table.Product, table.Sales)
	if !sec.Available {
		return ParetoSection{Section: sec}
	}
	pt, err := analysis.BuildPareto(c.t, c.name(table.Sales), c.name(table.Product))
	if err != nil {
		return ParetoSection{Section: unavailable(err.Error())}
	}
	out := ParetoSection{
		Section:    available(),
		Total:      pt.Total,
		Products:   len(pt.Rows),
		TierCounts: pt.TierCounts(),
	}
	rows := pt.Rows
	if len(p.ParetoTiers) > 0 {
		rows = pt.OnlyTiers(p.ParetoTiers...)
	}
	if p.ParetoTopN > 0 && len(rows) > p.ParetoTopN {
		rows = rows[:p.ParetoTopN]
	}
	out.Rows = rows
	if len(rows) == 0 {
		out.Notice = "no products match the selected classes"
	}
	return out
}

// ParetoOnly runs only the Pareto section.
func ParetoOnly(t *table.Table, p Params) ParetoSection {
	return pareto(resolve(t, table.Product, table.Sales), p.withDefaults())
}

func productLosses(c columns, n int) Groups {
	g := c.groups("top product losses", []table.Metric{table.Product}, []table.Metric{table.Profit}, 0, 0, true)
	if !g.Available {
		return g
	}
	var rows []analysis.GroupRow
	for _, r := range g.Rows {
		if r.Sums[0] >= 0 || len(rows) == n {
			break
		}
		rows = append(rows, r)
	}
	g.Rows = rows
	return g
}

// Cohort builds the customer cohort section for t.
func Cohort(t *table.Table, p Params) CohortSection {
	entity, ok := table.ResolveMetric(t, table.Customer)
	if !ok {
		return CohortSection{Section: unavailable("cohort analysis needs a customer column", string(table.Customer))}
	}
	withPeriod := analysis.EnsurePeriodColumn(t)
	pc, ok := withPeriod.Column(analysis.PeriodColumn)
	if !ok || (pc.Len() > 0 && pc.AllMissing()) {
		return CohortSection{Section: unavailable("cohort analysis needs order_date or a well-formed month_year",
			string(table.OrderDate), string(table.MonthYear))}
	}
	m, err := analysis.BuildCohortMatrix(withPeriod, entity, analysis.PeriodColumn)
	if err != nil {
		return CohortSection{Section: unavailable(fmt.Sprintf("cohort analysis: %v", err))}
	}
	out := CohortSection{
		Section:    available(),
		Entity:     entity,
		Normalized: p.CohortNormalize,
		Cohorts:    m.CohortLabels(),
		Offsets:    m.Offsets,
		Sizes:      m.Sizes,
	}
	if m.Empty() {
		out.Notice = "no orders in the current selection"
		return out
	}
	if p.CohortNormalize {
		out.Values = m.Normalized()
		return out
	}
	out.Values = make([][]float64, len(m.Counts))
	for i, row := range m.Counts {
		out.Values[i] = make([]float64, len(row))
		for j, v := range row {
			out.Values[i][j] = float64(v)
		}
	}
	return out
}
