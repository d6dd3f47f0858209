// Package dashboard binds the canonical table to the dashboard views. Every
// view takes the table explicitly, resolves its columns through the alias
// map once, and marks a section unavailable instead of reporting zeros when
// a column it needs is absent.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// Params tunes view output.
type Params struct {
	// ParetoTopN caps the Pareto rows shown; 0 shows every product.
	ParetoTopN int
	// ParetoTiers keeps only the listed ABC classes; empty keeps all.
	ParetoTiers []analysis.Tier
	// RankTopN caps the ranking sections (top cities, customers, products).
	RankTopN int
	// CohortNormalize renders the cohort matrix as % of cohort size.
	CohortNormalize bool
	// HistogramBins is the bucket count of distribution sections.
	HistogramBins int
}

// DefaultParams mirrors the dashboard defaults.
func DefaultParams() Params {
	return Params{ParetoTopN: 30, RankTopN: 20, CohortNormalize: true, HistogramBins: 40}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.RankTopN <= 0 {
		p.RankTopN = d.RankTopN
	}
	if p.HistogramBins <= 0 {
		p.HistogramBins = d.HistogramBins
	}
	if p.ParetoTopN < 0 {
		p.ParetoTopN = 0
	}
	return p
}

// Section is embedded by every view section.
type Section struct {
	Available bool     `json:"available"`
	Notice    string   `json:"notice,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

func available() Section { return Section{Available: true} }

func unavailable(notice string, missing ...string) Section {
	return Section{Notice: notice, Missing: missing}
}

// KPI is a headline figure. Value is nil when the metric is not available.
type KPI struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Value     *float64 `json:"value"`
	Available bool     `json:"available"`
}

func kpi(key, label string, v float64) KPI {
	return KPI{Key: key, Label: label, Value: &v, Available: true}
}

func missingKPI(key, label string) KPI {
	return KPI{Key: key, Label: label}
}

// Table is a generic tabular section payload.
type Table struct {
	Section
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Groups is a grouped-sum section.
type Groups struct {
	Section
	Keys   []string            `json:"keys,omitempty"`
	Values []string            `json:"values,omitempty"`
	Rows   []analysis.GroupRow `json:"rows,omitempty"`
}

// Trend is a monthly series section.
type Trend struct {
	Section
	Series []string     `json:"series,omitempty"`
	Points []TrendPoint `json:"points,omitempty"`
}

type TrendPoint struct {
	Period string    `json:"period"`
	Values []float64 `json:"values"`
}

// Distribution is a histogram section.
type Distribution struct {
	Section
	Column string         `json:"column,omitempty"`
	Bins   []analysis.Bin `json:"bins,omitempty"`
}

var numericMetrics = map[table.Metric]bool{
	table.Sales:      true,
	table.Profit:     true,
	table.Cost:       true,
	table.Quantity:   true,
	table.Discount:   true,
	table.GrossSales: true,
}

// columns resolves a view's metrics once. Numeric metrics resolve only to
// number columns.
type columns struct {
	t     *table.Table
	names map[table.Metric]string
}

func resolve(t *table.Table, ms ...table.Metric) columns {
	c := columns{t: t, names: make(map[table.Metric]string, len(ms))}
	for _, m := range ms {
		if numericMetrics[m] {
			if col, ok := table.ResolveNumeric(t, m); ok {
				c.names[m] = col.Name()
			}
			continue
		}
		if name, ok := table.ResolveMetric(t, m); ok {
			c.names[m] = name
		}
	}
	return c
}

func (c columns) has(m table.Metric) bool {
	_, ok := c.names[m]
	return ok
}

func (c columns) name(m table.Metric) string { return c.names[m] }

func (c columns) col(m table.Metric) *table.Column {
	col, _ := c.t.Column(c.names[m])
	return col
}

// need returns an available section when every metric resolved, otherwise an
// unavailable one listing the absent metrics.
func (c columns) need(what string, ms ...table.Metric) Section {
	var missing []string
	for _, m := range ms {
		if !c.has(m) {
			missing = append(missing, string(m))
		}
	}
	if len(missing) == 0 {
		return available()
	}
	return unavailable(fmt.Sprintf("%s needs the columns: %s", what, strings.Join(missing, ", ")), missing...)
}

func (c columns) sumKPI(key, label string, m table.Metric) KPI {
	if !c.has(m) {
		return missingKPI(key, label)
	}
	return kpi(key, label, analysis.Sum(c.col(m)))
}

func (c columns) distinctKPI(key, label string, m table.Metric) KPI {
	if !c.has(m) {
		return missingKPI(key, label)
	}
	return kpi(key, label, float64(analysis.CountDistinct(c.col(m))))
}

func (c columns) trend(series ...table.Metric) Trend {
	if !c.has(table.MonthYear) {
		return Trend{Section: unavailable("monthly trend needs the month_year column", string(table.MonthYear))}
	}
	var names []string
	for _, m := range series {
		if c.has(m) {
			names = append(names, c.name(m))
		}
	}
	if len(names) == 0 {
		return Trend{Section: unavailable("no numeric sales or profit columns for the monthly trend")}
	}
	rows, err := analysis.GroupSum(c.t, []string{c.name(table.MonthYear)}, names)
	if err != nil {
		return Trend{Section: unavailable(err.Error())}
	}
	tr := Trend{Section: available(), Series: names, Points: make([]TrendPoint, len(rows))}
	for i, r := range rows {
		tr.Points[i] = TrendPoint{Period: r.Keys[0], Values: r.Sums}
	}
	return tr
}

func (c columns) groups(what string, keys []table.Metric, values []table.Metric, sortBy int, n int, ascending bool) Groups {
	sec := c.need(what, append(append([]table.Metric{}, keys...), values...)...)
	if !sec.Available {
		return Groups{Section: sec}
	}
	kn := make([]string, len(keys))
	for i, k := range keys {
		kn[i] = c.name(k)
	}
	vn := make([]string, len(values))
	for i, v := range values {
		vn[i] = c.name(v)
	}
	rows, err := analysis.GroupSum(c.t, kn, vn)
	if err != nil {
		return Groups{Section: unavailable(err.Error())}
	}
	if sortBy >= 0 {
		rows = analysis.TopGroups(rows, sortBy, n, ascending)
	}
	return Groups{Section: available(), Keys: kn, Values: vn, Rows: rows}
}

func (c columns) distribution(m table.Metric, bins int) Distribution {
	if !c.has(m) {
		return Distribution{Section: unavailable(fmt.Sprintf("distribution needs the %s column", m), string(m))}
	}
	return Distribution{Section: available(), Column: c.name(m), Bins: analysis.Histogram(c.col(m), bins)}
}
