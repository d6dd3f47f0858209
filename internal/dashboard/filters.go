package dashboard

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// Range is an inclusive numeric bound. Nil ends are open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r Range) active() bool { return r.Min != nil || r.Max != nil }

func (r Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Filters is the sidebar selection. The zero value keeps every row.
type Filters struct {
	// From and To bound the period, as YYYY-MM-DD or YYYY-MM. Both inclusive.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Category    []string `json:"category,omitempty"`
	SubCategory []string `json:"sub_category,omitempty"`
	Segment     []string `json:"segment,omitempty"`
	Country     []string `json:"country,omitempty"`

	Sales     Range `json:"sales"`
	Profit    Range `json:"profit"`
	TotalCost Range `json:"total_cost"`
	Gross     Range `json:"gross"`
}

// IsZero reports whether f selects every row.
func (f Filters) IsZero() bool {
	return f.From == "" && f.To == "" &&
		len(f.Category) == 0 && len(f.SubCategory) == 0 && len(f.Segment) == 0 && len(f.Country) == 0 &&
		!f.Sales.active() && !f.Profit.active() && !f.TotalCost.active() && !f.Gross.active()
}

// bound parses a period bound. A YYYY-MM upper bound extends to the end of
// its month; a YYYY-MM-DD upper bound to the end of that day.
func bound(s string, upper bool) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	if d, err := time.Parse(table.DateLayout, s); err == nil {
		if upper {
			d = d.AddDate(0, 0, 1)
		}
		return d, true, nil
	}
	if p, err := time.Parse(table.PeriodLayout, s); err == nil {
		if upper {
			p = p.AddDate(0, 1, 0)
		}
		return p, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid period bound %q: want YYYY-MM-DD or YYYY-MM", s)
}

// Apply returns the rows of t selected by f as a new table; t is never
// modified. Filters on columns the table lacks are ignored, as is the period
// filter when no period source parses cleanly.
func (f Filters) Apply(t *table.Table) (*table.Table, error) {
	from, hasFrom, err := bound(f.From, false)
	if err != nil {
		return nil, err
	}
	to, hasTo, err := bound(f.To, true)
	if err != nil {
		return nil, err
	}
	if f.IsZero() {
		return t, nil
	}

	var preds []func(int) bool
	if hasFrom || hasTo {
		if p := periodPredicate(t, from, hasFrom, to, hasTo); p != nil {
			preds = append(preds, p)
		}
	}
	for _, sel := range []struct {
		m    table.Metric
		want []string
	}{
		{table.Category, f.Category},
		{table.SubCat, f.SubCategory},
		{table.Segment, f.Segment},
		{table.Country, f.Country},
	} {
		if p := memberPredicate(t, sel.m, sel.want); p != nil {
			preds = append(preds, p)
		}
	}
	for _, rg := range []struct {
		m table.Metric
		r Range
	}{
		{table.Sales, f.Sales},
		{table.Profit, f.Profit},
		{table.Cost, f.TotalCost},
		{table.GrossSales, f.Gross},
	} {
		if p := rangePredicate(t, rg.m, rg.r); p != nil {
			preds = append(preds, p)
		}
	}
	if len(preds) == 0 {
		return t, nil
	}
	return t.Filter(func(i int) bool {
		for _, p := range preds {
			if !p(i) {
				return false
			}
		}
		return true
	}), nil
}

func periodPredicate(t *table.Table, from time.Time, hasFrom bool, to time.Time, hasTo bool) func(int) bool {
	in := func(d time.Time) bool {
		if hasFrom && d.Before(from) {
			return false
		}
		if hasTo && !d.Before(to) {
			return false
		}
		return true
	}
	if od, ok := t.Column(string(table.OrderDate)); ok && od.Kind() == table.Date {
		return func(i int) bool {
			d, ok := od.Time(i)
			return ok && in(d)
		}
	}
	name, ok := table.ResolveMetric(t, table.MonthYear)
	if !ok {
		return nil
	}
	my, _ := t.Column(name)
	periods := make([]time.Time, my.Len())
	for i := range periods {
		if !my.Valid(i) {
			continue
		}
		p, ok := table.ParsePeriod(my.String(i))
		if !ok {
			zap.L().Debug("period filter disabled: malformed month_year", zap.String("value", my.String(i)))
			return nil
		}
		periods[i] = p
	}
	// A month is kept when any of its days falls inside the bounds.
	return func(i int) bool {
		if !my.Valid(i) {
			return false
		}
		p := periods[i]
		if hasFrom && !p.AddDate(0, 1, 0).After(from) {
			return false
		}
		return !hasTo || p.Before(to)
	}
}

func memberPredicate(t *table.Table, m table.Metric, want []string) func(int) bool {
	if len(want) == 0 {
		return nil
	}
	name, ok := table.ResolveMetric(t, m)
	if !ok {
		return nil
	}
	c, _ := t.Column(name)
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	return func(i int) bool { return c.Valid(i) && set[c.String(i)] }
}

func rangePredicate(t *table.Table, m table.Metric, r Range) func(int) bool {
	if !r.active() {
		return nil
	}
	c, ok := table.ResolveNumeric(t, m)
	if !ok {
		return nil
	}
	return func(i int) bool {
		v, ok := c.Float(i)
		return ok && r.contains(v)
	}
}

// Options lists the choices the sidebar offers for t.
type Options struct {
	PeriodMin   string           `json:"period_min,omitempty"`
	PeriodMax   string           `json:"period_max,omitempty"`
	Category    []string         `json:"category,omitempty"`
	SubCategory []string         `json:"sub_category,omitempty"`
	Segment     []string         `json:"segment,omitempty"`
	Country     []string         `json:"country,omitempty"`
	Ranges      map[string]Range `json:"ranges,omitempty"`
}

// FilterOptions derives the selectable values and numeric bounds of t.
func FilterOptions(t *table.Table) Options {
	var o Options
	if od, ok := t.Column(string(table.OrderDate)); ok && od.Kind() == table.Date {
		var lo, hi time.Time
		for i := 0; i < od.Len(); i++ {
			d, ok := od.Time(i)
			if !ok {
				continue
			}
			if lo.IsZero() || d.Before(lo) {
				lo = d
			}
			if d.After(hi) {
				hi = d
			}
		}
		if !lo.IsZero() {
			o.PeriodMin, o.PeriodMax = lo.Format(table.DateLayout), hi.Format(table.DateLayout)
		}
	} else if name, ok := table.ResolveMetric(t, table.MonthYear); ok {
		c, _ := t.Column(name)
		if vals := analysis.Distinct(c); len(vals) > 0 {
			o.PeriodMin, o.PeriodMax = vals[0], vals[len(vals)-1]
		}
	}
	pick := func(m table.Metric) []string {
		if name, ok := table.ResolveMetric(t, m); ok {
			c, _ := t.Column(name)
			return analysis.Distinct(c)
		}
		return nil
	}
	o.Category = pick(table.Category)
	o.SubCategory = pick(table.SubCat)
	o.Segment = pick(table.Segment)
	o.Country = pick(table.Country)

	o.Ranges = map[string]Range{}
	for key, m := range map[string]table.Metric{
		"sales": table.Sales, "profit": table.Profit, "total_cost": table.Cost, "gross": table.GrossSales,
	} {
		c, ok := table.ResolveNumeric(t, m)
		if !ok {
			continue
		}
		if lo, hi, ok := analysis.Range(c); ok {
			o.Ranges[key] = Range{Min: &lo, Max: &hi}
		}
	}
	return o
}
