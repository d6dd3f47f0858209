package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// PeriodColumn holds the first-of-month activity period added by
// EnsurePeriodColumn.
const PeriodColumn = "order_month"

// EnsurePeriodColumn adds PeriodColumn. A date-typed order_date is truncated
// to its month (and month_year is backfilled when absent); otherwise
// month_year is parsed back, and a single malformed value leaves the whole
// period column missing. Without either source no column is added.
func EnsurePeriodColumn(t *table.Table) *table.Table {
	if od, ok := t.Column("order_date"); ok && od.Kind() == table.Date {
		n := od.Len()
		periods := make([]time.Time, n)
		labels := make([]string, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if d, ok := od.Time(i); ok {
				periods[i] = table.MonthStart(d)
				labels[i] = periods[i].Format(table.PeriodLayout)
				valid[i] = true
			}
		}
		out, _ := t.WithColumn(table.NewDateColumn(PeriodColumn, periods, valid))
		if !out.Has("month_year") {
			lv := make([]bool, n)
			copy(lv, valid)
			out, _ = out.WithColumn(table.NewTextColumn("month_year", labels, lv))
		}
		return out
	}
	my, ok := t.Column("month_year")
	if !ok {
		return t
	}
	out, _ := t.WithColumn(parsePeriods(my))
	return out
}

func parsePeriods(my *table.Column) *table.Column {
	n := my.Len()
	periods := make([]time.Time, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if !my.Valid(i) {
			continue
		}
		p, ok := table.ParsePeriod(my.String(i))
		if !ok {
			return table.NewDateColumn(PeriodColumn, make([]time.Time, n), make([]bool, n))
		}
		periods[i] = p
		valid[i] = true
	}
	return table.NewDateColumn(PeriodColumn, periods, valid)
}

// CohortMatrix counts distinct entities per cohort (first active month) and
// months elapsed since that cohort.
type CohortMatrix struct {
	Cohorts []time.Time `json:"cohorts"`
	Offsets []int       `json:"offsets"`
	// Counts is indexed [cohort][offset position]; absent combinations are 0.
	Counts [][]int `json:"counts"`
	Sizes  []int   `json:"sizes"`
}

// Empty reports whether there was not enough data to build any cohort.
func (m *CohortMatrix) Empty() bool { return len(m.Cohorts) == 0 }

// CohortLabels renders cohorts as YYYY-MM.
func (m *CohortMatrix) CohortLabels() []string {
	out := make([]string, len(m.Cohorts))
	for i, c := range m.Cohorts {
		out[i] = c.Format(table.PeriodLayout)
	}
	return out
}

// Normalized expresses each cell as a percentage of its cohort size.
func (m *CohortMatrix) Normalized() [][]float64 {
	out := make([][]float64, len(m.Counts))
	for i, row := range m.Counts {
		out[i] = make([]float64, len(row))
		if m.Sizes[i] == 0 {
			continue
		}
		for j, v := range row {
			out[i][j] = float64(v) / float64(m.Sizes[i]) * 100
		}
	}
	return out
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// BuildCohortMatrix assigns every entity to the earliest period it appears
// in and counts distinct entities for each (cohort, months since cohort)
// pair. Rows missing the entity or the period are ignored; an empty
// selection returns an empty matrix and no error.
func BuildCohortMatrix(t *table.Table, entityCol, periodCol string) (*CohortMatrix, error) {
	ec, ok := t.Column(entityCol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, entityCol)
	}
	pc, ok := t.Column(periodCol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, periodCol)
	}
	if pc.Kind() != table.Date {
		return nil, fmt.Errorf("period column %q is %s, want date", periodCol, pc.Kind())
	}

	type obs struct {
		entity string
		period time.Time
	}
	var rows []obs
	first := make(map[string]time.Time)
	for i := 0; i < t.Rows(); i++ {
		p, ok := pc.Time(i)
		if !ok || !ec.Valid(i) {
			continue
		}
		p = table.MonthStart(p)
		e := ec.String(i)
		rows = append(rows, obs{entity: e, period: p})
		if f, seen := first[e]; !seen || p.Before(f) {
			first[e] = p
		}
	}
	m := &CohortMatrix{}
	if len(rows) == 0 {
		return m, nil
	}

	type cell struct {
		cohort time.Time
		offset int
	}
	members := make(map[cell]map[string]struct{})
	cohortSet := make(map[time.Time]struct{})
	offsetSet := make(map[int]struct{})
	for _, r := range rows {
		c := first[r.entity]
		k := cell{cohort: c, offset: monthsBetween(c, r.period)}
		if members[k] == nil {
			members[k] = make(map[string]struct{})
		}
		members[k][r.entity] = struct{}{}
		cohortSet[c] = struct{}{}
		offsetSet[k.offset] = struct{}{}
	}
	for c := range cohortSet {
		m.Cohorts = append(m.Cohorts, c)
	}
	sort.Slice(m.Cohorts, func(i, j int) bool { return m.Cohorts[i].Before(m.Cohorts[j]) })
	for o := range offsetSet {
		m.Offsets = append(m.Offsets, o)
	}
	sort.Ints(m.Offsets)

	m.Counts = make([][]int, len(m.Cohorts))
	m.Sizes = make([]int, len(m.Cohorts))
	for i, c := range m.Cohorts {
		m.Counts[i] = make([]int, len(m.Offsets))
		for j, o := range m.Offsets {
			m.Counts[i][j] = len(members[cell{cohort: c, offset: o}])
		}
		// offset 0 always exists: every entity is observed in its own cohort
		m.Sizes[i] = m.Counts[i][0]
	}
	return m, nil
}
