// Package analysis holds the aggregation helpers behind the dashboard views:
// totals and groupings, Pareto/ABC ranking, cohort retention and column
// profiling.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// ErrColumnMissing is returned when a required column is absent.
var ErrColumnMissing = errors.New("column not found")

// Sum adds every present value of a numeric column using decimal arithmetic,
// so money totals do not accumulate binary rounding error.
func Sum(c *table.Column) float64 {
	acc := decimal.Zero
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			acc = acc.Add(decimal.NewFromFloat(v))
		}
	}
	return acc.InexactFloat64()
}

// Mean averages the present values of a numeric column.
func Mean(c *table.Column) (float64, bool) {
	n := 0
	acc := decimal.Zero
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			acc = acc.Add(decimal.NewFromFloat(v))
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return acc.Div(decimal.NewFromInt(int64(n))).InexactFloat64(), true
}

// Distinct returns the sorted distinct present values of a column.
func Distinct(c *table.Column) []string {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.Valid(i) {
			seen[c.String(i)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CountDistinct counts distinct present values.
func CountDistinct(c *table.Column) int { return len(Distinct(c)) }

// Range returns the smallest and largest present values of a numeric column.
func Range(c *table.Column) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < c.Len(); i++ {
		v, present := c.Float(i)
		if !present {
			continue
		}
		ok = true
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// GroupRow is one group produced by GroupSum.
type GroupRow struct {
	Keys  []string  `json:"keys"`
	Sums  []float64 `json:"sums"`
	Count int       `json:"count"`
}

// Key joins the group keys with " / ".
func (g GroupRow) Key() string { return strings.Join(g.Keys, " / ") }

// GroupSum groups rows by the key columns and sums each value column.
// Rows with a missing key are skipped; a missing value contributes nothing.
// Groups are returned ordered by key.
func GroupSum(t *table.Table, keys []string, values []string) ([]GroupRow, error) {
	kcs := make([]*table.Column, len(keys))
	for i, k := range keys {
		c, ok := t.Column(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnMissing, k)
		}
		kcs[i] = c
	}
	vcs := make([]*table.Column, len(values))
	for i, v := range values {
		c, ok := t.Column(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnMissing, v)
		}
		vcs[i] = c
	}

	type acc struct {
		keys []string
		sums []decimal.Decimal
		n    int
	}
	groups := make(map[string]*acc)
	var order []string
rows:
	for i := 0; i < t.Rows(); i++ {
		parts := make([]string, len(kcs))
		for j, kc := range kcs {
			if !kc.Valid(i) {
				continue rows
			}
			parts[j] = kc.String(i)
		}
		id := strings.Join(parts, "\x00")
		g := groups[id]
		if g == nil {
			g = &acc{keys: parts, sums: make([]decimal.Decimal, len(vcs))}
			groups[id] = g
			order = append(order, id)
		}
		g.n++
		for j, vc := range vcs {
			if v, ok := vc.Float(i); ok {
				g.sums[j] = g.sums[j].Add(decimal.NewFromFloat(v))
			}
		}
	}
	sort.Strings(order)
	out := make([]GroupRow, 0, len(order))
	for _, id := range order {
		g := groups[id]
		row := GroupRow{Keys: g.keys, Sums: make([]float64, len(g.sums)), Count: g.n}
		for j, s := range g.sums {
			row.Sums[j] = s.InexactFloat64()
		}
		out = append(out, row)
	}
	return out, nil
}

// TopGroups orders groups by the sum at index idx and keeps at most n.
// Ties keep key order. n <= 0 keeps every group.
func TopGroups(rows []GroupRow, idx int, n int, ascending bool) []GroupRow {
	cp := make([]GroupRow, len(rows))
	copy(cp, rows)
	sort.SliceStable(cp, func(i, j int) bool {
		if ascending {
			return cp[i].Sums[idx] < cp[j].Sums[idx]
		}
		return cp[i].Sums[idx] > cp[j].Sums[idx]
	})
	if n > 0 && n < len(cp) {
		cp = cp[:n]
	}
	return cp
}

// Bin is one histogram bucket covering [Lo, Hi); the last bucket includes Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram buckets the present values of a numeric column into equal-width
// bins spanning its range.
func Histogram(c *table.Column, bins int) []Bin {
	if bins <= 0 {
		return nil
	}
	lo, hi, ok := Range(c)
	if !ok {
		return nil
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		k := int((v - lo) / width)
		if k >= bins {
			k = bins - 1
		}
		if k < 0 {
			k = 0
		}
		out[k].Count++
	}
	return out
}
