package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// Options controls column profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopValues caps the categorical top-value list per column.
	TopValues int
	// GroupBy computes per-group numeric summaries for the given columns.
	GroupBy []string
}

// DefaultOptions returns reasonable defaults for profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 5}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Cols     []ColumnSummary `json:"columns"`
	Samples  [][]string      `json:"samples,omitempty"`
	Groups   []GroupResult   `json:"groups,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ColumnSummary captures the kind and statistics of one column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // number|date|categorical|text
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Median float64 `json:"median,omitempty"`
	Std    float64 `json:"std,omitempty"`
	// Date span
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string                `json:"key"`
	Size    int                   `json:"size"`
	Metrics map[string]NumSummary `json:"metrics"`
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// categoricalLimit is the distinct-value ceiling under which a text column
// is reported as categorical.
const categoricalLimit = 50

// Profile summarizes every column of t.
func Profile(name string, t *table.Table, opt Options) *Report {
	rep := &Report{Name: name, Rows: t.Rows()}
	for i := 0; i < t.NumColumns(); i++ {
		rep.Cols = append(rep.Cols, summarize(t.ColumnAt(i), opt))
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 5
	}
	for i := 0; i < t.Rows() && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Row(i))
	}
	if len(opt.GroupBy) > 0 {
		groups, err := profileGroups(t, opt.GroupBy)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by skipped: %v", err))
		}
		rep.Groups = groups
	}
	if t.Rows() == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	return rep
}

func summarize(c *table.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name(), Missing: c.Missing()}
	s.NonNull = c.Len() - s.Missing
	cats := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.Valid(i) {
			cats[c.String(i)]++
		}
	}
	s.Unique = len(cats)

	switch c.Kind() {
	case table.Number:
		s.Kind = "number"
		var vals []float64
		var n int
		var mean, m2 float64
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		for i := 0; i < c.Len(); i++ {
			x, ok := c.Float(i)
			if !ok {
				continue
			}
			// Welford update
			n++
			if x < s.Min {
				s.Min = x
			}
			if x > s.Max {
				s.Max = x
			}
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
			vals = append(vals, x)
		}
		if n == 0 {
			s.Min, s.Max = 0, 0
			break
		}
		s.Mean = mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
		sort.Float64s(vals)
		s.Median = quantile(vals, 0.5)
	case table.Date:
		s.Kind = "date"
		var first, last string
		for i := 0; i < c.Len(); i++ {
			if !c.Valid(i) {
				continue
			}
			v := c.String(i)
			if first == "" || v < first {
				first = v
			}
			if v > last {
				last = v
			}
		}
		s.First, s.Last = first, last
	default:
		if s.Unique > 0 && s.Unique <= categoricalLimit {
			s.Kind = "categorical"
			s.TopValues = topValues(cats, opt.TopValues)
		} else {
			s.Kind = "text"
			for i := 0; i < c.Len() && len(s.ExampleTexts) < 3; i++ {
				if c.Valid(i) {
					s.ExampleTexts = append(s.ExampleTexts, c.String(i))
				}
			}
		}
	}
	return s
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		out = append(out, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func profileGroups(t *table.Table, keys []string) ([]GroupResult, error) {
	keyCols := make([]*table.Column, len(keys))
	for i, k := range keys {
		c, ok := t.Column(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnMissing, k)
		}
		keyCols[i] = c
	}
	var numeric []*table.Column
	for i := 0; i < t.NumColumns(); i++ {
		if c := t.ColumnAt(i); c.Kind() == table.Number {
			numeric = append(numeric, c)
		}
	}
	type acc struct {
		size int
		sum  map[string]float64
		m    map[string]NumSummary
	}
	groups := map[string]*acc{}
rows:
	for i := 0; i < t.Rows(); i++ {
		parts := make([]string, len(keyCols))
		for j, kc := range keyCols {
			if !kc.Valid(i) {
				continue rows
			}
			parts[j] = fmt.Sprintf("%s=%s", kc.Name(), safeVal(kc.String(i)))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &acc{sum: map[string]float64{}, m: map[string]NumSummary{}}
			groups[key] = g
		}
		g.size++
		for _, c := range numeric {
			x, ok := c.Float(i)
			if !ok {
				continue
			}
			m := g.m[c.Name()]
			if m.Count == 0 || x < m.Min {
				m.Min = x
			}
			if m.Count == 0 || x > m.Max {
				m.Max = x
			}
			m.Count++
			g.sum[c.Name()] += x
			g.m[c.Name()] = m
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for key, g := range groups {
		for name, m := range g.m {
			m.Mean = g.sum[name] / float64(m.Count)
			g.m[name] = m
		}
		out = append(out, GroupResult{Key: key, Size: g.size, Metrics: g.m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Markdown renders a compact report suitable for terminals and docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "number":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std))
		case "date":
			if c.First != "" {
				b.WriteString(fmt.Sprintf(" — %s to %s", c.First, c.Last))
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			maxk := 6
			if len(keys) < maxk {
				maxk = len(keys)
			}
			for i := 0; i < maxk; i++ {
				m := g.Metrics[keys[i]]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", keys[i], m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeName(c.Name)
		}
		b.WriteString(MarkdownTable(names, r.Samples))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// MarkdownTable renders rows as a pipe table. Long cells are truncated.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(header, " | "))
	b.WriteString(" |\n|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
