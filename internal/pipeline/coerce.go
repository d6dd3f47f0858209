package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/table"
)

// DateColumns are coerced to dates when present.
var DateColumns = []string{"order_date", "ship_date"}

// CoerceDates parses each of DateColumns present in t as dates. A column
// with any unparseable present cell is left untouched and reported as a
// parse diagnostic; missing cells stay missing.
func CoerceDates(t *table.Table) (*table.Table, []Diagnostic) {
	out := t
	var diags []Diagnostic
	for _, name := range DateColumns {
		c, ok := t.Column(name)
		if !ok || c.Kind() == table.Date {
			continue
		}
		dc, bad, ok := parseDateColumn(c)
		if !ok {
			d := Diagnostic{
				Column:  name,
				Kind:    DiagParse,
				Message: fmt.Sprintf("value %q is not a recognised date; column left as %s", bad, c.Kind()),
			}
			zap.L().Warn("date coercion skipped", zap.String("column", name), zap.String("value", bad))
			diags = append(diags, d)
			continue
		}
		next, err := out.WithColumn(dc)
		if err != nil {
			diags = append(diags, Diagnostic{Column: name, Kind: DiagParse, Message: err.Error()})
			continue
		}
		out = next
	}
	return out, diags
}

// parseDateColumn prefers a single layout that fits every present cell and
// falls back to per-cell layout detection. It returns the first offending
// value when the column cannot be parsed.
func parseDateColumn(c *table.Column) (*table.Column, string, bool) {
	n := c.Len()
	vals := make([]time.Time, n)
	valid := make([]bool, n)
	cells := make([]string, n)
	for i := 0; i < n; i++ {
		if c.Valid(i) {
			cells[i] = strings.TrimSpace(c.String(i))
			valid[i] = true
		}
	}
	for _, layout := range table.DateLayouts {
		if fillWithLayout(layout, cells, valid, vals) {
			return table.NewDateColumn(c.Name(), vals, valid), "", true
		}
	}
	for i, s := range cells {
		if !valid[i] {
			continue
		}
		t, ok := table.ParseDate(s)
		if !ok {
			return nil, s, false
		}
		vals[i] = t
	}
	return table.NewDateColumn(c.Name(), vals, valid), "", true
}

func fillWithLayout(layout string, cells []string, valid []bool, vals []time.Time) bool {
	for i, s := range cells {
		if !valid[i] {
			continue
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return false
		}
		vals[i] = t
	}
	return true
}
