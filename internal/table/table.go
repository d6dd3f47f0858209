// Package table holds the column-oriented in-memory dataset shared by the
// pipeline, the analytics helpers and the dashboard views.
//
// Columns are immutable once constructed. Every Table operation returns a new
// Table (sharing untouched columns) and never mutates its receiver, so one
// canonical table can be read concurrently by any number of views.
package table

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Kind is the value type held by a column.
type Kind int

const (
	Text Kind = iota
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "text"
	}
}

// Column is a named, typed vector with a validity mask. A cell whose mask is
// false is missing regardless of the stored value.
type Column struct {
	name     string
	kind     Kind
	texts    []string
	nums     []float64
	times    []time.Time
	valid    []bool
	hasClock bool
}

// NewTextColumn builds a text column. valid may be nil, in which case every
// cell that is not a missing-value token is considered present.
func NewTextColumn(name string, vals []string, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(vals))
		for i, v := range vals {
			valid[i] = !IsMissing(v)
		}
	}
	return &Column{name: name, kind: Text, texts: vals, valid: valid}
}

// NewNumberColumn builds a numeric column. NaN and infinite values are
// stored as missing.
func NewNumberColumn(name string, vals []float64, valid []bool) *Column {
	if valid == nil {
		valid = allValid(len(vals))
	} else {
		valid = append([]bool(nil), valid...)
	}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			valid[i] = false
		}
	}
	return &Column{name: name, kind: Number, nums: vals, valid: valid}
}

// NewDateColumn builds a date column.
func NewDateColumn(name string, vals []time.Time, valid []bool) *Column {
	if valid == nil {
		valid = allValid(len(vals))
	}
	c := &Column{name: name, kind: Date, times: vals, valid: valid}
	for i, t := range vals {
		if !valid[i] {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			c.hasClock = true
			break
		}
	}
	return c
}

func allValid(n int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Len() int     { return len(c.valid) }

// Valid reports whether row i holds a value.
func (c *Column) Valid(i int) bool { return c.valid[i] }

// Missing counts missing cells.
func (c *Column) Missing() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// AllMissing reports whether the column has no value at all.
func (c *Column) AllMissing() bool { return c.Missing() == c.Len() }

// Float returns the numeric value of row i.
func (c *Column) Float(i int) (float64, bool) {
	if c.kind != Number || !c.valid[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Time returns the date value of row i.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.kind != Date || !c.valid[i] {
		return time.Time{}, false
	}
	return c.times[i], true
}

// String renders row i the way it is written to the processed file. Missing
// cells render as the empty string.
func (c *Column) String(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case Number:
		return FormatNumber(c.nums[i])
	case Date:
		if c.hasClock {
			return c.times[i].Format(DateTimeLayout)
		}
		return c.times[i].Format(DateLayout)
	default:
		return c.texts[i]
	}
}

// RawText returns the stored text of row i for text columns, including the
// original spelling of missing tokens.
func (c *Column) RawText(i int) string {
	if c.kind == Text {
		return c.texts[i]
	}
	return c.String(i)
}

// Renamed returns a copy of the column header pointing at the same values.
func (c *Column) Renamed(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind, hasClock: c.hasClock, valid: make([]bool, len(rows))}
	switch c.kind {
	case Number:
		out.nums = make([]float64, len(rows))
	case Date:
		out.times = make([]time.Time, len(rows))
	default:
		out.texts = make([]string, len(rows))
	}
	for j, i := range rows {
		out.valid[j] = c.valid[i]
		switch c.kind {
		case Number:
			out.nums[j] = c.nums[i]
		case Date:
			out.times[j] = c.times[i]
		default:
			out.texts[j] = c.texts[i]
		}
	}
	return out
}

// Table is an ordered set of equally long, uniquely named columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// ErrDuplicateColumn is returned when two columns share a name.
var ErrDuplicateColumn = errors.New("duplicate column name")

// New assembles a table. All columns must have the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: make([]*Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), t.rows)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c.name)
		}
		t.index[c.name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Empty returns a table without columns or rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

func (t *Table) Rows() int       { return t.rows }
func (t *Table) NumColumns() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Has reports whether a column with the exact name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// WithColumn returns a table where c replaces the column of the same name in
// place, or is appended when no such column exists.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if len(t.cols) > 0 && c.Len() != t.rows {
		return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), t.rows)
	}
	cols := make([]*Column, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	if i, ok := t.index[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Without drops the named columns.
func (t *Table) Without(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	cols := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c.name] {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols...)
	if len(cols) == 0 {
		out.rows = t.rows
	}
	return out
}

// Select keeps only the named columns, in the given order. Unknown names are
// ignored.
func (t *Table) Select(names ...string) *Table {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		if c, ok := t.Column(n); ok {
			cols = append(cols, c)
		}
	}
	out, err := New(cols...)
	if err != nil {
		return Empty()
	}
	return out
}

// Take returns the rows at the given positions, in that order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{cols: make([]*Column, len(t.cols)), index: make(map[string]int, len(t.cols)), rows: len(rows)}
	for i, c := range t.cols {
		out.cols[i] = c.take(rows)
		out.index[c.name] = i
	}
	return out
}

// Filter keeps the rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == t.rows {
		return t
	}
	return t.Take(rows)
}

// Row renders row i as strings in column order.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.String(i)
	}
	return out
}

// RowComplete reports whether no cell of row i is missing.
func (t *Table) RowComplete(i int) bool {
	for _, c := range t.cols {
		if !c.valid[i] {
			return false
		}
	}
	return true
}

// MissingCells counts missing cells across the table.
func (t *Table) MissingCells() int {
	n := 0
	for _, c := range t.cols {
		n += c.Missing()
	}
	return n
}
