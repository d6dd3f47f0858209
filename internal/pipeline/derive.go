package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/salesboard/internal/table"
)

const (
	MonthYearColumn = "month_year"
	TotalCostColumn = "total_cost"
)

// DeriveFields adds month_year from a date-typed order_date and total_cost
// from numeric sales and profit columns. A missing or non-date order_date is
// a SchemaError; missing sales or profit only skips total_cost.
func DeriveFields(t *table.Table) (*table.Table, error) {
	od, ok := t.Column("order_date")
	if !ok {
		return nil, &SchemaError{Column: "order_date", Reason: "column is absent"}
	}
	if od.Kind() != table.Date {
		return nil, &SchemaError{Column: "order_date", Reason: "column is not date-typed"}
	}
	out, err := t.WithColumn(monthYear(od))
	if err != nil {
		return nil, err
	}
	if tc, ok := totalCost(out); ok {
		if out, err = out.WithColumn(tc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func monthYear(od *table.Column) *table.Column {
	n := od.Len()
	vals := make([]string, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if d, ok := od.Time(i); ok {
			vals[i] = d.Format(table.PeriodLayout)
			valid[i] = true
		}
	}
	return table.NewTextColumn(MonthYearColumn, vals, valid)
}

// totalCost computes sales - profit as an exact decimal difference of the two
// cells, then stores it as float64.
func totalCost(t *table.Table) (*table.Column, bool) {
	sales, ok := table.ResolveNumeric(t, table.Sales)
	if !ok {
		return nil, false
	}
	profit, ok := table.ResolveNumeric(t, table.Profit)
	if !ok {
		return nil, false
	}
	n := sales.Len()
	vals := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		s, ok1 := sales.Float(i)
		p, ok2 := profit.Float(i)
		if !ok1 || !ok2 {
			continue
		}
		vals[i] = decimal.NewFromFloat(s).Sub(decimal.NewFromFloat(p)).InexactFloat64()
		valid[i] = true
	}
	return table.NewNumberColumn(TotalCostColumn, vals, valid), true
}
