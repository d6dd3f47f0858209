package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/table"
	"github.com/KaramelBytes/salesboard/internal/utils"
)

// Sheet names of the exported workbook, in order.
const (
	SheetOverview   = "Overview"
	SheetSales      = "Sales"
	SheetCustomers  = "Customers"
	SheetProducts   = "Products"
	SheetCohort     = "Cohort"
	SheetDictionary = "Dictionary"
	SheetData       = "Data"
)

// sheet appends rows to one worksheet.
type sheet struct {
	f      *excelize.File
	name   string
	row    int
	header int
	err    error
}

func (s *sheet) put(vals ...interface{}) {
	if s.err != nil {
		return
	}
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(s.name, cell, &vals)
}

func (s *sheet) heading(cols ...string) {
	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	s.put(vals...)
	if s.err == nil {
		s.err = s.f.SetRowStyle(s.name, s.row, s.row, s.header)
	}
}

func (s *sheet) skip() { s.row++ }

func (s *sheet) section(title string, sec dashboard.Section) bool {
	if s.row > 0 {
		s.skip()
	}
	s.heading(title)
	if sec.Notice != "" {
		s.put(sec.Notice)
	}
	return sec.Available
}

func (s *sheet) kpis(ks []dashboard.KPI) {
	s.heading("KPI", "Value")
	for _, k := range ks {
		if k.Value == nil {
			s.put(k.Label, "n/a")
			continue
		}
		s.put(k.Label, *k.Value)
	}
}

func (s *sheet) groups(title string, g dashboard.Groups) {
	if !s.section(title, g.Section) {
		return
	}
	cols := append(append([]string{}, g.Keys...), g.Values...)
	s.heading(append(cols, "rows")...)
	for _, r := range g.Rows {
		vals := make([]interface{}, 0, len(r.Keys)+len(r.Sums)+1)
		for _, k := range r.Keys {
			vals = append(vals, k)
		}
		for _, v := range r.Sums {
			vals = append(vals, v)
		}
		s.put(append(vals, r.Count)...)
	}
}

func (s *sheet) trend(title string, tr dashboard.Trend) {
	if !s.section(title, tr.Section) {
		return
	}
	s.heading(append([]string{"month_year"}, tr.Series...)...)
	for _, p := range tr.Points {
		vals := []interface{}{p.Period}
		for _, v := range p.Values {
			vals = append(vals, v)
		}
		s.put(vals...)
	}
}

// Workbook builds an XLSX workbook with one sheet per view plus the
// canonical data. The caller closes the file.
func Workbook(t *table.Table, p dashboard.Params) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		f.Close()
		return nil, err
	}
	newSheet := func(name string) (*sheet, error) {
		if name != SheetOverview {
			if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
		}
		if err := f.SetColWidth(name, "A", "A", 28); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, "B", "J", 16); err != nil {
			return nil, err
		}
		return &sheet{f: f, name: name, header: header}, nil
	}

	writers := []struct {
		name  string
		write func(s *sheet)
	}{
		{SheetOverview, func(s *sheet) {
			v := dashboard.Overview(t)
			s.kpis(v.KPIs)
			s.trend("Gross sales vs profit by month", v.Trend)
		}},
		{SheetSales, func(s *sheet) {
			v := dashboard.Sales(t, p)
			s.kpis(v.KPIs)
			s.trend("Monthly trend", v.Trend)
			s.groups("Sales and profit by category", v.ByCategory)
			if s.section("Loss makers", v.LossMakers.Section) {
				s.heading(v.LossMakers.Columns...)
				for _, r := range v.LossMakers.Rows {
					vals := make([]interface{}, len(r))
					for i, c := range r {
						vals[i] = c
					}
					s.put(vals...)
				}
			}
		}},
		{SheetCustomers, func(s *sheet) {
			v := dashboard.Customers(t, p)
			s.kpis(v.KPIs)
			s.groups("Results by segment", v.BySegment)
			if s.section("Sales by state", v.StateMap.Section) {
				s.heading("state", "code", "sales")
				for _, r := range v.StateMap.Rows {
					s.put(r.State, r.Code, r.Sales)
				}
			}
			s.groups("Top cities by sales", v.TopCities)
			s.groups("Top customers by sales", v.TopBySales)
			s.groups("Top customers by profit", v.TopByProfit)
			s.groups("Biggest customer losses", v.BiggestLosses)
		}},
		{SheetProducts, func(s *sheet) {
			v := dashboard.Products(t, p)
			s.kpis(v.KPIs)
			if s.section("Pareto ABC", v.Pareto.Section) {
				s.heading("rank", "product", "sales", "share", "cumulative share", "class")
				for i, r := range v.Pareto.Rows {
					s.put(i+1, r.Key, r.Value, r.Share, r.CumShare, string(r.Tier))
				}
			}
			s.groups("Top profit gains", v.ProfitGains)
			s.groups("Top profit losses", v.ProfitLosses)
		}},
		{SheetCohort, func(s *sheet) {
			c := dashboard.Cohort(t, p)
			if !s.section("Customer cohorts", c.Section) {
				return
			}
			cols := []string{"cohort", "size"}
			for _, o := range c.Offsets {
				cols = append(cols, fmt.Sprintf("+%d", o))
			}
			s.heading(cols...)
			for i, label := range c.Cohorts {
				vals := []interface{}{label, c.Sizes[i]}
				for _, v := range c.Values[i] {
					vals = append(vals, v)
				}
				s.put(vals...)
			}
		}},
		{SheetDictionary, func(s *sheet) {
			v := dashboard.Dictionary(t)
			s.heading("field", "type", "loaded as", "description")
			for _, fd := range append(append([]dashboard.Field{}, v.Fields...), v.Extra...) {
				status := "absent"
				if fd.Present {
					status = fd.Kind
				}
				s.put(fd.Name, fd.Type, status, fd.Description)
			}
			s.skip()
			s.heading("Preprocessing")
			for _, r := range v.Rules {
				s.put(r)
			}
		}},
		{SheetData, func(s *sheet) { s.data(t) }},
	}
	for _, w := range writers {
		s, err := newSheet(w.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", w.name, err)
		}
		w.write(s)
		if s.err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", w.name, s.err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// data writes the canonical table with numbers as numeric cells.
func (s *sheet) data(t *table.Table) {
	s.heading(t.Columns()...)
	cols := make([]*table.Column, t.NumColumns())
	for i := range cols {
		cols[i] = t.ColumnAt(i)
	}
	for r := 0; r < t.Rows() && s.err == nil; r++ {
		vals := make([]interface{}, len(cols))
		for i, c := range cols {
			if v, ok := c.Float(r); ok {
				vals[i] = v
				continue
			}
			vals[i] = c.String(r)
		}
		s.put(vals...)
	}
}

// WriteWorkbook builds the workbook for t and saves it to path, creating
// parent directories as needed.
func WriteWorkbook(path string, t *table.Table, p dashboard.Params) error {
	f, err := Workbook(t, p)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
