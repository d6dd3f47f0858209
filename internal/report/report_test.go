package report

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/table"
)

func canonical(t *testing.T) *table.Table {
	t.Helper()
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	tb, err := table.New(
		table.NewDateColumn("order_date", []time.Time{day(1, 3), day(1, 18), day(2, 2), day(3, 9)}, nil),
		table.NewTextColumn("month_year", []string{"2024-01", "2024-01", "2024-02", "2024-03"}, nil),
		table.NewTextColumn("customer_name", []string{"ann", "bob", "ann", "bob"}, nil),
		table.NewTextColumn("state", []string{"Texas", "Ohio", "Texas", "Ohio"}, nil),
		table.NewTextColumn("category", []string{"Tech", "Office", "Tech", "Office"}, nil),
		table.NewTextColumn("product_name", []string{"Phone", "Paper", "Phone", "Pen"}, nil),
		table.NewNumberColumn("sales", []float64{1200.5, 20, 50, 5}, nil),
		table.NewNumberColumn("profit", []float64{300, -5, 10, 1}, nil),
		table.NewNumberColumn("total_cost", []float64{900.5, 25, 40, 4}, nil),
	)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return tb
}

func TestRenderViews(t *testing.T) {
	tb := canonical(t)
	tests := []struct {
		view string
		want []string
	}{
		{"overview", []string{"[OVERVIEW]", "Rows: 4", "- Total net sales: 1,275.50", "- Unique products: 3", "Note: gross sales vs profit trend needs the columns: gross_sales"}},
		{"sales", []string{"[SALES]", "- Total quantity: n/a", "[MONTHLY TREND]", "| 2024-01 | 1,220.50 | 295.00 |", "[LOSS MAKERS]", "| Paper |"}},
		{"customers", []string{"[SALES BY STATE]", "| Texas | TX | 1,250.50 |", "[TOP CUSTOMERS BY PROFIT]"}},
		{"products", []string{"[PARETO ABC]", "| 1 | Phone | 1,250.50 |", "[CUSTOMER COHORTS]", "values: % of cohort"}},
		{"Dictionary", []string{"[DATA DICTIONARY]", "| sales | number | number |", "| ship_date | date | absent |", "[PREPROCESSING]"}},
	}
	p := dashboard.DefaultParams()
	for _, tt := range tests {
		md, err := Render(tt.view, tb, p)
		if err != nil {
			t.Fatalf("%s: %v", tt.view, err)
		}
		for _, w := range tt.want {
			if !strings.Contains(md, w) {
				t.Fatalf("%s: missing %q in:\n%s", tt.view, w, md)
			}
		}
	}
	if _, err := Render("weather", tb, p); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}

func TestJSONView(t *testing.T) {
	tb := canonical(t)
	out, err := JSON("overview", tb, dashboard.DefaultParams())
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var v dashboard.OverviewView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if v.Rows != 4 || v.KPIs[0].Key != "total_net_sales" || *v.KPIs[0].Value != 1275.5 {
		t.Fatalf("overview json: %+v", v)
	}
	if _, err := JSON("weather", tb, dashboard.DefaultParams()); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}

func TestParetoAndCohortMarkdown(t *testing.T) {
	tb := canonical(t)
	p := dashboard.DefaultParams()
	md := ParetoMarkdown(dashboard.ParetoOnly(tb, p))
	if !strings.HasPrefix(md, "[PARETO ABC]") || !strings.Contains(md, "A=0 B=0 C=3") {
		t.Fatalf("pareto markdown:\n%s", md)
	}
	p.CohortNormalize = false
	md = CohortMarkdown(dashboard.Cohort(tb, p))
	if !strings.Contains(md, "values: customers") || !strings.Contains(md, "| 2024-01 | 2 | 2 | 1 | 1 |") {
		t.Fatalf("cohort markdown:\n%s", md)
	}
}

func TestWriteWorkbook(t *testing.T) {
	tb := canonical(t)
	path := filepath.Join(t.TempDir(), "out", "salesboard.xlsx")
	if err := WriteWorkbook(path, tb, dashboard.DefaultParams()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	want := []string{SheetOverview, SheetSales, SheetCustomers, SheetProducts, SheetCohort, SheetDictionary, SheetData}
	got := f.GetSheetList()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	rows, err := f.GetRows(SheetData)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != tb.Rows()+1 || rows[0][0] != "order_date" || rows[1][0] != "2024-01-03" {
		t.Fatalf("data sheet: %v", rows)
	}
	if v, _ := f.GetCellValue(SheetOverview, "A1"); v != "KPI" {
		t.Fatalf("overview A1 = %q", v)
	}
	if v, _ := f.GetCellValue(SheetOverview, "B2"); v != "1275.5" {
		t.Fatalf("overview B2 = %q", v)
	}
}
