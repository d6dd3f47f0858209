package analysis

import (
	"testing"
	"time"

	"github.com/KaramelBytes/salesboard/internal/table"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func orders(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New(
		table.NewTextColumn("customer_name", []string{"ann", "bob", "ann", "cid", "bob", "ann", "dee"}, nil),
		table.NewDateColumn("order_date", []time.Time{
			day(2024, 1, 3), day(2024, 1, 20), day(2024, 2, 2), day(2024, 2, 9),
			day(2024, 4, 1), day(2024, 4, 30), day(2024, 4, 15),
		}, nil),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return tb
}

func TestEnsurePeriodColumnFromOrderDate(t *testing.T) {
	tb := EnsurePeriodColumn(orders(t))
	pc, ok := tb.Column(PeriodColumn)
	if !ok || pc.Kind() != table.Date {
		t.Fatalf("period column missing or wrong kind")
	}
	if p, _ := pc.Time(1); !p.Equal(day(2024, 1, 1)) {
		t.Fatalf("period: %v", p)
	}
	my, ok := tb.Column("month_year")
	if !ok || my.String(4) != "2024-04" {
		t.Fatalf("month_year backfill: %v", tb.Columns())
	}
}

func TestEnsurePeriodColumnFromMonthYear(t *testing.T) {
	tb, _ := table.New(table.NewTextColumn("month_year", []string{"2024-01", "2024-03"}, nil))
	out := EnsurePeriodColumn(tb)
	pc, ok := out.Column(PeriodColumn)
	if !ok {
		t.Fatalf("expected period column")
	}
	if p, _ := pc.Time(1); !p.Equal(day(2024, 3, 1)) {
		t.Fatalf("period: %v", p)
	}

	bad, _ := table.New(table.NewTextColumn("month_year", []string{"2024-01", "March"}, nil))
	out = EnsurePeriodColumn(bad)
	pc, _ = out.Column(PeriodColumn)
	if !pc.AllMissing() {
		t.Fatalf("malformed month_year must null the whole column")
	}

	none, _ := table.New(table.NewTextColumn("city", []string{"x"}, nil))
	if EnsurePeriodColumn(none).Has(PeriodColumn) {
		t.Fatalf("no period source should add no column")
	}
}

func TestBuildCohortMatrix(t *testing.T) {
	tb := EnsurePeriodColumn(orders(t))
	m, err := BuildCohortMatrix(tb, "customer_name", PeriodColumn)
	if err != nil {
		t.Fatalf("cohort: %v", err)
	}
	// cohorts: 2024-01 {ann,bob}, 2024-02 {cid}, 2024-04 {dee}
	if got := m.CohortLabels(); len(got) != 3 || got[0] != "2024-01" || got[2] != "2024-04" {
		t.Fatalf("cohorts: %v", got)
	}
	// offsets: 0, 1 (ann feb), 3 (ann+bob apr)
	if len(m.Offsets) != 3 || m.Offsets[0] != 0 || m.Offsets[1] != 1 || m.Offsets[2] != 3 {
		t.Fatalf("offsets: %v", m.Offsets)
	}
	want := [][]int{{2, 1, 2}, {1, 0, 0}, {1, 0, 0}}
	for i := range want {
		for j := range want[i] {
			if m.Counts[i][j] != want[i][j] {
				t.Fatalf("counts[%d][%d] = %d want %d", i, j, m.Counts[i][j], want[i][j])
			}
		}
		if m.Sizes[i] != m.Counts[i][0] {
			t.Fatalf("size %d != column 0", i)
		}
		for _, v := range m.Counts[i] {
			if v > m.Sizes[i] {
				t.Fatalf("offset 0 must be the row maximum")
			}
		}
	}
	norm := m.Normalized()
	if norm[0][1] != 50 || norm[0][0] != 100 {
		t.Fatalf("normalized: %v", norm[0])
	}
}

func TestBuildCohortMatrixEmpty(t *testing.T) {
	tb := EnsurePeriodColumn(orders(t)).Filter(func(int) bool { return false })
	m, err := BuildCohortMatrix(tb, "customer_name", PeriodColumn)
	if err != nil {
		t.Fatalf("empty selection is not an error: %v", err)
	}
	if !m.Empty() || len(m.Sizes) != 0 {
		t.Fatalf("expected empty matrix: %+v", m)
	}
}
