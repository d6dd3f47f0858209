package analysis

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/salesboard/internal/table"
)

func sales(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.New(
		table.NewTextColumn("category", []string{"Tech", "Office", "Tech", "Furniture", "Office"}, nil),
		table.NewTextColumn("segment", []string{"Consumer", "Consumer", "Corporate", "Consumer", "Consumer"}, nil),
		table.NewNumberColumn("sales", []float64{0.1, 0.2, 10, 5, 1}, nil),
		table.NewNumberColumn("profit", []float64{1, -2, 3, 0, 1}, nil),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return tb
}

func TestSumIsExact(t *testing.T) {
	c := table.NewNumberColumn("x", []float64{0.1, 0.2}, nil)
	if got := Sum(c); got != 0.3 {
		t.Fatalf("sum: %v", got)
	}
	if m, ok := Mean(c); !ok || m != 0.15 {
		t.Fatalf("mean: %v %v", m, ok)
	}
	if _, ok := Mean(table.NewNumberColumn("e", nil, nil)); ok {
		t.Fatalf("mean of empty column")
	}
}

func TestGroupSum(t *testing.T) {
	rows, err := GroupSum(sales(t), []string{"category"}, []string{"sales", "profit"})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(rows) != 3 || rows[0].Key() != "Furniture" || rows[2].Key() != "Tech" {
		t.Fatalf("groups: %+v", rows)
	}
	if rows[1].Sums[0] != 1.2 || rows[1].Sums[1] != -1 || rows[1].Count != 2 {
		t.Fatalf("office: %+v", rows[1])
	}
	top := TopGroups(rows, 0, 1, false)
	if len(top) != 1 || top[0].Key() != "Tech" {
		t.Fatalf("top: %+v", top)
	}
	loss := TopGroups(rows, 1, 1, true)
	if loss[0].Key() != "Office" {
		t.Fatalf("worst: %+v", loss)
	}

	two, _ := GroupSum(sales(t), []string{"segment", "category"}, []string{"sales"})
	if two[0].Key() != "Consumer / Furniture" {
		t.Fatalf("multi key: %s", two[0].Key())
	}
}

func TestHistogram(t *testing.T) {
	c := table.NewNumberColumn("d", []float64{0, 0.1, 0.2, 0.2, 0.8}, nil)
	bins := Histogram(c, 4)
	if len(bins) != 4 {
		t.Fatalf("bins: %d", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 5 || bins[3].Count != 1 || bins[3].Hi != 0.8 {
		t.Fatalf("histogram: %+v", bins)
	}
	if Histogram(table.NewNumberColumn("e", nil, nil), 10) != nil {
		t.Fatalf("empty histogram should be nil")
	}
}

func TestDistinct(t *testing.T) {
	c, _ := sales(t).Column("category")
	if got := strings.Join(Distinct(c), ","); got != "Furniture,Office,Tech" {
		t.Fatalf("distinct: %s", got)
	}
}

func TestProfileMarkdown(t *testing.T) {
	rep := Profile("processed.csv", sales(t), Options{SampleRows: 2, TopValues: 2, GroupBy: []string{"segment"}})
	md := rep.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 5", "- sales: number", "- category: categorical", "[GROUP-BY SUMMARY]", "segment=Consumer (n=4)", "[HEAD AND SAMPLE ROWS]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if rep.Cols[2].Max != 10 || rep.Cols[2].Min != 0.1 {
		t.Fatalf("sales stats: %+v", rep.Cols[2])
	}
}
