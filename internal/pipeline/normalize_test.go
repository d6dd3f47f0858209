package pipeline

import (
	"testing"

	"github.com/KaramelBytes/salesboard/internal/table"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Order Date", "order_date"},
		{"Sub-Category", "sub_category"},
		{"  Total   Cost!! ", "total_cost"},
		{"Customer ID", "customer_id"},
		{"Postal.Code", "postalcode"},
		{"__Row  ID__", "row_id"},
		{"Preço Unitário", "preço_unitário"},
		{"Ship\tMode", "ship_mode"},
		{"% Discount", "discount"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"Order Date", "Sub-Category", "  Total   Cost!! ", "a__b", "-x-", "Ünïcödé Näme",
		"Sales.1", "A - B - C", "  ", "ALLCAPS", "mixed_Case-and spaces", "a b",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		if twice := NormalizeName(once); twice != once {
			t.Fatalf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeColumnsCollision(t *testing.T) {
	raw, err := table.New(
		table.NewTextColumn("Sales", []string{"1", "2"}, nil),
		table.NewTextColumn("Region", []string{"East", "West"}, nil),
		table.NewTextColumn("SALES ", []string{"10", "20"}, nil),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := NormalizeColumns(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cols := out.Columns()
	if len(cols) != 2 || cols[0] != "sales" || cols[1] != "region" {
		t.Fatalf("columns: %v", cols)
	}
	c, _ := out.Column("sales")
	if got := c.String(0); got != "10" {
		t.Fatalf("later column should win, got %q", got)
	}
	if raw.Columns()[0] != "Sales" {
		t.Fatalf("input renamed in place")
	}
}
