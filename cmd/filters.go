package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/pipeline"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// filterFlags mirrors dashboard.Filters on the command line. Numeric bounds
// stay strings so that an unset flag means an open bound.
type filterFlags struct {
	from, to    string
	category    []string
	subCategory []string
	segment     []string
	country     []string
	salesMin    string
	salesMax    string
	profitMin   string
	profitMax   string
	costMin     string
	costMax     string
	grossMin    string
	grossMax    string
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "period start: YYYY-MM-DD or YYYY-MM (inclusive)")
	fl.StringVar(&f.to, "to", "", "period end: YYYY-MM-DD or YYYY-MM (inclusive)")
	fl.StringSliceVar(&f.category, "category", nil, "keep only these categories (repeatable)")
	fl.StringSliceVar(&f.subCategory, "sub-category", nil, "keep only these sub-categories (repeatable)")
	fl.StringSliceVar(&f.segment, "segment", nil, "keep only these segments (repeatable)")
	fl.StringSliceVar(&f.country, "country", nil, "keep only these countries (repeatable)")
	fl.StringVar(&f.salesMin, "sales-min", "", "minimum sales per row")
	fl.StringVar(&f.salesMax, "sales-max", "", "maximum sales per row")
	fl.StringVar(&f.profitMin, "profit-min", "", "minimum profit per row")
	fl.StringVar(&f.profitMax, "profit-max", "", "maximum profit per row")
	fl.StringVar(&f.costMin, "total-cost-min", "", "minimum total cost per row")
	fl.StringVar(&f.costMax, "total-cost-max", "", "maximum total cost per row")
	fl.StringVar(&f.grossMin, "gross-min", "", "minimum gross sales per row")
	fl.StringVar(&f.grossMax, "gross-max", "", "maximum gross sales per row")
}

func bound(flag, v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %q", flag, v)
	}
	return &f, nil
}

func (f *filterFlags) toFilters() (dashboard.Filters, error) {
	out := dashboard.Filters{
		From:        f.from,
		To:          f.to,
		Category:    f.category,
		SubCategory: f.subCategory,
		Segment:     f.segment,
		Country:     f.country,
	}
	ranges := []struct {
		dst      *dashboard.Range
		name     string
		min, max string
	}{
		{&out.Sales, "sales", f.salesMin, f.salesMax},
		{&out.Profit, "profit", f.profitMin, f.profitMax},
		{&out.TotalCost, "total-cost", f.costMin, f.costMax},
		{&out.Gross, "gross", f.grossMin, f.grossMax},
	}
	for _, r := range ranges {
		lo, err := bound(r.name+"-min", r.min)
		if err != nil {
			return out, err
		}
		hi, err := bound(r.name+"-max", r.max)
		if err != nil {
			return out, err
		}
		*r.dst = dashboard.Range{Min: lo, Max: hi}
	}
	return out, nil
}

// filteredTable loads the canonical table and applies the command's filters.
func filteredTable(f *filterFlags) (*pipeline.Result, *table.Table, error) {
	flt, err := f.toFilters()
	if err != nil {
		return nil, nil, err
	}
	res, err := loadResult()
	if err != nil {
		return nil, nil, err
	}
	t, err := flt.Apply(res.Table)
	if err != nil {
		return nil, nil, err
	}
	return res, t, nil
}
