// Package report renders dashboard views for terminals and documents
// (Markdown) and for spreadsheets (an XLSX workbook).
package report

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/table"
	"github.com/KaramelBytes/salesboard/internal/utils"
)

// ErrUnknownView is returned for a view name outside Views.
var ErrUnknownView = errors.New("unknown view")

// Views lists the renderable view names.
var Views = []string{"overview", "sales", "customers", "products", "dictionary"}

var printer = message.NewPrinter(language.English)

func money(v float64) string { return printer.Sprintf("%.2f", v) }

func count(v float64) string { return printer.Sprintf("%.0f", v) }

// Build computes the named view from t.
func Build(view string, t *table.Table, p dashboard.Params) (any, error) {
	switch strings.ToLower(strings.TrimSpace(view)) {
	case "overview":
		return dashboard.Overview(t), nil
	case "sales":
		return dashboard.Sales(t, p), nil
	case "customers":
		return dashboard.Customers(t, p), nil
	case "products":
		return dashboard.Products(t, p), nil
	case "dictionary":
		return dashboard.Dictionary(t), nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownView, view, strings.Join(Views, ", "))
}

// Render builds the named view from t and renders it as Markdown.
func Render(view string, t *table.Table, p dashboard.Params) (string, error) {
	v, err := Build(view, t, p)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case dashboard.OverviewView:
		return OverviewMarkdown(v), nil
	case dashboard.SalesView:
		return SalesMarkdown(v), nil
	case dashboard.CustomersView:
		return CustomersMarkdown(v), nil
	case dashboard.ProductsView:
		return ProductsMarkdown(v), nil
	default:
		return DictionaryMarkdown(v.(dashboard.DictionaryView)), nil
	}
}

// JSON builds the named view and renders it as indented JSON.
func JSON(view string, t *table.Table, p dashboard.Params) (string, error) {
	v, err := Build(view, t, p)
	if err != nil {
		return "", err
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeKPIs(b *strings.Builder, ks []dashboard.KPI) {
	b.WriteString("[KPIS]\n")
	for _, k := range ks {
		if k.Value == nil {
			fmt.Fprintf(b, "- %s: n/a\n", k.Label)
			continue
		}
		if strings.HasPrefix(k.Key, "unique_") {
			fmt.Fprintf(b, "- %s: %s\n", k.Label, count(*k.Value))
			continue
		}
		fmt.Fprintf(b, "- %s: %s\n", k.Label, money(*k.Value))
	}
}

// writeHeading opens a section and reports whether its body should follow.
func writeHeading(b *strings.Builder, title string, s dashboard.Section) bool {
	fmt.Fprintf(b, "\n[%s]\n", strings.ToUpper(title))
	if s.Notice != "" {
		fmt.Fprintf(b, "Note: %s\n", s.Notice)
	}
	return s.Available
}

func writeGroups(b *strings.Builder, title string, g dashboard.Groups) {
	if !writeHeading(b, title, g.Section) || len(g.Rows) == 0 {
		return
	}
	header := append(append([]string{}, g.Keys...), g.Values...)
	header = append(header, "rows")
	rows := make([][]string, len(g.Rows))
	for i, r := range g.Rows {
		rec := append([]string{}, r.Keys...)
		for _, s := range r.Sums {
			rec = append(rec, money(s))
		}
		rows[i] = append(rec, fmt.Sprint(r.Count))
	}
	b.WriteString(analysis.MarkdownTable(header, rows))
}

func writeTrend(b *strings.Builder, title string, tr dashboard.Trend) {
	if !writeHeading(b, title, tr.Section) {
		return
	}
	header := append([]string{"month_year"}, tr.Series...)
	rows := make([][]string, len(tr.Points))
	for i, p := range tr.Points {
		rec := []string{p.Period}
		for _, v := range p.Values {
			rec = append(rec, money(v))
		}
		rows[i] = rec
	}
	b.WriteString(analysis.MarkdownTable(header, rows))
}

func writeDistribution(b *strings.Builder, title string, d dashboard.Distribution) {
	if !writeHeading(b, title, d.Section) {
		return
	}
	var rows [][]string
	for _, bin := range d.Bins {
		if bin.Count == 0 {
			continue
		}
		rows = append(rows, []string{printer.Sprintf("%.4g", bin.Lo), printer.Sprintf("%.4g", bin.Hi), fmt.Sprint(bin.Count)})
	}
	b.WriteString(analysis.MarkdownTable([]string{"from", "to", "rows"}, rows))
}

// OverviewMarkdown renders the overview page.
func OverviewMarkdown(v dashboard.OverviewView) string {
	var b strings.Builder
	b.WriteString("[OVERVIEW]\n")
	fmt.Fprintf(&b, "Rows: %d\n\n", v.Rows)
	writeKPIs(&b, v.KPIs)
	writeTrend(&b, "gross sales vs profit by month", v.Trend)
	return b.String()
}

// SalesMarkdown renders the sales page. The scatter section is chart-only
// and is summarized by its point count.
func SalesMarkdown(v dashboard.SalesView) string {
	var b strings.Builder
	b.WriteString("[SALES]\n")
	writeKPIs(&b, v.KPIs)
	writeTrend(&b, "monthly trend", v.Trend)
	writeGroups(&b, "sales and profit by category", v.ByCategory)
	if writeHeading(&b, "sales vs profit", v.Scatter.Section) {
		fmt.Fprintf(&b, "Points: %d\n", len(v.Scatter.Points))
	}
	writeDistribution(&b, "discount distribution", v.Discount)
	writeDistribution(&b, "total cost distribution", v.TotalCost)
	if writeHeading(&b, "loss makers", v.LossMakers.Section) && len(v.LossMakers.Rows) > 0 {
		b.WriteString(analysis.MarkdownTable(v.LossMakers.Columns, v.LossMakers.Rows))
	}
	return b.String()
}

// CustomersMarkdown renders the customers page.
func CustomersMarkdown(v dashboard.CustomersView) string {
	var b strings.Builder
	b.WriteString("[CUSTOMERS]\n")
	writeKPIs(&b, v.KPIs)
	writeGroups(&b, "results by segment", v.BySegment)
	if writeHeading(&b, "sales by state", v.StateMap.Section) {
		if v.StateMap.USAOnly {
			b.WriteString("Scope: United States orders\n")
		}
		rows := make([][]string, len(v.StateMap.Rows))
		for i, r := range v.StateMap.Rows {
			rows[i] = []string{r.State, r.Code, money(r.Sales)}
		}
		b.WriteString(analysis.MarkdownTable([]string{"state", "code", "sales"}, rows))
	}
	writeGroups(&b, "top cities by sales", v.TopCities)
	writeGroups(&b, "top customers by sales", v.TopBySales)
	writeGroups(&b, "top customers by profit", v.TopByProfit)
	writeGroups(&b, "biggest customer losses", v.BiggestLosses)
	return b.String()
}

// ProductsMarkdown renders the products page.
func ProductsMarkdown(v dashboard.ProductsView) string {
	var b strings.Builder
	b.WriteString("[PRODUCTS]\n")
	writeKPIs(&b, v.KPIs)
	if writeHeading(&b, "sales by segment", v.SegmentStacks.Section) {
		for _, s := range v.SegmentStacks.Segments {
			fmt.Fprintf(&b, "- %s\n", s.Segment)
			for _, r := range s.Rows {
				fmt.Fprintf(&b, "  • %s: %s\n", r.Key(), money(r.Sums[0]))
			}
		}
	}
	writePareto(&b, v.Pareto)
	writeGroups(&b, "top profit gains", v.ProfitGains)
	writeGroups(&b, "top profit losses", v.ProfitLosses)
	writeCohort(&b, v.Cohort)
	return b.String()
}

// ParetoMarkdown renders the Pareto section alone.
func ParetoMarkdown(p dashboard.ParetoSection) string {
	var b strings.Builder
	writePareto(&b, p)
	return strings.TrimLeft(b.String(), "\n")
}

func writePareto(b *strings.Builder, p dashboard.ParetoSection) {
	if !writeHeading(b, "pareto abc", p.Section) {
		return
	}
	fmt.Fprintf(b, "Products: %d, total: %s, A=%d B=%d C=%d\n", p.Products, money(p.Total),
		p.TierCounts[analysis.TierA], p.TierCounts[analysis.TierB], p.TierCounts[analysis.TierC])
	rows := make([][]string, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = []string{fmt.Sprint(i + 1), r.Key, money(r.Value), printer.Sprintf("%.2f%%", r.CumShare*100), string(r.Tier)}
	}
	b.WriteString(analysis.MarkdownTable([]string{"#", "product", "sales", "cumulative", "class"}, rows))
}

// CohortMarkdown renders the cohort section alone.
func CohortMarkdown(c dashboard.CohortSection) string {
	var b strings.Builder
	writeCohort(&b, c)
	return strings.TrimLeft(b.String(), "\n")
}

func writeCohort(b *strings.Builder, c dashboard.CohortSection) {
	if !writeHeading(b, "customer cohorts", c.Section) || len(c.Cohorts) == 0 {
		return
	}
	unit := "customers"
	if c.Normalized {
		unit = "% of cohort"
	}
	fmt.Fprintf(b, "Entity: %s, values: %s\n", c.Entity, unit)
	header := []string{"cohort", "size"}
	for _, o := range c.Offsets {
		header = append(header, fmt.Sprintf("+%d", o))
	}
	rows := make([][]string, len(c.Cohorts))
	for i, label := range c.Cohorts {
		rec := []string{label, fmt.Sprint(c.Sizes[i])}
		for _, v := range c.Values[i] {
			if c.Normalized {
				rec = append(rec, printer.Sprintf("%.1f", v))
			} else {
				rec = append(rec, count(v))
			}
		}
		rows[i] = rec
	}
	b.WriteString(analysis.MarkdownTable(header, rows))
}

// DictionaryMarkdown renders the data dictionary.
func DictionaryMarkdown(v dashboard.DictionaryView) string {
	var b strings.Builder
	b.WriteString("[DATA DICTIONARY]\n")
	fmt.Fprintf(&b, "Rows: %d\n\n", v.Rows)
	rows := make([][]string, 0, len(v.Fields)+len(v.Extra))
	for _, f := range append(append([]dashboard.Field{}, v.Fields...), v.Extra...) {
		status := "absent"
		if f.Present {
			status = f.Kind
		}
		rows = append(rows, []string{f.Name, f.Type, status, f.Description})
	}
	b.WriteString(analysis.MarkdownTable([]string{"field", "type", "loaded as", "description"}, rows))
	b.WriteString("\n[PREPROCESSING]\n")
	for i, r := range v.Rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return b.String()
}
