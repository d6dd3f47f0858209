package dashboard

import (
	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/geo"
	"github.com/KaramelBytes/salesboard/internal/table"
)

// CustomersView is the customer and market page.
type CustomersView struct {
	KPIs          []KPI    `json:"kpis"`
	BySegment     Groups   `json:"by_segment"`
	StateMap      StateMap `json:"state_map"`
	TopCities     Groups   `json:"top_cities"`
	TopBySales    Groups   `json:"top_customers_by_sales"`
	TopByProfit   Groups   `json:"top_customers_by_profit"`
	BiggestLosses Groups   `json:"biggest_customer_losses"`
}

// StateMap is sales per US state keyed by two-letter code. When no state
// maps to a valid code, Fallback is set and Rows carry the raw state names
// for a bar chart instead.
type StateMap struct {
	Section
	USAOnly  bool       `json:"usa_only"`
	Fallback bool       `json:"fallback"`
	Rows     []StateRow `json:"rows,omitempty"`
}

type StateRow struct {
	State string  `json:"state"`
	Code  string  `json:"code,omitempty"`
	Sales float64 `json:"sales"`
}

// Customers computes the customer page.
func Customers(t *table.Table, p Params) CustomersView {
	p = p.withDefaults()
	c := resolve(t, table.Customer, table.Segment, table.Country, table.State, table.City,
		table.Sales, table.Profit)
	return CustomersView{
		KPIs: []KPI{
			c.distinctKPI("unique_customers", "Unique customers", table.Customer),
			c.distinctKPI("unique_segments", "Unique segments", table.Segment),
			c.distinctKPI("unique_countries", "Unique countries", table.Country),
			c.distinctKPI("unique_states", "Unique states", table.State),
			c.distinctKPI("unique_cities", "Unique cities", table.City),
		},
		BySegment:     c.groups("results by segment", []table.Metric{table.Segment}, []table.Metric{table.Sales, table.Profit}, 0, 0, false),
		StateMap:      stateMap(c),
		TopCities:     c.groups("top cities", []table.Metric{table.City}, []table.Metric{table.Sales}, 0, p.RankTopN, false),
		TopBySales:    c.groups("top customers by sales", []table.Metric{table.Customer}, []table.Metric{table.Sales, table.Profit}, 0, p.RankTopN, false),
		TopByProfit:   c.groups("top customers by profit", []table.Metric{table.Customer}, []table.Metric{table.Sales, table.Profit}, 1, p.RankTopN, false),
		BiggestLosses: customerLosses(c, p.RankTopN),
	}
}

func customerLosses(c columns, n int) Groups {
	g := c.groups("biggest customer losses", []table.Metric{table.Customer}, []table.Metric{table.Sales, table.Profit}, 1, 0, true)
	if !g.Available {
		return g
	}
	var rows []analysis.GroupRow
	for _, r := range g.Rows {
		if r.Sums[1] >= 0 {
			break
		}
		rows = append(rows, r)
		if len(rows) == n {
			break
		}
	}
	g.Rows = rows
	if len(rows) == 0 {
		g.Notice = "no customer with a net loss in the current selection"
	}
	return g
}

func stateMap(c columns) StateMap {
	sec := c.need("state map", table.State, table.Sales)
	if !sec.Available {
		return StateMap{Section: sec}
	}
	t := c.t
	usa := false
	if c.has(table.Country) {
		country := c.col(table.Country)
		t = t.Filter(func(i int) bool { return country.Valid(i) && geo.IsUSA(country.String(i)) })
		usa = t.Rows() > 0
		if !usa {
			t = c.t
		}
	}
	rows, err := analysis.GroupSum(t, []string{c.name(table.State)}, []string{c.name(table.Sales)})
	if err != nil {
		return StateMap{Section: unavailable(err.Error())}
	}
	states := make([]string, len(rows))
	for i, r := range rows {
		states[i] = r.Keys[0]
	}
	codes := geo.ToRegionCodes(states)

	m := StateMap{Section: available(), USAOnly: usa}
	for i, r := range rows {
		if geo.IsRegionCode(codes[i]) {
			m.Rows = append(m.Rows, StateRow{State: r.Keys[0], Code: codes[i], Sales: r.Sums[0]})
		}
	}
	if len(m.Rows) > 0 {
		return m
	}
	m.Fallback = true
	m.Notice = "no valid state codes; showing sales by state instead"
	for _, r := range analysis.TopGroups(rows, 0, 0, false) {
		m.Rows = append(m.Rows, StateRow{State: r.Keys[0], Sales: r.Sums[0]})
	}
	return m
}
