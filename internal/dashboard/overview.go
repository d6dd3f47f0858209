package dashboard

import "github.com/KaramelBytes/salesboard/internal/table"

// OverviewView is the landing page.
type OverviewView struct {
	Rows  int   `json:"rows"`
	KPIs  []KPI `json:"kpis"`
	Trend Trend `json:"trend"`
}

// Overview computes the headline KPIs and the gross sales vs profit trend.
func Overview(t *table.Table) OverviewView {
	c := resolve(t, table.Sales, table.Profit, table.Cost, table.City, table.Category, table.Product,
		table.MonthYear, table.GrossSales)
	v := OverviewView{
		Rows: t.Rows(),
		KPIs: []KPI{
			c.sumKPI("total_net_sales", "Total net sales", table.Sales),
			c.sumKPI("total_profit", "Total profit", table.Profit),
			c.sumKPI("total_cost", "Total cost", table.Cost),
			c.distinctKPI("unique_cities", "Unique cities", table.City),
			c.distinctKPI("unique_categories", "Unique categories", table.Category),
			c.distinctKPI("unique_products", "Unique products", table.Product),
		},
	}
	// The overview chart is only meaningful with both series.
	if sec := c.need("gross sales vs profit trend", table.MonthYear, table.GrossSales, table.Profit); !sec.Available {
		v.Trend = Trend{Section: sec}
	} else {
		v.Trend = c.trend(table.GrossSales, table.Profit)
	}
	return v
}
