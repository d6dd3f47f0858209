package table

// Metric is a logical business concept looked up through Aliases.
type Metric string

const (
	Sales      Metric = "sales"
	Profit     Metric = "profit"
	Cost       Metric = "cost"
	Quantity   Metric = "quantity"
	Discount   Metric = "discount"
	GrossSales Metric = "gross_sales"
	Category   Metric = "category"
	SubCat     Metric = "sub_category"
	Product    Metric = "product"
	Segment    Metric = "segment"
	Customer   Metric = "customer"
	Country    Metric = "country"
	State      Metric = "state"
	City       Metric = "city"
	Region     Metric = "region"
	PostalCode Metric = "postal_code"
	OrderID    Metric = "order_id"
	OrderDate  Metric = "order_date"
	ShipDate   Metric = "ship_date"
	MonthYear  Metric = "month_year"
)

// Aliases maps each metric to its accepted canonical column names, in
// priority order. Every consumer resolves columns through this map.
var Aliases = map[Metric][]string{
	Sales:      {"total_net_sales", "sales"},
	Profit:     {"profit"},
	Cost:       {"total_cost"},
	Quantity:   {"quantity"},
	Discount:   {"discount"},
	GrossSales: {"total_gross_sale", "total_gross_sales"},
	Category:   {"category"},
	SubCat:     {"sub_category"},
	Product:    {"product_name", "product"},
	Segment:    {"segment"},
	Customer:   {"customer_name", "customer_id", "customer"},
	Country:    {"country"},
	State:      {"state"},
	City:       {"city"},
	Region:     {"region"},
	PostalCode: {"postal_code"},
	OrderID:    {"order_id"},
	OrderDate:  {"order_date"},
	ShipDate:   {"ship_date"},
	MonthYear:  {"month_year"},
}

// Resolve returns the first candidate present as a column of t.
func Resolve(t *Table, candidates ...string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, c := range candidates {
		if t.Has(c) {
			return c, true
		}
	}
	return "", false
}

// ResolveMetric resolves m through Aliases.
func ResolveMetric(t *Table, m Metric) (string, bool) {
	return Resolve(t, Aliases[m]...)
}

// ResolveNumeric resolves m and additionally requires the column to be numeric.
func ResolveNumeric(t *Table, m Metric) (*Column, bool) {
	name, ok := ResolveMetric(t, m)
	if !ok {
		return nil, false
	}
	c, _ := t.Column(name)
	if c.Kind() != Number {
		return nil, false
	}
	return c, true
}

// Resolution is the outcome of resolving a set of metrics at once.
type Resolution struct {
	Names   map[Metric]string
	Missing []Metric
}

// ResolveAll resolves every metric and records those that are absent.
func ResolveAll(t *Table, ms ...Metric) Resolution {
	r := Resolution{Names: make(map[Metric]string, len(ms))}
	for _, m := range ms {
		if name, ok := ResolveMetric(t, m); ok {
			r.Names[m] = name
		} else {
			r.Missing = append(r.Missing, m)
		}
	}
	return r
}

// OK reports whether every requested metric resolved.
func (r Resolution) OK() bool { return len(r.Missing) == 0 }

// MissingNames returns the missing metrics as strings.
func (r Resolution) MissingNames() []string {
	out := make([]string, len(r.Missing))
	for i, m := range r.Missing {
		out[i] = string(m)
	}
	return out
}
