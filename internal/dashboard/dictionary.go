package dashboard

import "github.com/KaramelBytes/salesboard/internal/table"

// Field documents one canonical column.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Present     bool   `json:"present"`
	Kind        string `json:"kind,omitempty"`
	Missing     int    `json:"missing"`
}

// DictionaryView documents the canonical table and how it was produced.
type DictionaryView struct {
	Rows   int      `json:"rows"`
	Fields []Field  `json:"fields"`
	Extra  []Field  `json:"extra,omitempty"`
	Rules  []string `json:"rules"`
}

var fieldDocs = []Field{
	{Name: "order_date", Type: "date", Description: "Date the order was placed."},
	{Name: "ship_date", Type: "date", Description: "Date the order was shipped."},
	{Name: "month_year", Type: "text (YYYY-MM)", Description: "Calendar month of order_date, used for monthly trends."},
	{Name: "sales", Type: "number", Description: "Net sales amount of the line."},
	{Name: "profit", Type: "number", Description: "Profit of the line."},
	{Name: "total_cost", Type: "number", Description: "Derived: sales minus profit."},
	{Name: "quantity", Type: "number", Description: "Units sold."},
	{Name: "discount", Type: "number (0-1)", Description: "Discount rate applied."},
	{Name: "segment", Type: "text", Description: "Customer segment."},
	{Name: "country", Type: "text", Description: "Country of the customer."},
	{Name: "state", Type: "text", Description: "State or province."},
	{Name: "city", Type: "text", Description: "City of the customer."},
	{Name: "postal_code", Type: "text", Description: "Postal code."},
	{Name: "region", Type: "text", Description: "Sales region."},
	{Name: "category", Type: "text", Description: "Product category."},
	{Name: "sub_category", Type: "text", Description: "Product sub-category."},
	{Name: "product_name", Type: "text", Description: "Product name."},
	{Name: "customer_id", Type: "text", Description: "Customer identifier."},
	{Name: "order_id", Type: "text", Description: "Order identifier."},
}

// PreprocessingRules describes the pipeline in the order it runs.
var PreprocessingRules = []string{
	"Column names are trimmed, lower-cased, stripped of punctuation and joined with underscores.",
	"order_date and ship_date are parsed as dates; a column that does not parse is left as text.",
	"month_year is derived from order_date as YYYY-MM.",
	"total_cost is derived as sales minus profit when both are numeric.",
	"Rows with any missing value are removed.",
	"The result is written to the processed file and reused until rebuilt.",
}

// Dictionary documents t against the canonical field list.
func Dictionary(t *table.Table) DictionaryView {
	v := DictionaryView{Rows: t.Rows(), Rules: PreprocessingRules}
	known := map[string]bool{}
	for _, f := range fieldDocs {
		known[f.Name] = true
		if c, ok := t.Column(f.Name); ok {
			f.Present, f.Kind, f.Missing = true, c.Kind().String(), c.Missing()
		}
		v.Fields = append(v.Fields, f)
	}
	for _, name := range t.Columns() {
		if known[name] {
			continue
		}
		c, _ := t.Column(name)
		v.Extra = append(v.Extra, Field{Name: name, Type: c.Kind().String(), Present: true, Kind: c.Kind().String(), Missing: c.Missing()})
	}
	return v
}
