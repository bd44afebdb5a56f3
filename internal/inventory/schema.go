// Package inventory persists the asset tables and the user accounts.
package inventory

import (
	"strings"

	"asset-inventory-api/internal/database"
	"asset-inventory-api/pkg/importer"
)

// Schema describes one resource: its route name, its table and the writable
// columns in their canonical order. Every column is required on write.
type Schema struct {
	Name    string
	Table   string
	Columns []importer.Field
}

func text(name string) importer.Field   { return importer.Field{Name: name, Kind: importer.KindText} }
func number(name string) importer.Field { return importer.Field{Name: name, Kind: importer.KindNumber} }
func date(name string) importer.Field   { return importer.Field{Name: name, Kind: importer.KindDate} }

var hardwareColumns = []importer.Field{
	text("assetnum"), text("brand"), text("model"), text("user"), text("location"),
	text("spec"), text("sn"), text("software"), number("price"), date("receivedate"),
	text("invoicenum"), text("ponum"),
}

var (
	HardwareAssets = Schema{
		Name:    "hw-asset",
		Table:   "hw_asset",
		Columns: hardwareColumns,
	}
	HardwareAccessories = Schema{
		Name:    "hw-accessories",
		Table:   "hw_accessories",
		Columns: []importer.Field{
			text("type"), text("detail"), text("sn"), text("assetinstall"), text("location"),
			number("price"), date("receivedate"), text("invoicenum"), text("ponum"),
		},
	}
	SoftwareAssets = Schema{
		Name:    "sw-asset",
		Table:   "sw_asset",
		Columns: []importer.Field{
			text("assetnum"), text("name"), text("swkey"), text("user"), text("assetinstall"),
			text("location"), number("price"), date("receivedate"), text("invoicenum"), text("ponum"),
		},
	}
	SoftwareYearly = Schema{
		Name:    "sw-yearly",
		Table:   "sw_yearly",
		Columns: []importer.Field{
			text("name"), text("assetinstall"), date("expiredate"), number("price"),
			date("receivedate"), text("invoicenum"), text("ponum"),
		},
	}
	HardwareAmortized = Schema{
		Name:    "hw-amortized",
		Table:   "hw_amortized",
		Columns: append(append([]importer.Field{}, hardwareColumns...),
			importer.Field{Name: "amortizeddate", Kind: importer.KindTimestamp}),
	}
)

// Required lists the fields that must be present and non-null on add/update.
func (s Schema) Required() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

func (s Schema) selectList(d database.Dialect) string {
	cols := make([]string, 0, len(s.Columns)+1)
	cols = append(cols, d.Quote("id"))
	for _, c := range s.Columns {
		cols = append(cols, d.Quote(c.Name))
	}
	return strings.Join(cols, ", ")
}

// OrderBy builds a safe ORDER BY clause from a comma separated sort parameter.
// Only id and the schema's columns are accepted; prefix with '-' for DESC.
// Unknown keys are ignored and the default is id ascending.
func (s Schema) OrderBy(d database.Dialect, sortParam string) string {
	allowed := map[string]bool{"id": true}
	for _, c := range s.Columns {
		allowed[c.Name] = true
	}

	var clauses []string
	for _, raw := range strings.Split(sortParam, ",") {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		dir := " ASC"
		if strings.HasPrefix(key, "-") {
			dir = " DESC"
			key = strings.TrimPrefix(key, "-")
		}
		if !allowed[key] {
			continue
		}
		clauses = append(clauses, d.Quote(key)+dir)
	}
	if len(clauses) == 0 {
		return " ORDER BY " + d.Quote("id") + " ASC"
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
