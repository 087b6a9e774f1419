package transform

import (
	om "github.com/cevaris/ordered_map"

	"github.com/TorSatherley/ToteSys-ETL-pipeline/table"
)

// currencyNames is the fixed lookup used to resolve currency_name from
// currency_code. Codes outside this set yield a null name, not an error.
var currencyNames = map[string]string{
	"GBP": "Great British Pounds",
	"USD": "United States Dollars",
	"EUR": "Euro",
}

// DimDesign is a straight column subset of the design snapshot.
func DimDesign(design table.Table) (table.Table, error) {
	return design.Project("dim_design", "design_id",
		table.Identity("design_id", "design_name", "file_location", "file_name"))
}

// DimLocation is a straight column subset of the address snapshot with the
// key column renamed location_id.
func DimLocation(address table.Table) (table.Table, error) {
	m := om.NewOrderedMap()
	m.Set("address_id", "location_id")
	m.Set("address_line_1", "address_line_1")
	m.Set("address_line_2", "address_line_2")
	m.Set("district", "district")
	m.Set("city", "city")
	m.Set("postal_code", "postal_code")
	m.Set("country", "country")
	m.Set("phone", "phone")
	return address.Project("dim_location", "location_id", m)
}

// DimCurrency projects the currency snapshot and derives currency_name via
// the static lookup. Rows with unrecognised codes are kept with a null name.
func DimCurrency(currency table.Table) (table.Table, error) {
	out, err := currency.Project("dim_currency", "currency_id",
		table.Identity("currency_id", "currency_code"))
	if err != nil {
		return table.Table{}, err
	}
	out.Columns = append(out.Columns, "currency_name")
	for _, row := range out.Rows {
		if name, ok := currencyNames[asString(row["currency_code"])]; ok {
			row["currency_name"] = name
		} else {
			row["currency_name"] = nil
		}
	}
	return out, nil
}
