package models

// Kind is the storage type of a unified column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindReal
	KindBoolean
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindJSON:
		return "json"
	default:
		return "text"
	}
}

// Column is one entry of the unified schema.
type Column struct {
	Name string
	Kind Kind
}

// Columns is the fixed, ordered unified column set. The record model, the
// table schema and the insert statement are all derived from it.
var Columns = []Column{
	// identity
	{"vin", KindText},
	{"listing_id", KindText},
	{"heading", KindText},
	{"source", KindText},
	{"data_source", KindText},

	// commercial
	{"price", KindInteger},
	{"mileage", KindInteger},
	{"msrp", KindInteger},
	{"ref_price", KindInteger},
	{"price_change_percent", KindReal},
	{"ref_price_dt", KindInteger},
	{"ref_miles", KindInteger},
	{"ref_miles_dt", KindInteger},

	// provenance
	{"first_seen_at", KindInteger},
	{"first_seen_at_date", KindText},
	{"first_seen_at_source", KindInteger},
	{"first_seen_at_source_date", KindText},
	{"first_seen_at_mc", KindInteger},
	{"first_seen_at_mc_date", KindText},
	{"last_seen_at", KindInteger},
	{"last_seen_at_date", KindText},
	{"scraped_at", KindInteger},
	{"scraped_at_date", KindText},
	{"listing_created_at", KindText},
	{"online", KindBoolean},
	{"data_fetched_at", KindText},

	// descriptive
	{"year", KindInteger},
	{"make", KindText},
	{"model", KindText},
	{"trim", KindText},
	{"body_style", KindText},
	{"drivetrain", KindText},
	{"engine", KindText},
	{"fuel_type", KindText},
	{"transmission", KindText},
	{"doors", KindInteger},
	{"seats", KindInteger},
	{"exterior_color", KindText},
	{"interior_color", KindText},
	{"base_ext_color", KindText},
	{"base_int_color", KindText},
	{"model_code", KindText},

	// market
	{"dom", KindInteger},
	{"dom_180", KindInteger},
	{"dom_active", KindInteger},
	{"dos_active", KindInteger},
	{"seller_type", KindText},
	{"inventory_type", KindText},
	{"availability_status", KindText},
	{"is_used", KindBoolean},
	{"is_cpo", KindBoolean},
	{"is_certified", KindBoolean},
	{"in_transit", KindBoolean},
	{"stock_number", KindText},
	{"dist", KindReal},

	// dealer
	{"dealer_name", KindText},
	{"dealer_city", KindText},
	{"dealer_state", KindText},
	{"dealer_zip", KindText},
	{"dealer_phone", KindText},
	{"dealer_latitude", KindReal},
	{"dealer_longitude", KindReal},
	{"dealer_country", KindText},
	{"dealer_type", KindText},
	{"dealer_msa_code", KindText},

	// links
	{"vdp_url", KindText},
	{"carfax_url", KindText},
	{"carfax_one_owner", KindBoolean},
	{"carfax_clean_title", KindBoolean},

	// media
	{"primary_image_url", KindText},
	{"photo_count", KindInteger},

	// build
	{"build_year", KindInteger},
	{"build_make", KindText},
	{"build_model", KindText},
	{"build_trim", KindText},
	{"build_version", KindText},
	{"build_body_type", KindText},
	{"build_vehicle_type", KindText},
	{"build_transmission", KindText},
	{"build_drivetrain", KindText},
	{"build_fuel_type", KindText},
	{"build_engine", KindText},
	{"build_doors", KindInteger},
	{"build_cylinders", KindInteger},
	{"build_std_seating", KindText},
	{"build_highway_mpg", KindInteger},
	{"build_city_mpg", KindInteger},

	// opaque payloads
	{"financing_options_json", KindJSON},
	{"leasing_options_json", KindJSON},
	{"media_json", KindJSON},
	{"dealer_json", KindJSON},
	{"mc_dealership_json", KindJSON},
	{"build_json", KindJSON},
	{"raw_json", KindJSON},
}

var columnIndex = func() map[string]int {
	idx := make(map[string]int, len(Columns))
	for i, c := range Columns {
		idx[c.Name] = i
	}
	return idx
}()

// ColumnNames returns the unified column names in schema order.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// LookupColumn returns the column definition for name.
func LookupColumn(name string) (Column, bool) {
	i, ok := columnIndex[name]
	if !ok {
		return Column{}, false
	}
	return Columns[i], true
}
