package services

import (
	"encoding/json"
	"strings"
	"testing"

	"unified-listings/models"
)

const fetchedAt = "2024-05-01T12:00:00Z"

func decodeListing(t *testing.T, raw string) models.RawListing {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return models.RawListing(obj)
}

func setColumns(rec *models.Record) []string {
	var cols []string
	for _, name := range models.ColumnNames() {
		if rec.IsSet(name) {
			cols = append(cols, name)
		}
	}
	return cols
}

func TestNormalizersSkipMissingVIN(t *testing.T) {
	cases := map[string]string{
		SourceAutoDev:     `{"vehicle":{"make":"Ford"},"retailListing":{"price":100}}`,
		SourceMarketcheck: `{"vin":"  ","price":100}`,
	}
	for source, raw := range cases {
		normalize, err := NormalizerFor(source)
		if err != nil {
			t.Fatal(err)
		}
		if rec := normalize(decodeListing(t, raw), fetchedAt); rec != nil {
			t.Errorf("%s: expected nil record without VIN", source)
		}
	}
	if _, err := NormalizerFor("carvana"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestAutoDevVINOnly(t *testing.T) {
	rec := NormalizeAutoDev(decodeListing(t, `{"vehicle":{"vin":"1FAKE000000000001"}}`), fetchedAt)
	if rec == nil {
		t.Fatal("expected record")
	}
	want := []string{"vin", "source", "data_source", "data_fetched_at", "build_json", "raw_json"}
	got := setColumns(rec)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("set columns: got %v, want %v", got, want)
	}
}

func TestAutoDevFullListing(t *testing.T) {
	raw := `{
		"id": 991,
		"createdAt": "2024-04-30T08:00:00Z",
		"online": true,
		"location": [-122.4, 37.8],
		"vehicle": {"vin": "1FAKE000000000002", "year": 2020, "make": "Honda", "model": "Civic",
			"trim": "EX", "fuel": "Gasoline", "doors": "4", "seats": 5},
		"retailListing": {"price": "18,500", "miles": 32000.6, "used": "true", "cpo": 1,
			"dealer": "Bay Honda", "state": "CA",
			"photos": ["https://img/1.jpg", "https://img/2.jpg"],
			"dealerDetails": {"name": "Ignored", "city": "Oakland", "latitude": 1, "longitude": 2}}
	}`
	rec := NormalizeAutoDev(decodeListing(t, raw), fetchedAt)
	if rec == nil {
		t.Fatal("expected record")
	}

	checks := map[string]any{
		"listing_id":        "991",
		"heading":           "Civic",
		"source":            "autodev",
		"online":            true,
		"price":             int64(18500),
		"mileage":           int64(32000),
		"year":              int64(2020),
		"build_year":        int64(2020),
		"build_make":        "Honda",
		"build_fuel_type":   "Gasoline",
		"doors":             int64(4),
		"build_doors":       int64(4),
		"build_std_seating": "5",
		"is_used":           true,
		"inventory_type":    "used",
		"is_cpo":            true,
		"is_certified":      true,
		"dealer_name":       "Bay Honda",
		"dealer_city":       "Oakland",
		"dealer_state":      "CA",
		"dealer_longitude":  -122.4,
		"dealer_latitude":   37.8,
		"primary_image_url": "https://img/1.jpg",
		"photo_count":       int64(2),
		"media_json":        `{"photos":["https://img/1.jpg","https://img/2.jpg"]}`,
	}
	for col, want := range checks {
		if got := rec.Get(col); got != want {
			t.Errorf("%s: got %#v, want %#v", col, got, want)
		}
	}
	if !rec.IsSet("dealer_json") || !rec.IsSet("raw_json") {
		t.Error("expected dealer_json and raw_json blobs")
	}
}

func TestAutoDevPhotoCountZeroIsKept(t *testing.T) {
	raw := `{"vehicle":{"vin":"1FAKE000000000003"},"retailListing":{"photoCount":0,"photos":["a.jpg"],"used":false}}`
	rec := NormalizeAutoDev(decodeListing(t, raw), fetchedAt)
	if n, ok := rec.Int("photo_count"); !ok || n != 0 {
		t.Errorf("photo_count: got %v", rec.Get("photo_count"))
	}
	if rec.String("inventory_type") != "new" {
		t.Errorf("inventory_type: got %q", rec.String("inventory_type"))
	}
	if used, ok := rec.Bool("is_used"); !ok || used {
		t.Errorf("is_used: got %v", rec.Get("is_used"))
	}
}

func TestMarketcheckVINOnly(t *testing.T) {
	rec := NormalizeMarketcheck(decodeListing(t, `{"vin":"1FAKE000000000004"}`), fetchedAt)
	if rec == nil {
		t.Fatal("expected record")
	}
	want := []string{"vin", "source", "data_source", "data_fetched_at", "raw_json"}
	got := setColumns(rec)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("set columns: got %v, want %v", got, want)
	}
	if rec.String("data_source") != "marketcheck" {
		t.Errorf("data_source: got %q", rec.String("data_source"))
	}
}

func TestMarketcheckFullListing(t *testing.T) {
	raw := `{
		"id": "mc-1", "vin": "1FAKE000000000005", "heading": "2019 Ford F-150 XLT",
		"price": 15000, "miles": "41,000", "dom": 12.0, "dist": 3.5,
		"inventory_type": "Used ", "is_certified": 0, "data_source": "mc",
		"financing_options": [{"loan_term": 60}],
		"leasing_options": [],
		"build": {"year": 2019, "make": "Ford", "model": "F-150", "trim": "XLT",
			"body_type": "Pickup", "doors": 4, "std_seating": "5"},
		"dealer": {"name": "Dallas Ford", "state": "TX", "latitude": "32.7", "longitude": -96.8},
		"media": {"photo_links": ["https://img/a.jpg", "https://img/b.jpg", "https://img/c.jpg"]}
	}`
	rec := NormalizeMarketcheck(decodeListing(t, raw), fetchedAt)
	if rec == nil {
		t.Fatal("expected record")
	}

	checks := map[string]any{
		"listing_id":             "mc-1",
		"data_source":            "mc",
		"price":                  int64(15000),
		"mileage":                int64(41000),
		"dom":                    int64(12),
		"dist":                   3.5,
		"inventory_type":         "used",
		"is_used":                true,
		"is_certified":           false,
		"is_cpo":                 false,
		"year":                   int64(2019),
		"make":                   "Ford",
		"model":                  "F-150",
		"trim":                   "XLT",
		"body_style":             "Pickup",
		"doors":                  int64(4),
		"seats":                  int64(5),
		"dealer_state":           "TX",
		"dealer_latitude":        32.7,
		"dealer_longitude":       -96.8,
		"primary_image_url":      "https://img/a.jpg",
		"photo_count":            int64(3),
		"financing_options_json": `[{"loan_term":60}]`,
	}
	for col, want := range checks {
		if got := rec.Get(col); got != want {
			t.Errorf("%s: got %#v, want %#v", col, got, want)
		}
	}
	if rec.IsSet("leasing_options_json") {
		t.Error("empty leasing options should stay unset")
	}
}

func TestMarketcheckUnknownInventoryType(t *testing.T) {
	rec := NormalizeMarketcheck(decodeListing(t, `{"vin":"1FAKE000000000006","inventory_type":"Demo"}`), fetchedAt)
	if rec.String("inventory_type") != "Demo" {
		t.Errorf("inventory_type: got %q", rec.String("inventory_type"))
	}
	if rec.IsSet("is_used") {
		t.Error("is_used should stay unset for unknown inventory type")
	}
}

func TestReconcileNeverOverwrites(t *testing.T) {
	rec := models.NewRecord()
	rec.Set("make", "Chevrolet")
	rec.Set("build_make", "Chevy")
	rec.Set("build_year", int64(2018))
	rec.Set("seats", int64(7))

	Reconcile(rec)

	if rec.String("make") != "Chevrolet" || rec.String("build_make") != "Chevy" {
		t.Errorf("populated alias overwritten: make=%q build_make=%q", rec.String("make"), rec.String("build_make"))
	}
	if n, _ := rec.Int("year"); n != 2018 {
		t.Errorf("year: got %v", rec.Get("year"))
	}
	if rec.String("build_std_seating") != "7" {
		t.Errorf("build_std_seating: got %q", rec.String("build_std_seating"))
	}
	if rec.IsSet("trim") || rec.IsSet("build_trim") {
		t.Error("unset pair should stay unset")
	}

	before := rec.Values()
	Reconcile(rec)
	for i, v := range rec.Values() {
		if v != before[i] {
			t.Errorf("second Reconcile changed column %s", models.Columns[i].Name)
		}
	}
}

func TestNormalizersArePure(t *testing.T) {
	listing := decodeListing(t, `{"vin":"1FAKE000000000007","price":"9,999","build":{"make":"Kia"}}`)
	a := NormalizeMarketcheck(listing, fetchedAt)
	b := NormalizeMarketcheck(listing, fetchedAt)
	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Errorf("column %s differs between runs", models.Columns[i].Name)
		}
	}
}
