package models

import (
	"encoding/json"
	"testing"
)

func TestNewRecordIsUnset(t *testing.T) {
	rec := NewRecord()
	for _, c := range Columns {
		if rec.IsSet(c.Name) {
			t.Errorf("column %s should start unset", c.Name)
		}
	}
	if len(rec.Values()) != len(Columns) {
		t.Errorf("Values len: got %d, want %d", len(rec.Values()), len(Columns))
	}
}

func TestZeroValuesAreSet(t *testing.T) {
	rec := NewRecord()
	rec.Set("price", int64(0))
	rec.Set("is_used", false)
	rec.Set("dealer_latitude", 0.0)

	for _, col := range []string{"price", "is_used", "dealer_latitude"} {
		if !rec.IsSet(col) {
			t.Errorf("%s: zero value should count as set", col)
		}
	}
}

func TestSetNormalizesByKind(t *testing.T) {
	rec := NewRecord()
	var nilText *string
	year := int64(2021)

	rec.Set("vin", []byte("1FAKE000000000001"))
	rec.Set("year", &year)
	rec.Set("price", 15999.9)
	rec.Set("dist", int64(4))
	rec.Set("online", int64(1))
	rec.Set("doors", 4)
	rec.Set("heading", nilText)

	if rec.String("vin") != "1FAKE000000000001" {
		t.Errorf("vin: got %#v", rec.Get("vin"))
	}
	if n, ok := rec.Int("year"); !ok || n != 2021 {
		t.Errorf("year: got %#v", rec.Get("year"))
	}
	if n, ok := rec.Int("price"); !ok || n != 15999 {
		t.Errorf("price: got %#v", rec.Get("price"))
	}
	if f, ok := rec.Float("dist"); !ok || f != 4 {
		t.Errorf("dist: got %#v", rec.Get("dist"))
	}
	if b, ok := rec.Bool("online"); !ok || !b {
		t.Errorf("online: got %#v", rec.Get("online"))
	}
	if n, ok := rec.Int("doors"); !ok || n != 4 {
		t.Errorf("doors: got %#v", rec.Get("doors"))
	}
	if rec.IsSet("heading") {
		t.Error("typed nil pointer should leave column unset")
	}
}

func TestSetIfAbsent(t *testing.T) {
	rec := NewRecord()
	if !rec.SetIfAbsent("make", "Ford") {
		t.Error("first SetIfAbsent should write")
	}
	if rec.SetIfAbsent("make", "Chevrolet") {
		t.Error("second SetIfAbsent should not write")
	}
	if rec.SetIfAbsent("model", nil) {
		t.Error("nil should not count as a write")
	}
	if rec.String("make") != "Ford" {
		t.Errorf("make: got %q", rec.String("make"))
	}
}

func TestValuesFollowColumnOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("vin", "V")
	rec.Set("raw_json", "{}")

	vals := rec.Values()
	if vals[0] != "V" {
		t.Errorf("first value: got %#v", vals[0])
	}
	if vals[len(vals)-1] != "{}" {
		t.Errorf("last value: got %#v", vals[len(vals)-1])
	}

	vals[0] = "mutated"
	if rec.String("vin") != "V" {
		t.Error("Values should return a copy")
	}
}

func TestUnknownColumnPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown column")
		}
	}()
	NewRecord().Set("horsepower", 300)
}

func TestColumnsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Columns {
		if seen[c.Name] {
			t.Errorf("duplicate column %s", c.Name)
		}
		seen[c.Name] = true
		if got, ok := LookupColumn(c.Name); !ok || got != c {
			t.Errorf("LookupColumn(%s) = %v, %v", c.Name, got, ok)
		}
	}
	if Columns[0].Name != "vin" {
		t.Errorf("first column: got %s, want vin", Columns[0].Name)
	}
}

func TestRawListingAccessors(t *testing.T) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(`{"a":{"b":1},"list":[1,2],"s":"x"}`), &obj); err != nil {
		t.Fatal(err)
	}
	raw := RawListing(obj)

	if raw.Object("a").Get("b") != float64(1) {
		t.Errorf("nested get: got %#v", raw.Object("a").Get("b"))
	}
	if len(raw.Object("missing")) != 0 || len(raw.Object("s")) != 0 {
		t.Error("non-object keys should yield an empty object")
	}
	if len(raw.List("list")) != 2 || raw.List("a") != nil {
		t.Error("List should return arrays only")
	}
}

func TestRunStatsAdd(t *testing.T) {
	total := RunStats{Pages: 1, Inserted: 3}
	total.Add(RunStats{Pages: 1, Seen: 5, Inserted: 2, Rejected: 1, SkippedNoVIN: 2, RepeatedVINs: 1})
	want := RunStats{Pages: 2, Seen: 5, Inserted: 5, Rejected: 1, SkippedNoVIN: 2, RepeatedVINs: 1}
	if total != want {
		t.Errorf("Add: got %+v, want %+v", total, want)
	}
}
