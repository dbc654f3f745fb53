package models

import (
	"fmt"
	"strconv"
)

// RawListing is one listing exactly as decoded from an upstream payload.
// Accessors never fail: a missing or mistyped key yields an empty value.
type RawListing map[string]any

// Get returns the value stored under key, or nil.
func (r RawListing) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// Object returns the nested object under key, or an empty one.
func (r RawListing) Object(key string) RawListing {
	switch v := r.Get(key).(type) {
	case map[string]any:
		return RawListing(v)
	case RawListing:
		return v
	}
	return RawListing{}
}

// List returns the nested array under key, or nil.
func (r RawListing) List(key string) []any {
	if v, ok := r.Get(key).([]any); ok {
		return v
	}
	return nil
}

// Record is one vehicle listing in the unified shape. Every column in
// Columns is always present; nil marks a column as unset, which is distinct
// from a legitimate zero, false or empty value.
type Record struct {
	values []any
}

// NewRecord returns a record with every unified column unset.
func NewRecord() *Record {
	return &Record{values: make([]any, len(Columns))}
}

func (r *Record) index(col string) int {
	i, ok := columnIndex[col]
	if !ok {
		panic(fmt.Sprintf("models: unknown unified column %q", col))
	}
	return i
}

// Set stores v under col. Typed nil pointers and nil clear the column;
// non-nil pointers are dereferenced.
func (r *Record) Set(col string, v any) {
	i := r.index(col)
	r.values[i] = Columns[i].Kind.normalize(v)
}

// SetIfAbsent stores v only when col is unset. It reports whether the
// column changed.
func (r *Record) SetIfAbsent(col string, v any) bool {
	i := r.index(col)
	if r.values[i] != nil {
		return false
	}
	v = Columns[i].Kind.normalize(v)
	if v == nil {
		return false
	}
	r.values[i] = v
	return true
}

// Get returns the value of col, or nil when unset.
func (r *Record) Get(col string) any {
	return r.values[r.index(col)]
}

// IsSet reports whether col holds a value.
func (r *Record) IsSet(col string) bool {
	return r.Get(col) != nil
}

// String returns the textual value of col, or "" when unset.
func (r *Record) String(col string) string {
	switch v := r.Get(col).(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the integer value of col.
func (r *Record) Int(col string) (int64, bool) {
	v, ok := r.Get(col).(int64)
	return v, ok
}

// Float returns the real value of col.
func (r *Record) Float(col string) (float64, bool) {
	v, ok := r.Get(col).(float64)
	return v, ok
}

// Bool returns the boolean value of col.
func (r *Record) Bool(col string) (bool, bool) {
	v, ok := r.Get(col).(bool)
	return v, ok
}

// Values returns the column values in Columns order, ready to bind to a
// statement with one placeholder per unified column.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// normalize flattens pointers and driver types into the canonical Go type
// for the kind: string, int64, float64 or bool.
func (k Kind) normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *string:
		if x == nil {
			return nil
		}
		v = *x
	case *int64:
		if x == nil {
			return nil
		}
		v = *x
	case *float64:
		if x == nil {
			return nil
		}
		v = *x
	case *bool:
		if x == nil {
			return nil
		}
		v = *x
	case []byte:
		v = string(x)
	case int:
		v = int64(x)
	case int32:
		v = int64(x)
	}

	switch k {
	case KindInteger:
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	case KindReal:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case KindBoolean:
		if n, ok := v.(int64); ok {
			return n != 0
		}
	}
	return v
}

// ListingSummary is the projection of a stored row used for reporting.
type ListingSummary struct {
	VIN         string
	Source      string
	Heading     string
	Year        int64
	Make        string
	Model       string
	Price       int64
	DealerState string
}

// InsightReport holds analytics computed over the stored unified rows.
type InsightReport struct {
	TotalListings   int
	BySource        map[string]int
	PricedListings  int
	AveragePrice    float64
	MinPrice        int64
	MaxPrice        int64
	MostExpensive   *ListingSummary
	TopMakes        []MakeCount
	ListingsByState map[string]int
}

// MakeCount is one entry of the top-makes ranking.
type MakeCount struct {
	Make  string
	Count int
}

// RunStats counts what happened to listings during one fetch run.
type RunStats struct {
	Pages        int
	Seen         int
	SkippedNoVIN int
	Rejected     int
	Inserted     int
	RepeatedVINs int
}

// Add accumulates another page's counters.
func (s *RunStats) Add(o RunStats) {
	s.Pages += o.Pages
	s.Seen += o.Seen
	s.SkippedNoVIN += o.SkippedNoVIN
	s.Rejected += o.Rejected
	s.Inserted += o.Inserted
	s.RepeatedVINs += o.RepeatedVINs
}
