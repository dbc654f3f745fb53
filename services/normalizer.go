package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"unified-listings/models"
)

const (
	SourceAutoDev     = "autodev"
	SourceMarketcheck = "marketcheck"
)

// Normalizer maps one raw listing from a single source into the unified
// shape. It returns nil when the listing has no VIN. Implementations are
// stateless and may be called any number of times.
type Normalizer func(listing models.RawListing, fetchedAt string) *models.Record

// NormalizerFor returns the normalizer registered for source.
func NormalizerFor(source string) (Normalizer, error) {
	switch source {
	case SourceAutoDev:
		return NormalizeAutoDev, nil
	case SourceMarketcheck:
		return NormalizeMarketcheck, nil
	}
	return nil, fmt.Errorf("no normalizer for source %q", source)
}

// AliasPair links a generic column with the build_* column that carries
// the same concept in another source's vocabulary.
type AliasPair struct {
	Generic string
	Build   string
}

// AliasPairs drives Reconcile.
var AliasPairs = []AliasPair{
	{"year", "build_year"},
	{"make", "build_make"},
	{"model", "build_model"},
	{"trim", "build_trim"},
	{"body_style", "build_body_type"},
	{"drivetrain", "build_drivetrain"},
	{"engine", "build_engine"},
	{"fuel_type", "build_fuel_type"},
	{"transmission", "build_transmission"},
	{"doors", "build_doors"},
	{"seats", "build_std_seating"},
}

// Reconcile backfills each side of every alias pair from the other when
// only one side is set. Populated columns are never overwritten.
func Reconcile(rec *models.Record) {
	for _, p := range AliasPairs {
		switch {
		case rec.IsSet(p.Generic) && !rec.IsSet(p.Build):
			rec.SetIfAbsent(p.Build, coerceFor(p.Build, rec.Get(p.Generic)))
		case rec.IsSet(p.Build) && !rec.IsSet(p.Generic):
			rec.SetIfAbsent(p.Generic, coerceFor(p.Generic, rec.Get(p.Build)))
		}
	}
}

// coerceFor converts v to the storage kind of col.
func coerceFor(col string, v any) any {
	c, _ := models.LookupColumn(col)
	switch c.Kind {
	case models.KindInteger:
		return ToInt(v)
	case models.KindReal:
		return ToFloat(v)
	case models.KindBoolean:
		return ToBool(v)
	default:
		return ToText(v)
	}
}

// jsonBlob serializes v, returning nil for empty objects and arrays.
func jsonBlob(v any) *string {
	switch x := v.(type) {
	case nil, bool:
		return nil
	case string:
		if x == "" {
			return nil
		}
	case models.RawListing:
		if len(x) == 0 {
			return nil
		}
	case map[string]any:
		if len(x) == 0 {
			return nil
		}
	case []any:
		if len(x) == 0 {
			return nil
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil
	}
	s := string(bytes.TrimRight(buf.Bytes(), "\n"))
	return &s
}

// firstText returns the first candidate that coerces to non-empty text.
func firstText(candidates ...any) *string {
	for _, c := range candidates {
		if s := ToText(c); s != nil {
			return s
		}
	}
	return nil
}

// firstFloat returns the first candidate that coerces to a float.
func firstFloat(candidates ...any) *float64 {
	for _, c := range candidates {
		if f := ToFloat(c); f != nil {
			return f
		}
	}
	return nil
}
