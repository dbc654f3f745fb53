package services

import (
	"strings"

	"unified-listings/models"
)

// marketcheckInts and marketcheckTexts are top-level keys copied under the
// same column name.
var (
	marketcheckInts = []string{
		"ref_price", "ref_price_dt", "ref_miles", "ref_miles_dt",
		"first_seen_at", "first_seen_at_source", "first_seen_at_mc",
		"last_seen_at", "scraped_at",
		"dom", "dom_180", "dom_active", "dos_active",
	}
	marketcheckTexts = []string{
		"heading",
		"first_seen_at_date", "first_seen_at_source_date", "first_seen_at_mc_date",
		"last_seen_at_date", "scraped_at_date",
		"exterior_color", "interior_color", "base_ext_color", "base_int_color",
		"seller_type", "availability_status", "model_code", "vdp_url",
	}
)

// NormalizeMarketcheck maps a Marketcheck search result into the unified
// shape. Vehicle attributes live under the nested build object and are
// copied onto the generic columns by Reconcile.
func NormalizeMarketcheck(listing models.RawListing, fetchedAt string) *models.Record {
	vin := ToText(listing.Get("vin"))
	if vin == nil {
		return nil
	}

	build := listing.Object("build")
	dealer := listing.Object("dealer")
	media := listing.Object("media")
	photoLinks := media.List("photo_links")

	rec := models.NewRecord()
	rec.Set("vin", vin)
	rec.Set("listing_id", ToText(listing.Get("id")))
	rec.Set("source", SourceMarketcheck)
	rec.Set("data_source", firstText(listing.Get("data_source"), SourceMarketcheck))
	rec.Set("data_fetched_at", fetchedAt)

	rec.Set("price", ToInt(listing.Get("price")))
	rec.Set("mileage", ToInt(listing.Get("miles")))
	rec.Set("msrp", ToInt(listing.Get("msrp")))
	rec.Set("price_change_percent", ToFloat(listing.Get("price_change_percent")))
	rec.Set("dist", ToFloat(listing.Get("dist")))
	for _, key := range marketcheckInts {
		rec.Set(key, ToInt(listing.Get(key)))
	}
	for _, key := range marketcheckTexts {
		rec.Set(key, ToText(listing.Get(key)))
	}

	inventory := ToText(listing.Get("inventory_type"))
	if inventory != nil {
		switch token := strings.ToLower(*inventory); token {
		case "used":
			rec.Set("is_used", true)
			rec.Set("inventory_type", token)
		case "new":
			rec.Set("is_used", false)
			rec.Set("inventory_type", token)
		default:
			rec.Set("inventory_type", inventory)
		}
	}
	certified := ToBool(listing.Get("is_certified"))
	rec.Set("is_certified", certified)
	rec.Set("is_cpo", certified)
	rec.Set("in_transit", ToBool(listing.Get("in_transit")))
	rec.Set("stock_number", ToText(listing.Get("stock_no")))
	rec.Set("carfax_one_owner", ToBool(listing.Get("carfax_1_owner")))
	rec.Set("carfax_clean_title", ToBool(listing.Get("carfax_clean_title")))

	rec.Set("dealer_name", ToText(dealer.Get("name")))
	rec.Set("dealer_city", ToText(dealer.Get("city")))
	rec.Set("dealer_state", ToText(dealer.Get("state")))
	rec.Set("dealer_zip", ToText(dealer.Get("zip")))
	rec.Set("dealer_phone", ToText(dealer.Get("phone")))
	rec.Set("dealer_latitude", ToFloat(dealer.Get("latitude")))
	rec.Set("dealer_longitude", ToFloat(dealer.Get("longitude")))
	rec.Set("dealer_country", ToText(dealer.Get("country")))
	rec.Set("dealer_type", ToText(dealer.Get("dealer_type")))
	rec.Set("dealer_msa_code", ToText(dealer.Get("msa_code")))

	if len(photoLinks) > 0 {
		rec.Set("primary_image_url", ToText(photoLinks[0]))
		rec.Set("photo_count", int64(len(photoLinks)))
	} else {
		rec.Set("photo_count", ToInt(listing.Get("photo_count")))
	}

	rec.Set("build_year", ToInt(build.Get("year")))
	rec.Set("build_make", ToText(build.Get("make")))
	rec.Set("build_model", ToText(build.Get("model")))
	rec.Set("build_trim", ToText(build.Get("trim")))
	rec.Set("build_version", ToText(build.Get("version")))
	rec.Set("build_body_type", ToText(build.Get("body_type")))
	rec.Set("build_vehicle_type", ToText(build.Get("vehicle_type")))
	rec.Set("build_transmission", ToText(build.Get("transmission")))
	rec.Set("build_drivetrain", ToText(build.Get("drivetrain")))
	rec.Set("build_fuel_type", ToText(build.Get("fuel_type")))
	rec.Set("build_engine", ToText(build.Get("engine")))
	rec.Set("build_doors", ToInt(build.Get("doors")))
	rec.Set("build_cylinders", ToInt(build.Get("cylinders")))
	rec.Set("build_std_seating", ToText(build.Get("std_seating")))
	rec.Set("build_highway_mpg", ToInt(build.Get("highway_mpg")))
	rec.Set("build_city_mpg", ToInt(build.Get("city_mpg")))

	rec.Set("financing_options_json", jsonBlob(listing.Get("financing_options")))
	rec.Set("leasing_options_json", jsonBlob(listing.Get("leasing_options")))
	rec.Set("media_json", jsonBlob(media))
	rec.Set("dealer_json", jsonBlob(dealer))
	rec.Set("mc_dealership_json", jsonBlob(listing.Get("mc_dealership")))
	rec.Set("build_json", jsonBlob(build))
	rec.Set("raw_json", jsonBlob(listing))

	Reconcile(rec)
	return rec
}
