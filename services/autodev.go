package services

import (
	"unified-listings/models"
)

// NormalizeAutoDev maps an Auto.dev listing into the unified shape.
//
// Payload paths read: vehicle.{vin,year,make,...}, retailListing.{price,
// miles,used,cpo,photos,dealerDetails,...}, top-level id/listingId,
// createdAt, online and location as a [longitude, latitude] pair.
func NormalizeAutoDev(listing models.RawListing, fetchedAt string) *models.Record {
	vehicle := listing.Object("vehicle")
	retail := listing.Object("retailListing")
	dealer := retail.Object("dealerDetails")
	location := listing.List("location")
	photos := retail.List("photos")

	vin := ToText(vehicle.Get("vin"))
	if vin == nil {
		return nil
	}

	rec := models.NewRecord()
	rec.Set("vin", vin)
	rec.Set("listing_id", firstText(listing.Get("id"), listing.Get("listingId")))
	rec.Set("heading", firstText(retail.Get("title"), vehicle.Get("model")))
	rec.Set("source", SourceAutoDev)
	rec.Set("data_source", SourceAutoDev)
	rec.Set("data_fetched_at", fetchedAt)
	rec.Set("listing_created_at", ToText(listing.Get("createdAt")))
	rec.Set("online", ToBool(listing.Get("online")))

	rec.Set("price", ToInt(retail.Get("price")))
	rec.Set("mileage", ToInt(retail.Get("miles")))
	rec.Set("msrp", ToInt(retail.Get("msrp")))

	rec.Set("year", ToInt(vehicle.Get("year")))
	rec.Set("make", ToText(vehicle.Get("make")))
	rec.Set("model", ToText(vehicle.Get("model")))
	rec.Set("trim", ToText(vehicle.Get("trim")))
	rec.Set("body_style", ToText(vehicle.Get("bodyStyle")))
	rec.Set("drivetrain", ToText(vehicle.Get("drivetrain")))
	rec.Set("engine", ToText(vehicle.Get("engine")))
	rec.Set("fuel_type", ToText(vehicle.Get("fuel")))
	rec.Set("transmission", ToText(vehicle.Get("transmission")))
	rec.Set("doors", ToInt(vehicle.Get("doors")))
	rec.Set("seats", ToInt(vehicle.Get("seats")))
	rec.Set("exterior_color", ToText(vehicle.Get("exteriorColor")))
	rec.Set("interior_color", ToText(vehicle.Get("interiorColor")))

	if used := ToBool(retail.Get("used")); used != nil {
		rec.Set("is_used", used)
		if *used {
			rec.Set("inventory_type", "used")
		} else {
			rec.Set("inventory_type", "new")
		}
	}
	cpo := ToBool(retail.Get("cpo"))
	rec.Set("is_cpo", cpo)
	rec.Set("is_certified", cpo)
	rec.Set("stock_number", ToText(retail.Get("stockNumber")))

	rec.Set("dealer_name", firstText(retail.Get("dealer"), dealer.Get("name")))
	rec.Set("dealer_city", firstText(retail.Get("city"), dealer.Get("city")))
	rec.Set("dealer_state", firstText(retail.Get("state"), dealer.Get("state")))
	rec.Set("dealer_zip", firstText(retail.Get("zip"), dealer.Get("zip")))
	rec.Set("dealer_phone", firstText(retail.Get("phone"), dealer.Get("phone")))

	var lon, lat any
	if len(location) > 0 {
		lon = location[0]
	}
	if len(location) > 1 {
		lat = location[1]
	}
	rec.Set("dealer_longitude", firstFloat(lon, dealer.Get("longitude")))
	rec.Set("dealer_latitude", firstFloat(lat, dealer.Get("latitude")))

	var firstPhoto any
	if len(photos) > 0 {
		firstPhoto = photos[0]
	}
	rec.Set("primary_image_url", firstText(retail.Get("primaryImage"), firstPhoto))
	rec.Set("photo_count", ToInt(retail.Get("photoCount")))
	if len(photos) > 0 {
		rec.SetIfAbsent("photo_count", int64(len(photos)))
		rec.Set("media_json", jsonBlob(map[string]any{"photos": photos}))
	}

	rec.Set("vdp_url", ToText(retail.Get("vdp")))
	rec.Set("carfax_url", ToText(retail.Get("carfaxUrl")))
	rec.Set("carfax_one_owner", ToBool(retail.Get("carfaxOneOwner")))
	rec.Set("carfax_clean_title", ToBool(retail.Get("carfaxCleanTitle")))

	rec.Set("dealer_json", jsonBlob(dealer))
	rec.Set("build_json", jsonBlob(vehicle))
	rec.Set("raw_json", jsonBlob(listing))

	Reconcile(rec)
	return rec
}
