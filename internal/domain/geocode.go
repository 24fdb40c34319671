package domain

import (
	"context"
	"log/slog"
)

// EnrichWithRegion sets the record's region from the boundary set. Records
// without a location, or with no locator, are returned unchanged.
func EnrichWithRegion(rec CrashRecord, regions RegionLocator) CrashRecord {
	if regions == nil || !rec.HasLocation() {
		return rec
	}
	if name, ok := regions.Region(*rec.Location); ok {
		rec.Region = name
	}
	return rec
}

// EnrichWithPlace attempts to attach a reverse-geocoded place name. If the
// geocoder is nil or fails, the record is returned with PlaceSource set
// accordingly (graceful degradation).
func EnrichWithPlace(ctx context.Context, rec CrashRecord, geocoder Geocoder, logger *slog.Logger) CrashRecord {
	if geocoder == nil {
		return rec
	}
	if !rec.HasLocation() {
		rec.PlaceSource = "none"
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Location.Lat, rec.Location.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"crash_id", rec.ID,
			"location", rec.Location.String(),
			"error", err,
		)
		rec.PlaceSource = "failed"
		return rec
	}
	if result.FormattedAddress == "" {
		rec.PlaceSource = "none"
		return rec
	}
	rec.Address = result.FormattedAddress
	rec.Place = result.PlaceName
	rec.PlaceSource = "reverse"
	return rec
}
