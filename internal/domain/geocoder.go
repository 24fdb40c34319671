package domain

import "context"

// PlaceResult contains place data returned by a reverse geocoding provider.
type PlaceResult struct {
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0-1.0 provider confidence score
}

// Geocoder names the place nearest a crash location.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (PlaceResult, error)
}

// RegionLocator resolves the administrative region containing a point.
// ok is false when the point lies outside every known boundary.
type RegionLocator interface {
	Region(p GeoPoint) (name string, ok bool)
}
