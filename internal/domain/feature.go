package domain

import (
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// BuildFeature renders a located record as a GeoJSON point feature. ok is
// false when the record has no location.
func BuildFeature(r CrashRecord) (*geojson.Feature, bool) {
	if !r.HasLocation() {
		return nil, false
	}
	return &geojson.Feature{
		ID:         r.ID,
		Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Location.Lon, r.Location.Lat}),
		Properties: FeatureProperties(r),
	}, true
}

// BuildFeatureCollection keeps only located records, in input order.
func BuildFeatureCollection(records []CrashRecord) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, r := range records {
		if f, ok := BuildFeature(r); ok {
			fc.Features = append(fc.Features, f)
		}
	}
	return fc
}

// FeatureProperties flattens a record into the properties object. Absent
// values are omitted rather than written as null.
func FeatureProperties(r CrashRecord) map[string]interface{} {
	p := map[string]interface{}{
		"crash_id":     r.ID,
		"schema":       SchemaVersion,
		"worst_injury": string(r.Worst),
		"injury_code":  r.Worst.Code(),
		"worst_fatal":  r.WorstFatal(),
		"worst_severe": r.WorstSevere(),
		"worst_minor":  r.WorstMinor(),
		"worst_none":   r.WorstNone(),
		"fatal_count":  r.FatalCount,
		"severe_count": r.SevereCount,
		"minor_count":  r.MinorCount,
		"intersection": r.Intersection,
		"involvement":  r.Involvement,
		"parties":      r.Parties,
		"causes":       r.Causes,
	}

	setString(p, "authority", r.Authority)
	setString(p, "road", r.Road)
	setString(p, "raw_road", r.RawRoad)
	setString(p, "side_road", r.SideRoad)
	setString(p, "direction", r.Direction)
	setString(p, "key_vehicle_direction", r.KeyVehicleDirection)
	setString(p, "day_of_week", r.DayOfWeek)
	setString(p, "holiday", r.Holiday)
	setString(p, "region", r.Region)
	setString(p, "place", r.Place)
	setString(p, "address", r.Address)
	setString(p, "place_source", r.PlaceSource)
	setString(p, "junction", r.Junction)
	setString(p, "road_curve", r.RoadCurve)
	setString(p, "road_wet", r.RoadWet)
	setString(p, "traffic_control", r.TrafficControl)
	setString(p, "road_marking", r.RoadMarking)
	setString(p, "light", r.Light[0])
	setString(p, "street_lights", r.Light[1])
	setString(p, "weather", r.Weather[0])
	setString(p, "weather_secondary", r.Weather[1])
	setString(p, "run_id", r.RunID)

	p["holiday_period"] = r.Holiday != ""
	if r.Distance != nil {
		p["distance"] = *r.Distance
	}
	if !r.Date.IsZero() {
		p["date"] = r.Date.Format("2006-01-02")
	}
	if r.Time != nil {
		p["time"] = r.Time.String()
	}
	if !r.Instant.IsZero() {
		p["instant"] = r.Instant.Format(time.RFC3339)
	}
	if r.Daylight != nil {
		p["daylight"] = *r.Daylight
	}
	if r.Moon != nil {
		p["moon_phase"] = *r.Moon
	}
	if r.Movement != nil {
		p["movement"] = *r.Movement
	}
	if len(r.ObjectsStruck) > 0 {
		p["objects_struck"] = r.ObjectsStruck
	}
	if len(r.MalformedCauses) > 0 {
		p["malformed_causes"] = r.MalformedCauses
	}
	if !r.SpeedLimit.IsZero() {
		p["speed_limit"] = r.SpeedLimit.String()
	}
	if r.PersonAge1 != nil {
		p["person_age_1"] = *r.PersonAge1
	}
	if r.PersonAge2 != nil {
		p["person_age_2"] = *r.PersonAge2
	}
	if len(r.Causes) > 0 {
		p["cause_text"] = r.CauseSentences()
	}
	if !r.ProcessedAt.IsZero() {
		p["processed_at"] = r.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return p
}

func setString(p map[string]interface{}, key, v string) {
	if v != "" {
		p[key] = v
	}
}

// String formats a location for log attributes.
func (g GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", g.Lon, g.Lat)
}
