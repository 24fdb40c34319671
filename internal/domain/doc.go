// Package domain models NZ Transport Agency (NZTA) crash analysis records.
//
// # Data Source
//
// Crash listings are exported from the NZTA Crash Analysis System (CAS) as
// positional CSV files, one crash per row. Column meaning is fixed by the
// schema version (see [SchemaVersion] and the Col* constants); nothing
// outside [NormalizeRow] reads a raw position.
//
// # CAS Data Conventions
//
// Empty cells:
//
//	An empty cell or a single space means "not recorded". Light and weather
//	use a space inside a two-character field to mean "no secondary code".
//
// Dates and times:
//
//	Dates are day/month/year ("24/10/2014"). Unparseable dates become absent.
//	Times are HHMM with leading zeros dropped: "930" is 09:30. Times are NZ
//	local wall clock; at the autumn daylight-saving overlap the daylight
//	interpretation is used.
//
// Vehicles:
//
//	"CE1M" = key vehicle car (party A), travelling east on the first street,
//	second party a motorcycle (party B). Characters after the third are the
//	secondary parties B, C, ... in order.
//
// Cause (factor) codes:
//
//	Space separated. "301B" attributes code 301 to party B; a bare "802" is
//	an environmental factor. Code 999 has no documented meaning and is dropped.
//
// Coordinates:
//
//	Easting/northing in NZTM2000 (EPSG:2193) metres. Zero in either means the
//	location was never captured. Chatham Islands rows are registered against
//	a different grid origin and receive a fixed offset (see [RegionCorrection]).
//
// Roads:
//
//	Upper case in the source. "Z" marks an off-road crash, "CPK"/"BCH"/"DWY"/
//	"FCT" name the off-road place, and "1/300" is a State Highway linear
//	reference (route 1, reference station 300).
//
// # Severity
//
// Worst injury is classified in strict priority: fatal, severe, minor, none.
// Holiday periods only count crashes with a fatal or severe outcome.
package domain
