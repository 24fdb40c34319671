package domain

import (
	"fmt"
	"math"
	"time"
)

// Twilight is the solar depression angle, in degrees below the horizon, that
// bounds daylight.
type Twilight float64

const (
	TwilightCivil        Twilight = 6
	TwilightNautical     Twilight = 12
	TwilightAstronomical Twilight = 18
)

// ParseTwilight accepts "civil", "nautical" or "astronomical".
func ParseTwilight(name string) (Twilight, error) {
	switch name {
	case "", "civil":
		return TwilightCivil, nil
	case "nautical":
		return TwilightNautical, nil
	case "astronomical":
		return TwilightAstronomical, nil
	default:
		return 0, fmt.Errorf("unknown twilight %q", name)
	}
}

const (
	deg2rad  = math.Pi / 180
	rad2deg  = 180 / math.Pi
	unixJD   = 2440587.5
	j2000JD  = 2451545.0
	daysPerC = 36525.0
)

func julianCentury(t time.Time) float64 {
	jd := float64(t.UnixNano())/float64(24*time.Hour) + unixJD
	return (jd - j2000JD) / daysPerC
}

// sunPosition holds the NOAA solar quantities for one instant.
type sunPosition struct {
	declination  float64 // radians
	eqOfTime     float64 // minutes
	apparentLong float64 // degrees
}

func solarPosition(t float64) sunPosition {
	l0 := math.Mod(280.46646+t*(36000.76983+t*0.0003032), 360)
	m := (357.52911 + t*(35999.05029-0.0001537*t)) * deg2rad
	e := 0.016708634 - t*(0.000042037+0.0000001267*t)

	c := math.Sin(m)*(1.914602-t*(0.004817+0.000014*t)) +
		math.Sin(2*m)*(0.019993-0.000101*t) +
		math.Sin(3*m)*0.000289
	omega := (125.04 - 1934.136*t) * deg2rad
	lambda := l0 + c - 0.00569 - 0.00478*math.Sin(omega)

	eps0 := 23 + (26+(21.448-t*(46.815+t*(0.00059-t*0.001813)))/60)/60
	eps := (eps0 + 0.00256*math.Cos(omega)) * deg2rad

	y := math.Tan(eps / 2)
	y *= y
	l0r := l0 * deg2rad
	eot := 4 * rad2deg * (y*math.Sin(2*l0r) - 2*e*math.Sin(m) +
		4*e*y*math.Sin(m)*math.Cos(2*l0r) -
		0.5*y*y*math.Sin(4*l0r) - 1.25*e*e*math.Sin(2*m))

	return sunPosition{
		declination:  math.Asin(math.Sin(eps) * math.Sin(lambda*deg2rad)),
		eqOfTime:     eot,
		apparentLong: lambda,
	}
}

// sunriseSunset returns the sunrise and sunset on the UTC day starting at
// day. ok is false when the sun never crosses the twilight angle.
func sunriseSunset(day time.Time, p GeoPoint, dep Twilight) (rise, set time.Time, ok bool) {
	noonMinutes := 720 - 4*p.Lon
	pos := solarPosition(julianCentury(day.Add(time.Duration(noonMinutes * float64(time.Minute)))))

	zenith := (90 + float64(dep)) * deg2rad
	lat := p.Lat * deg2rad
	cosHA := math.Cos(zenith)/(math.Cos(lat)*math.Cos(pos.declination)) - math.Tan(lat)*math.Tan(pos.declination)
	if cosHA > 1 || cosHA < -1 {
		return time.Time{}, time.Time{}, false
	}
	ha := math.Acos(cosHA) * rad2deg

	solarNoon := noonMinutes - pos.eqOfTime
	rise = day.Add(time.Duration((solarNoon - 4*ha) * float64(time.Minute)))
	set = day.Add(time.Duration((solarNoon + 4*ha) * float64(time.Minute)))
	return rise, set, true
}

// NextSunriseSunset finds the first sunrise and first sunset strictly after t.
func NextSunriseSunset(t time.Time, p GeoPoint, dep Twilight) (rise, set time.Time, ok bool) {
	u := t.UTC()
	day0 := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	for i := -1; i <= 2; i++ {
		r, s, found := sunriseSunset(day0.AddDate(0, 0, i), p, dep)
		if !found {
			continue
		}
		if r.After(t) && (rise.IsZero() || r.Before(rise)) {
			rise = r
		}
		if s.After(t) && (set.IsZero() || s.Before(set)) {
			set = s
		}
	}
	return rise, set, !rise.IsZero() && !set.IsZero()
}

// SolarElevation is the sun's altitude above the horizon in degrees, without
// refraction.
func SolarElevation(t time.Time, p GeoPoint) float64 {
	pos := solarPosition(julianCentury(t))
	u := t.UTC()
	minutes := float64(u.Hour()*60+u.Minute()) + float64(u.Second())/60
	trueSolar := math.Mod(minutes+pos.eqOfTime+4*p.Lon, 1440)
	ha := (trueSolar/4 - 180) * deg2rad

	lat := p.Lat * deg2rad
	cosZen := math.Sin(lat)*math.Sin(pos.declination) + math.Cos(lat)*math.Cos(pos.declination)*math.Cos(ha)
	return 90 - math.Acos(math.Max(-1, math.Min(1, cosZen)))*rad2deg
}

// IsDaylight reports whether the next sunset comes before the next sunrise.
// Where the sun does not cross the twilight angle, the current elevation
// decides.
func IsDaylight(t time.Time, p GeoPoint, dep Twilight) bool {
	rise, set, ok := NextSunriseSunset(t, p, dep)
	if !ok {
		return SolarElevation(t, p) > -float64(dep)
	}
	return set.Before(rise)
}
