package domain

import (
	"math"
	"time"
)

// MoonPhaseBuckets is the number of discrete phase icons.
const MoonPhaseBuckets = 27

// MoonPhase describes the lunar phase at an instant. Fraction runs from 0
// (new) through 0.5 (full) towards 1.
type MoonPhase struct {
	Fraction float64 `json:"fraction"`
	Bucket   int     `json:"bucket"`
	Name     string  `json:"name"`
}

var moonPhaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// MoonPhaseAt computes the phase from the Moon-Sun ecliptic elongation using
// the principal lunar longitude terms.
func MoonPhaseAt(t time.Time) MoonPhase {
	c := julianCentury(t)

	d := math.Mod(297.8501921+445267.1114034*c-0.0018819*c*c, 360) * deg2rad
	m := math.Mod(357.5291092+35999.0502909*c, 360) * deg2rad
	mp := math.Mod(134.9633964+477198.8675055*c+0.0087414*c*c, 360) * deg2rad
	f := math.Mod(93.2720950+483202.0175233*c, 360) * deg2rad

	moonLong := 218.3164477 + 481267.88123421*c +
		6.288774*math.Sin(mp) +
		1.274027*math.Sin(2*d-mp) +
		0.658314*math.Sin(2*d) +
		0.213618*math.Sin(2*mp) -
		0.185116*math.Sin(m) -
		0.114332*math.Sin(2*f)

	elongation := math.Mod(moonLong-solarPosition(c).apparentLong, 360)
	if elongation < 0 {
		elongation += 360
	}
	return NewMoonPhase(elongation / 360)
}

// NewMoonPhase buckets a phase fraction in [0,1).
func NewMoonPhase(fraction float64) MoonPhase {
	return MoonPhase{
		Fraction: fraction,
		Bucket:   int(math.Round(fraction * (MoonPhaseBuckets - 1))),
		Name:     moonPhaseName(fraction),
	}
}

// moonPhaseName splits the cycle into eight named sixteenth-offset bands.
func moonPhaseName(fraction float64) string {
	i := int(math.Floor(fraction*8+0.5)) % len(moonPhaseNames)
	return moonPhaseNames[i]
}
