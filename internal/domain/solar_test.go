package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wellington = GeoPoint{Lon: 174.7762, Lat: -41.2865}

func nzdt(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.FixedZone("NZDT", 13*3600))
}

func TestParseTwilight(t *testing.T) {
	for name, want := range map[string]Twilight{
		"":             TwilightCivil,
		"civil":        TwilightCivil,
		"nautical":     TwilightNautical,
		"astronomical": TwilightAstronomical,
	} {
		got, err := ParseTwilight(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseTwilight("golden")
	require.Error(t, err)
}

func TestNextSunriseSunset(t *testing.T) {
	t.Run("horizon with refraction", func(t *testing.T) {
		rise, set, ok := NextSunriseSunset(nzdt(2015, 1, 1, 0, 0), wellington, Twilight(0.833))
		require.True(t, ok)
		assert.WithinDuration(t, nzdt(2015, 1, 1, 5, 51), rise, 2*time.Minute)
		assert.WithinDuration(t, nzdt(2015, 1, 1, 20, 57), set, 2*time.Minute)
	})

	t.Run("civil twilight", func(t *testing.T) {
		rise, set, ok := NextSunriseSunset(nzdt(2015, 1, 1, 0, 0), wellington, TwilightCivil)
		require.True(t, ok)
		assert.WithinDuration(t, nzdt(2015, 1, 1, 5, 17), rise, 2*time.Minute)
		assert.WithinDuration(t, nzdt(2015, 1, 1, 21, 30), set, 2*time.Minute)
	})

	t.Run("after sunset finds tomorrow's sunrise", func(t *testing.T) {
		rise, set, ok := NextSunriseSunset(nzdt(2015, 1, 1, 22, 0), wellington, TwilightCivil)
		require.True(t, ok)
		assert.WithinDuration(t, nzdt(2015, 1, 2, 5, 18), rise, 3*time.Minute)
		assert.True(t, set.After(rise))
	})

	t.Run("polar night", func(t *testing.T) {
		svalbard := GeoPoint{Lon: 15.6, Lat: 78.2}
		_, _, ok := NextSunriseSunset(time.Date(2015, 12, 21, 12, 0, 0, 0, time.UTC), svalbard, TwilightCivil)
		assert.False(t, ok)
	})
}

func TestIsDaylight(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		dep  Twilight
		want bool
	}{
		{"before civil dawn", nzdt(2015, 1, 1, 5, 0), TwilightCivil, false},
		{"after civil dawn", nzdt(2015, 1, 1, 5, 30), TwilightCivil, true},
		{"midday", nzdt(2015, 1, 1, 13, 0), TwilightCivil, true},
		{"civil dusk", nzdt(2015, 1, 1, 21, 15), TwilightCivil, true},
		{"after civil dusk", nzdt(2015, 1, 1, 21, 45), TwilightCivil, false},
		{"nautical dawn", nzdt(2015, 1, 1, 5, 0), TwilightNautical, true},
		{"midnight", nzdt(2015, 1, 1, 0, 30), TwilightAstronomical, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDaylight(tt.at, wellington, tt.dep))
		})
	}

	t.Run("polar night falls back to elevation", func(t *testing.T) {
		svalbard := GeoPoint{Lon: 15.6, Lat: 78.2}
		assert.False(t, IsDaylight(time.Date(2015, 12, 21, 12, 0, 0, 0, time.UTC), svalbard, TwilightCivil))
	})

	t.Run("midnight sun falls back to elevation", func(t *testing.T) {
		svalbard := GeoPoint{Lon: 15.6, Lat: 78.2}
		assert.True(t, IsDaylight(time.Date(2015, 6, 21, 23, 0, 0, 0, time.UTC), svalbard, TwilightCivil))
	})
}

func TestSolarElevation(t *testing.T) {
	noon := nzdt(2015, 1, 1, 13, 30)
	elev := SolarElevation(noon, wellington)
	// Summer solstice noon: 90 - 41.3 + 23.0.
	assert.InDelta(t, 71.7, elev, 1.0)

	assert.Less(t, SolarElevation(nzdt(2015, 1, 1, 1, 0), wellington), -6.0)
}

func TestMoonPhaseAt(t *testing.T) {
	tests := []struct {
		name       string
		at         time.Time
		fraction   float64
		bucket     int
		phaseLabel string
	}{
		{"full moon", time.Date(2014, 10, 8, 10, 51, 0, 0, time.UTC), 0.5, 13, "Full Moon"},
		{"new moon", time.Date(2014, 10, 23, 21, 57, 0, 0, time.UTC), 0.0, 0, "New Moon"},
		{"first quarter", time.Date(2014, 10, 1, 19, 33, 0, 0, time.UTC), 0.25, 7, "First Quarter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoonPhaseAt(tt.at)
			assert.InDelta(t, tt.fraction, got.Fraction, 0.005)
			assert.Equal(t, tt.bucket, got.Bucket)
			assert.Equal(t, tt.phaseLabel, got.Name)
		})
	}
}

func TestNewMoonPhase(t *testing.T) {
	tests := []struct {
		fraction float64
		bucket   int
		name     string
	}{
		{0.0, 0, "New Moon"},
		{0.06, 2, "New Moon"},
		{0.1, 3, "Waxing Crescent"},
		{0.5, 13, "Full Moon"},
		{0.65, 17, "Waning Gibbous"},
		{0.75, 20, "Last Quarter"},
		{0.9, 23, "Waning Crescent"},
		{0.97, 25, "New Moon"},
		{0.999, 26, "New Moon"},
	}
	for _, tt := range tests {
		got := NewMoonPhase(tt.fraction)
		assert.Equal(t, tt.bucket, got.Bucket, "fraction %v", tt.fraction)
		assert.Equal(t, tt.name, got.Name, "fraction %v", tt.fraction)
		assert.GreaterOrEqual(t, got.Bucket, 0)
		assert.Less(t, got.Bucket, MoonPhaseBuckets)
	}
}
