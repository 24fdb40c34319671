package tables

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crash-data-etl/internal/config"
	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadCauseTable_CSV(t *testing.T) {
	table, err := LoadCauseTable(testdata("causes.csv"))
	require.NoError(t, err)
	require.Len(t, table, 5)

	assert.Equal(t, domain.CauseEntry{
		Category:        "Vehicle conflicts",
		RequiresSubject: true,
		Text:            "failed to give way at a stop sign",
	}, table["301"])
	assert.False(t, table["802"].RequiresSubject)
}

func TestLoadCauseTable_PositionalColumns(t *testing.T) {
	table, err := LoadCauseTable(testdata("causes_positional.csv"))
	require.NoError(t, err)

	want := domain.CauseTable{
		"012": {Category: "Driver control", RequiresSubject: true, Text: "drove too fast"},
		"802": {Category: "Road", RequiresSubject: false, Text: "road surface slippery from rain"},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("cause table mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCauseTable_JSON(t *testing.T) {
	table, err := LoadCauseTable(testdata("causes.json"))
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.True(t, table["012"].RequiresSubject)
	assert.Equal(t, "alcohol test above limit", table["103"].Text)
}

func TestReadCauseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"header only", "Category,Group,Requires Subject,code,Pretty\n"},
		{"short row", "Category,Group,Requires Subject,code,Pretty\nRoad,Surface\n"},
		{"bad code", "Category,Group,Requires Subject,code,Pretty\nRoad,Surface,0,8021,slippery\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCauseCSV(strings.NewReader(tt.in))
			require.ErrorIs(t, err, domain.ErrTableLoad)
		})
	}
}

func TestReadCauseJSON_Invalid(t *testing.T) {
	_, err := ReadCauseJSON(strings.NewReader(`{"012": [}`))
	require.ErrorIs(t, err, domain.ErrTableLoad)
}

func TestLoadCauseTable_MissingFile(t *testing.T) {
	_, err := LoadCauseTable(testdata("nope.csv"))
	require.ErrorIs(t, err, domain.ErrTableLoad)
}

func TestLoadCauseDecoder_Modes(t *testing.T) {
	primary, err := LoadCauseDecoder(testdata("causes.csv"), "primary")
	require.NoError(t, err)
	e, ok, err := primary.DecodeCause("103")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alcohol test above limit", e.Text)

	legacy, err := LoadCauseDecoder(testdata("causes.csv"), "legacy")
	require.NoError(t, err)
	e, ok, err = legacy.DecodeCause("103")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(e.Text, " - alcohol test above limit"), e.Text)

	_, err = LoadCauseDecoder(testdata("causes.csv"), "fancy")
	require.ErrorIs(t, err, domain.ErrTableLoad)
}

func TestLoadStreetTypes(t *testing.T) {
	types, err := LoadStreetTypes(testdata("streets.csv"))
	require.NoError(t, err)

	want := map[string]string{
		"St":  "Street",
		"Rd":  "Road",
		"Ave": "Avenue",
		"Tce": "Terrace",
		"Hwy": "Highway",
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("street types mismatch (-want +got):\n%s", diff)
	}
}

func TestReadStreetTypes_Errors(t *testing.T) {
	_, err := ReadStreetTypes(strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrTableLoad)

	_, err = ReadStreetTypes(strings.NewReader("Full,Abbreviation\nStreet\n"))
	require.ErrorIs(t, err, domain.ErrTableLoad)
}

func TestLoadHolidays(t *testing.T) {
	loc, err := time.LoadLocation(domain.DefaultTimeZone)
	require.NoError(t, err)

	periods, err := LoadHolidays(testdata("holidays.yaml"), loc)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	labour := periods[0]
	assert.Equal(t, "Labour Weekend 2014", labour.Name)
	assert.True(t, labour.Start.Equal(time.Date(2014, 10, 24, 3, 0, 0, 0, time.UTC)), labour.Start)
	assert.True(t, labour.End.Equal(time.Date(2014, 10, 27, 17, 0, 0, 0, time.UTC)), labour.End)

	xmas := periods[1]
	assert.True(t, xmas.Contains(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestReadHolidays_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no name", "periods:\n  - start: \"2014-10-24 16:00\"\n    end: \"2014-10-28 06:00\"\n"},
		{"bad start", "periods:\n  - name: X\n    start: yesterday\n    end: \"2014-10-28 06:00\"\n"},
		{"reversed", "periods:\n  - name: X\n    start: \"2014-10-28 06:00\"\n    end: \"2014-10-24 16:00\"\n"},
		{"not yaml", "periods: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHolidays(strings.NewReader(tt.in), time.UTC)
			require.ErrorIs(t, err, domain.ErrTableLoad)
		})
	}
}

func TestReadHolidays_Empty(t *testing.T) {
	periods, err := ReadHolidays(strings.NewReader(""), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestLoadFactors(t *testing.T) {
	sets, err := LoadFactors(testdata("factors.yaml"))
	require.NoError(t, err)

	assert.Equal(t, domain.NewCodeSet("356", "357"), sets[domain.FactorCellphone])
	assert.Equal(t, domain.NewCodeSet("110", "111", "112"), sets[domain.FactorSpeeding])
	// Groups not named in the file keep their defaults.
	assert.Equal(t, domain.DefaultFactorSets()[domain.FactorAlcohol], sets[domain.FactorAlcohol])
}

func TestReadFactors_Errors(t *testing.T) {
	_, err := ReadFactors(strings.NewReader("jaywalking: [\"001\"]\n"))
	require.ErrorIs(t, err, domain.ErrTableLoad)

	_, err = ReadFactors(strings.NewReader("speeding: [\"fast\"]\n"))
	require.ErrorIs(t, err, domain.ErrTableLoad)
	require.ErrorIs(t, err, domain.ErrMalformedField)
}

func testConfig() *config.Config {
	return &config.Config{
		CauseDecoderFile:  testdata("causes.csv"),
		CauseDecoderMode:  "primary",
		StreetDecoderFile: testdata("streets.csv"),
		HolidaysFile:      testdata("holidays.yaml"),
		FactorsFile:       testdata("factors.yaml"),
		TimeZone:          domain.DefaultTimeZone,
		Twilight:          "nautical",
	}
}

func TestLoad(t *testing.T) {
	tables, err := Load(testConfig(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, domain.TwilightNautical, tables.Twilight)
	assert.Equal(t, domain.DefaultTimeZone, tables.Location.String())
	assert.Len(t, tables.Holidays, 2)
	assert.Equal(t, "Street", tables.StreetTypes["St"])
	assert.Equal(t, domain.NewCodeSet("356", "357"), tables.Factors[domain.FactorCellphone])
	assert.Equal(t, domain.ChathamAuthority, tables.Correction.Authority)
}

func TestLoad_OptionalTablesAbsent(t *testing.T) {
	cfg := testConfig()
	cfg.HolidaysFile = ""
	cfg.FactorsFile = ""
	cfg.Twilight = ""
	cfg.TimeZone = "UTC"

	tables, err := Load(cfg, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, tables.Holidays)
	assert.Equal(t, domain.DefaultFactorSets(), tables.Factors)
	assert.Equal(t, domain.TwilightCivil, tables.Twilight)
	assert.Equal(t, "UTC", tables.Location.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing cause file", func(c *config.Config) { c.CauseDecoderFile = testdata("missing.csv") }},
		{"missing street file", func(c *config.Config) { c.StreetDecoderFile = testdata("missing.csv") }},
		{"bad time zone", func(c *config.Config) { c.TimeZone = "Mars/Olympus" }},
		{"bad twilight", func(c *config.Config) { c.Twilight = "dusk" }},
		{"missing holidays", func(c *config.Config) { c.HolidaysFile = testdata("missing.yaml") }},
		{"missing factors", func(c *config.Config) { c.FactorsFile = testdata("missing.yaml") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := Load(cfg, discardLogger())
			require.ErrorIs(t, err, domain.ErrTableLoad)
		})
	}
}
