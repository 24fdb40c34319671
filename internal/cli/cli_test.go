package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

func repoTestdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

// quietEnv clears settings that would pull in network sinks and keeps logs
// to errors only.
func quietEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CRASH_DATA_FILE", "CAUSE_DECODER_FILE", "STREET_DECODER_FILE",
		"HOLIDAYS_FILE", "FACTORS_FILE", "REGIONS_FILE", "OUTPUT_FILE",
		"KAFKA_ENABLED", "POSTGRES_DSN", "MAPBOX_TOKEN", "MAPBOX_ENABLED",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func tableFlags() []string {
	return []string{
		"--cause-file", repoTestdata("causes.csv"),
		"--street-file", repoTestdata("streets.csv"),
		"--holidays-file", repoTestdata("holidays.yaml"),
		"--factors-file", repoTestdata("factors.yaml"),
		"--regions-file", repoTestdata("regions.geojson"),
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// writeCrashes writes the testdata header plus the given data lines.
func writeCrashes(t *testing.T, lines ...string) string {
	t.Helper()
	data, err := os.ReadFile(repoTestdata("crashes.csv"))
	require.NoError(t, err)
	header, _, _ := strings.Cut(string(data), "\n")

	path := filepath.Join(t.TempDir(), "crashes.csv")
	body := header + "\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testdataLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(repoTestdata("crashes.csv"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")[1:]
}

func TestConvert_WritesCollection(t *testing.T) {
	quietEnv(t)
	out := filepath.Join(t.TempDir(), "crashes.geojson")

	args := append([]string{"convert", "--crash-file", repoTestdata("crashes.csv"), "--out", out, "--workers", "2"}, tableFlags()...)
	stdout, err := execute(t, args...)
	require.NoError(t, err)

	assert.Regexp(t, `rows read\s+4`, stdout)
	assert.Regexp(t, `rows skipped\s+1`, stdout)
	assert.Regexp(t, `records\s+3`, stdout)
	assert.Regexp(t, `located\s+2`, stdout)
	assert.Regexp(t, `unlocated\s+1`, stdout)
	assert.Contains(t, stdout, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 2)

	ids := []any{fc.Features[0].Properties["crash_id"], fc.Features[1].Properties["crash_id"]}
	assert.ElementsMatch(t, []any{"201410001", "201410004"}, ids)
	for _, f := range fc.Features {
		assert.NotEmpty(t, f.Properties["run_id"])
	}
}

func TestConvert_FlagsOverrideEnvironment(t *testing.T) {
	quietEnv(t)
	t.Setenv("CRASH_DATA_FILE", filepath.Join(t.TempDir(), "missing.csv"))
	out := filepath.Join(t.TempDir(), "crashes.geojson")

	args := append([]string{"convert", "--crash-file", repoTestdata("crashes.csv"), "--out", out}, tableFlags()...)
	_, err := execute(t, args...)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing crash file setting",
			args:    append([]string{"convert"}, tableFlags()...),
			wantErr: "CRASH_DATA_FILE is required",
		},
		{
			name:    "missing cause table setting",
			args:    []string{"convert", "--crash-file", repoTestdata("crashes.csv"), "--street-file", repoTestdata("streets.csv")},
			wantErr: "CAUSE_DECODER_FILE is required",
		},
		{
			name:    "non-positive workers",
			args:    append([]string{"convert", "--crash-file", repoTestdata("crashes.csv"), "--workers", "0"}, tableFlags()...),
			wantErr: "--workers must be positive",
		},
		{
			name:    "unknown cause mode",
			args:    append([]string{"convert", "--crash-file", repoTestdata("crashes.csv"), "--cause-mode", "modern"}, tableFlags()...),
			wantErr: "must be primary or legacy",
		},
		{
			name:    "unknown twilight",
			args:    append([]string{"convert", "--crash-file", repoTestdata("crashes.csv"), "--twilight", "dusk"}, tableFlags()...),
			wantErr: "dusk",
		},
		{
			name:    "crash file does not exist",
			args:    append([]string{"convert", "--crash-file", "does-not-exist.csv"}, tableFlags()...),
			wantErr: "does-not-exist.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietEnv(t)
			t.Setenv("OUTPUT_FILE", filepath.Join(t.TempDir(), "out.geojson"))
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConvert_UnknownCauseCodeAbortsRun(t *testing.T) {
	quietEnv(t)
	line := "Wellington City,LAMBTON QUAY,,,,,201410009,25/10/2014,Sat,1000,,C,555,,,,,,,,,50,0,0,1,,,1748769,5428153"
	out := filepath.Join(t.TempDir(), "crashes.geojson")

	args := append([]string{"convert", "--crash-file", writeCrashes(t, line), "--out", out}, tableFlags()...)
	_, err := execute(t, args...)
	require.ErrorIs(t, err, domain.ErrUnknownCode)
	assert.NoFileExists(t, out)
}

func TestValidate_ReportsMalformedRow(t *testing.T) {
	quietEnv(t)

	args := append([]string{"validate", "--crash-file", repoTestdata("crashes.csv")}, tableFlags()...)
	stdout, err := execute(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed: 1 of 4 phases")

	assert.Contains(t, stdout, "Phase 2: Crash rows")
	assert.Contains(t, stdout, "FAIL (1 errors)")
	assert.Contains(t, stdout, "line 4")
	assert.Contains(t, stdout, "Rows: 4 read, 3 normalized")
}

func TestValidate_CleanFilePasses(t *testing.T) {
	quietEnv(t)
	lines := testdataLines(t)
	path := writeCrashes(t, lines[0], lines[1], lines[3])

	args := append([]string{"validate", "--crash-file", path}, tableFlags()...)
	stdout, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "All phases passed.")
	assert.NotContains(t, stdout, "FAIL")
}

func TestValidate_FlagsCodesAndLocations(t *testing.T) {
	quietEnv(t)
	lines := testdataLines(t)
	path := writeCrashes(t,
		lines[0],
		// Unknown cause code and an Auckland location outside every test region.
		"Auckland City,QUEEN ST,,,,,201410005,26/10/2014,Sun,1430,,C,555A,,,D,DO,F,,,,50,0,0,1,,,1757000,5920000",
		// Duplicate of the first crash.
		lines[0],
	)

	args := append([]string{"validate", "--crash-file", path}, tableFlags()...)
	stdout, err := execute(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 of 4 phases")
	assert.Contains(t, stdout, "duplicates line 2")
	assert.Contains(t, stdout, "crash 201410005 party A")
	assert.Contains(t, stdout, "lies outside every region")
}

func TestValidateTables_HolidayOverlap(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2014, 10, d, 0, 0, 0, 0, time.UTC) }
	tbl := &domain.DecoderTables{
		StreetTypes: map[string]string{"St": "Street"},
		Factors:     domain.DefaultFactorSets(),
		Holidays: []domain.HolidayPeriod{
			{Name: "first", Start: day(1), End: day(5)},
			{Name: "second", Start: day(5), End: day(9)},
		},
	}

	p := validateTables(tbl)
	require.False(t, p.passed())
	assert.Equal(t, []string{`holiday "second" overlaps "first"`}, p.errors)
}

func TestCommands_RequireInputs(t *testing.T) {
	for _, name := range []string{"convert", "serve", "validate"} {
		t.Run(name, func(t *testing.T) {
			quietEnv(t)
			stdout, err := execute(t, name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "CRASH_DATA_FILE is required")
			assert.Empty(t, stdout)
		})
	}
}

func TestInNewZealand(t *testing.T) {
	tests := []struct {
		name string
		p    domain.GeoPoint
		want bool
	}{
		{"wellington", domain.GeoPoint{Lon: 174.78, Lat: -41.28}, true},
		{"chatham islands", domain.GeoPoint{Lon: -176.5, Lat: -44.0}, true},
		{"unwrapped chatham longitude", domain.GeoPoint{Lon: 183.5, Lat: -44.0}, false},
		{"sydney", domain.GeoPoint{Lon: 151.2, Lat: -33.9}, false},
		{"too far north", domain.GeoPoint{Lon: 174.0, Lat: -20.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inNewZealand(tt.p))
		})
	}
}
