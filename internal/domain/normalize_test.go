package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestFormatString(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want string
	}{
		{"empty", "", ""},
		{"single space", " ", ""},
		{"value", "MAIN ST", "MAIN ST"},
		{"inner whitespace kept", " A  B ", " A  B "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatString(tt.cell))
		})
	}
}

func TestFormatInt(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		n, err := FormatInt(" ")
		require.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("number", func(t *testing.T) {
		n, err := FormatInt("1576041")
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Equal(t, 1576041, *n)
	})

	t.Run("non-numeric", func(t *testing.T) {
		_, err := FormatInt("12a")
		require.ErrorIs(t, err, ErrMalformedField)
	})
}

func TestParseSpeedLimit(t *testing.T) {
	assert.True(t, ParseSpeedLimit("").IsZero())

	sl := ParseSpeedLimit("50")
	require.NotNil(t, sl.KMH)
	assert.Equal(t, 50, *sl.KMH)
	assert.Equal(t, "50", sl.String())

	for _, code := range []string{"U", "LSZ"} {
		sl := ParseSpeedLimit(code)
		assert.Nil(t, sl.KMH)
		assert.Equal(t, code, sl.String())
		assert.False(t, sl.IsZero())
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want time.Time
	}{
		{"day first", "25/10/2014", time.Date(2014, 10, 25, 0, 0, 0, 0, time.UTC)},
		{"single digits", "01/01/2015", time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"empty", "", time.Time{}},
		{"month out of range", "01/13/2015", time.Time{}},
		{"garbage", "yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.cell))
		})
	}
}

func TestFormatCrashTime(t *testing.T) {
	date := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cell string
		want *TimeOfDay
	}{
		{"three digits", "930", &TimeOfDay{Hour: 9, Minute: 30}},
		{"four digits", "1510", &TimeOfDay{Hour: 15, Minute: 10}},
		{"minutes only", "5", &TimeOfDay{Hour: 0, Minute: 5}},
		{"midnight", "0", &TimeOfDay{}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatCrashTime(tt.cell, date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("formats with leading zero", func(t *testing.T) {
		got, err := FormatCrashTime("930", date)
		require.NoError(t, err)
		assert.Equal(t, "09:30", got.String())
	})

	t.Run("absent date", func(t *testing.T) {
		got, err := FormatCrashTime("930", time.Time{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	for _, cell := range []string{"2510", "12345", "9x0"} {
		t.Run("malformed "+cell, func(t *testing.T) {
			_, err := FormatCrashTime(cell, date)
			require.ErrorIs(t, err, ErrMalformedField)
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		cell  string
		delim string
		want  []string
	}{
		{"delimited", "301B 802 12A", " ", []string{"301B", "802", "12A"}},
		{"repeated delimiter", "301B  802", " ", []string{"301B", "802"}},
		{"characters", "FS", "", []string{"F", "S"}},
		{"characters keep spaces", "B ", "", []string{"B", " "}},
		{"empty", "", " ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.cell, tt.delim))
		})
	}
}

// rawRow returns a well-formed Wellington crash row; edit cells before use.
func rawRow() RawRow {
	row := make(RawRow, ColumnCount)
	row[ColAuthority] = "Wellington City"
	row[ColRoad] = "LAMBTON QUAY"
	row[ColDistance] = "50"
	row[ColDirection] = "N"
	row[ColIntersection] = "I"
	row[ColSideRoad] = "WILLIS ST"
	row[ColCrashID] = "201410001"
	row[ColDate] = "25/10/2014"
	row[ColDayOfWeek] = "Mon"
	row[ColTime] = "1000"
	row[ColMovement] = "FA"
	row[ColVehicles] = "CE1S"
	row[ColCauses] = "301B 802 12A"
	row[ColObjectsStruck] = "P"
	row[ColRoadCurve] = "S"
	row[ColRoadWet] = "W"
	row[ColLight] = "BN"
	row[ColWeather] = "F "
	row[ColJunction] = "X"
	row[ColTrafficControl] = "T"
	row[ColRoadMarking] = "C"
	row[ColSpeedLimit] = "50"
	row[ColFatalCount] = "0"
	row[ColSevereCount] = "1"
	row[ColMinorCount] = "2"
	row[ColPersonAge1] = "34"
	row[ColPersonAge2] = ""
	row[ColEasting] = "1748769"
	row[ColNorthing] = "5428153"
	return row
}

func TestNormalizeRow(t *testing.T) {
	t.Run("complete row", func(t *testing.T) {
		row, err := NormalizeRow(rawRow())
		require.NoError(t, err)

		assert.Equal(t, "Wellington City", row.Authority)
		assert.Equal(t, "201410001", row.CrashID)
		assert.Equal(t, time.Date(2014, 10, 25, 0, 0, 0, 0, time.UTC), row.Date)
		assert.Equal(t, &TimeOfDay{Hour: 10}, row.Time)
		assert.Equal(t, []string{"301B", "802", "12A"}, row.Causes)
		assert.Equal(t, []string{"F", " "}, row.Weather)
		assert.Equal(t, intPtr(50), row.Distance)
		assert.Equal(t, intPtr(1), row.SevereCount)
		assert.Nil(t, row.PersonAge2)
		assert.Equal(t, intPtr(1748769), row.Easting)
	})

	t.Run("short row", func(t *testing.T) {
		_, err := NormalizeRow(RawRow{"Wellington City", "LAMBTON QUAY"})
		require.ErrorIs(t, err, ErrMalformedField)
	})

	t.Run("non-numeric count", func(t *testing.T) {
		raw := rawRow()
		raw[ColFatalCount] = "one"
		_, err := NormalizeRow(raw)
		require.ErrorIs(t, err, ErrMalformedField)
		assert.Contains(t, err.Error(), "201410001")
	})

	t.Run("malformed date is absent", func(t *testing.T) {
		raw := rawRow()
		raw[ColDate] = "2014-10-25"
		row, err := NormalizeRow(raw)
		require.NoError(t, err)
		assert.True(t, row.Date.IsZero())
		assert.Nil(t, row.Time)
	})

	t.Run("coded speed limit", func(t *testing.T) {
		raw := rawRow()
		raw[ColSpeedLimit] = "LSZ"
		row, err := NormalizeRow(raw)
		require.NoError(t, err)
		assert.Equal(t, "LSZ", row.SpeedLimit.Code)
	})
}
