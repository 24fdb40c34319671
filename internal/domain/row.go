package domain

import (
	"fmt"
	"time"
)

// SchemaVersion identifies the positional layout of the CAS crash export.
const SchemaVersion = "nzta-cas-2014"

// Column is a 0-indexed position in a RawRow.
type Column int

const (
	ColAuthority Column = iota
	ColRoad
	ColDistance
	ColDirection
	ColIntersection
	ColSideRoad
	ColCrashID
	ColDate
	ColDayOfWeek // superseded by the value computed from the date
	ColTime
	ColMovement
	ColVehicles
	ColCauses
	ColObjectsStruck
	ColRoadCurve
	ColRoadWet
	ColLight
	ColWeather
	ColJunction
	ColTrafficControl
	ColRoadMarking
	ColSpeedLimit
	ColFatalCount
	ColSevereCount
	ColMinorCount
	ColPersonAge1
	ColPersonAge2
	ColEasting
	ColNorthing

	// ColumnCount is the number of cells a row must carry.
	ColumnCount
)

// RawRow is one crash as read from the export, cells in schema order.
type RawRow []string

// Cell returns the raw cell at c, or "" when the row is short.
func (r RawRow) Cell(c Column) string {
	if int(c) >= len(r) {
		return ""
	}
	return r[c]
}

// CrashRow holds the typed fields of one crash, populated once from a RawRow.
// Absent strings are "", absent numbers are nil and an absent date is the
// zero time.
type CrashRow struct {
	Authority      string
	Road           string
	Distance       *int
	Direction      string
	Intersection   string
	SideRoad       string
	CrashID        string
	Date           time.Time
	Time           *TimeOfDay
	Movement       string
	Vehicles       string
	Causes         []string
	ObjectsStruck  []string
	RoadCurve      string
	RoadWet        string
	Light          []string
	Weather        []string
	Junction       string
	TrafficControl string
	RoadMarking    string
	SpeedLimit     SpeedLimit
	FatalCount     *int
	SevereCount    *int
	MinorCount     *int
	PersonAge1     *int
	PersonAge2     *int
	Easting        *int
	Northing       *int
}

// NormalizeRow converts a raw row into a CrashRow. It fails when the row is
// short or a purely numeric cell holds something else.
func NormalizeRow(raw RawRow) (CrashRow, error) {
	if len(raw) < int(ColumnCount) {
		return CrashRow{}, fmt.Errorf("row has %d cells, schema %s needs %d: %w",
			len(raw), SchemaVersion, ColumnCount, ErrMalformedField)
	}

	row := CrashRow{
		Authority:      FormatString(raw.Cell(ColAuthority)),
		Road:           FormatString(raw.Cell(ColRoad)),
		Direction:      FormatString(raw.Cell(ColDirection)),
		Intersection:   FormatString(raw.Cell(ColIntersection)),
		SideRoad:       FormatString(raw.Cell(ColSideRoad)),
		CrashID:        FormatString(raw.Cell(ColCrashID)),
		Date:           FormatDate(raw.Cell(ColDate)),
		Movement:       FormatString(raw.Cell(ColMovement)),
		Vehicles:       FormatString(raw.Cell(ColVehicles)),
		Causes:         SplitList(raw.Cell(ColCauses), " "),
		ObjectsStruck:  SplitList(FormatString(raw.Cell(ColObjectsStruck)), ""),
		RoadCurve:      FormatString(raw.Cell(ColRoadCurve)),
		RoadWet:        FormatString(raw.Cell(ColRoadWet)),
		Light:          SplitList(raw.Cell(ColLight), ""),
		Weather:        SplitList(raw.Cell(ColWeather), ""),
		Junction:       FormatString(raw.Cell(ColJunction)),
		TrafficControl: FormatString(raw.Cell(ColTrafficControl)),
		RoadMarking:    FormatString(raw.Cell(ColRoadMarking)),
		SpeedLimit:     ParseSpeedLimit(raw.Cell(ColSpeedLimit)),
	}

	var err error
	if row.Time, err = FormatCrashTime(raw.Cell(ColTime), row.Date); err != nil {
		return CrashRow{}, fmt.Errorf("crash %s time: %w", row.CrashID, err)
	}

	ints := []struct {
		col Column
		dst **int
	}{
		{ColDistance, &row.Distance},
		{ColFatalCount, &row.FatalCount},
		{ColSevereCount, &row.SevereCount},
		{ColMinorCount, &row.MinorCount},
		{ColPersonAge1, &row.PersonAge1},
		{ColPersonAge2, &row.PersonAge2},
		{ColEasting, &row.Easting},
		{ColNorthing, &row.Northing},
	}
	for _, f := range ints {
		v, err := FormatInt(raw.Cell(f.col))
		if err != nil {
			return CrashRow{}, fmt.Errorf("crash %s column %d: %w", row.CrashID, f.col, err)
		}
		*f.dst = v
	}

	return row, nil
}
