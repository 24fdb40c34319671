package domain

import (
	"fmt"
	"log/slog"
	"time"
)

// Party is one crash participant. ID is "A" for the key vehicle, then
// "B", "C", ... in field order.
type Party struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Mode string `json:"mode"`
}

// Involvement holds the derived mode and factor flags.
type Involvement struct {
	Pedestrian       bool `json:"pedestrian"`
	Cyclist          bool `json:"cyclist"`
	Motorcyclist     bool `json:"motorcyclist"`
	Taxi             bool `json:"taxi"`
	Truck            bool `json:"truck"`
	Car              bool `json:"car"`
	Tourist          bool `json:"tourist"`
	Alcohol          bool `json:"alcohol"`
	Drugs            bool `json:"drugs"`
	Cellphone        bool `json:"cellphone"`
	Fatigue          bool `json:"fatigue"`
	DangerousDriving bool `json:"dangerous_driving"`
	Speeding         bool `json:"speeding"`
}

// CrashRecord is the enriched form of one crash row.
type CrashRecord struct {
	ID        string
	Authority string

	Road         string
	RawRoad      string
	SideRoad     string
	Intersection bool
	Distance     *int
	Direction    string

	Date      time.Time
	Time      *TimeOfDay
	Instant   time.Time
	DayOfWeek string
	Daylight  *bool
	Moon      *MoonPhase
	Holiday   string

	Location    *GeoPoint
	Region      string
	Place       string
	Address     string
	PlaceSource string

	Worst       Severity
	FatalCount  int
	SevereCount int
	MinorCount  int
	PersonAge1  *int
	PersonAge2  *int

	Parties             []Party
	KeyVehicleDirection string
	Causes              []CauseAttribution
	MalformedCauses     []string
	Involvement         Involvement

	Movement       *Movement
	ObjectsStruck  []string
	Light          [2]string
	Weather        [2]string
	Junction       string
	RoadCurve      string
	RoadWet        string
	TrafficControl string
	RoadMarking    string
	SpeedLimit     SpeedLimit

	RunID       string
	ProcessedAt time.Time
}

// HasLocation reports whether the record can appear in spatial output.
func (r CrashRecord) HasLocation() bool { return r.Location != nil }

func (r CrashRecord) WorstFatal() bool  { return r.Worst == SeverityFatal }
func (r CrashRecord) WorstSevere() bool { return r.Worst == SeveritySevere }
func (r CrashRecord) WorstMinor() bool  { return r.Worst == SeverityMinor }
func (r CrashRecord) WorstNone() bool   { return r.Worst == SeverityNone }

// PartyMode returns the mode label of a party letter, or "" if absent.
func (r CrashRecord) PartyMode(id string) string {
	for _, p := range r.Parties {
		if p.ID == id {
			return p.Mode
		}
	}
	return ""
}

// CauseSentences renders each attribution with its party's subject phrase.
func (r CrashRecord) CauseSentences() []string {
	out := make([]string, 0, len(r.Causes))
	for _, c := range r.Causes {
		out = append(out, c.Sentence(SubjectPhrase(r.PartyMode(c.Party))))
	}
	return out
}

// ParseParties splits the vehicle field into parties and the key vehicle
// direction. Position 0 is party A, positions 1-2 the direction, and the
// remaining characters parties B onwards.
func ParseParties(vehicles string) ([]Party, string, error) {
	if vehicles == "" {
		return nil, "", nil
	}
	codes := []byte{vehicles[0]}
	var direction string
	switch {
	case len(vehicles) >= 3:
		direction = vehicles[1:3]
		codes = append(codes, vehicles[3:]...)
	case len(vehicles) == 2:
		direction = vehicles[1:]
	}
	if len(codes) > 26 {
		return nil, "", fmt.Errorf("vehicle field %q has %d parties: %w", vehicles, len(codes), ErrMalformedField)
	}

	parties := make([]Party, 0, len(codes))
	for i, c := range codes {
		mode, err := DecodeVehicle(c)
		if err != nil {
			return nil, "", err
		}
		parties = append(parties, Party{ID: string(rune('A' + i)), Code: string(c), Mode: mode})
	}
	return parties, DecodeDirection(direction), nil
}

// ModeInvolved reports whether any party's vehicle code is in modes.
func ModeInvolved(parties []Party, modes []byte) bool {
	for _, p := range parties {
		for _, m := range modes {
			if p.Code == string(m) {
				return true
			}
		}
	}
	return false
}

// FactorInvolved reports whether any cause code is in set.
func FactorInvolved(codes []string, set CodeSet) bool {
	for _, c := range codes {
		if set[c] {
			return true
		}
	}
	return false
}

// BuildCrashRecord decodes and enriches one normalized row. Missing location
// and malformed dates or cause tokens do not fail; unknown codes do.
func BuildCrashRecord(row CrashRow, tables *DecoderTables, logger *slog.Logger) (CrashRecord, error) {
	rec := CrashRecord{
		ID:             row.CrashID,
		Authority:      row.Authority,
		RawRoad:        row.Road,
		SideRoad:       row.SideRoad,
		Intersection:   row.Intersection == "I",
		Distance:       row.Distance,
		Direction:      row.Direction,
		Date:           row.Date,
		Time:           row.Time,
		FatalCount:     deref(row.FatalCount),
		SevereCount:    deref(row.SevereCount),
		MinorCount:     deref(row.MinorCount),
		PersonAge1:     row.PersonAge1,
		PersonAge2:     row.PersonAge2,
		ObjectsStruck:  DecodeObjectsStruck(row.ObjectsStruck),
		RoadCurve:      row.RoadCurve,
		RoadWet:        DecodeRoadWet(row.RoadWet),
		TrafficControl: row.TrafficControl,
		RoadMarking:    row.RoadMarking,
		SpeedLimit:     row.SpeedLimit,
	}
	rec.Road = FormatRoadName(row.Road, row.SideRoad, rec.Intersection, tables.StreetTypes)
	rec.Worst = ClassifyInjury(row.FatalCount, row.SevereCount, row.MinorCount)

	var err error
	if rec.Parties, rec.KeyVehicleDirection, err = ParseParties(row.Vehicles); err != nil {
		return CrashRecord{}, fmt.Errorf("crash %s: %w", row.CrashID, err)
	}
	if rec.Light, err = DecodeLight(row.Light); err != nil {
		return CrashRecord{}, fmt.Errorf("crash %s: %w", row.CrashID, err)
	}
	if rec.Weather, err = DecodeWeather(row.Weather); err != nil {
		return CrashRecord{}, fmt.Errorf("crash %s: %w", row.CrashID, err)
	}
	if rec.Junction, err = DecodeJunction(row.Junction); err != nil {
		return CrashRecord{}, fmt.Errorf("crash %s: %w", row.CrashID, err)
	}
	if m, ok := DecodeMovement(row.Movement); ok {
		rec.Movement = &m
	} else if row.Movement != "" {
		logger.Debug("movement code not in table", "crash_id", row.CrashID, "movement", row.Movement)
	}

	causeLogger := logger.With("crash_id", row.CrashID)
	groups, malformed := GroupCauses(row.Causes, causeLogger)
	rec.MalformedCauses = append(malformed, groups.DropUnknownParties(rec.Parties, causeLogger)...)
	if rec.Causes, err = DecodeCauses(groups, tables.Causes); err != nil {
		return CrashRecord{}, fmt.Errorf("crash %s: %w", row.CrashID, err)
	}

	codes := groups.Codes()
	rec.Involvement = Involvement{
		Pedestrian:       ModeInvolved(rec.Parties, pedestrianModes),
		Cyclist:          ModeInvolved(rec.Parties, cyclistModes),
		Motorcyclist:     ModeInvolved(rec.Parties, motorcyclistModes),
		Taxi:             ModeInvolved(rec.Parties, taxiModes),
		Truck:            ModeInvolved(rec.Parties, truckModes),
		Car:              ModeInvolved(rec.Parties, carModes),
		Tourist:          FactorInvolved(codes, tables.Factors[FactorTourist]),
		Alcohol:          FactorInvolved(codes, tables.Factors[FactorAlcohol]),
		Drugs:            FactorInvolved(codes, tables.Factors[FactorDrugs]),
		Cellphone:        FactorInvolved(codes, tables.Factors[FactorCellphone]),
		Fatigue:          FactorInvolved(codes, tables.Factors[FactorFatigue]),
		DangerousDriving: FactorInvolved(codes, tables.Factors[FactorDangerousDriving]),
		Speeding:         FactorInvolved(codes, tables.Factors[FactorSpeeding]),
	}

	rec.Location = Locate(row.Authority, row.Easting, row.Northing, tables.Correction)

	if !row.Date.IsZero() {
		rec.DayOfWeek = row.Date.Weekday().String()
	}
	rec.Instant = Localize(LocalInstant(row.Date, row.Time), tables.Location)
	if !rec.Instant.IsZero() {
		moon := MoonPhaseAt(rec.Instant)
		rec.Moon = &moon
		if rec.Location != nil {
			daylight := IsDaylight(rec.Instant, *rec.Location, tables.Twilight)
			rec.Daylight = &daylight
		}
	}
	rec.Holiday = MatchHoliday(tables.Holidays, rec.Instant, rec.Worst)

	return rec, nil
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
