package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Factor names a group of cause codes reported as a single flag.
type Factor string

const (
	FactorAlcohol          Factor = "alcohol"
	FactorDrugs            Factor = "drugs"
	FactorSpeeding         Factor = "speeding"
	FactorFatigue          Factor = "fatigue"
	FactorCellphone        Factor = "cellphone"
	FactorTourist          Factor = "tourist"
	FactorDangerousDriving Factor = "dangerous_driving"
)

// CodeSet is a set of 3-digit cause codes.
type CodeSet map[string]bool

// FactorSets maps each factor flag to its cause codes.
type FactorSets map[Factor]CodeSet

// NewCodeSet builds a set from explicit codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = true
	}
	return s
}

// CodeRange builds a set of every code from lo to hi inclusive.
func CodeRange(lo, hi int) CodeSet {
	s := make(CodeSet, hi-lo+1)
	for n := lo; n <= hi; n++ {
		s[fmt.Sprintf("%03d", n)] = true
	}
	return s
}

// DefaultFactorSets follows the CAS factor code groups.
func DefaultFactorSets() FactorSets {
	return FactorSets{
		FactorAlcohol:          NewCodeSet("101", "102", "103", "104"),
		FactorDrugs:            NewCodeSet("105", "106", "107"),
		FactorSpeeding:         CodeRange(110, 119),
		FactorFatigue:          CodeRange(410, 414),
		FactorCellphone:        NewCodeSet("356"),
		FactorTourist:          NewCodeSet("404"),
		FactorDangerousDriving: CodeRange(430, 439),
	}
}

// ParseCodeSet accepts codes ("356") and inclusive ranges ("110-119").
func ParseCodeSet(entries []string) (CodeSet, error) {
	s := CodeSet{}
	for _, e := range entries {
		var lo, hi int
		if n, err := fmt.Sscanf(e, "%d-%d", &lo, &hi); err == nil && n == 2 {
			for k, v := range CodeRange(lo, hi) {
				s[k] = v
			}
			continue
		}
		if _, err := strconv.Atoi(e); err != nil || len(e) != 3 {
			return nil, fmt.Errorf("factor code %q: %w", e, ErrMalformedField)
		}
		s[e] = true
	}
	return s, nil
}

// Mode sets used by the involvement flags, by vehicle code.
var (
	pedestrianModes   = []byte{'E', 'K', 'H'}
	cyclistModes      = []byte{'S'}
	motorcyclistModes = []byte{'M', 'P'}
	taxiModes         = []byte{'X'}
	truckModes        = []byte{'T'}
	carModes          = []byte{'C'}
)

// DecoderTables is the read-only context shared by every row of a run.
type DecoderTables struct {
	Causes      CauseDecoder
	StreetTypes map[string]string
	Holidays    []HolidayPeriod
	Location    *time.Location
	Twilight    Twilight
	Correction  RegionCorrection
	Factors     FactorSets
}

// NewDecoderTables builds tables with the default time zone, civil twilight,
// Chatham correction and factor sets.
func NewDecoderTables(causes CauseDecoder, streetTypes map[string]string, holidays []HolidayPeriod) (*DecoderTables, error) {
	if causes == nil {
		return nil, fmt.Errorf("no cause table: %w", ErrTableLoad)
	}
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %s: %w", DefaultTimeZone, err)
	}
	return &DecoderTables{
		Causes:      causes,
		StreetTypes: streetTypes,
		Holidays:    holidays,
		Location:    loc,
		Twilight:    TwilightCivil,
		Correction:  DefaultRegionCorrection(),
		Factors:     DefaultFactorSets(),
	}, nil
}
