package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testStreetTypes = map[string]string{
	"St":  "Street",
	"Rd":  "Road",
	"Ave": "Avenue",
	"Tce": "Terrace",
	"Hwy": "Highway",
}

func TestNormalizeStreet(t *testing.T) {
	tests := []struct {
		name string
		road string
		want string
	}{
		{"street type", "Main St", "Main Street"},
		{"linear reference", "SH 1/300", "State Highway 1"},
		{"bare linear reference", "2/45", "State Highway 2"},
		{"linear reference with location", "1/300 near Smith Rd", "State Highway 1 (near Smith Road)"},
		{"linear reference near saint", "1/300 near St Mary", "State Highway 1 (near St Mary)"},
		{"location naming another highway", "1/300 near SH 2", "State Highway 1 (near State Highway 2)"},
		{"leading saint", "St Albans Rd", "St Albans Road"},
		{"saint then street", "St John St", "St John Street"},
		{"near saint", "Rd near St Mary", "Road near St Mary"},
		{"each type once", "Rd Rd", "Rd Road"},
		{"abbreviation", "Hutt Riv Br", "Hutt River Bridge"},
		{"acronym", "Bp Station", "BP Station"},
		{"parens", "Motorway (Nbd)", "Motorway (Northbound)"},
		{"off road", "Main St Z CPK", "Main Street Carpark (off-roadway)"},
		{"off road beach code", "Z Muriwai BCH", "Muriwai Beach (off-roadway)"},
		{"leading beach moved", "Beach Z Muriwai", "Muriwai Beach"},
		{"no marker", "Muriwai BCH", "Muriwai BCH"},
		{"intersection with linear ref", "SH 2/10 at Queen St", "State Highway 2 at Queen Street"},
		{"both sides of intersection", "Queen St at King St", "Queen Street at King Street"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStreet(tt.road, testStreetTypes))
		})
	}
}

func TestFormatRoadName(t *testing.T) {
	tests := []struct {
		name         string
		road         string
		sideRoad     string
		intersection bool
		want         string
	}{
		{"title cased", "LAMBTON QUAY", "", false, "Lambton Quay"},
		{"intersection", "LAMBTON QUAY", "WILLIS ST", true, "Lambton Quay at Willis Street"},
		{"side road ignored midblock", "MAIN ST", "QUEEN ST", false, "Main Street"},
		{"state highway kept", "SH 1/300", "", false, "State Highway 1"},
		{"side road only", "", "QUEEN ST", true, "Queen Street"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRoadName(tt.road, tt.sideRoad, tt.intersection, testStreetTypes))
		})
	}
}
