package domain

import "fmt"

// codeTable is a closed single-character lookup. An entry with an empty
// label is a defined "not recorded" code.
type codeTable struct {
	field  string
	labels map[byte]string
}

func (t codeTable) lookup(code byte) (string, error) {
	label, ok := t.labels[code]
	if !ok {
		return "", fmt.Errorf("%s code %q: %w", t.field, code, ErrUnknownCode)
	}
	return label, nil
}

// Mode labels used by the mode sets and subject phrases.
const (
	ModeCar               = "car"
	ModeVanUte            = "van/ute"
	ModeTaxi              = "taxi/taxi van"
	ModeBus               = "bus"
	ModeSchoolBus         = "school bus"
	ModeSUV               = "SUV/4X4"
	ModeTruck             = "truck"
	ModeMotorcycle        = "motorcycle"
	ModeMoped             = "moped"
	ModeBicycle           = "bicycle"
	ModeOther             = "other/unknown"
	ModePedestrian        = "pedestrian"
	ModeSkater            = "skateboard/in-line skater/etc."
	ModeEquestrian        = "equestrian"
	ModeWheeledPedestrian = "wheeled pedestrian (wheelchairs, etc.)"
)

var vehicleTable = codeTable{field: "vehicle", labels: map[byte]string{
	'C': ModeCar,
	'V': ModeVanUte,
	'X': ModeTaxi,
	'B': ModeBus,
	'L': ModeSchoolBus,
	'4': ModeSUV,
	'T': ModeTruck,
	'M': ModeMotorcycle,
	'P': ModeMoped,
	'S': ModeBicycle,
	'O': ModeOther,
	'E': ModePedestrian,
	'K': ModeSkater,
	'Q': ModeEquestrian,
	'H': ModeWheeledPedestrian,
}}

var directionLabels = map[byte]string{
	'N': "North",
	'S': "South",
	'E': "East",
	'W': "West",
	'1': "on the first street",
	'2': "on the second street",
}

var lightTables = [2]codeTable{
	{field: "light", labels: map[byte]string{
		'B': "Bright sun",
		'O': "Overcast",
		'T': "Twilight",
		'D': "Dark",
		' ': "",
	}},
	{field: "street light", labels: map[byte]string{
		'O': "street lights on",
		'F': "street lights off",
		'N': "No street lights present",
		' ': "",
	}},
}

var weatherTables = [2]codeTable{
	{field: "weather", labels: map[byte]string{
		'F': "Fine",
		'M': "Mist/fog",
		'L': "Light rain",
		'H': "Heavy rain",
		'S': "Snow",
		' ': "",
	}},
	{field: "secondary weather", labels: map[byte]string{
		'F': "Frost",
		'S': "Strong wind",
		' ': "",
	}},
}

var junctionTable = codeTable{field: "junction", labels: map[byte]string{
	'D': "Driveway",
	'R': "Roundabout",
	'X': "Crossroads",
	'T': "T intersection",
	'Y': "Y intersection",
	'M': "Multi-leg intersection",
}}

var roadWetLabels = map[string]string{
	"W": "Wet",
	"D": "Dry",
	"I": "Snow or ice",
}

var objectStruckLabels = map[byte]string{
	'A': "driven or accompanied animals, i.e. under control",
	'B': "bridge abutment, handrail or approach, includes tunnels",
	'C': "upright cliff or bank, retaining walls",
	'D': "debris, boulder or object dropped from vehicle",
	'E': "over edge of bank",
	'F': "fence, letterbox, hoarding etc.",
	'G': "guard or guide rail (including median barriers)",
	'H': "house or building",
	'I': "traffic island or median strip",
	'J': "public furniture, eg phone boxes, bus shelters, signal controllers, etc.",
	'K': "kerb, when directly contributing to incident",
	'L': "landslide, washout or floodwater",
	'M': "parked motor vehicle",
	'N': "train",
	'P': "utility pole, includes lighting columns",
	'Q': "broken down vehicle, workmen's vehicle, taxis picking up, etc.",
	'R': "roadwork signs or drums, holes and excavations, etc",
	'S': "traffic signs or signal bollards",
	'T': "trees, shrubbery of a substantial nature",
	'V': "ditch",
	'W': "wild animal, strays, or out of control animals",
	'X': "other",
	'Y': "objects thrown at or dropped onto vehicles",
	'Z': "into water, river or sea",
}

type movementCategory struct {
	label    string
	subtypes map[byte]string
}

var movementTable = map[byte]movementCategory{
	'A': {"Overtaking and lane change", map[byte]string{
		'A': "Pulling out or changing lane to right",
		'B': "Head on",
		'C': "Cutting in or changing lane to left",
		'D': "Lost control (overtaking vehicle)",
		'E': "Side road",
		'F': "Lost control (overtaken vehicle)",
		'G': "Weaving in heavy traffic",
		'O': "Other",
	}},
	'B': {"Head on", map[byte]string{
		'A': "On straight",
		'B': "Cutting corner",
		'C': "Swinging wide",
		'D': "Both cutting corner and swinging wide, or unknown",
		'E': "Lost control on straight",
		'F': "Lost control on curve",
		'O': "Other",
	}},
	'C': {"Lost control or off road (straight roads)", map[byte]string{
		'A': "Out of control on roadway",
		'B': "Off roadway to left",
		'C': "Off roadway to right",
		'O': "Other",
	}},
	'D': {"Cornering", map[byte]string{
		'A': "Lost control turning right",
		'B': "Lost control turning left",
		'C': "Missed intersection or end of road",
		'O': "Other",
	}},
	'E': {"Collision with obstruction", map[byte]string{
		'A': "Parked vehicle",
		'B': "Crash or broken down",
		'C': "Non-vehicular obstructions (including animals)",
		'D': "Workman's vehicle",
		'E': "Opening door",
		'O': "Other",
	}},
	'F': {"Rear end", map[byte]string{
		'A': "Slower vehicle",
		'B': "Cross traffic",
		'C': "Pedestrian",
		'D': "Queue",
		'E': "Signals",
		'F': "Other",
		'O': "Other",
	}},
	'G': {"Turning versus same direction", map[byte]string{
		'A': "Rear of left turning vehicle",
		'B': "Left turn side swipe",
		'C': "Stopped or turning from left side",
		'D': "Near centre line",
		'E': "Overtaking vehicle",
		'F': "Two turning",
		'O': "Other",
	}},
	'H': {"Crossing (no turns)", map[byte]string{
		'A': "Right angle (70 to 110 degrees)",
		'O': "Other",
	}},
	'J': {"Crossing (vehicle turning)", map[byte]string{
		'A': "Right turn right side",
		'B': "Opposing right turns",
		'C': "Two turning",
		'O': "Other",
	}},
	'K': {"Merging", map[byte]string{
		'A': "Left turn in",
		'B': "Opposing right turns",
		'C': "Two turning",
		'O': "Other",
	}},
	'L': {"Right turn against", map[byte]string{
		'A': "Stopped waiting to turn",
		'B': "Making turn",
		'O': "Other",
	}},
	'M': {"Manoeuvring", map[byte]string{
		'A': "Parking or leaving",
		'B': "U turn",
		'C': "U turn",
		'D': "Driveway manoeuvre",
		'E': "Entering or leaving from opposite side",
		'F': "Entering or leaving from same side",
		'G': "Reversing along road",
		'O': "Other",
	}},
	'N': {"Pedestrians crossing road", map[byte]string{
		'A': "Left side",
		'B': "Right side",
		'C': "Left turn left side",
		'D': "Right turn right side",
		'E': "Left turn right side",
		'F': "Right turn left side",
		'G': "Manoeuvring vehicle",
		'O': "Other",
	}},
	'P': {"Pedestrians other", map[byte]string{
		'A': "Walking with traffic",
		'B': "Walking facing traffic",
		'C': "Walking on footpath",
		'D': "Child playing (including tricycle)",
		'E': "Attending to vehicle",
		'F': "Entering or leaving vehicle",
		'O': "Other",
	}},
	'Q': {"Miscellaneous", map[byte]string{
		'A': "Fell while boarding or alighting",
		'B': "Fell from moving vehicle",
		'C': "Train",
		'D': "Parked vehicle ran away",
		'E': "Equestrian",
		'F': "Fell inside vehicle",
		'G': "Trailer or load",
		'O': "Other",
	}},
}

// Movement is a decoded two-character movement code.
type Movement struct {
	Category string `json:"category"`
	Subtype  string `json:"subtype"`
}

// DecodeVehicle returns the mode label for a vehicle/party code.
func DecodeVehicle(code byte) (string, error) {
	return vehicleTable.lookup(code)
}

// DecodeDirection decodes the two key-vehicle direction characters, e.g.
// "E1" is "East on the first street". Unrecognised pairs return "".
func DecodeDirection(code string) string {
	if len(code) != 2 {
		return ""
	}
	first, ok1 := directionLabels[code[0]]
	second, ok2 := directionLabels[code[1]]
	if !ok1 || !ok2 {
		return ""
	}
	return first + " " + second
}

// DecodeMovement decodes a category+subtype movement code. Movement codes are
// not an exhaustive table in the source, so a miss returns false.
func DecodeMovement(code string) (Movement, bool) {
	if len(code) < 2 {
		return Movement{}, false
	}
	cat, ok := movementTable[code[0]]
	if !ok {
		return Movement{}, false
	}
	sub, ok := cat.subtypes[code[1]]
	if !ok {
		return Movement{}, false
	}
	return Movement{Category: cat.label, Subtype: sub}, true
}

// DecodeLight decodes the natural light and street lighting characters.
func DecodeLight(codes []string) ([2]string, error) {
	return decodePair(lightTables, codes)
}

// DecodeWeather decodes the primary and secondary weather characters.
func DecodeWeather(codes []string) ([2]string, error) {
	return decodePair(weatherTables, codes)
}

func decodePair(tables [2]codeTable, codes []string) ([2]string, error) {
	var out [2]string
	for i := 0; i < len(codes) && i < len(tables); i++ {
		if codes[i] == "" {
			continue
		}
		label, err := tables[i].lookup(codes[i][0])
		if err != nil {
			return out, err
		}
		out[i] = label
	}
	return out, nil
}

// DecodeJunction decodes the junction type. An empty code is no junction.
func DecodeJunction(code string) (string, error) {
	if code == "" {
		return "", nil
	}
	return junctionTable.lookup(code[0])
}

// DecodeRoadWet decodes the road surface wetness code.
func DecodeRoadWet(code string) string {
	return roadWetLabels[code]
}

// DecodeObjectsStruck decodes up to three struck-object codes, skipping
// codes outside the table.
func DecodeObjectsStruck(codes []string) []string {
	var out []string
	for _, c := range codes {
		if c == "" {
			continue
		}
		if label, ok := objectStruckLabels[c[0]]; ok {
			out = append(out, label)
		}
	}
	return out
}
