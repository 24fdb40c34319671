package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	offRoadMarker = "Z"
	offRoadSuffix = "(off-roadway)"
)

var offRoadPlaces = map[string]string{
	"CPK":  "Carpark",
	"BCH":  "Beach",
	"DWY":  "Driveway",
	"DWAY": "Driveway",
	"FCT":  "Forecourt",
}

var roadAcronyms = map[string]bool{
	"BP":   true,
	"VTNZ": true,
}

// roadAbbreviations are keyed by title-cased token.
var roadAbbreviations = map[string]string{
	"Coun":   "Countdown",
	"C/Down": "Countdown",
	"Reserv": "Reserve",
	"Stn":    "Station",
	"Roa":    "Road",
	"S":      "South",
	"E":      "East",
	"W":      "West",
	"N":      "North",
	"Riv":    "River",
	"Br":     "Bridge",
	"Wbd":    "Westbound",
	"Ebd":    "Eastbound",
	"Nbd":    "Northbound",
	"Sbd":    "Southbound",
	"Obr":    "Overbridge",
	"Off":    "Off-ramp",
	"On":     "On-ramp",
	"Xing":   "Crossing",
	"Mckays": "McKays",
	"Rly":    "Railway",
	"Int":    "Interchange",
}

// titleCase upper-cases the first letter of each word and lower-cases the
// rest. A Caser is stateful, so one is made per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// FormatRoadName title-cases the road and side road (State Highway names are
// left as recorded), joins an intersection as "road at side road" and
// normalizes the result.
func FormatRoadName(road, sideRoad string, intersection bool, streetTypes map[string]string) string {
	road = titleRoad(road)
	sideRoad = titleRoad(sideRoad)
	if intersection && sideRoad != "" {
		if road == "" {
			road = sideRoad
		} else {
			road = road + " at " + sideRoad
		}
	}
	return NormalizeStreet(road, streetTypes)
}

func titleRoad(s string) string {
	if s == "" || strings.HasPrefix(s, "SH ") {
		return s
	}
	return titleCase(s)
}

// NormalizeStreet runs the off-road, State Highway and abbreviation passes
// over a road name. streetTypes maps a short street type ("St") to its
// expansion ("Street").
func NormalizeStreet(road string, streetTypes map[string]string) string {
	if road == "" {
		return ""
	}
	tokens := expandOffRoad(strings.Split(road, " "))
	road = stripLinearRefs(strings.Join(tokens, " "))

	sides := strings.Split(road, " at ")
	for i, side := range sides {
		sides[i] = strings.Join(expandAbbreviations(strings.Split(side, " "), streetTypes), " ")
	}
	return strings.Join(sides, " at ")
}

func expandOffRoad(tokens []string) []string {
	out := make([]string, 0, len(tokens)+1)
	removed := false
	for _, tok := range tokens {
		if tok == offRoadMarker && !removed {
			removed = true
			continue
		}
		out = append(out, tok)
	}
	if !removed {
		return out
	}

	if len(out) > 1 && out[0] == "Beach" {
		out = append(out[1:], out[0])
	}

	for i, tok := range out {
		place, ok := offRoadPlaces[strings.ToUpper(tok)]
		if !ok {
			continue
		}
		expanded := make([]string, 0, len(out)+1)
		expanded = append(expanded, out[:i]...)
		expanded = append(expanded, place, offRoadSuffix)
		return append(expanded, out[i+1:]...)
	}
	return out
}

func stripLinearRefs(road string) string {
	if !strings.Contains(road, "/") {
		return road
	}
	if left, right, ok := strings.Cut(road, " at "); ok {
		return stripLinearRef(left, false) + " at " + stripLinearRef(right, false)
	}
	return stripLinearRef(road, true)
}

// stripLinearRef rewrites "SH 1/300" or "1/300" as "State Highway 1". A
// slash with a non-numeric prefix is left alone. With bracketTail, text
// after the reference is bracketed: "1/300 near X" becomes
// "State Highway 1 (near X)".
func stripLinearRef(s string, bracketTail bool) string {
	tokens := strings.Split(s, " ")
	out := make([]string, 0, len(tokens)+1)
	for i, tok := range tokens {
		route, _, ok := strings.Cut(tok, "/")
		if !ok || !isDigits(route) {
			out = append(out, tok)
			continue
		}
		if n := len(out); n > 0 && strings.EqualFold(out[n-1], "SH") {
			out = out[:n-1]
		}
		out = append(out, "State", "Highway", route)

		tail := tokens[i+1:]
		if !bracketTail || len(tail) == 0 || strings.HasPrefix(tail[0], "(") {
			continue
		}
		rest := make([]string, 0, len(tail)+1)
		for _, t := range tail {
			if strings.EqualFold(t, "SH") {
				rest = append(rest, "State", "Highway")
				continue
			}
			rest = append(rest, t)
		}
		return strings.Join(out, " ") + " (" + strings.Join(rest, " ") + ")"
	}
	return strings.Join(out, " ")
}

// expandAbbreviations keeps acronyms, expands known abbreviations, then
// expands street types. Street types are matched from the end so that only
// the last "St" in "St John St" is a street; a leading "St" is Saint, as is
// one following "near".
func expandAbbreviations(tokens []string, streetTypes map[string]string) []string {
	out := make([]string, len(tokens))
	expanded := make([]bool, len(tokens))
	for i, tok := range tokens {
		core, wrap := unwrapParens(tok)
		switch {
		case roadAcronyms[strings.ToUpper(core)]:
			core = strings.ToUpper(core)
		default:
			if full, ok := roadAbbreviations[titleCase(core)]; ok {
				core = full
				expanded[i] = true
			}
		}
		out[i] = wrap(core)
	}

	seen := make(map[string]bool)
	for i := len(out) - 1; i >= 0; i-- {
		if expanded[i] {
			continue
		}
		core, wrap := unwrapParens(out[i])
		key := titleCase(core)
		full, ok := streetTypes[key]
		if !ok || seen[key] {
			continue
		}
		if key == "St" && (i == 0 || strings.TrimPrefix(out[i-1], "(") == "near") {
			continue
		}
		seen[key] = true
		out[i] = wrap(full)
	}
	return out
}

// unwrapParens strips surrounding brackets and returns a func restoring them.
func unwrapParens(tok string) (string, func(string) string) {
	open := strings.HasPrefix(tok, "(")
	closed := strings.HasSuffix(tok, ")") && len(tok) > 1
	core := strings.TrimSuffix(strings.TrimPrefix(tok, "("), ")")
	if !closed {
		core = strings.TrimPrefix(tok, "(")
	}
	return core, func(s string) string {
		if open {
			s = "(" + s
		}
		if closed {
			s += ")"
		}
		return s
	}
}
