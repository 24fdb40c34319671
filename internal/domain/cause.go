package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
)

// EnvironmentParty holds factors not attributed to any party.
const EnvironmentParty = "Environment"

// undefinedCauseCode has no documented meaning and is never decoded.
const undefinedCauseCode = "999"

// CauseEntry is one decoded factor code.
type CauseEntry struct {
	Category        string
	RequiresSubject bool
	Text            string
}

// CauseDecoder resolves a 3-digit factor code. ok is false for codes that
// must be omitted from output.
type CauseDecoder interface {
	DecodeCause(code string) (entry CauseEntry, ok bool, err error)
}

// CauseTable is the code-indexed primary decoder.
type CauseTable map[string]CauseEntry

// DecodeCause implements CauseDecoder. Codes missing from the table are a
// table/data mismatch.
func (t CauseTable) DecodeCause(code string) (CauseEntry, bool, error) {
	if code == undefinedCauseCode {
		return CauseEntry{}, false, nil
	}
	e, ok := t[code]
	if !ok {
		return CauseEntry{}, false, fmt.Errorf("cause code %s: %w", code, ErrUnknownCode)
	}
	return e, true, nil
}

// CauseAttribution is one decoded factor tied to a party letter or to
// EnvironmentParty.
type CauseAttribution struct {
	Party           string `json:"party"`
	Code            string `json:"code"`
	Text            string `json:"text"`
	RequiresSubject bool   `json:"requires_subject"`
}

// Sentence composes the decoded text with the subject phrase when the code
// reads as an action by a party.
func (a CauseAttribution) Sentence(subject string) string {
	if a.RequiresSubject && subject != "" {
		return subject + " " + a.Text
	}
	return a.Text
}

// SubjectPhrase names the actor for a party mode label, e.g.
// "The driver of the car".
func SubjectPhrase(mode string) string {
	switch mode {
	case "":
		return ""
	case ModePedestrian:
		return "The pedestrian"
	case ModeBicycle:
		return "The cyclist"
	case ModeEquestrian:
		return "The rider"
	case ModeSkater:
		return "The skater"
	case ModeWheeledPedestrian:
		return "The wheeled pedestrian"
	default:
		return "The driver of the " + mode
	}
}

// ParseCauseToken splits a cause token into its party and 3-digit code.
// "301B" is party B code 301, "802" is an environmental factor, and "12B"
// is party B code 012.
func ParseCauseToken(tok string) (party, code string, err error) {
	var digits string
	switch {
	case len(tok) == 4:
		if !isPartyLetter(tok[3]) {
			return "", "", fmt.Errorf("cause token %q: party %q: %w", tok, tok[3], ErrMalformedCauseToken)
		}
		party, digits = tok[3:], tok[:3]
	case len(tok) == 3 && isPartyLetter(tok[2]):
		party, digits = tok[2:], tok[:2]
	case len(tok) == 3:
		party, digits = EnvironmentParty, tok
	default:
		return "", "", fmt.Errorf("cause token %q: length %d: %w", tok, len(tok), ErrMalformedCauseToken)
	}

	if !isDigits(digits) {
		return "", "", fmt.Errorf("cause token %q: %w", tok, ErrMalformedCauseToken)
	}
	code, err = PadCauseCode(digits)
	if err != nil {
		return "", "", err
	}
	return party, code, nil
}

// PadCauseCode normalizes a code to exactly 3 digits. Two-digit codes lost
// their leading zero; any other length is rejected.
func PadCauseCode(digits string) (string, error) {
	switch len(digits) {
	case 2:
		return "0" + digits, nil
	case 3:
		return digits, nil
	default:
		return "", fmt.Errorf("cause code %q must have 3 digits: %w", digits, ErrMalformedCauseToken)
	}
}

// CauseGroups maps a party to its codes in token order.
type CauseGroups map[string][]string

// Parties returns the party keys with letters in order and
// EnvironmentParty last.
func (g CauseGroups) Parties() []string {
	parties := make([]string, 0, len(g))
	for p := range g {
		parties = append(parties, p)
	}
	sort.Slice(parties, func(i, j int) bool {
		if parties[i] == EnvironmentParty {
			return false
		}
		if parties[j] == EnvironmentParty {
			return true
		}
		return parties[i] < parties[j]
	})
	return parties
}

// Codes returns every code across all parties.
func (g CauseGroups) Codes() []string {
	var out []string
	for _, p := range g.Parties() {
		out = append(out, g[p]...)
	}
	return out
}

// GroupCauses parses and groups tokens by party. Malformed tokens are
// logged, returned, and otherwise ignored.
func GroupCauses(tokens []string, logger *slog.Logger) (CauseGroups, []string) {
	groups := CauseGroups{}
	var malformed []string
	for _, tok := range tokens {
		party, code, err := ParseCauseToken(tok)
		if err != nil {
			logger.Warn("skipping malformed cause token", "token", tok, "error", err)
			malformed = append(malformed, tok)
			continue
		}
		groups[party] = append(groups[party], code)
	}
	return groups, malformed
}

// DropUnknownParties removes codes cited against a party letter the crash
// has no vehicle for, returning the removed tokens. EnvironmentParty codes
// are always kept.
func (g CauseGroups) DropUnknownParties(parties []Party, logger *slog.Logger) []string {
	known := make(map[string]bool, len(parties))
	for _, p := range parties {
		known[p.ID] = true
	}
	var dropped []string
	for _, party := range g.Parties() {
		if party == EnvironmentParty || known[party] {
			continue
		}
		for _, code := range g[party] {
			tok := code + party
			logger.Warn("skipping cause cited against missing party", "token", tok, "party", party)
			dropped = append(dropped, tok)
		}
		delete(g, party)
	}
	return dropped
}

// DecodeCauses decodes every grouped code. Skipped codes are omitted;
// decode failures are returned as-is.
func DecodeCauses(groups CauseGroups, decoder CauseDecoder) ([]CauseAttribution, error) {
	var out []CauseAttribution
	for _, party := range groups.Parties() {
		for _, code := range groups[party] {
			entry, ok, err := decoder.DecodeCause(code)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			out = append(out, CauseAttribution{
				Party:           party,
				Code:            code,
				Text:            entry.Text,
				RequiresSubject: entry.RequiresSubject,
			})
		}
	}
	return out, nil
}

type causeRange struct {
	lo, hi int
	label  string
}

// majorCauses is sorted and disjoint.
var majorCauses = []causeRange{
	{100, 210, "Driver control"},
	{300, 387, "Vehicle conflicts"},
	{400, 448, "General driver"},
	{500, 534, "General person"},
	{600, 696, "Vehicles"},
	{700, 732, "Pedestrians"},
	{800, 873, "Road"},
	{900, 998, "Miscellaneous"},
}

var minorCauses = map[int]string{
	100: "Alcohol or drugs",
	110: "Too fast for conditions",
	120: "Failed to keep left",
	130: "Lost control",
	140: "Failed to signal in time",
	150: "Overtaking",
	170: "Wrong lane or turned from wrong position",
	180: "In line of traffic",
	190: "Sudden action",
	200: "Forbidden movements",
	300: "Failed to give way",
	320: "Did not stop",
	330: "Inattentive: failed to notice",
	350: "Attention diverted by:",
	370: "Did not see or look for another party until too late",
	380: "Misjudged speed, distance, size or position of:",
	400: "Inexperience",
	410: "Fatigue (drowsy, tired, fell asleep)",
	420: "Incorrect use of vehicle controls",
	430: "Showing off",
	440: "Parked or stopped",
	500: "Illness and disability",
	510: "Intentional or criminal",
	520: "Driver or passenger, boarding, leaving, in vehicle",
	530: "Miscellaneous person",
	600: "Lights and reflectors at fault or dirty",
	610: "Brakes",
	620: "Steering",
	630: "Tyres",
	640: "Windscreen or mirror",
	650: "Mechanical",
	660: "Body or chassis",
	680: "Load",
	690: "Miscellaneous vehicle",
	700: "Walking along road",
	710: "Crossing road",
	720: "Miscellaneous",
	800: "Slippery",
	810: "Surface",
	820: "Obstructed",
	830: "Visibility limited",
	840: "Signs and signals",
	850: "Markings",
	860: "Street lighting",
	870: "Raised islands and roundabouts",
	900: "Weather",
	910: "Animals",
	920: "Entering or leaving land use",
	970: "Unconverted old codes",
}

func majorCause(n int) (causeRange, bool) {
	i := sort.Search(len(majorCauses), func(i int) bool { return majorCauses[i].hi >= n })
	if i < len(majorCauses) && majorCauses[i].lo <= n {
		return majorCauses[i], true
	}
	return causeRange{}, false
}

// minorCause walks down from n's decade, never below the major range floor.
func minorCause(n int, major causeRange) (string, bool) {
	floor := major.lo - major.lo%10
	for m := n - n%10; m >= floor; m -= 10 {
		if label, ok := minorCauses[m]; ok {
			return label, true
		}
	}
	return "", false
}

// LegacyCauseDecoder composes "<major>: <minor>[ - <detail>]" from the
// category ranges plus a code-indexed detail table.
type LegacyCauseDecoder struct {
	Detail map[string]string
}

// Describe returns the composed category text for a 3-digit code.
func (d LegacyCauseDecoder) Describe(code string) (string, error) {
	n, err := strconv.Atoi(code)
	if err != nil || len(code) != 3 {
		return "", fmt.Errorf("cause code %q: %w", code, ErrMalformedCauseToken)
	}
	major, ok := majorCause(n)
	if !ok {
		return "", fmt.Errorf("cause code %s outside category ranges: %w", code, ErrUnknownCode)
	}
	minor, ok := minorCause(n, major)
	if !ok {
		return "", fmt.Errorf("cause code %s has no minor category: %w", code, ErrUnknownCode)
	}

	text := major.label + ": " + minor
	if code[2] != '0' {
		detail, ok := d.Detail[code]
		if !ok {
			return "", fmt.Errorf("cause code %s detail: %w", code, ErrUnknownCode)
		}
		text += " - " + detail
	}
	return text, nil
}

// DecodeCause implements CauseDecoder.
func (d LegacyCauseDecoder) DecodeCause(code string) (CauseEntry, bool, error) {
	if code == undefinedCauseCode {
		return CauseEntry{}, false, nil
	}
	text, err := d.Describe(code)
	if err != nil {
		return CauseEntry{}, false, err
	}
	n, _ := strconv.Atoi(code)
	major, _ := majorCause(n)
	return CauseEntry{Category: major.label, Text: text}, true, nil
}

func isPartyLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
