package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "02/01/2006"

// TimeOfDay is a local wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// SpeedLimit is either a numeric km/h limit or a coded string such as "U"
// or "LSZ".
type SpeedLimit struct {
	KMH  *int
	Code string
}

// IsZero reports whether the speed limit was not recorded.
func (s SpeedLimit) IsZero() bool {
	return s.KMH == nil && s.Code == ""
}

func (s SpeedLimit) String() string {
	if s.KMH != nil {
		return strconv.Itoa(*s.KMH)
	}
	return s.Code
}

func isEmpty(cell string) bool {
	return cell == "" || cell == " "
}

// FormatString returns the cell unchanged, or "" for an empty cell.
func FormatString(cell string) string {
	if isEmpty(cell) {
		return ""
	}
	return cell
}

// FormatInt parses a base-10 integer cell. Empty cells return nil.
func FormatInt(cell string) (*int, error) {
	if isEmpty(cell) {
		return nil, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return nil, fmt.Errorf("integer %q: %w", cell, ErrMalformedField)
	}
	return &n, nil
}

// ParseSpeedLimit never fails: non-numeric limits keep their string form.
func ParseSpeedLimit(cell string) SpeedLimit {
	if isEmpty(cell) {
		return SpeedLimit{}
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return SpeedLimit{KMH: &n}
	}
	return SpeedLimit{Code: cell}
}

// FormatDate parses a day/month/year cell. Malformed dates are expected in
// the source and yield the zero time.
func FormatDate(cell string) time.Time {
	if isEmpty(cell) {
		return time.Time{}
	}
	d, err := time.Parse(dateLayout, cell)
	if err != nil {
		return time.Time{}
	}
	return d
}

// FormatCrashTime left-pads the HHMM cell to four digits and combines it with
// date. Either part being absent yields nil.
func FormatCrashTime(cell string, date time.Time) (*TimeOfDay, error) {
	if isEmpty(cell) || date.IsZero() {
		return nil, nil
	}
	if len(cell) > 4 {
		return nil, fmt.Errorf("crash time %q: %w", cell, ErrMalformedField)
	}
	padded := strings.Repeat("0", 4-len(cell)) + cell

	t, err := time.Parse("2006-01-02 1504", date.Format("2006-01-02")+" "+padded)
	if err != nil {
		return nil, fmt.Errorf("crash time %q: %w", cell, ErrMalformedField)
	}
	return &TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// SplitList splits a cell into tokens. With a delimiter, empty tokens are
// dropped; without one every character is its own code, spaces included.
func SplitList(cell, delim string) []string {
	if cell == "" {
		return nil
	}
	if delim == "" {
		out := make([]string, 0, len(cell))
		for _, r := range cell {
			out = append(out, string(r))
		}
		return out
	}
	var out []string
	for _, tok := range strings.Split(cell, delim) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
