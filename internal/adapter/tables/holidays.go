package tables

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// holidayLayout is the wall-clock form used in the holidays file. RFC 3339
// values are also accepted and keep their own offset.
const holidayLayout = "2006-01-02 15:04"

type holidayFile struct {
	Periods []holidayEntry `yaml:"periods"`
}

type holidayEntry struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadHolidays reads holiday periods. Wall-clock bounds are read in loc.
func LoadHolidays(path string, loc *time.Location) ([]domain.HolidayPeriod, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open holidays: %w: %w", domain.ErrTableLoad, err)
	}
	defer f.Close()
	return ReadHolidays(f, loc)
}

// ReadHolidays parses the YAML holiday list, sorted by start.
func ReadHolidays(r io.Reader, loc *time.Location) ([]domain.HolidayPeriod, error) {
	var file holidayFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode holidays: %w: %w", domain.ErrTableLoad, err)
	}

	periods := make([]domain.HolidayPeriod, 0, len(file.Periods))
	for i, e := range file.Periods {
		if e.Name == "" {
			return nil, fmt.Errorf("holiday %d has no name: %w", i, domain.ErrTableLoad)
		}
		start, err := parseHolidayTime(e.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("holiday %q start: %w: %w", e.Name, domain.ErrTableLoad, err)
		}
		end, err := parseHolidayTime(e.End, loc)
		if err != nil {
			return nil, fmt.Errorf("holiday %q end: %w: %w", e.Name, domain.ErrTableLoad, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("holiday %q ends before it starts: %w", e.Name, domain.ErrTableLoad)
		}
		periods = append(periods, domain.HolidayPeriod{Name: e.Name, Start: start, End: end})
	}
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start)
	})
	return periods, nil
}

func parseHolidayTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(holidayLayout, s, loc)
}
