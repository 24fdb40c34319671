package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// LoadStreetTypes reads the street abbreviation CSV: a header row, then
// full form and abbreviation per row.
func LoadStreetTypes(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open street table: %w: %w", domain.ErrTableLoad, err)
	}
	defer f.Close()
	return ReadStreetTypes(f)
}

// ReadStreetTypes maps each abbreviation ("St") to its full form ("Street").
func ReadStreetTypes(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read street header: %w: %w", domain.ErrTableLoad, err)
	}

	types := map[string]string{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read street row %d: %w: %w", line, domain.ErrTableLoad, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("street row %d has %d columns: %w", line, len(rec), domain.ErrTableLoad)
		}
		full, abbrev := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if full == "" || abbrev == "" {
			continue
		}
		types[abbrev] = full
	}
	return types, nil
}
