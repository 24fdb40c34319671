// Package tables loads decoder tables from the CSV, JSON and YAML files the
// crash pipeline is configured with.
package tables

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

// Positional layout of the cause decoder CSV when its header is not
// recognised.
const (
	causeColCategory = 0
	causeColSubject  = 2
	causeColCode     = 3
	causeColText     = 4
)

// causeJSONEntry mirrors one value of the cause decoder JSON.
type causeJSONEntry struct {
	Category        string `json:"Category"`
	RequiresSubject string `json:"Requires Subject"`
	Pretty          string `json:"Pretty"`
}

// LoadCauseTable reads the primary cause table. Files ending in .json are
// read as JSON, anything else as CSV.
func LoadCauseTable(path string) (domain.CauseTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cause table: %w: %w", domain.ErrTableLoad, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadCauseJSON(f)
	}
	return ReadCauseCSV(f)
}

// LoadCauseDecoder builds the decoder for mode "primary" or "legacy". The
// legacy decoder takes its detail text from the same file.
func LoadCauseDecoder(path, mode string) (domain.CauseDecoder, error) {
	table, err := LoadCauseTable(path)
	if err != nil {
		return nil, err
	}
	switch mode {
	case "", "primary":
		return table, nil
	case "legacy":
		detail := make(map[string]string, len(table))
		for code, e := range table {
			detail[code] = e.Text
		}
		return domain.LegacyCauseDecoder{Detail: detail}, nil
	default:
		return nil, fmt.Errorf("cause decoder mode %q: %w", mode, domain.ErrTableLoad)
	}
}

// ReadCauseCSV parses a cause table with a header row. Columns are found by
// header name (code, Category, Requires Subject, Pretty) and otherwise by
// position.
func ReadCauseCSV(r io.Reader) (domain.CauseTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read cause header: %w: %w", domain.ErrTableLoad, err)
	}
	cols := causeColumns(header)

	table := domain.CauseTable{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cause row %d: %w: %w", line, domain.ErrTableLoad, err)
		}
		if len(rec) <= cols.last() {
			return nil, fmt.Errorf("cause row %d has %d columns: %w", line, len(rec), domain.ErrTableLoad)
		}
		code, err := domain.PadCauseCode(strings.TrimSpace(rec[cols.code]))
		if err != nil {
			return nil, fmt.Errorf("cause row %d: %w: %w", line, domain.ErrTableLoad, err)
		}
		table[code] = domain.CauseEntry{
			Category:        strings.TrimSpace(rec[cols.category]),
			RequiresSubject: parseFlag(rec[cols.subject]),
			Text:            strings.TrimSpace(rec[cols.text]),
		}
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("cause table is empty: %w", domain.ErrTableLoad)
	}
	return table, nil
}

// ReadCauseJSON parses the code-keyed JSON form of the cause table.
func ReadCauseJSON(r io.Reader) (domain.CauseTable, error) {
	var raw map[string]causeJSONEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode cause json: %w: %w", domain.ErrTableLoad, err)
	}
	table := make(domain.CauseTable, len(raw))
	for k, v := range raw {
		code, err := domain.PadCauseCode(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("cause json: %w: %w", domain.ErrTableLoad, err)
		}
		table[code] = domain.CauseEntry{
			Category:        v.Category,
			RequiresSubject: parseFlag(v.RequiresSubject),
			Text:            v.Pretty,
		}
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("cause table is empty: %w", domain.ErrTableLoad)
	}
	return table, nil
}

type causeCols struct {
	category, subject, code, text int
}

func (c causeCols) last() int {
	return max(c.category, c.subject, c.code, c.text)
}

func causeColumns(header []string) causeCols {
	cols := causeCols{causeColCategory, causeColSubject, causeColCode, causeColText}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "category":
			cols.category = i
		case "requires subject", "subject":
			cols.subject = i
		case "code":
			cols.code = i
		case "pretty", "text", "description":
			cols.text = i
		}
	}
	return cols
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "y", "yes", "true", "t":
		return true
	default:
		return false
	}
}
