package tables

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

var knownFactors = map[domain.Factor]bool{
	domain.FactorAlcohol:          true,
	domain.FactorDrugs:            true,
	domain.FactorSpeeding:         true,
	domain.FactorFatigue:          true,
	domain.FactorCellphone:        true,
	domain.FactorTourist:          true,
	domain.FactorDangerousDriving: true,
}

// LoadFactors reads factor code groups, starting from the defaults so the
// file only needs the groups it changes.
func LoadFactors(path string) (domain.FactorSets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open factors: %w: %w", domain.ErrTableLoad, err)
	}
	defer f.Close()
	return ReadFactors(f)
}

// ReadFactors parses a map of factor name to code entries, e.g.
//
//	speeding: ["110-119"]
//	cellphone: ["356"]
func ReadFactors(r io.Reader) (domain.FactorSets, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode factors: %w: %w", domain.ErrTableLoad, err)
	}

	sets := domain.DefaultFactorSets()
	for name, entries := range raw {
		f := domain.Factor(name)
		if !knownFactors[f] {
			return nil, fmt.Errorf("factor %q: %w", name, domain.ErrTableLoad)
		}
		set, err := domain.ParseCodeSet(entries)
		if err != nil {
			return nil, fmt.Errorf("factor %q: %w: %w", name, domain.ErrTableLoad, err)
		}
		sets[f] = set
	}
	return sets, nil
}
