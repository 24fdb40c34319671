// Command genmock writes a synthetic CAS crash export for load testing
// crashetl. Crashes are scattered around a handful of towns, projected to
// NZTM with the same projection crashetl inverts, and cite only cause codes
// present in the given cause table so every row decodes.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -causes testdata/causes.csv \
//	  -out data/mock/crashes_100k.csv \
//	  -n 100000
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crash-data-etl/internal/adapter/tables"
	"github.com/couchcryptid/crash-data-etl/internal/domain"
)

type town struct {
	authority string
	roads     []string
	lon, lat  float64
}

var towns = []town{
	{"Auckland City", []string{"QUEEN ST", "DOMINION RD", "GREAT NORTH RD"}, 174.7633, -36.8485},
	{"Wellington City", []string{"LAMBTON QUAY", "WILLIS ST", "ADELAIDE RD"}, 174.7762, -41.2865},
	{"Christchurch City", []string{"COLOMBO ST", "RICCARTON RD", "PAPANUI RD"}, 172.6362, -43.5321},
	{"Dunedin City", []string{"GEORGE ST", "PRINCES ST", "KAIKORAI VALLEY RD"}, 170.5028, -45.8788},
	{"Hamilton City", []string{"VICTORIA ST", "ULSTER ST", "SH 1"}, 175.2793, -37.7870},
}

var header = []string{
	"crsh_auth", "road", "dist", "dirn", "int", "side_road", "crash_id", "date", "day", "time",
	"mvmt", "vehicles", "causes", "objects", "curve", "wet", "light", "weather", "junction",
	"tcontrol", "marking", "speed", "fatal", "severe", "minor", "age1", "age2", "easting", "northing",
}

// One entry per code so draws follow rough real-world proportions.
var (
	vehicleCodes = []byte("CCCCCCVVV4XTTMSE")
	lightCodes   = []string{"BN", "BN", "ON", "TO", "DO", "DN"}
	weatherCodes = []string{"F ", "F ", "F ", "L ", "H ", "FF", "MS"}
	speedLimits  = []string{"50", "50", "50", "70", "80", "100", "100", "LSZ"}
	directions   = []string{"N", "S", "E", "W"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	causePath := flag.String("causes", "", "cause decoder table (CSV or JSON)")
	out := flag.String("out", "", "output path for the crash CSV")
	n := flag.Int("n", 10000, "number of crashes to generate")
	seed := flag.Uint64("seed", 1, "random seed; equal seeds give equal files")
	start := flag.String("start", "2014-01-01", "first crash date (YYYY-MM-DD)")
	days := flag.Int("days", 365, "days the crashes are spread over")
	flag.Parse()

	if *causePath == "" || *out == "" || *n <= 0 || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -causes, -out")
	}

	first, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	causes, err := tables.LoadCauseTable(*causePath)
	if err != nil {
		return err
	}
	codes := make([]string, 0, len(causes))
	for code := range causes {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	g := generator{
		rng:   rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)),
		codes: codes,
		first: first,
		days:  *days,
	}

	st, err := writeCrashes(*out, *n, &g)
	if err != nil {
		return err
	}
	log.Printf("wrote %d crashes to %s", *n, *out)
	st.print()
	return nil
}

func writeCrashes(path string, n int, g *generator) (stats, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stats{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return stats{}, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return stats{}, err
	}

	s := stats{severity: map[domain.Severity]int{}}
	for i := range n {
		row := g.row(i)
		s.add(row)
		if err := w.Write(row); err != nil {
			return stats{}, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return stats{}, err
	}
	return s, f.Close()
}

type generator struct {
	rng   *rand.Rand
	codes []string
	first time.Time
	days  int
}

func (g *generator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

func (g *generator) row(i int) []string {
	t := towns[g.rng.IntN(len(towns))]
	row := make([]string, domain.ColumnCount)

	date := g.first.AddDate(0, 0, g.rng.IntN(g.days))
	row[domain.ColAuthority] = t.authority
	row[domain.ColRoad] = g.pick(t.roads)
	row[domain.ColCrashID] = strconv.Itoa(900000000 + i)
	row[domain.ColDate] = date.Format("02/01/2006")
	row[domain.ColDayOfWeek] = date.Format("Mon")
	row[domain.ColTime] = fmt.Sprintf("%02d%02d", g.rng.IntN(24), g.rng.IntN(12)*5)

	if g.rng.IntN(3) == 0 {
		row[domain.ColIntersection] = "I"
		row[domain.ColSideRoad] = g.pick(t.roads)
	} else {
		row[domain.ColDistance] = strconv.Itoa(g.rng.IntN(500))
		row[domain.ColDirection] = g.pick(directions)
	}

	vehicles := []byte{vehicleCodes[g.rng.IntN(len(vehicleCodes))]}
	vehicles = append(vehicles, directions[g.rng.IntN(len(directions))][0], directions[g.rng.IntN(len(directions))][0])
	for range g.rng.IntN(3) {
		vehicles = append(vehicles, vehicleCodes[g.rng.IntN(len(vehicleCodes))])
	}
	row[domain.ColVehicles] = string(vehicles)
	row[domain.ColCauses] = g.causes(len(vehicles) - 2)

	row[domain.ColLight] = g.pick(lightCodes)
	row[domain.ColWeather] = g.pick(weatherCodes)
	row[domain.ColSpeedLimit] = g.pick(speedLimits)

	var fatal, severe, minor int
	switch r := g.rng.IntN(100); {
	case r < 2:
		fatal = 1
	case r < 12:
		severe = 1 + g.rng.IntN(2)
	case r < 45:
		minor = 1 + g.rng.IntN(3)
	}
	row[domain.ColFatalCount] = strconv.Itoa(fatal)
	row[domain.ColSevereCount] = strconv.Itoa(severe)
	row[domain.ColMinorCount] = strconv.Itoa(minor)

	// About one crash in fifty is never located.
	if g.rng.IntN(50) > 0 {
		lon := t.lon + (g.rng.Float64()-0.5)*0.1
		lat := t.lat + (g.rng.Float64()-0.5)*0.1
		e, n := domain.GeodeticToNZTM(lon, lat)
		row[domain.ColEasting] = strconv.Itoa(int(e))
		row[domain.ColNorthing] = strconv.Itoa(int(n))
	}
	return row
}

// causes cites up to two table codes against random parties, plus an
// occasional environmental factor.
func (g *generator) causes(parties int) string {
	if len(g.codes) == 0 {
		return ""
	}
	var toks []string
	for range 1 + g.rng.IntN(2) {
		party := 'A' + rune(g.rng.IntN(parties))
		toks = append(toks, g.pick(g.codes)+string(party))
	}
	if g.rng.IntN(5) == 0 {
		toks = append(toks, g.pick(g.codes))
	}
	return strings.Join(toks, " ")
}

type stats struct {
	total     int
	unlocated int
	severity  map[domain.Severity]int
}

func (s *stats) add(row []string) {
	s.total++
	if row[domain.ColEasting] == "" {
		s.unlocated++
	}
	count := func(c domain.Column) *int {
		n, _ := strconv.Atoi(row[c])
		return &n
	}
	s.severity[domain.ClassifyInjury(count(domain.ColFatalCount), count(domain.ColSevereCount), count(domain.ColMinorCount))]++
}

func (s stats) print() {
	fmt.Println("\n=== Generated crash stats ===")
	fmt.Printf("Total: %d (unlocated %d)\n", s.total, s.unlocated)
	fmt.Printf("By worst injury: fatal=%d, severe=%d, minor=%d, none=%d\n",
		s.severity[domain.SeverityFatal], s.severity[domain.SeveritySevere],
		s.severity[domain.SeverityMinor], s.severity[domain.SeverityNone])
}
