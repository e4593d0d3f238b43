// Package aggregate summarises the per-object measurement tables of one
// specimen into a single row of counts, means and AgNOR distributions.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"agnor-examiner/internal/logger"
	"agnor-examiner/internal/measure"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// ErrMissingInput is returned when a measurement table does not exist.
var ErrMissingInput = errors.New("measurement table not found")

// Summary is the aggregate of one specimen.
type Summary struct {
	measure.Specimen

	Nuclei     int
	AgNORs     int
	Clusters   int
	Satellites int

	MeanAgNORsPerNucleus   float64
	MedianAgNORsPerNucleus float64

	MeanNucleusSize   float64
	MeanAgNORSize     float64
	MeanClusterSize   float64
	MeanSatelliteSize float64

	// NNA[k-1] counts nuclei with exactly k AgNORs for k = 1..4; NNA[4]
	// counts nuclei with five or more.
	NNA [5]int
	// NNAFraction holds NNA divided by the number of nuclei.
	NNAFraction [5]float64

	// Path is the summary file written by Run.
	Path string
}

// Aggregator reads measurement tables and writes specimen summaries.
type Aggregator struct {
	log zerolog.Logger

	// Stamp prefixes the summary file name. Empty means the current time
	// formatted with measure.StampLayout.
	Stamp string
}

// New returns an Aggregator logging to log.
func New(log zerolog.Logger) *Aggregator {
	return &Aggregator{log: logger.Component(log, "aggregate")}
}

// Aggregate runs Run and reports only whether it succeeded. Failures are
// logged.
func (a *Aggregator) Aggregate(nucleusPath, agnorPath string, removeInputs bool, database string) bool {
	if _, err := a.Run(nucleusPath, agnorPath, removeInputs, database); err != nil {
		if errors.Is(err, ErrMissingInput) {
			a.log.Debug().Err(err).Msg("aggregation skipped")
		} else {
			a.log.Error().Err(err).Msg("aggregation failed")
		}
		return false
	}
	return true
}

// Run summarises the nucleus and AgNOR tables and writes the summary next
// to the nucleus table as "<stamp> - Aggregate measurements - <name>.csv".
// When database is set the row is also appended to that file, with ".csv"
// added when missing. When removeInputs is set both tables are deleted
// after the summary is written; deletion failures are only logged.
//
// If either table is missing Run returns ErrMissingInput and writes
// nothing.
func (a *Aggregator) Run(nucleusPath, agnorPath string, removeInputs bool, database string) (*Summary, error) {
	for _, p := range []string{nucleusPath, agnorPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, p)
		}
	}

	nuclei, err := measure.ReadNucleusTable(nucleusPath)
	if err != nil {
		return nil, err
	}
	agnors, err := measure.ReadAgNORTable(agnorPath)
	if err != nil {
		return nil, err
	}

	s := Summarize(nuclei, agnors)

	stamp := a.Stamp
	if stamp == "" {
		stamp = measure.Stamp(time.Now())
	}
	s.Path = filepath.Join(filepath.Dir(nucleusPath), fmt.Sprintf("%s - Aggregate measurements - %s.csv", stamp, s.Name))
	if err := writeSummary(s.Path, s, false); err != nil {
		return nil, err
	}
	a.log.Info().Str("path", s.Path).Int("nuclei", s.Nuclei).Int("agnors", s.AgNORs).Msg("summary written")

	if database != "" {
		if !strings.HasSuffix(database, ".csv") {
			database += ".csv"
		}
		if err := writeSummary(database, s, true); err != nil {
			return nil, err
		}
	}

	// Inputs go only after every output is written, so a failed run can be
	// repeated.
	if removeInputs {
		for _, p := range []string{nucleusPath, agnorPath} {
			if err := os.Remove(p); err != nil {
				a.log.Warn().Err(err).Str("path", p).Msg("could not remove measurement table")
			}
		}
	}
	return s, nil
}

type nucleusKey struct {
	source  string
	nucleus int
}

// Summarize computes the aggregate of one specimen's tables. Specimen
// identifiers come from the first AgNOR row, or the first nucleus row when
// there are no AgNORs.
func Summarize(nuclei []measure.NucleusRecord, agnors []measure.AgNORRecord) *Summary {
	s := &Summary{Nuclei: len(nuclei), AgNORs: len(agnors)}
	switch {
	case len(agnors) > 0:
		s.Specimen = agnors[0].Specimen
	case len(nuclei) > 0:
		s.Specimen = nuclei[0].Specimen
	}

	var all, clusters, satellites []float64
	typed := make(map[nucleusKey]int)
	perNucleus := make(map[nucleusKey]int)

	for _, r := range agnors {
		key := nucleusKey{r.SourceImage, r.Nucleus}
		perNucleus[key]++
		all = append(all, float64(r.PixelCount))

		switch r.Type {
		case measure.TypeCluster:
			clusters = append(clusters, float64(r.PixelCount))
			typed[key]++
		case measure.TypeSatellite:
			satellites = append(satellites, float64(r.PixelCount))
			typed[key]++
		}
	}
	s.Clusters = len(clusters)
	s.Satellites = len(satellites)

	counts := make([]float64, 0, len(typed))
	for _, n := range typed {
		counts = append(counts, float64(n))
	}
	s.MeanAgNORsPerNucleus = round2(mean(counts))
	s.MedianAgNORsPerNucleus = round2(median(counts))

	nucleusSizes := make([]float64, len(nuclei))
	for i, r := range nuclei {
		nucleusSizes[i] = float64(r.PixelCount)
	}
	s.MeanNucleusSize = round2(mean(nucleusSizes))
	s.MeanAgNORSize = round2(mean(all))
	s.MeanClusterSize = round2(mean(clusters))
	s.MeanSatelliteSize = round2(mean(satellites))

	for _, n := range perNucleus {
		s.NNA[min(n, 5)-1]++
	}
	if s.Nuclei > 0 {
		for i, n := range s.NNA {
			s.NNAFraction[i] = round2(float64(n) / float64(s.Nuclei))
		}
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// median averages the two middle values of an even-length sample.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
