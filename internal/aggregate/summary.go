package aggregate

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var summaryColumns = []string{
	"Record", "Patient Name", "ExamDate", "Exam Instance", "Anatomical Site", "Group",
	"Number of Nuclei", "Number of AgNORs", "Number of Clusters", "Number of Satellites",
	"Mean AgNOR per Nucleus", "Median AgNOR per Nucleus",
	"Mean Nucleus Size", "Mean AgNOR Size", "Mean Cluster Size", "Mean Satellite Size",
	"AgNOR = 1", "AgNOR = 2", "AgNOR = 3", "AgNOR = 4", "AgNOR = 5+",
	"AgNOR = 1%", "AgNOR = 2%", "AgNOR = 3%", "AgNOR = 4%", "AgNOR = 5%+",
}

// Fields returns the summary row in column order. Decimals use a comma
// separator.
func (s *Summary) Fields() []string {
	f := []string{
		s.Record, s.Name, s.ExamDate, s.ExamInstance, s.AnatomicalSite, s.Group,
		strconv.Itoa(s.Nuclei), strconv.Itoa(s.AgNORs), strconv.Itoa(s.Clusters), strconv.Itoa(s.Satellites),
		decimal(s.MeanAgNORsPerNucleus), decimal(s.MedianAgNORsPerNucleus),
		decimal(s.MeanNucleusSize), decimal(s.MeanAgNORSize), decimal(s.MeanClusterSize), decimal(s.MeanSatelliteSize),
	}
	for _, n := range s.NNA {
		f = append(f, strconv.Itoa(n))
	}
	for _, p := range s.NNAFraction {
		f = append(f, decimal(p))
	}
	return f
}

func decimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

// writeSummary writes the header and row to path, or appends the row when
// appendRow is set and the file already exists. Every field is quoted and
// separated by semicolons.
func writeSummary(path string, s *Summary, appendRow bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	header := true
	if appendRow {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if _, err := os.Stat(path); err == nil {
			header = false
		}
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("open summary %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if header {
		writeQuoted(w, summaryColumns)
	}
	writeQuoted(w, s.Fields())
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return f.Close()
}

func writeQuoted(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(';')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
