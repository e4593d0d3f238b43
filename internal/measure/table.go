package measure

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// StampLayout formats the timestamp that suffixes table file names and
// fills their datetime column.
const StampLayout = "200601021504"

// DiscardedPrefix prefixes the tables that hold discarded objects.
const DiscardedPrefix = "discarded_"

// Stamp formats t with StampLayout.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

var nucleusColumns = []string{
	"patient_record", "patient_name", "source_image", "flag", "group",
	"exam_date", "exam_instance", "anatomical_site",
	"nucleus", "nucleus_pixel_count", "type", "datetime",
}

var agnorColumns = []string{
	"patient_record", "patient_name", "source_image", "flag", "group",
	"exam_date", "exam_instance", "anatomical_site",
	"nucleus", "agnor", "agnor_pixel_count", "type",
	"nucleus_ratio", "greatest_agnor_ratio", "smallest_agnor_ratio", "datetime",
}

// TablePaths returns the nucleus and AgNOR table paths for a run.
func TablePaths(dir, stamp, prefix string) (nucleusPath, agnorPath string) {
	return filepath.Join(dir, prefix+"nucleus_measurements_"+stamp+".csv"),
		filepath.Join(dir, prefix+"agnor_measurements_"+stamp+".csv")
}

// WriteTables appends the records to the run's nucleus and AgNOR tables in
// dir, creating each file with a header row when it does not exist yet.
// It returns the paths written.
func WriteTables(nuclei []NucleusRecord, agnors []AgNORRecord, dir, stamp, prefix string) (string, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}
	nucleusPath, agnorPath := TablePaths(dir, stamp, prefix)

	rows := make([][]string, len(nuclei))
	for i, r := range nuclei {
		rows[i] = append(specimenFields(r.Specimen, r.SourceImage, r.Flag),
			strconv.Itoa(r.Nucleus), strconv.Itoa(r.PixelCount), r.Type, stamp)
	}
	if err := appendCSV(nucleusPath, nucleusColumns, rows); err != nil {
		return "", "", err
	}

	rows = make([][]string, len(agnors))
	for i, r := range agnors {
		rows[i] = append(specimenFields(r.Specimen, r.SourceImage, r.Flag),
			strconv.Itoa(r.Nucleus), strconv.Itoa(r.AgNOR), strconv.Itoa(r.PixelCount), r.Type,
			formatFloat(r.NucleusRatio), formatFloat(r.GreatestRatio), formatFloat(r.SmallestRatio), stamp)
	}
	if err := appendCSV(agnorPath, agnorColumns, rows); err != nil {
		return "", "", err
	}
	return nucleusPath, agnorPath, nil
}

func specimenFields(s Specimen, source, flag string) []string {
	return []string{s.Record, s.Name, source, flag, s.Group, s.ExamDate, s.ExamInstance, s.AnatomicalSite}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func appendCSV(path string, header []string, rows [][]string) error {
	_, err := os.Stat(path)
	exists := err == nil

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header %s: %w", path, err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadNucleusTable reads a nucleus table written by WriteTables.
func ReadNucleusTable(path string) ([]NucleusRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	out := make([]NucleusRecord, 0, len(t.rows))
	for i := range t.rows {
		r := NucleusRecord{
			Specimen:    t.specimen(i),
			SourceImage: t.strAt(i, "source_image"),
			Flag:        t.strAt(i, "flag"),
			Nucleus:     t.intAt(i, "nucleus"),
			PixelCount:  t.intAt(i, "nucleus_pixel_count"),
			Type:        t.strAt(i, "type"),
		}
		out = append(out, r)
	}
	if t.err != nil {
		return nil, t.err
	}
	return out, nil
}

// ReadAgNORTable reads an AgNOR table written by WriteTables. Empty ratio
// cells read as zero.
func ReadAgNORTable(path string) ([]AgNORRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	out := make([]AgNORRecord, 0, len(t.rows))
	for i := range t.rows {
		r := AgNORRecord{
			Specimen:      t.specimen(i),
			SourceImage:   t.strAt(i, "source_image"),
			Flag:          t.strAt(i, "flag"),
			Nucleus:       t.intAt(i, "nucleus"),
			AgNOR:         t.intAt(i, "agnor"),
			PixelCount:    t.intAt(i, "agnor_pixel_count"),
			Type:          t.strAt(i, "type"),
			NucleusRatio:  t.floatAt(i, "nucleus_ratio"),
			GreatestRatio: t.floatAt(i, "greatest_agnor_ratio"),
			SmallestRatio: t.floatAt(i, "smallest_agnor_ratio"),
		}
		out = append(out, r)
	}
	if t.err != nil {
		return nil, t.err
	}
	return out, nil
}

// table is a parsed CSV file addressed by column name. The first parse
// error is kept in err and later lookups return zero values.
type table struct {
	path    string
	columns map[string]int
	rows    [][]string
	err     error
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("table %s has no header", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	t := &table{path: path, columns: make(map[string]int, len(header)), rows: rows}
	for i, name := range header {
		t.columns[name] = i
	}
	return t, nil
}

func (t *table) strAt(row int, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(t.rows[row]) {
		return ""
	}
	return t.rows[row][i]
}

func (t *table) intAt(row int, column string) int {
	s := t.strAt(row, column)
	if s == "" || t.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		t.err = fmt.Errorf("%s line %d column %s: %w", t.path, row+2, column, err)
	}
	return v
}

func (t *table) floatAt(row int, column string) float64 {
	s := t.strAt(row, column)
	if s == "" || t.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.err = fmt.Errorf("%s line %d column %s: %w", t.path, row+2, column, err)
	}
	return v
}

func (t *table) specimen(row int) Specimen {
	return Specimen{
		Record:         t.strAt(row, "patient_record"),
		Name:           t.strAt(row, "patient_name"),
		Group:          t.strAt(row, "group"),
		ExamDate:       t.strAt(row, "exam_date"),
		ExamInstance:   t.strAt(row, "exam_instance"),
		AnatomicalSite: t.strAt(row, "anatomical_site"),
	}
}
