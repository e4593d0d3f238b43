// Package measure turns kept and discarded contours into per-object
// measurement records and persists them as CSV tables.
package measure

// Record flags.
const (
	FlagValid     = "valid"
	FlagDiscarded = "discarded"
)

// Object types.
const (
	TypeNucleus      = "nucleus"
	TypeCluster      = "cluster"
	TypeSatellite    = "satellite"
	TypeUnclassified = "unclassified"
)

// Unknown fills specimen identifiers that were not provided.
const Unknown = "unknown"

// Specimen identifies the patient exam an image belongs to.
type Specimen struct {
	Record         string
	Name           string
	Group          string // control, leukoplakia, carcinoma or unknown
	ExamDate       string
	ExamInstance   string // T0, T1, ...
	AnatomicalSite string
}

// DefaultSpecimen returns a specimen with every identifier unknown.
func DefaultSpecimen() Specimen {
	return Specimen{Record: Unknown, Name: Unknown, Group: Unknown}
}

// NucleusRecord is one nucleus measurement.
type NucleusRecord struct {
	Specimen
	SourceImage string
	Flag        string
	Nucleus     int
	PixelCount  int
	Type        string
}

// AgNORRecord is one AgNOR measurement. Nucleus is the id of the nucleus
// it was attributed to and AgNOR its id within that nucleus.
type AgNORRecord struct {
	Specimen
	SourceImage string
	Flag        string
	Nucleus     int
	AgNOR       int
	PixelCount  int
	Type        string

	// NucleusRatio is PixelCount over the pixel count of its nucleus.
	NucleusRatio float64
	// GreatestRatio and SmallestRatio compare PixelCount with the largest
	// and smallest AgNOR measured in the same Build call.
	GreatestRatio float64
	SmallestRatio float64
}

// Features returns the classifier inputs of the record in model order:
// pixel count, nucleus ratio, smallest AgNOR ratio, greatest AgNOR ratio.
func (r AgNORRecord) Features() []float64 {
	return []float64{float64(r.PixelCount), r.NucleusRatio, r.SmallestRatio, r.GreatestRatio}
}
