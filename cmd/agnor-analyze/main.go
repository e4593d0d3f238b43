// Command agnor-analyze measures the nuclei and AgNORs of one segmentation
// mask. It writes the per-object measurement tables, the cleaned mask and,
// when something was discarded, a diagnostic overlay.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agnor-examiner/internal/analysis"
	"agnor-examiner/internal/annotation"
	"agnor-examiner/internal/classify"
	"agnor-examiner/internal/config"
	"agnor-examiner/internal/contour"
	"agnor-examiner/internal/logger"
	"agnor-examiner/internal/mask"
	"agnor-examiner/internal/measure"
	"agnor-examiner/internal/version"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

type options struct {
	maskPath   string
	configPath string
	outDir     string
	specimen   measure.Specimen
	smooth     bool
	model      string
	bboxPath   string
	stamp      string
	logLevel   string
}

func main() {
	var opts options
	patient := measure.DefaultSpecimen()

	flag.StringVar(&opts.maskPath, "mask", "", "Path to the segmentation mask (PNG, TIFF or BMP)")
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&opts.outDir, "out", "", "Output directory (overrides output.dir)")
	flag.StringVar(&patient.Name, "patient", patient.Name, "Patient name")
	flag.StringVar(&patient.Record, "record", patient.Record, "Patient record id")
	flag.StringVar(&patient.Group, "group", patient.Group, "Group: control, leukoplakia, carcinoma or unknown")
	flag.StringVar(&patient.ExamDate, "exam-date", "", "Exam date")
	flag.StringVar(&patient.ExamInstance, "exam-instance", "", "Exam instance, e.g. T0")
	flag.StringVar(&patient.AnatomicalSite, "site", "", "Anatomical site")
	flag.BoolVar(&opts.smooth, "smooth", false, "Smooth nucleus contours (also enabled by smoothing.enabled)")
	flag.StringVar(&opts.model, "model", "", "Classifier artifact (overrides classifier.model)")
	flag.StringVar(&opts.bboxPath, "bbox", "", "labelme annotation; only objects inside its rectangles are kept")
	flag.StringVar(&opts.stamp, "stamp", "", "Table timestamp (default: now, "+measure.StampLayout+")")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides log.level)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("agnor-analyze"))
		return
	}
	if opts.maskPath == "" {
		fmt.Println("Usage: agnor-analyze -mask <path> [-config agnor.yaml] [-out dir] [-patient name] [-smooth] [-model path] [-bbox path]")
		os.Exit(1)
	}
	opts.specimen = patient

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "agnor-analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadExisting(opts.configPath); err != nil {
			return err
		}
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.model != "" {
		cfg.Classifier.Model = opts.model
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	smooth := opts.smooth || cfg.Smoothing.Enabled
	stamp := opts.stamp
	if stamp == "" {
		stamp = measure.Stamp(time.Now())
	}

	log := logger.NewConsole(cfg.Log.Level)

	m, err := mask.Load(opts.maskPath)
	if err != nil {
		return err
	}
	defer func() { m.Close() }()
	log.Info().Str("mask", opts.maskPath).Int("rows", m.Rows()).Int("cols", m.Cols()).Msg("mask loaded")

	if opts.bboxPath != "" {
		boxed, err := restrict(m, opts.bboxPath, log)
		if err != nil {
			return err
		}
		m.Close()
		m = boxed
	}

	res, diag, err := analysis.NewAnalyzer(cfg.AnalysisParams(), log).Analyze(m, smooth)
	if err != nil {
		return err
	}
	defer res.Close()
	defer diag.Close()

	shape := contour.ShapeOf(m)
	ctx := measure.Context{Specimen: opts.specimen, SourceImage: filepath.Base(opts.maskPath)}

	nuclei, agnors := measure.Build(res.Nuclei, res.AgNORs, shape, ctx, 0, measure.FlagValid)
	if agnors, err = classifyRows(cfg.Classifier.Model, agnors); err != nil {
		return err
	}
	nucleusPath, agnorPath, err := measure.WriteTables(nuclei, agnors, cfg.Output.Dir, stamp, "")
	if err != nil {
		return err
	}
	log.Info().Str("nuclei", nucleusPath).Str("agnors", agnorPath).
		Int("nucleus_rows", len(nuclei)).Int("agnor_rows", len(agnors)).Msg("measurements written")

	if cfg.Output.RecordDiscarded {
		dn, da := measure.Build(diag.Deformed, diag.DeformedAgNORs, shape, ctx, len(res.Nuclei), measure.FlagDiscarded)
		if da, err = classifyRows(cfg.Classifier.Model, da); err != nil {
			return err
		}
		if _, _, err := measure.WriteTables(dn, da, cfg.Output.Dir, stamp, measure.DiscardedPrefix); err != nil {
			return err
		}
		log.Info().Int("nucleus_rows", len(dn)).Int("agnor_rows", len(da)).Msg("discarded measurements written")
	}

	base := strings.TrimSuffix(filepath.Base(opts.maskPath), filepath.Ext(opts.maskPath))
	cleaned := filepath.Join(cfg.Output.Dir, base+"_mask.png")
	if err := mask.Save(cleaned, res.Mask); err != nil {
		return err
	}
	if cfg.Output.Overlay && diag.HasOverlay() {
		overlay := filepath.Join(cfg.Output.Dir, base+"_overlay.png")
		if err := mask.SaveBGR(overlay, diag.Overlay); err != nil {
			return err
		}
		log.Info().Str("path", overlay).Msg("overlay written")
	}
	return nil
}

// restrict drops every object outside the annotation's rectangles and
// returns the rebuilt mask.
func restrict(m gocv.Mat, bboxPath string, log zerolog.Logger) (gocv.Mat, error) {
	boxes, err := annotation.LoadRectangles(bboxPath)
	if err != nil {
		return gocv.NewMat(), err
	}
	nuclei, agnors := analysis.ExtractContours(m)
	r := analysis.RestrictToBoxes(m, nuclei, agnors, boxes)
	log.Info().Int("boxes", len(boxes)).
		Int("nuclei", len(r.Nuclei)).Int("agnors", len(r.AgNORs)).
		Msg("restricted to annotated boxes")
	return r.Mask, nil
}

func classifyRows(model string, rows []measure.AgNORRecord) ([]measure.AgNORRecord, error) {
	if model == "" {
		return rows, nil
	}
	return classify.WithModel(model, rows)
}
