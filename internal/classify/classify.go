package classify

import (
	"fmt"

	"agnor-examiner/internal/measure"

	"gonum.org/v1/gonum/mat"
)

// Label maps a predicted class to an AgNOR type.
func Label(class int) (string, error) {
	switch class {
	case 0:
		return measure.TypeCluster, nil
	case 1:
		return measure.TypeSatellite, nil
	}
	return "", fmt.Errorf("unexpected class %d", class)
}

// Features builds the N×4 feature matrix of a non-empty set of AgNOR
// records.
func Features(rows []measure.AgNORRecord) *mat.Dense {
	data := make([]float64, 0, len(rows)*NumFeatures)
	for _, r := range rows {
		data = append(data, r.Features()...)
	}
	return mat.NewDense(len(rows), NumFeatures, data)
}

// AgNORs returns a copy of rows with Type set from the predictor's labels.
// An empty input is returned unchanged without calling the predictor.
func AgNORs(p Predictor, rows []measure.AgNORRecord) ([]measure.AgNORRecord, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	labels, err := p.Predict(Features(rows))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("predictor returned %d labels for %d rows", len(labels), len(rows))
	}

	out := make([]measure.AgNORRecord, len(rows))
	for i, r := range rows {
		t, err := Label(labels[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		r.Type = t
		out[i] = r
	}
	return out, nil
}

// WithModel loads the artifact at path and classifies rows. The artifact
// is not opened when rows is empty.
func WithModel(path string, rows []measure.AgNORRecord) ([]measure.AgNORRecord, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	p, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return AgNORs(p, rows)
}
