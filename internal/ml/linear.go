package ml

import (
	"encoding/json"
	"math"

	"tripcast/pkg/errors"
)

// LinearModel is a linear regressor decoded from the raw serialized weights
// sidecar. It is the lowest-level loadable form of an artifact: no runtime
// wrapper, just coefficients in feature order plus an intercept.
type LinearModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// DecodeLinearModel parses raw serialized weights
func DecodeLinearModel(blob []byte) (*LinearModel, error) {
	var m LinearModel
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, errors.Wrap(err, "failed to decode raw model weights")
	}
	if len(m.Coefficients) == 0 {
		return nil, errors.New("raw model weights declare no coefficients")
	}
	return &m, nil
}

// Infer computes the dot product of features and coefficients plus intercept
func (m *LinearModel) Infer(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, errors.Wrapf(errors.ErrInference,
			"feature vector length %d does not match model arity %d",
			len(features), len(m.Coefficients))
	}

	sum := m.Intercept
	for i, f := range features {
		sum += f * m.Coefficients[i]
	}

	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, errors.Wrap(errors.ErrInference, "non-finite prediction")
	}

	return sum, nil
}

// Close is a no-op; linear models hold no runtime resources
func (m *LinearModel) Close() {}
