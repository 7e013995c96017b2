package model

import (
	"math"

	"github.com/neuroscreen-ai/inference/pkg/schema"
)

// Scaler applies the exact per-feature z-score transform fixed at
// training time. NaN values are imputed with the training-time
// imputation value before scaling; nothing is ever silently zeroed.
type Scaler struct {
	mean   []float64
	std    []float64
	impute []float64
}

func NewScaler(a *Artifact) *Scaler {
	return &Scaler{mean: a.Scaler.Mean, std: a.Scaler.Std, impute: a.Scaler.Impute}
}

// Normalize returns a new scaled vector; the input is not modified.
func (s *Scaler) Normalize(v schema.Vector) schema.Vector {
	out := make(schema.Vector, len(v))
	for i, x := range v {
		if math.IsNaN(x) {
			x = s.impute[i]
		}
		out[i] = (x - s.mean[i]) / s.std[i]
	}
	return out
}
