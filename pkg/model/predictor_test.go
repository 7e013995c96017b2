package model

import (
	"math"
	"testing"

	"github.com/neuroscreen-ai/inference/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestArtifact(t *testing.T) *Artifact {
	t.Helper()
	artifact, err := LoadArtifact("testdata", "parkinsons_gbt")
	require.NoError(t, err)
	return artifact
}

func healthyVector(t *testing.T) schema.Vector {
	t.Helper()
	vec, err := schema.Validate(map[string]float64{
		"mdvp_fo": 197.076, "mdvp_fhi": 206.896, "mdvp_flo": 192.055,
		"mdvp_jitter_pct": 0.00289, "mdvp_jitter_abs": 0.00001,
		"mdvp_rap": 0.00166, "mdvp_ppq": 0.00168, "jitter_ddp": 0.00498,
		"mdvp_shimmer": 0.01098, "mdvp_shimmer_db": 0.097,
		"shimmer_apq3": 0.00563, "shimmer_apq5": 0.0068, "mdvp_apq": 0.00802,
		"shimmer_dda": 0.01689, "nhr": 0.00339, "hnr": 26.775,
		"rpde": 0.422229, "dfa": 0.741367, "spread1": -7.3483,
		"spread2": 0.177551, "d2": 1.743867, "ppe": 0.085569,
	})
	require.NoError(t, err)
	return vec
}

func parkinsonVector(t *testing.T) schema.Vector {
	t.Helper()
	vec, err := schema.Validate(map[string]float64{
		"mdvp_fo": 119.992, "mdvp_fhi": 157.302, "mdvp_flo": 74.997,
		"mdvp_jitter_pct": 0.00784, "mdvp_jitter_abs": 0.00007,
		"mdvp_rap": 0.0037, "mdvp_ppq": 0.00554, "jitter_ddp": 0.01109,
		"mdvp_shimmer": 0.04374, "mdvp_shimmer_db": 0.426,
		"shimmer_apq3": 0.02182, "shimmer_apq5": 0.0313, "mdvp_apq": 0.02971,
		"shimmer_dda": 0.06545, "nhr": 0.02211, "hnr": 21.033,
		"rpde": 0.414783, "dfa": 0.815285, "spread1": -4.813031,
		"spread2": 0.266482, "d2": 2.301442, "ppe": 0.284654,
	})
	require.NoError(t, err)
	return vec
}

func TestProbabilitiesSumToOne(t *testing.T) {
	predictor := NewPredictor(loadTestArtifact(t), 0)

	for _, vec := range []schema.Vector{healthyVector(t), parkinsonVector(t)} {
		healthy, parkinson := predictor.Probabilities(predictor.Scaler().Normalize(vec))
		assert.InDelta(t, 1.0, healthy+parkinson, 1e-6)
		assert.GreaterOrEqual(t, parkinson, 0.0)
		assert.LessOrEqual(t, parkinson, 1.0)
	}
}

func TestHealthySampleNotDetected(t *testing.T) {
	predictor := NewPredictor(loadTestArtifact(t), 0)

	normalized := predictor.Scaler().Normalize(healthyVector(t))
	_, parkinson := predictor.Probabilities(normalized)
	assert.False(t, predictor.Detected(parkinson))
	assert.Less(t, parkinson, 0.30)
}

func TestParkinsonSampleDetected(t *testing.T) {
	predictor := NewPredictor(loadTestArtifact(t), 0)

	normalized := predictor.Scaler().Normalize(parkinsonVector(t))
	_, parkinson := predictor.Probabilities(normalized)
	assert.True(t, predictor.Detected(parkinson))
	assert.GreaterOrEqual(t, parkinson, 0.50)
}

func TestPredictionIsDeterministic(t *testing.T) {
	predictor := NewPredictor(loadTestArtifact(t), 0)
	normalized := predictor.Scaler().Normalize(parkinsonVector(t))

	first := predictor.Margin(normalized)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, predictor.Margin(normalized))
	}
}

func TestThresholdOverride(t *testing.T) {
	artifact := loadTestArtifact(t)

	assert.Equal(t, 0.5, NewPredictor(artifact, 0).Threshold())
	assert.Equal(t, 0.7, NewPredictor(artifact, 0.7).Threshold())

	strict := NewPredictor(artifact, 0.999)
	assert.False(t, strict.Detected(0.98))
}

func TestScalerImputesNaN(t *testing.T) {
	artifact := loadTestArtifact(t)
	scaler := NewScaler(artifact)

	vec := healthyVector(t)
	vec[schema.Index("ppe")] = math.NaN()

	normalized := scaler.Normalize(vec)
	idx := schema.Index("ppe")
	expected := (artifact.Scaler.Impute[idx] - artifact.Scaler.Mean[idx]) / artifact.Scaler.Std[idx]
	assert.InDelta(t, expected, normalized[idx], 1e-12)
	assert.False(t, math.IsNaN(normalized[idx]))
}

func TestScalerIsReproducible(t *testing.T) {
	scaler := NewScaler(loadTestArtifact(t))
	vec := parkinsonVector(t)

	a := scaler.Normalize(vec)
	b := scaler.Normalize(vec)
	assert.Equal(t, a, b)
}

func TestLoadArtifactRejectsMissingFile(t *testing.T) {
	_, err := LoadArtifact("testdata", "no_such_model")
	assert.Error(t, err)
}

func TestArtifactValidation(t *testing.T) {
	artifact := loadTestArtifact(t)

	broken := *artifact
	broken.Model.FeatureNames = artifact.Model.FeatureNames[:21]
	assert.Error(t, broken.validate())

	broken = *artifact
	broken.Threshold = 1.5
	assert.Error(t, broken.validate())

	broken = *artifact
	stds := make([]float64, len(artifact.Scaler.Std))
	copy(stds, artifact.Scaler.Std)
	stds[0] = 0
	broken.Scaler.Std = stds
	assert.Error(t, broken.validate())
}
