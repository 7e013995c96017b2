package model

import (
	"math"
	"testing"

	"github.com/neuroscreen-ai/inference/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Local accuracy: baseline plus the signed attributions must
// reconstruct the raw ensemble margin for any sample.
func TestAttributionsReconstructMargin(t *testing.T) {
	artifact := loadTestArtifact(t)
	predictor := NewPredictor(artifact, 0)
	explainer := NewExplainer(artifact)

	samples := []schema.Vector{healthyVector(t), parkinsonVector(t)}
	// A vector sitting on several split boundaries.
	boundary := make(schema.Vector, schema.Count())
	for i := range boundary {
		boundary[i] = artifact.Scaler.Mean[i]
	}
	samples = append(samples, boundary)

	for _, vec := range samples {
		normalized := predictor.Scaler().Normalize(vec)
		weights := explainer.Attribute(normalized)

		total := explainer.Baseline()
		for _, w := range weights {
			total += w
		}
		assert.InDelta(t, predictor.Margin(normalized), total, 1e-9)
	}
}

func TestAttributionsAreDeterministic(t *testing.T) {
	artifact := loadTestArtifact(t)
	explainer := NewExplainer(artifact)
	normalized := NewScaler(artifact).Normalize(parkinsonVector(t))

	first := explainer.Attribute(normalized)
	second := explainer.Attribute(normalized)
	assert.Equal(t, first, second)
}

func TestTopContributorsRankedByAbsoluteWeight(t *testing.T) {
	artifact := loadTestArtifact(t)
	explainer := NewExplainer(artifact)
	normalized := NewScaler(artifact).Normalize(parkinsonVector(t))

	top := explainer.TopContributors(normalized, 5)
	require.Len(t, top, 5)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(top[i-1].Weight), math.Abs(top[i].Weight))
	}

	// The test ensemble splits hardest on PPE and spread1; both must
	// surface for a strongly parkinsonian sample.
	ids := map[schema.FeatureID]bool{}
	for _, a := range top {
		ids[a.ID] = true
	}
	assert.True(t, ids["ppe"])
	assert.True(t, ids["spread1"])
}

func TestUnsplitFeaturesGetZeroAttribution(t *testing.T) {
	artifact := loadTestArtifact(t)
	explainer := NewExplainer(artifact)
	normalized := NewScaler(artifact).Normalize(healthyVector(t))

	weights := explainer.Attribute(normalized)
	// DFA is never used by the test ensemble.
	assert.Zero(t, weights[schema.Index("dfa")])
}
