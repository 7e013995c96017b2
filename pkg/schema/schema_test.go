package schema

import (
	"testing"

	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() map[string]float64 {
	return map[string]float64{
		"mdvp_fo": 197.076, "mdvp_fhi": 206.896, "mdvp_flo": 192.055,
		"mdvp_jitter_pct": 0.00289, "mdvp_jitter_abs": 0.00001,
		"mdvp_rap": 0.00166, "mdvp_ppq": 0.00168, "jitter_ddp": 0.00498,
		"mdvp_shimmer": 0.01098, "mdvp_shimmer_db": 0.097,
		"shimmer_apq3": 0.00563, "shimmer_apq5": 0.0068, "mdvp_apq": 0.00802,
		"shimmer_dda": 0.01689, "nhr": 0.00339, "hnr": 26.775,
		"rpde": 0.422229, "dfa": 0.741367, "spread1": -7.3483,
		"spread2": 0.177551, "d2": 1.743867, "ppe": 0.085569,
	}
}

func TestSchemaOrderIsStable(t *testing.T) {
	require.Equal(t, 22, Count())

	ids := IDs()
	assert.Equal(t, FeatureID("mdvp_fo"), ids[0])
	assert.Equal(t, FeatureID("jitter_ddp"), ids[7])
	assert.Equal(t, FeatureID("hnr"), ids[15])
	assert.Equal(t, FeatureID("ppe"), ids[21])

	for i, id := range ids {
		assert.Equal(t, i, Index(id))
	}
}

func TestValidateBuildsOrderedVector(t *testing.T) {
	vec, err := Validate(validInput())
	require.NoError(t, err)
	require.Len(t, vec, 22)

	assert.InDelta(t, 197.076, vec[Index("mdvp_fo")], 1e-9)
	assert.InDelta(t, -7.3483, vec[Index("spread1")], 1e-9)
	assert.InDelta(t, 0.085569, vec[Index("ppe")], 1e-9)
}

func TestValidateRejectsMissingField(t *testing.T) {
	input := validInput()
	delete(input, "ppe")

	_, err := Validate(input)
	require.Error(t, err)
	assert.Equal(t, models.ErrMissingField, models.KindOf(err))
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	input := validInput()
	input["mdvp_fo"] = 1000 // above training range

	_, err := Validate(input)
	require.Error(t, err)
	assert.Equal(t, models.ErrOutOfRange, models.KindOf(err))
}

func TestClampBoundsToTrainingRange(t *testing.T) {
	assert.Equal(t, 270.0, Clamp("mdvp_fo", 500))
	assert.Equal(t, 80.0, Clamp("mdvp_fo", 10))
	assert.Equal(t, -8.0, Clamp("spread1", -12))
	assert.Equal(t, 150.0, Clamp("mdvp_fo", 150))
}

func TestFromMapClampsExtractorOutput(t *testing.T) {
	values := make(map[FeatureID]float64, 22)
	for _, f := range Ordered() {
		values[f.ID] = f.Max + 1
	}
	vec, err := FromMap(values)
	require.NoError(t, err)
	for i, f := range Ordered() {
		assert.Equal(t, f.Max, vec[i], "feature %s", f.ID)
	}
}
