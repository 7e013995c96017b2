package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadValidatesAndRanks(t *testing.T) {
	store, err := Load("testdata")
	require.NoError(t, err)

	meta := store.Metadata()
	assert.Len(t, meta.FeatureNames, 22)
	assert.Equal(t, "mdvp_fo", meta.FeatureNames[0])
	assert.Equal(t, "XGBoost", meta.BestModelByRecall)
	assert.NotEmpty(t, meta.FeatureDescriptions["ppe"])

	require.NotEmpty(t, meta.SHAPImportance)
	for i := 1; i < len(meta.SHAPImportance); i++ {
		assert.GreaterOrEqual(t,
			meta.SHAPImportance[i-1].Importance,
			meta.SHAPImportance[i].Importance)
	}
	assert.Equal(t, "ppe", meta.SHAPImportance[0].Feature)
}

func TestMetadataIsStableAcrossReads(t *testing.T) {
	store, err := Load("testdata")
	require.NoError(t, err)

	first := store.Metadata()
	second := store.Metadata()
	assert.Equal(t, first, second)
}

func TestLoadRejectsMissingDir(t *testing.T) {
	_, err := Load("no_such_dir")
	assert.Error(t, err)
}
