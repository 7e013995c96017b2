package storage

import (
	"testing"

	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/stretchr/testify/assert"
)

func TestKeyIsStable(t *testing.T) {
	payload := []byte("recording bytes")

	first := Key(models.InputTypeAudio, payload)
	second := Key(models.InputTypeAudio, payload)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "prediction:")
}

func TestKeySeparatesModalitiesAndPayloads(t *testing.T) {
	payload := []byte("same bytes")

	audioKey := Key(models.InputTypeAudio, payload)
	drawingKey := Key(models.InputTypeHandwriting, payload)
	assert.NotEqual(t, audioKey, drawingKey)

	otherKey := Key(models.InputTypeAudio, []byte("other bytes"))
	assert.NotEqual(t, audioKey, otherKey)
}
