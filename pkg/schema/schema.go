// Package schema defines the canonical 22-feature vocal biomarker
// schema shared by the extractors, the classifier artifact, the
// explainer and the metadata report. Every feature is addressed by its
// canonical snake_case ID; display labels exist only for humans.
package schema

import (
	_ "embed"
	"fmt"
	"math"

	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"gopkg.in/yaml.v3"
)

//go:embed features.yaml
var featuresYAML []byte

type FeatureID string

type Feature struct {
	ID          FeatureID `yaml:"id"`
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Min         float64   `yaml:"min"`
	Max         float64   `yaml:"max"`
}

type schemaFile struct {
	Version  int       `yaml:"version"`
	Features []Feature `yaml:"features"`
}

var (
	features []Feature
	index    map[FeatureID]int
)

func init() {
	var file schemaFile
	if err := yaml.Unmarshal(featuresYAML, &file); err != nil {
		panic(fmt.Sprintf("schema: invalid embedded feature schema: %v", err))
	}
	if len(file.Features) != 22 {
		panic(fmt.Sprintf("schema: expected 22 features, embedded schema has %d", len(file.Features)))
	}
	features = file.Features
	index = make(map[FeatureID]int, len(features))
	for i, f := range features {
		index[f.ID] = i
	}
}

// Vector is an ordered 22-dimensional feature vector aligned with
// Ordered().
type Vector []float64

// Count returns the schema dimensionality.
func Count() int { return len(features) }

// Ordered returns the features in trained-model order.
func Ordered() []Feature {
	out := make([]Feature, len(features))
	copy(out, features)
	return out
}

// IDs returns the canonical feature IDs in trained-model order.
func IDs() []FeatureID {
	out := make([]FeatureID, len(features))
	for i, f := range features {
		out[i] = f.ID
	}
	return out
}

// Index returns the position of id in the vector, or -1.
func Index(id FeatureID) int {
	if i, ok := index[id]; ok {
		return i
	}
	return -1
}

// ByID returns the schema entry for id.
func ByID(id FeatureID) (Feature, bool) {
	i, ok := index[id]
	if !ok {
		return Feature{}, false
	}
	return features[i], true
}

// Clamp bounds v to the training range of id. Values are clamped, not
// rejected, on the extraction paths; hand-entered values go through
// Validate instead.
func Clamp(id FeatureID, v float64) float64 {
	f, ok := ByID(id)
	if !ok {
		return v
	}
	return math.Min(math.Max(v, f.Min), f.Max)
}

// Validate builds an ordered Vector from a raw keyed input. A missing
// feature is an error, never a default-filled zero; values outside the
// training range are rejected as out of range.
func Validate(raw map[string]float64) (Vector, error) {
	vec := make(Vector, len(features))
	for i, f := range features {
		v, ok := raw[string(f.ID)]
		if !ok {
			return nil, models.NewError(models.ErrMissingField, "feature %q is required", f.ID)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, models.NewError(models.ErrOutOfRange, "feature %q must be a finite number", f.ID)
		}
		if v < f.Min || v > f.Max {
			return nil, models.NewError(models.ErrOutOfRange,
				"feature %q value %g outside allowed range [%g, %g]", f.ID, v, f.Min, f.Max)
		}
		vec[i] = v
	}
	return vec, nil
}

// FromMap builds an ordered Vector from extractor output, clamping each
// value to its training range. All 22 features must be present.
func FromMap(values map[FeatureID]float64) (Vector, error) {
	vec := make(Vector, len(features))
	for i, f := range features {
		v, ok := values[f.ID]
		if !ok {
			return nil, fmt.Errorf("extractor output missing feature %q", f.ID)
		}
		vec[i] = Clamp(f.ID, v)
	}
	return vec, nil
}

// ToMap returns the vector keyed by canonical feature ID.
func (v Vector) ToMap() map[string]float64 {
	out := make(map[string]float64, len(features))
	for i, f := range features {
		out[string(f.ID)] = v[i]
	}
	return out
}

// Descriptions returns feature descriptions keyed by canonical ID.
func Descriptions() map[string]string {
	out := make(map[string]string, len(features))
	for _, f := range features {
		out[string(f.ID)] = f.Description
	}
	return out
}
