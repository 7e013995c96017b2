package spiral

import (
	_ "embed"
	"fmt"

	"github.com/neuroscreen-ai/inference/pkg/schema"
	"gopkg.in/yaml.v3"
)

//go:embed mapping.yaml
var mappingYAML []byte

type mappingRow struct {
	Feature schema.FeatureID `yaml:"feature"`
	Base    float64          `yaml:"base"`
	Slope   float64          `yaml:"slope"`
}

type mappingFile struct {
	Version int          `yaml:"version"`
	Rows    []mappingRow `yaml:"rows"`
}

var mappingRows []mappingRow

func init() {
	var file mappingFile
	if err := yaml.Unmarshal(mappingYAML, &file); err != nil {
		panic(fmt.Sprintf("spiral: invalid embedded mapping table: %v", err))
	}
	if len(file.Rows) != schema.Count() {
		panic(fmt.Sprintf("spiral: mapping table has %d rows, schema has %d features",
			len(file.Rows), schema.Count()))
	}
	for _, row := range file.Rows {
		if schema.Index(row.Feature) < 0 {
			panic(fmt.Sprintf("spiral: mapping table references unknown feature %q", row.Feature))
		}
	}
	mappingRows = file.Rows
}

// mapTremorToFeatures projects the tremor score onto the vocal
// biomarker schema through the pinned affine table. Clamping to
// training ranges happens in schema.FromMap downstream.
func mapTremorToFeatures(tremor float64) map[schema.FeatureID]float64 {
	out := make(map[schema.FeatureID]float64, len(mappingRows))
	for _, row := range mappingRows {
		out[row.Feature] = row.Base + row.Slope*tremor
	}
	return out
}
