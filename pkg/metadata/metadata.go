// Package metadata serves the training-time evaluation report: global
// SHAP importances, the cross-validated model comparison and the
// recall-selected winner. Loaded once at startup and immutable.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/schema"
)

type Store struct {
	meta models.ModelMetadata
}

// Load reads metadata.json from the artifact directory. Feature
// descriptions come from the canonical schema, keeping the report and
// the validation layer keyed by the same identifiers.
func Load(dir string) (*Store, error) {
	path := filepath.Join(dir, "metadata.json")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model metadata: %w", err)
	}
	var meta models.ModelMetadata
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, fmt.Errorf("parse model metadata %s: %w", path, err)
	}

	if len(meta.FeatureNames) != schema.Count() {
		return nil, fmt.Errorf("metadata lists %d features, schema has %d",
			len(meta.FeatureNames), schema.Count())
	}
	for i, name := range meta.FeatureNames {
		if schema.Index(schema.FeatureID(name)) != i {
			return nil, fmt.Errorf("metadata feature %q at position %d does not match schema order", name, i)
		}
	}
	for _, imp := range meta.SHAPImportance {
		if schema.Index(schema.FeatureID(imp.Feature)) < 0 {
			return nil, fmt.Errorf("shap importance references unknown feature %q", imp.Feature)
		}
	}
	if _, ok := meta.ModelComparison[meta.BestModelByRecall]; !ok {
		return nil, fmt.Errorf("best model %q missing from comparison table", meta.BestModelByRecall)
	}

	// Ranked order is part of the contract.
	sort.SliceStable(meta.SHAPImportance, func(i, j int) bool {
		return meta.SHAPImportance[i].Importance > meta.SHAPImportance[j].Importance
	})
	meta.FeatureDescriptions = schema.Descriptions()

	return &Store{meta: meta}, nil
}

// Metadata returns the report. The value is shared and must be treated
// as read-only by callers.
func (s *Store) Metadata() models.ModelMetadata {
	return s.meta
}
