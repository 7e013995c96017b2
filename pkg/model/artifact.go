package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neuroscreen-ai/inference/pkg/schema"
)

// Artifact is the versioned, trained model bundle produced offline. It
// is loaded once at startup and immutable afterwards; picking up a new
// artifact requires a restart.
type Artifact struct {
	SchemaVersion int `json:"schema_version"`
	Model         struct {
		Type         string   `json:"type"`
		Algorithm    string   `json:"algorithm"`
		FeatureNames []string `json:"feature_names"`
		BaseScore    float64  `json:"base_score"`
		Trees        []Tree   `json:"trees"`
	} `json:"model"`
	Scaler struct {
		Mean   []float64 `json:"mean"`
		Std    []float64 `json:"std"`
		Impute []float64 `json:"impute"`
	} `json:"scaler"`
	Threshold float64 `json:"threshold"`
}

// Tree is one regression tree of the boosted ensemble, stored as a flat
// node array indexed from the root at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either an internal split (Feature/Threshold/Left/Right) or a
// leaf (Leaf=true). Value carries the leaf score, and on internal nodes
// the cover-weighted expected score used by the explainer.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value"`
}

// LoadArtifact reads and validates `<name>_latest.json` from dir.
func LoadArtifact(dir, name string) (*Artifact, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_latest.json", name))
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if err := artifact.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &artifact, nil
}

func (a *Artifact) validate() error {
	n := schema.Count()
	if len(a.Model.FeatureNames) != n {
		return fmt.Errorf("expected %d feature names, got %d", n, len(a.Model.FeatureNames))
	}
	for i, name := range a.Model.FeatureNames {
		if schema.Index(schema.FeatureID(name)) != i {
			return fmt.Errorf("feature %q at position %d does not match schema order", name, i)
		}
	}
	if len(a.Scaler.Mean) != n || len(a.Scaler.Std) != n || len(a.Scaler.Impute) != n {
		return fmt.Errorf("scaler parameter lengths do not match %d features", n)
	}
	for i, std := range a.Scaler.Std {
		if std <= 0 {
			return fmt.Errorf("scaler std for feature %d must be positive", i)
		}
	}
	if len(a.Model.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	for ti, tree := range a.Model.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, node := range tree.Nodes {
			if node.Leaf {
				continue
			}
			if node.Feature < 0 || node.Feature >= n {
				return fmt.Errorf("tree %d node %d references feature %d", ti, ni, node.Feature)
			}
			if node.Left <= ni || node.Left >= len(tree.Nodes) ||
				node.Right <= ni || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	if a.Threshold <= 0 || a.Threshold >= 1 {
		return fmt.Errorf("decision threshold %g outside (0, 1)", a.Threshold)
	}
	return nil
}
