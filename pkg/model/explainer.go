package model

import (
	"math"
	"sort"

	"github.com/neuroscreen-ai/inference/pkg/schema"
)

// Explainer produces deterministic per-feature attributions for a
// single prediction by decision-path decomposition: at every split on
// the sample's path, the change in the node's expected value is
// credited to the split feature. The attributions plus the baseline
// reconstruct the ensemble margin exactly.
type Explainer struct {
	artifact *Artifact
}

func NewExplainer(artifact *Artifact) *Explainer {
	return &Explainer{artifact: artifact}
}

// Attribution is one feature's signed contribution to the margin.
type Attribution struct {
	Index  int
	ID     schema.FeatureID
	Weight float64
}

// Baseline is the expected margin before any feature is observed: the
// base score plus the root expected value of every tree.
func (e *Explainer) Baseline() float64 {
	baseline := e.artifact.Model.BaseScore
	for _, tree := range e.artifact.Model.Trees {
		baseline += tree.Nodes[0].Value
	}
	return baseline
}

// Attribute computes signed per-feature contributions for one
// normalized sample. Baseline() + sum(weights) equals Margin(sample).
func (e *Explainer) Attribute(normalized schema.Vector) []float64 {
	weights := make([]float64, len(normalized))
	for _, tree := range e.artifact.Model.Trees {
		node := &tree.Nodes[0]
		for !node.Leaf {
			var next *Node
			if normalized[node.Feature] < node.Threshold {
				next = &tree.Nodes[node.Left]
			} else {
				next = &tree.Nodes[node.Right]
			}
			weights[node.Feature] += next.Value - node.Value
			node = next
		}
	}
	return weights
}

// TopContributors returns the k features with the largest absolute
// attribution, ranked descending. Ties break by schema order so the
// result is deterministic.
func (e *Explainer) TopContributors(normalized schema.Vector, k int) []Attribution {
	weights := e.Attribute(normalized)
	ids := schema.IDs()

	ranked := make([]Attribution, 0, len(weights))
	for i, w := range weights {
		ranked = append(ranked, Attribution{Index: i, ID: ids[i], Weight: w})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return math.Abs(ranked[a].Weight) > math.Abs(ranked[b].Weight)
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
