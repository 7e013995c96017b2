// Package model wraps the pre-trained gradient-boosted-tree ensemble:
// artifact loading, training-time normalization, inference and
// per-prediction attribution. No training logic lives here.
package model

import (
	"math"

	"github.com/neuroscreen-ai/inference/pkg/schema"
)

// Predictor evaluates the boosted ensemble over a normalized feature
// vector. It is immutable after construction and safe for concurrent
// use without locking.
type Predictor struct {
	artifact  *Artifact
	scaler    *Scaler
	threshold float64
}

// NewPredictor builds a predictor from a validated artifact. A
// thresholdOverride in (0, 1) replaces the artifact's decision
// threshold; pass 0 to keep it.
func NewPredictor(artifact *Artifact, thresholdOverride float64) *Predictor {
	threshold := artifact.Threshold
	if thresholdOverride > 0 && thresholdOverride < 1 {
		threshold = thresholdOverride
	}
	return &Predictor{
		artifact:  artifact,
		scaler:    NewScaler(artifact),
		threshold: threshold,
	}
}

func (p *Predictor) Artifact() *Artifact { return p.artifact }
func (p *Predictor) Scaler() *Scaler     { return p.scaler }
func (p *Predictor) Threshold() float64  { return p.threshold }

// Margin returns the raw ensemble output (log-odds) for a normalized
// vector: base score plus the sum of the leaf values reached.
func (p *Predictor) Margin(normalized schema.Vector) float64 {
	margin := p.artifact.Model.BaseScore
	for _, tree := range p.artifact.Model.Trees {
		margin += tree.leaf(normalized).Value
	}
	return margin
}

// Probabilities returns (healthy, parkinson) summing to 1.
func (p *Predictor) Probabilities(normalized schema.Vector) (float64, float64) {
	parkinson := sigmoid(p.Margin(normalized))
	return 1 - parkinson, parkinson
}

// Detected reports whether the parkinson probability crosses the
// decision threshold.
func (p *Predictor) Detected(probParkinson float64) bool {
	return probParkinson >= p.threshold
}

// leaf walks the tree for one sample. Splits send x < threshold left.
func (t *Tree) leaf(v schema.Vector) *Node {
	node := &t.Nodes[0]
	for !node.Leaf {
		if v[node.Feature] < node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
