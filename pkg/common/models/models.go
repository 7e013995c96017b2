package models

// Input modality accepted by the prediction pipeline.
const (
	InputTypeVoice       = "voice"
	InputTypeAudio       = "audio"
	InputTypeHandwriting = "handwriting"
)

// ContributingFeature is one row of the per-prediction attribution
// breakdown, ranked by absolute attribution weight.
type ContributingFeature struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"value"`
	Attribution float64 `json:"attribution"`
}

// SpiralMetrics describes the contour geometry of a hand-drawn spiral.
type SpiralMetrics struct {
	Circularity     float64 `json:"circularity"`
	Convexity       float64 `json:"convexity"`
	Solidity        float64 `json:"solidity"`
	SpiralDeviation float64 `json:"spiral_deviation"`
	Roughness       float64 `json:"roughness"`
	TremorScore     float64 `json:"tremor_score"`
}

// PredictionResult is assembled once per request and never mutated.
type PredictionResult struct {
	Detected                bool                  `json:"parkinson_detected"`
	Confidence              float64               `json:"confidence"`
	ProbabilityHealthy      float64               `json:"probability_healthy"`
	ProbabilityParkinson    float64               `json:"probability_parkinson"`
	RiskLevel               string                `json:"risk_level"`
	TopContributingFeatures []ContributingFeature `json:"top_contributing_features"`
	Recommendation          string                `json:"recommendation"`
	InputType               string                `json:"input_type"`
	SpiralMetrics           *SpiralMetrics        `json:"spiral_metrics,omitempty"`
	AudioDurationSeconds    *float64              `json:"audio_duration_s,omitempty"`
	ExtractedFeatures       map[string]float64    `json:"extracted_features,omitempty"`
}

// ModelScores holds the cross-validated metrics of one candidate model.
type ModelScores struct {
	Accuracy float64 `json:"accuracy"`
	Recall   float64 `json:"recall"`
	MCC      float64 `json:"mcc"`
	AUC      float64 `json:"auc"`
}

// FeatureImportance is one entry of the global SHAP ranking. Slice order
// is the ranked order.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelMetadata is the training-time evaluation report served read-only.
type ModelMetadata struct {
	FeatureNames        []string               `json:"feature_names"`
	FeatureDescriptions map[string]string      `json:"feature_descriptions"`
	SHAPImportance      []FeatureImportance    `json:"shap_importance"`
	ModelComparison     map[string]ModelScores `json:"model_comparison"`
	BestModelByRecall   string                 `json:"best_model_by_recall"`
}

// ErrorResponse is the wire shape of every rejected request.
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}
