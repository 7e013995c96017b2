package serving

import (
	"fmt"

	"github.com/neuroscreen-ai/inference/pkg/common/models"
)

// Risk levels reported alongside the parkinson probability.
const (
	RiskVeryLow  = "Very Low"
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// riskLevel buckets the parkinson probability into a caller-facing
// band. The bands are independent of the detection threshold.
func riskLevel(probParkinson float64) string {
	switch {
	case probParkinson < 0.30:
		return RiskVeryLow
	case probParkinson < 0.50:
		return RiskLow
	case probParkinson < 0.80:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// recommendation writes the screening advice for a risk band. The
// wording names the analyzed signal so the advice matches the upload.
func recommendation(inputType, risk string) string {
	signal := "vocal biomarkers"
	if inputType == models.InputTypeHandwriting {
		signal = "drawing patterns"
	}

	switch risk {
	case RiskHigh:
		return fmt.Sprintf("Strong Parkinson's indicators were found in the %s. "+
			"Please consult a neurologist for a comprehensive clinical evaluation. "+
			"This is a screening result, not a medical diagnosis.", signal)
	case RiskModerate:
		return fmt.Sprintf("Some Parkinson's indicators were found in the %s. "+
			"Consider scheduling a medical consultation for further assessment. "+
			"This is a screening result, not a medical diagnosis.", signal)
	case RiskLow:
		return fmt.Sprintf("Mild irregularities were found in the %s, below the detection threshold. "+
			"Periodic re-screening is recommended. "+
			"This is a screening result, not a medical diagnosis.", signal)
	default:
		return fmt.Sprintf("No significant Parkinson's indicators were found in the %s. "+
			"Maintain regular health checkups. "+
			"This is a screening result, not a medical diagnosis.", signal)
	}
}
