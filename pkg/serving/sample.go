package serving

// SampleData returns two labeled example feature sets for exercising
// the manual-entry prediction endpoint. Both rows come from the UCI
// Parkinsons telemonitoring study.
func SampleData() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"healthy": {
			"mdvp_fo": 197.076, "mdvp_fhi": 206.896, "mdvp_flo": 192.055,
			"mdvp_jitter_pct": 0.00289, "mdvp_jitter_abs": 0.00001,
			"mdvp_rap": 0.00166, "mdvp_ppq": 0.00168, "jitter_ddp": 0.00498,
			"mdvp_shimmer": 0.01098, "mdvp_shimmer_db": 0.097,
			"shimmer_apq3": 0.00563, "shimmer_apq5": 0.0068, "mdvp_apq": 0.00802,
			"shimmer_dda": 0.01689, "nhr": 0.00339, "hnr": 26.775,
			"rpde": 0.422229, "dfa": 0.741367, "spread1": -7.3483,
			"spread2": 0.177551, "d2": 1.743867, "ppe": 0.085569,
		},
		"parkinsons": {
			"mdvp_fo": 119.992, "mdvp_fhi": 157.302, "mdvp_flo": 74.997,
			"mdvp_jitter_pct": 0.00784, "mdvp_jitter_abs": 0.00007,
			"mdvp_rap": 0.0037, "mdvp_ppq": 0.00554, "jitter_ddp": 0.01109,
			"mdvp_shimmer": 0.04374, "mdvp_shimmer_db": 0.426,
			"shimmer_apq3": 0.02182, "shimmer_apq5": 0.0313, "mdvp_apq": 0.02971,
			"shimmer_dda": 0.06545, "nhr": 0.02211, "hnr": 21.033,
			"rpde": 0.414783, "dfa": 0.815285, "spread1": -4.813031,
			"spread2": 0.266482, "d2": 2.301442, "ppe": 0.284654,
		},
	}
}
