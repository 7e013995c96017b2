// Package audio decodes uploaded recordings and computes the 22 vocal
// biomarkers from a sustained phonation: perturbation statistics over
// the pitch cycle sequence, harmonicity ratios from the voiced
// autocorrelation peak, and nonlinear dynamics estimates from the pitch
// contour. Output values are clamped to the training ranges downstream.
package audio

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/schema"
)

const (
	minSampleRate   = 8000
	minVoicedFrames = 10
)

// Extractor is stateless and safe for concurrent use.
type Extractor struct {
	minDuration float64
}

// NewExtractor bounds the accepted recording length; minDuration is in
// seconds of sustained phonation.
func NewExtractor(minDuration float64) *Extractor {
	return &Extractor{minDuration: minDuration}
}

// Result carries the extracted biomarkers and the measured duration.
type Result struct {
	Features map[schema.FeatureID]float64
	Duration float64
}

// Extract decodes the recording and computes the full biomarker set.
func (e *Extractor) Extract(ctx context.Context, data []byte, format string) (*Result, error) {
	samples, sampleRate, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	if sampleRate < minSampleRate {
		return nil, models.NewError(models.ErrUnsupportedSampleRate,
			"sample rate %d Hz below the supported minimum of %d Hz", sampleRate, minSampleRate)
	}
	duration := float64(len(samples)) / float64(sampleRate)
	if duration < e.minDuration {
		return nil, models.NewError(models.ErrInsufficientAudioDuration,
			"audio too short (%.1fs): need at least %.1f seconds of sustained 'ahh' phonation",
			duration, e.minDuration)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frames := trackPitch(samples, sampleRate)
	if len(frames) < minVoicedFrames {
		return nil, models.NewError(models.ErrNoVoicedSignal,
			"could not detect a clear voiced signal: ensure the audio contains sustained 'ahh' phonation")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	features := computeFeatures(samples, frames)
	return &Result{Features: features, Duration: duration}, nil
}

func computeFeatures(samples []float64, frames []pitchFrame) map[schema.FeatureID]float64 {
	f0s := make([]float64, len(frames))
	periods := make([]float64, len(frames))
	amps := make([]float64, len(frames))
	peaks := make([]float64, len(frames))
	for i, f := range frames {
		f0s[i] = f.f0
		periods[i] = 1 / f.f0
		amps[i] = f.amp
		peaks[i] = f.r
	}

	fo, _ := stats.Mean(f0s)
	fhi, _ := stats.Percentile(f0s, 97)
	flo, _ := stats.Percentile(f0s, 3)

	meanPeriod, _ := stats.Mean(periods)
	jitterAbs := meanAbsDiff(periods)
	jitterPct := jitterAbs / meanPeriod
	rap := avgPerturbation(periods, 3) / meanPeriod
	ppq := avgPerturbation(periods, 5) / meanPeriod
	ddp := meanAbsSecondDiff(periods) / meanPeriod

	meanAmp, _ := stats.Mean(amps)
	shimmer := meanAbsDiff(amps) / meanAmp
	shimmerDB := meanAbsDBRatio(amps)
	apq3 := avgPerturbation(amps, 3) / meanAmp
	apq5 := avgPerturbation(amps, 5) / meanAmp
	apq11 := avgPerturbation(amps, 11) / meanAmp
	dda := meanAbsSecondDiff(amps) / meanAmp

	hnr, nhr := harmonicity(peaks)

	deviations := semitoneDeviations(periods)
	sd, _ := stats.StandardDeviation(deviations)

	features := map[schema.FeatureID]float64{
		"mdvp_fo":         fo,
		"mdvp_fhi":        fhi,
		"mdvp_flo":        flo,
		"mdvp_jitter_pct": jitterPct,
		"mdvp_jitter_abs": jitterAbs,
		"mdvp_rap":        rap,
		"mdvp_ppq":        ppq,
		"jitter_ddp":      ddp,
		"mdvp_shimmer":    shimmer,
		"mdvp_shimmer_db": shimmerDB,
		"shimmer_apq3":    apq3,
		"shimmer_apq5":    apq5,
		"mdvp_apq":        apq11,
		"shimmer_dda":     dda,
		"nhr":             nhr,
		"hnr":             hnr,
		"rpde":            periodDensityEntropy(periods),
		"dfa":             detrendedFluctuation(samples),
		"spread1":         -8 + 6*sd,
		"spread2":         sd / 4,
		"d2":              correlationDimension(periods),
		"ppe":             pitchPeriodEntropy(deviations),
	}
	return features
}

// meanAbsDiff is the average absolute cycle-to-cycle change.
func meanAbsDiff(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += math.Abs(x[i] - x[i-1])
	}
	return sum / float64(len(x)-1)
}

// meanAbsSecondDiff is the average absolute difference of consecutive
// differences (the DDP/DDA numerator).
func meanAbsSecondDiff(x []float64) float64 {
	if len(x) < 3 {
		return 0
	}
	var sum float64
	for i := 1; i < len(x)-1; i++ {
		sum += math.Abs((x[i+1] - x[i]) - (x[i] - x[i-1]))
	}
	return sum / float64(len(x)-2)
}

// avgPerturbation is the k-point perturbation quotient numerator: the
// mean absolute deviation of each value from its k-neighborhood mean.
func avgPerturbation(x []float64, k int) float64 {
	if len(x) < k {
		return 0
	}
	half := k / 2
	var sum float64
	var count int
	for i := half; i < len(x)-half; i++ {
		var window float64
		for j := i - half; j <= i+half; j++ {
			window += x[j]
		}
		window /= float64(k)
		sum += math.Abs(x[i] - window)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// meanAbsDBRatio is shimmer expressed in decibels.
func meanAbsDBRatio(amps []float64) float64 {
	if len(amps) < 2 {
		return 0
	}
	var sum float64
	var count int
	for i := 1; i < len(amps); i++ {
		if amps[i] <= 0 || amps[i-1] <= 0 {
			continue
		}
		sum += math.Abs(20 * math.Log10(amps[i]/amps[i-1]))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// harmonicity derives HNR and NHR from the voiced autocorrelation peak
// (Boersma's method): r is the harmonic energy fraction of each frame.
func harmonicity(peaks []float64) (hnr, nhr float64) {
	var hnrSum, nhrSum float64
	for _, r := range peaks {
		r = math.Min(math.Max(r, 0.001), 0.999)
		hnrSum += 10 * math.Log10(r/(1-r))
		nhrSum += (1 - r) / r
	}
	n := float64(len(peaks))
	return hnrSum / n, nhrSum / n
}

// semitoneDeviations maps pitch periods onto a perceptual scale
// relative to the speaker's median period.
func semitoneDeviations(periods []float64) []float64 {
	median, _ := stats.Median(periods)
	out := make([]float64, len(periods))
	for i, p := range periods {
		out[i] = 12 * math.Log2(p/median)
	}
	return out
}
