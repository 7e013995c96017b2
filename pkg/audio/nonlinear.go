package audio

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const entropyBins = 30

// periodDensityEntropy estimates RPDE: the normalized Shannon entropy
// of the pitch period distribution. A perfectly periodic voice
// concentrates in one bin (entropy 0); disordered phonation spreads
// across the histogram.
func periodDensityEntropy(periods []float64) float64 {
	return normalizedEntropy(periods, entropyBins)
}

// pitchPeriodEntropy estimates PPE from the whitened semitone
// deviations of the pitch contour: healthy voices hold a tight,
// predictable pitch, so the residual distribution has low entropy.
func pitchPeriodEntropy(deviations []float64) float64 {
	if len(deviations) < 2 {
		return 0
	}
	residual := make([]float64, len(deviations)-1)
	for i := 1; i < len(deviations); i++ {
		residual[i-1] = deviations[i] - deviations[i-1]
	}
	return normalizedEntropy(residual, entropyBins)
}

// normalizedEntropy returns the histogram entropy of x scaled to
// [0, 1] by the maximum entropy of the bin count.
func normalizedEntropy(x []float64, bins int) float64 {
	if len(x) == 0 {
		return 0
	}
	lo, hi := x[0], x[0]
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-12 {
		return 0
	}
	counts := make([]float64, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range x {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	var entropy float64
	total := float64(len(x))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := c / total
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(bins))
}

// detrendedFluctuation computes the DFA scaling exponent of the
// waveform: the slope of log fluctuation against log box size over the
// integrated, per-box linearly detrended signal.
func detrendedFluctuation(samples []float64) float64 {
	x := decimate(samples, 16000)
	n := len(x)
	if n < 64 {
		return 0.5
	}

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	// Integrated profile.
	profile := make([]float64, n)
	acc := 0.0
	for i, v := range x {
		acc += v - mean
		profile[i] = acc
	}

	var logSizes, logFlucts []float64
	minBox, maxBox := 8, n/4
	ratio := math.Pow(float64(maxBox)/float64(minBox), 1.0/9.0)
	for s := 0; s < 10; s++ {
		box := int(float64(minBox) * math.Pow(ratio, float64(s)))
		if box < 4 || box > maxBox {
			continue
		}
		f := boxFluctuation(profile, box)
		if f <= 0 {
			continue
		}
		logSizes = append(logSizes, math.Log(float64(box)))
		logFlucts = append(logFlucts, math.Log(f))
	}
	if len(logSizes) < 3 {
		return 0.5
	}
	_, alpha := stat.LinearRegression(logSizes, logFlucts, nil, false)
	return alpha
}

// boxFluctuation is the RMS residual after removing a least-squares
// line from each box of the profile.
func boxFluctuation(profile []float64, box int) float64 {
	boxes := len(profile) / box
	if boxes == 0 {
		return 0
	}
	t := make([]float64, box)
	for i := range t {
		t[i] = float64(i)
	}
	var sumSq float64
	for b := 0; b < boxes; b++ {
		segment := profile[b*box : (b+1)*box]
		intercept, slope := stat.LinearRegression(t, segment, nil, false)
		for i, v := range segment {
			d := v - (intercept + slope*float64(i))
			sumSq += d * d
		}
	}
	return math.Sqrt(sumSq / float64(boxes*box))
}

// correlationDimension estimates D2 by the Grassberger-Procaccia
// correlation sum over the delay-embedded pitch period series at two
// radii.
func correlationDimension(periods []float64) float64 {
	n := len(periods) - 1
	if n < 16 {
		return 2.0
	}
	var mean float64
	for _, p := range periods {
		mean += p
	}
	mean /= float64(len(periods))
	var variance float64
	for _, p := range periods {
		variance += (p - mean) * (p - mean)
	}
	sigma := math.Sqrt(variance / float64(len(periods)))
	if sigma < 1e-12 {
		return 2.0
	}

	r1, r2 := 0.5*sigma, sigma
	c1 := correlationSum(periods, r1)
	c2 := correlationSum(periods, r2)
	if c1 <= 0 || c2 <= 0 || c2 <= c1 {
		return 2.0
	}
	return math.Log(c2/c1) / math.Log(r2/r1)
}

// correlationSum is the fraction of embedded point pairs closer than r
// (embedding dimension 2, delay 1).
func correlationSum(periods []float64, r float64) float64 {
	n := len(periods) - 1
	var count, pairs int
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			dx := periods[i] - periods[j]
			dy := periods[i+1] - periods[j+1]
			if dx*dx+dy*dy < r*r {
				count++
			}
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(count) / float64(pairs)
}

// decimate reduces the waveform to at most target samples by uniform
// striding; plenty for scaling-exponent estimation.
func decimate(samples []float64, target int) []float64 {
	if len(samples) <= target {
		return samples
	}
	stride := len(samples) / target
	out := make([]float64, 0, target)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	return out
}
