package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Pitch search band covers C2 through C7, the sustained-phonation range
// used at training time.
const (
	pitchMinHz = 65.41
	pitchMaxHz = 1046.5

	frameSeconds = 0.040
	voicedPeak   = 0.45
	energyGate   = 0.03
)

// pitchFrame is one voiced analysis frame: refined fundamental
// frequency, RMS amplitude and the normalized autocorrelation peak used
// for harmonicity estimates.
type pitchFrame struct {
	f0  float64
	amp float64
	r   float64
}

// trackPitch runs frame-based normalized autocorrelation over the
// waveform and returns the voiced frames in time order.
func trackPitch(samples []float64, sampleRate int) []pitchFrame {
	frameLen := int(frameSeconds * float64(sampleRate))
	if frameLen < 64 || len(samples) < frameLen {
		return nil
	}
	hop := frameLen / 4

	lagMin := int(float64(sampleRate) / pitchMaxHz)
	lagMax := int(float64(sampleRate) / pitchMinHz)
	if lagMax >= frameLen {
		lagMax = frameLen - 1
	}
	if lagMin < 2 {
		lagMin = 2
	}

	// First pass: per-frame energy, to gate against the recording's own
	// loudest segment rather than an absolute level.
	var rmsPeak float64
	frameCount := 1 + (len(samples)-frameLen)/hop
	rms := make([]float64, frameCount)
	for f := 0; f < frameCount; f++ {
		start := f * hop
		rms[f] = frameRMS(samples[start : start+frameLen])
		if rms[f] > rmsPeak {
			rmsPeak = rms[f]
		}
	}
	if rmsPeak <= 0 {
		return nil
	}

	fft := fourier.NewFFT(autocorrSize(frameLen))
	var frames []pitchFrame
	for f := 0; f < frameCount; f++ {
		if rms[f] < energyGate*rmsPeak {
			continue
		}
		start := f * hop
		cand, ok := bestLag(fft, samples[start:start+frameLen], lagMin, lagMax)
		if !ok || cand.r < voicedPeak {
			continue
		}
		frames = append(frames, pitchFrame{
			f0:  float64(sampleRate) / cand.lag,
			amp: rms[f],
			r:   cand.r,
		})
	}
	return frames
}

type lagCandidate struct {
	lag float64
	r   float64
}

// bestLag finds the strongest normalized autocorrelation peak in the
// search band, refined with parabolic interpolation.
func bestLag(fft *fourier.FFT, frame []float64, lagMin, lagMax int) (lagCandidate, bool) {
	ac := autocorrelate(fft, frame)
	if ac[0] <= 1e-12 {
		return lagCandidate{}, false
	}

	bestLagIdx, bestR := 0, 0.0
	for lag := lagMin; lag <= lagMax && lag < len(ac); lag++ {
		r := ac[lag] / ac[0]
		if r > bestR {
			bestR = r
			bestLagIdx = lag
		}
	}
	if bestLagIdx == 0 {
		return lagCandidate{}, false
	}

	refined := float64(bestLagIdx)
	if bestLagIdx > 1 && bestLagIdx+1 < len(ac) {
		prev := ac[bestLagIdx-1] / ac[0]
		next := ac[bestLagIdx+1] / ac[0]
		denom := prev - 2*bestR + next
		if math.Abs(denom) > 1e-12 {
			refined += 0.5 * (prev - next) / denom
		}
	}
	return lagCandidate{lag: refined, r: bestR}, true
}

// autocorrelate computes the (biased) autocorrelation of a mean-removed
// frame via FFT.
func autocorrelate(fft *fourier.FFT, frame []float64) []float64 {
	n := len(frame)
	size := fft.Len()

	mean := 0.0
	for _, v := range frame {
		mean += v
	}
	mean /= float64(n)

	padded := make([]float64, size)
	for i, v := range frame {
		padded[i] = v - mean
	}

	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		re := real(c)
		im := imag(c)
		coeff[i] = complex(re*re+im*im, 0)
	}
	ac := fft.Sequence(nil, coeff)
	inv := 1 / float64(size)
	for i := range ac {
		ac[i] *= inv
	}
	// Unbiased estimate: undo the linear taper of the finite window so
	// the peak height reflects harmonicity, not lag.
	out := ac[:n]
	for i := 1; i < n; i++ {
		out[i] *= float64(n) / float64(n-i)
	}
	return out
}

func autocorrSize(frameLen int) int {
	size := 1
	for size < 2*frameLen {
		size <<= 1
	}
	return size
}

func frameRMS(frame []float64) float64 {
	var sum float64
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
