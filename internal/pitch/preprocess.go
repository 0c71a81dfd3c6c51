package pitch

import "math"

const (
	trimFrameLength = 2048
	trimHopLength   = 512
	trimTopDB       = 30.0
)

// Preprocess peak-normalizes the signal and trims leading/trailing silence.
// It returns the trimmed signal and the number of seconds of leading
// silence removed, so callers can re-express note timestamps in the
// pre-trim time base.
//
// Degenerate inputs (an empty buffer, or an all-silent buffer whose peak is
// zero) return an empty signal with a zero offset; Preprocess never errors.
func Preprocess(samples []float64) (trimmed []float64, trimOffsetS float64) {
	if len(samples) == 0 {
		return samples, 0
	}

	normalized := peakNormalize(samples)

	a, b := trimSilenceBounds(normalized, trimTopDB)
	if a >= b {
		return normalized[:0], 0
	}

	return normalized[a:b], float64(a) / SampleRate
}

func peakNormalize(samples []float64) []float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}

	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

// trimSilenceBounds finds the largest interval [a, b) such that every
// sample outside it sits below topDB relative to the signal's peak,
// using a short-time RMS energy criterion equivalent to the
// frame_length=2048/hop_length=512 convention of standard library audio
// trimming (e.g. librosa.effects.trim).
func trimSilenceBounds(samples []float64, topDB float64) (int, int) {
	n := len(samples)
	if n == 0 {
		return 0, 0
	}

	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return 0, 0
	}

	threshold := peak * math.Pow(10, -topDB/20)

	// Frames are centred on k*hop, as in librosa's centred framing.
	firstFrame, lastFrame := -1, -1
	for k := 0; k <= n/trimHopLength; k++ {
		start := k*trimHopLength - trimFrameLength/2
		end := start + trimFrameLength
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}

		sumSq := 0.0
		for i := start; i < end; i++ {
			sumSq += samples[i] * samples[i]
		}
		rms := math.Sqrt(sumSq / float64(end-start))

		if rms > threshold {
			if firstFrame == -1 {
				firstFrame = k
			}
			lastFrame = k
		}
	}

	if firstFrame == -1 {
		return 0, 0
	}

	a := firstFrame * trimHopLength
	b := (lastFrame + 1) * trimHopLength
	if b > n {
		b = n
	}
	return a, b
}
