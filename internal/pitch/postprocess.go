package pitch

import (
	"math"
	"sort"
)

const minVoicedConfidence = 0.1

// PostProcessPitch applies a segment-aware median filter and cent-space
// vibrato suppression. Confidence and timestamps are passed through
// unchanged; only FrequencyHz is smoothed.
func PostProcessPitch(frames []PitchFrame, medianWindow, vibratoSmoothWindow int, vibratoExtentCents float64) []PitchFrame {
	if len(frames) < medianWindow {
		return frames
	}

	freqs := make([]float64, len(frames))
	confs := make([]float64, len(frames))
	for i, f := range frames {
		freqs[i] = f.FrequencyHz
		confs[i] = f.Confidence
	}

	freqs = segmentedMedianFilter(freqs, confs, medianWindow)
	freqs = smoothVibrato(freqs, confs, vibratoSmoothWindow, vibratoExtentCents)

	out := make([]PitchFrame, len(frames))
	for i := range frames {
		f := math.Max(freqs[i], 0)
		out[i] = PitchFrame{TimeS: frames[i].TimeS, FrequencyHz: f, Confidence: frames[i].Confidence}
	}
	return out
}

// findVoicedSegments returns the maximal runs of voiced frames
// (frequency > 0 and confidence > minVoicedConfidence).
func findVoicedSegments(freqs, confs []float64) [][2]int {
	voiced := make([]bool, len(freqs))
	for i := range freqs {
		voiced[i] = freqs[i] > 0 && confs[i] > minVoicedConfidence
	}
	return findSegments(voiced)
}

func findSegments(mask []bool) [][2]int {
	var segments [][2]int
	inSegment := false
	start := 0
	for i, v := range mask {
		if v && !inSegment {
			start = i
			inSegment = true
		} else if !v && inSegment {
			segments = append(segments, [2]int{start, i})
			inSegment = false
		}
	}
	if inSegment {
		segments = append(segments, [2]int{start, len(mask)})
	}
	return segments
}

func segmentedMedianFilter(freqs, confs []float64, window int) []float64 {
	result := append([]float64(nil), freqs...)
	for _, seg := range findVoicedSegments(freqs, confs) {
		start, end := seg[0], seg[1]
		if end-start >= window {
			copy(result[start:end], medianFilterReflect(freqs[start:end], window))
		}
	}
	return result
}

func smoothVibrato(freqs, confs []float64, smoothWindow int, extentThresholdCents float64) []float64 {
	result := append([]float64(nil), freqs...)
	analysisWindow := smoothWindow * 2

	for _, seg := range findVoicedSegments(freqs, confs) {
		start, end := seg[0], seg[1]
		if end-start < smoothWindow {
			continue
		}

		segment := freqs[start:end]
		smoothed := movingAverageReflect(segment, smoothWindow)

		cents := make([]float64, len(segment))
		for i := range segment {
			c := 1200 * math.Log2(segment[i]/smoothed[i])
			if math.IsNaN(c) || math.IsInf(c, 0) {
				c = 0
			}
			cents[i] = c
		}

		if len(cents) >= analysisWindow {
			localStd := rollingStd(cents, analysisWindow)
			for i := range segment {
				if localStd[i] > extentThresholdCents/4.0 {
					result[start+i] = smoothed[i]
				}
			}
		}
	}
	return result
}

// reflectIndex maps a (possibly out-of-range) index into [0, n) using
// scipy ndimage's default "reflect" boundary convention: (d c b a | a b c d
// | d c b a) — the edge sample is repeated at each boundary.
func reflectIndex(j, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	m := j % period
	if m < 0 {
		m += period
	}
	if m < n {
		return m
	}
	return period - 1 - m
}

func medianFilterReflect(x []float64, window int) []float64 {
	half := (window - 1) / 2
	out := make([]float64, len(x))
	buf := make([]float64, window)
	for i := range x {
		for k := -half; k <= half; k++ {
			buf[k+half] = x[reflectIndex(i+k, len(x))]
		}
		sort.Float64s(buf)
		out[i] = buf[window/2]
	}
	return out
}

func movingAverageReflect(x []float64, window int) []float64 {
	half := (window - 1) / 2
	out := make([]float64, len(x))
	for i := range x {
		sum := 0.0
		for k := -half; k <= half; k++ {
			sum += x[reflectIndex(i+k, len(x))]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd computes a centered rolling standard deviation via cumulative
// sums, O(n) overall. Window is the full analysis width; the effective
// half-width is window/2 on each side (truncated at the array boundary,
// matching the reference's cumulative-sum implementation).
func rollingStd(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n < window {
		return out
	}

	cumsum := make([]float64, n)
	cumsum2 := make([]float64, n)
	running, running2 := 0.0, 0.0
	for i, v := range x {
		running += v
		running2 += v * v
		cumsum[i] = running
		cumsum2[i] = running2
	}

	half := window / 2
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}
		count := float64(hi - lo)

		var s, s2 float64
		if lo > 0 {
			s = cumsum[hi-1] - cumsum[lo-1]
			s2 = cumsum2[hi-1] - cumsum2[lo-1]
		} else {
			s = cumsum[hi-1]
			s2 = cumsum2[hi-1]
		}

		variance := s2/count - (s/count)*(s/count)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}
