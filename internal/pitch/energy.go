package pitch

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FrameEnergy computes per-frame RMS at the same 10ms hop as pitch frames,
// padding the final frame with whatever samples remain.
func FrameEnergy(samples []float64) []EnergyFrame {
	if len(samples) == 0 {
		return nil
	}

	numFrames := len(samples)/HopSamples + 1
	frames := make([]EnergyFrame, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * HopSamples
		end := start + HopSamples
		if end > len(samples) {
			end = len(samples)
		}

		var rms float64
		if end > start {
			sumSq := 0.0
			for _, s := range samples[start:end] {
				sumSq += s * s
			}
			rms = math.Sqrt(sumSq / float64(end-start))
		}

		frames[i] = EnergyFrame{TimeS: float64(i) * HopSeconds, RMS: rms}
	}

	return frames
}

// EnergyThreshold computes the adaptive energy threshold: a low
// percentile of the frame energies, floored so a fully silent input
// never admits a frame, and ceilinged at 10% of the median so a uniformly
// loud input cannot suppress the whole signal.
func EnergyThreshold(frames []EnergyFrame, percentile float64) float64 {
	if len(frames) == 0 {
		return 0.005
	}

	values := make([]float64, len(frames))
	for i, f := range frames {
		values[i] = f.RMS
	}
	sort.Float64s(values)

	p15 := stat.Quantile(percentile/100, stat.LinInterp, values, nil)
	med := stat.Quantile(0.5, stat.LinInterp, values, nil)
	cap := med * 0.1

	threshold := math.Min(p15, cap)
	return math.Max(threshold, 0.005)
}
