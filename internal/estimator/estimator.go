// Package estimator declares the external pitch-estimator interface and a
// deterministic test double. The neural model itself is an out-of-scope
// collaborator that plugs in behind this interface; cmd/server and
// cmd/transcribe currently wire the Sinusoidal double.
package estimator

import (
	"context"
	"fmt"
	"math"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
)

// Size selects which estimator variant to run.
type Size = pitch.ModelSize

const (
	Tiny = pitch.ModelTiny
	Full = pitch.ModelFull
)

// Estimator produces per-frame (frequency, periodicity) pairs from a mono
// waveform at the pipeline's fixed hop. frequency[i] == 0 denotes an
// unvoiced frame.
type Estimator interface {
	Estimate(ctx context.Context, samples []float64, sampleRate int, model Size, fminHz, fmaxHz float64) (frequency, periodicity []float64, err error)
}

// DefaultFMin and DefaultFMax are the estimator's default Viterbi decoding
// bounds.
const (
	DefaultFMin = 65.0
	DefaultFMax = 1047.0
)

// ToPitchFrames packs parallel frequency/periodicity slices into the
// PitchFrame sequence the pipeline consumes, using the standard 10ms hop.
func ToPitchFrames(frequency, periodicity []float64) ([]pitch.PitchFrame, error) {
	if len(frequency) != len(periodicity) {
		return nil, fmt.Errorf("estimator: frequency/periodicity length mismatch (%d vs %d)", len(frequency), len(periodicity))
	}

	frames := make([]pitch.PitchFrame, len(frequency))
	for i := range frequency {
		frames[i] = pitch.PitchFrame{
			TimeS:       float64(i) * pitch.HopSeconds,
			FrequencyHz: frequency[i],
			Confidence:  periodicity[i],
		}
	}
	return frames, nil
}

// Sinusoidal is a deterministic test double that reports a single target
// frequency (or silence) for every frame, used by pipeline tests so they
// do not depend on a real neural estimator.
type Sinusoidal struct {
	// Segments are evaluated in order; each applies to the frames whose
	// time falls within [StartS, EndS). Frames not covered by any segment
	// are reported unvoiced.
	Segments []SinusoidalSegment
}

// SinusoidalSegment describes one constant-pitch region of a Sinusoidal
// estimator double.
type SinusoidalSegment struct {
	StartS, EndS float64
	FrequencyHz  float64 // 0 means silence/unvoiced
	Periodicity  float64 // reported confidence while active
}

func (s Sinusoidal) Estimate(_ context.Context, samples []float64, sampleRate int, _ Size, _, _ float64) ([]float64, []float64, error) {
	if sampleRate != pitch.SampleRate {
		return nil, nil, fmt.Errorf("estimator: unsupported sample rate %d", sampleRate)
	}

	n := int(math.Ceil(float64(len(samples)) / float64(pitch.HopSamples)))
	freq := make([]float64, n)
	conf := make([]float64, n)

	for i := 0; i < n; i++ {
		t := float64(i) * pitch.HopSeconds
		for _, seg := range s.Segments {
			if t >= seg.StartS && t < seg.EndS {
				freq[i] = seg.FrequencyHz
				conf[i] = seg.Periodicity
				break
			}
		}
	}

	return freq, conf, nil
}
