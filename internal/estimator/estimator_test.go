package estimator

import (
	"context"
	"testing"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
)

func TestToPitchFramesPacksParallelSlices(t *testing.T) {
	frames, err := ToPitchFrames([]float64{440, 0, 523.25}, []float64{0.9, 0, 0.8})
	if err != nil {
		t.Fatalf("to pitch frames: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[2].TimeS != 2*pitch.HopSeconds {
		t.Errorf("expected frame 2 at time %f, got %f", 2*pitch.HopSeconds, frames[2].TimeS)
	}
	if frames[0].FrequencyHz != 440 || frames[0].Confidence != 0.9 {
		t.Errorf("unexpected frame 0: %+v", frames[0])
	}
}

func TestToPitchFramesRejectsMismatchedLengths(t *testing.T) {
	_, err := ToPitchFrames([]float64{440, 523}, []float64{0.9})
	if err == nil {
		t.Fatal("expected an error for mismatched slice lengths")
	}
}

func TestSinusoidalReportsSegmentFrequencyWithinWindow(t *testing.T) {
	est := Sinusoidal{Segments: []SinusoidalSegment{
		{StartS: 0, EndS: 0.1, FrequencyHz: 440, Periodicity: 0.9},
	}}
	samples := make([]float64, pitch.HopSamples*10)
	freq, conf, err := est.Estimate(context.Background(), samples, pitch.SampleRate, Full, DefaultFMin, DefaultFMax)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if freq[0] != 440 || conf[0] != 0.9 {
		t.Errorf("expected segment frequency/periodicity at frame 0, got freq=%f conf=%f", freq[0], conf[0])
	}
}

func TestSinusoidalReportsSilenceOutsideAnySegment(t *testing.T) {
	est := Sinusoidal{Segments: []SinusoidalSegment{
		{StartS: 1.0, EndS: 2.0, FrequencyHz: 440, Periodicity: 0.9},
	}}
	samples := make([]float64, pitch.HopSamples*5)
	freq, conf, err := est.Estimate(context.Background(), samples, pitch.SampleRate, Full, DefaultFMin, DefaultFMax)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	for i := range freq {
		if freq[i] != 0 || conf[i] != 0 {
			t.Errorf("frame %d: expected silence outside all segments, got freq=%f conf=%f", i, freq[i], conf[i])
		}
	}
}

func TestSinusoidalRejectsUnsupportedSampleRate(t *testing.T) {
	est := Sinusoidal{}
	_, _, err := est.Estimate(context.Background(), make([]float64, 100), 8000, Full, DefaultFMin, DefaultFMax)
	if err == nil {
		t.Fatal("expected an error for an unsupported sample rate")
	}
}
