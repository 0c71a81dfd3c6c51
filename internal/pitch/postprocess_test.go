package pitch

import "testing"

func TestPostProcessPitchShortInputPassesThrough(t *testing.T) {
	frames := []PitchFrame{{TimeS: 0, FrequencyHz: 440, Confidence: 0.9}}
	out := PostProcessPitch(frames, 5, 13, 120)
	if len(out) != len(frames) {
		t.Fatalf("expected passthrough for input shorter than the median window")
	}
	if out[0].FrequencyHz != 440 {
		t.Errorf("expected unchanged frequency, got %f", out[0].FrequencyHz)
	}
}

func TestPostProcessPitchSmoothsASingleOutlierFrame(t *testing.T) {
	frames := toneFrames(0, 0.3, 440.0, 0.9)
	frames[15].FrequencyHz = 900 // a single spurious jump

	out := PostProcessPitch(frames, 5, 13, 120)
	if out[15].FrequencyHz == 900 {
		t.Error("expected the median filter to suppress a single-frame outlier")
	}
}

func TestPostProcessPitchIsIdempotentOnAlreadySmoothedFrames(t *testing.T) {
	frames := toneFrames(0, 0.5, 440.0, 0.9)
	once := PostProcessPitch(frames, 5, 13, 120)
	twice := PostProcessPitch(once, 5, 13, 120)

	for i := range once {
		if diff := once[i].FrequencyHz - twice[i].FrequencyHz; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("frame %d: expected a fixed point, got %f then %f", i, once[i].FrequencyHz, twice[i].FrequencyHz)
		}
	}
}

func TestFindSegmentsIdentifiesMaximalRuns(t *testing.T) {
	mask := []bool{false, true, true, false, true, false, false, true, true, true}
	segments := findSegments(mask)

	want := [][2]int{{1, 3}, {4, 5}, {7, 10}}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(segments))
	}
	for i, seg := range segments {
		if seg != want[i] {
			t.Errorf("segment %d: expected %v, got %v", i, want[i], seg)
		}
	}
}

func TestReflectIndexMatchesScipyReflectConvention(t *testing.T) {
	// For n=4, reflect padding is: d c b a | a b c d | d c b a
	cases := map[int]int{
		-1: 0, -2: 1, -3: 2, -4: 3,
		0: 0, 1: 1, 2: 2, 3: 3,
		4: 3, 5: 2, 6: 1, 7: 0,
	}
	for j, want := range cases {
		if got := reflectIndex(j, 4); got != want {
			t.Errorf("reflectIndex(%d, 4) = %d, want %d", j, got, want)
		}
	}
}

func TestMedianFilterReflectOddWindow(t *testing.T) {
	x := []float64{1, 2, 100, 4, 5}
	out := medianFilterReflect(x, 3)
	if out[2] != 4 {
		t.Errorf("expected the median filter to suppress the spike at index 2, got %f", out[2])
	}
}

func TestRollingStdZeroForConstantSignal(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 5.0
	}
	out := rollingStd(x, 6)
	for i, v := range out {
		if v > 1e-9 {
			t.Errorf("index %d: expected zero std for a constant signal, got %f", i, v)
		}
	}
}
