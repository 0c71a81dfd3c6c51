package pitch

// Options collects the pipeline's tunable configuration knobs. Zero-value
// Options is not valid; use DefaultOptions and override as needed.
type Options struct {
	ConfidenceThreshold    float64
	EnergyPercentile       float64
	PitchMedianWindow      int
	VibratoSmoothWindow    int
	VibratoExtentCents     float64
	NoteMergeMaxGapS       float64
	PostMergeMinDurationS  float64
	OnsetLookbackFrames    int
	KeyWindowSecondsS      float64
	KeyOverlapSecondsS     float64
	KeyOutlierMaxDuration  float64
	KeyOutlierMaxConfidence float64
}

// DefaultOptions returns the pipeline's default knob values.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold:     0.5,
		EnergyPercentile:        15,
		PitchMedianWindow:       5,
		VibratoSmoothWindow:     13,
		VibratoExtentCents:      120,
		NoteMergeMaxGapS:        noteMergeMaxGapDefault,
		PostMergeMinDurationS:   postMergeMinDurationDefault,
		OnsetLookbackFrames:     onsetLookbackDefault,
		KeyWindowSecondsS:       keyWindowSecondsDefault,
		KeyOverlapSecondsS:      keyOverlapSecondsDefault,
		KeyOutlierMaxDuration:   keyOutlierMaxDurationDefault,
		KeyOutlierMaxConfidence: keyOutlierMaxConfidenceDefault,
	}
}

// Result is the complete output of Run: the note sequence and, when key
// filtering found any tonal windows, the detected sections.
type Result struct {
	Notes    []Note
	Sections []SectionKey
}

// Run drives the full eight-stage pipeline over a trimmed waveform's raw
// pitch estimate. rawFrames is the estimator's per-frame (frequency,
// confidence) output, already reduced to PitchFrame form at the standard
// 10ms hop; samples is the same (already preprocessed, i.e.
// peak-normalized and silence-trimmed) waveform the estimator ran over.
// trimOffsetS is the leading-silence offset returned by Preprocess, used
// to re-express every note's timestamps in the pre-trim time base.
func Run(samples []float64, rawFrames []PitchFrame, trimOffsetS float64, opts Options) (Result, error) {
	energy := FrameEnergy(samples)
	threshold := EnergyThreshold(energy, opts.EnergyPercentile)

	smoothed := PostProcessPitch(rawFrames, opts.PitchMedianWindow, opts.VibratoSmoothWindow, opts.VibratoExtentCents)

	notes, err := Segment(smoothed, energy, threshold, opts.ConfidenceThreshold, trimOffsetS)
	if err != nil {
		return Result{}, err
	}

	notes, err = MergeSamePitch(notes, opts.NoteMergeMaxGapS)
	if err != nil {
		return Result{}, err
	}

	notes = RefineOnsets(notes, energy, trimOffsetS, opts.OnsetLookbackFrames)
	notes = FilterShortNotes(notes, opts.PostMergeMinDurationS)
	notes, sections := FilterKeyOutliers(notes, opts.KeyWindowSecondsS, opts.KeyOverlapSecondsS, opts.KeyOutlierMaxDuration, opts.KeyOutlierMaxConfidence)

	return Result{Notes: notes, Sections: sections}, nil
}
