// Package pitch implements the monophonic vocal transcription core: a
// linear, single-threaded, side-effect-free pipeline that turns a mono
// 16kHz waveform into a time-ordered sequence of musical notes.
//
// The package holds no package-level mutable state. Every exported function
// consumes and returns owned values; no stage retains references to a
// previous stage's buffers beyond its own invocation.
package pitch

import "math"

// SampleRate is the only sample rate the core accepts. Resampling to this
// rate is the caller's responsibility.
const SampleRate = 16000

// HopSeconds is the frame hop used throughout the pipeline (10ms).
const HopSeconds = 0.01

// HopSamples is HopSeconds expressed in samples at SampleRate.
const HopSamples = int(SampleRate * HopSeconds) // 160

// PitchFrame is one 10ms hop of raw or post-processed pitch estimation.
type PitchFrame struct {
	// TimeS is the timestamp at the start of the frame, relative to the
	// trimmed audio (i.e. before any silence-trim offset is reapplied).
	TimeS float64
	// FrequencyHz is the estimated fundamental frequency; 0 means unvoiced.
	FrequencyHz float64
	// Confidence is the model's self-reported periodicity, in [0, 1].
	Confidence float64
}

// EnergyFrame is the per-frame RMS energy, parallel to a PitchFrame slice.
type EnergyFrame struct {
	TimeS float64
	RMS   float64
}

// ModelSize selects which external pitch-estimator variant to run; it is a
// pass-through knob the core does not interpret (the estimator is an
// external collaborator).
type ModelSize string

const (
	ModelTiny ModelSize = "tiny"
	ModelFull ModelSize = "full"
)

// Note is a detected musical event, timestamped in the pre-silence-trim
// time base.
type Note struct {
	MIDINumber int
	NoteName   string
	StartTimeS float64
	DurationS  float64
	// FrequencyHz is the duration-weighted average frequency of the
	// constituent frames.
	FrequencyHz float64
	// Confidence is the mean detection confidence across constituent
	// frames.
	Confidence float64
	// EnergyRMS is the mean RMS energy across constituent frames. HasEnergy
	// is false when no constituent frame supplied an energy value, in which
	// case velocity falls back to the confidence-based formula.
	EnergyRMS float64
	HasEnergy bool
	// Velocity is the derived MIDI velocity, computed at construction time.
	Velocity int
}

// EndTimeS is StartTimeS + DurationS.
func (n Note) EndTimeS() float64 {
	return n.StartTimeS + n.DurationS
}

// NewNote validates a candidate note and derives its velocity. It returns
// a *DomainViolationError if any invariant is violated; a stage that
// constructs an out-of-range note has a bug and should abort rather than
// silently drop the note.
func NewNote(midiNumber int, startTimeS, durationS, frequencyHz, confidence float64, energyRMS float64, hasEnergy bool) (Note, error) {
	if midiNumber < 0 || midiNumber > 127 {
		return Note{}, &DomainViolationError{Reason: "midi_number out of [0,127]"}
	}
	if startTimeS < 0 {
		return Note{}, &DomainViolationError{Reason: "start_time_s < 0"}
	}
	if durationS <= 0 {
		return Note{}, &DomainViolationError{Reason: "duration_s <= 0"}
	}
	if frequencyHz <= 0 {
		return Note{}, &DomainViolationError{Reason: "frequency_hz <= 0"}
	}
	if confidence < 0 || confidence > 1 {
		return Note{}, &DomainViolationError{Reason: "confidence out of [0,1]"}
	}

	n := Note{
		MIDINumber:  midiNumber,
		NoteName:    MIDIToNoteName(midiNumber),
		StartTimeS:  startTimeS,
		DurationS:   durationS,
		FrequencyHz: frequencyHz,
		Confidence:  confidence,
		EnergyRMS:   energyRMS,
		HasEnergy:   hasEnergy,
	}
	n.Velocity = deriveVelocity(confidence, energyRMS, hasEnergy)
	return n, nil
}

// deriveVelocity prefers a logarithmic mapping of RMS energy to velocity
// (human loudness perception is logarithmic; -46 dBFS
// approximates pianissimo, -6 dBFS approximates fortissimo for normalized
// voice), falling back to a confidence-based formula when no usable energy
// is available.
func deriveVelocity(confidence, energyRMS float64, hasEnergy bool) int {
	const (
		minVel = 30
		maxVel = 120
		dbMin  = -46.0
		dbMax  = -6.0
	)

	if hasEnergy && energyRMS > 0 {
		db := 20 * math.Log10(math.Max(energyRMS, 1e-10))
		n := (db - dbMin) / (dbMax - dbMin)
		n = clip(n, 0, 1)
		v := int(math.Round(minVel + n*(maxVel-minVel)))
		return clipInt(v, 0, 127)
	}

	v := int(math.Round(confidence*77 + 50))
	return clipInt(v, 0, 127)
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clipInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// SectionKey is a tonal annotation for a time window, produced by
// FilterKeyOutliers.
type SectionKey struct {
	StartTimeS  float64
	EndTimeS    float64
	Tonic       int // pitch class, 0 = C
	Mode        Mode
	Correlation float64 // normalized to [0, 1]
}

// Mode is the tonal mode of a detected key.
type Mode string

const (
	ModeMajor Mode = "major"
	ModeMinor Mode = "minor"
)

// KeyName renders "<Pitch> <mode>", e.g. "A minor".
func (sk SectionKey) KeyName() string {
	return noteNames[sk.Tonic] + " " + string(sk.Mode)
}
