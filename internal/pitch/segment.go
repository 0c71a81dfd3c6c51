package pitch

import "math"

const minSegmentFrequencyHz = 80.0

// segmentState is the note-emission state machine (Idle or InNote),
// modeled explicitly rather than with loop-carried sentinels.
type segmentState struct {
	active      bool
	midi        int
	startTimeS  float64
	freqs       []float64
	confs       []float64
	energies    []float64
}

// Segment groups consecutive frames of equal MIDI pitch into candidate
// notes, gated by energy, confidence, and a minimum frequency.
// trimOffsetS re-expresses the emitted notes' start times in the
// pre-trim time base.
func Segment(frames []PitchFrame, energy []EnergyFrame, energyThreshold, confidenceThreshold, trimOffsetS float64) ([]Note, error) {
	if len(frames) == 0 {
		return nil, nil
	}

	var notes []Note
	var st segmentState

	for i, frame := range frames {
		valid := frame.FrequencyHz > minSegmentFrequencyHz && frame.Confidence >= confidenceThreshold && frameEnergyValid(energy, i, energyThreshold)

		if valid {
			m := HzToMIDI(frame.FrequencyHz)
			e := frameEnergyValue(energy, i)

			switch {
			case !st.active:
				st = segmentState{active: true, midi: m, startTimeS: frame.TimeS,
					freqs: []float64{frame.FrequencyHz}, confs: []float64{frame.Confidence}, energies: []float64{e}}
			case m == st.midi:
				st.freqs = append(st.freqs, frame.FrequencyHz)
				st.confs = append(st.confs, frame.Confidence)
				st.energies = append(st.energies, e)
			default:
				note, err := emitCandidate(st, frame.TimeS, trimOffsetS)
				if err != nil {
					return nil, err
				}
				if note != nil {
					notes = append(notes, *note)
				}
				st = segmentState{active: true, midi: m, startTimeS: frame.TimeS,
					freqs: []float64{frame.FrequencyHz}, confs: []float64{frame.Confidence}, energies: []float64{e}}
			}
		} else if st.active {
			note, err := emitCandidate(st, frame.TimeS, trimOffsetS)
			if err != nil {
				return nil, err
			}
			if note != nil {
				notes = append(notes, *note)
			}
			st = segmentState{}
		}
	}

	if st.active {
		end := frames[len(frames)-1].TimeS + HopSeconds
		note, err := emitCandidate(st, end, trimOffsetS)
		if err != nil {
			return nil, err
		}
		if note != nil {
			notes = append(notes, *note)
		}
	}

	return notes, nil
}

// frameEnergyValid reports whether frame i clears the energy gate. A frame
// index beyond the energy array is treated as valid: a length mismatch
// between energy and pitch frames treats missing energy as "valid" for
// that frame.
func frameEnergyValid(energy []EnergyFrame, i int, threshold float64) bool {
	if i >= len(energy) {
		return true
	}
	return energy[i].RMS > threshold
}

func frameEnergyValue(energy []EnergyFrame, i int) float64 {
	if i >= len(energy) {
		return 0
	}
	return energy[i].RMS
}

func emitCandidate(st segmentState, endTimeS, trimOffsetS float64) (*Note, error) {
	if !st.active || len(st.freqs) == 0 {
		return nil, nil
	}

	duration := endTimeS - st.startTimeS
	if duration < 0.05 {
		return nil, nil
	}

	avgFreq := mean(st.freqs)
	avgConf := mean(st.confs)
	avgEnergy, hasEnergy := averageEnergyIfAny(st.energies)

	startTime := round4(st.startTimeS + trimOffsetS)

	note, err := NewNote(st.midi, startTime, duration, avgFreq, avgConf, avgEnergy, hasEnergy)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// averageEnergyIfAny averages the buffered energies unless every one of
// them is exactly zero, in which case the note carries no energy value.
func averageEnergyIfAny(energies []float64) (float64, bool) {
	allZero := true
	for _, e := range energies {
		if e != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return 0, false
	}
	return mean(energies), true
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
