package pitch

import "math"

// onsetLookbackDefault is the default number of frames searched backward
// for a local energy-derivative peak.
const onsetLookbackDefault = 5

// RefineOnsets back-dates each note's start to the nearest local peak of
// the energy derivative within a lookback window. Refinement never moves
// a note's start later than its original value, and never
// earlier than the previous (already refined) note's end, so onset
// refinement alone cannot introduce overlap.
func RefineOnsets(notes []Note, energy []EnergyFrame, trimOffsetS float64, lookbackFrames int) []Note {
	if len(notes) == 0 {
		return nil
	}

	deriv := energyDerivative(energy)
	out := make([]Note, 0, len(notes))

	prevEnd := math.Inf(-1)
	for _, note := range notes {
		refined := note

		if len(deriv) > 0 {
			frameIdx := clampInt(roundToInt((note.StartTimeS-trimOffsetS)/HopSeconds), 0, len(deriv)-1)
			lo := frameIdx - lookbackFrames
			if lo < 0 {
				lo = 0
			}
			onsetFrame := argmax(deriv, lo, frameIdx)

			newStart := round4(float64(onsetFrame)*HopSeconds + trimOffsetS)
			if newStart < prevEnd {
				newStart = prevEnd
			}

			if newStart <= note.StartTimeS {
				newDuration := note.EndTimeS() - newStart
				if newDuration > 0 {
					refined.StartTimeS = newStart
					refined.DurationS = newDuration
				}
			}
		}

		out = append(out, refined)
		prevEnd = refined.EndTimeS()
	}

	return out
}

// energyDerivative computes D[i] = E[i] - E[i-1], with D[0] = 0.
func energyDerivative(energy []EnergyFrame) []float64 {
	if len(energy) == 0 {
		return nil
	}
	d := make([]float64, len(energy))
	for i := 1; i < len(energy); i++ {
		d[i] = energy[i].RMS - energy[i-1].RMS
	}
	return d
}

// argmax returns the index of the maximum of xs within [lo, hi] inclusive.
func argmax(xs []float64, lo, hi int) int {
	best := lo
	for i := lo + 1; i <= hi; i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func roundToInt(x float64) int {
	return int(math.Round(x))
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
