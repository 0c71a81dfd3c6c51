package pitch

// noteMergeMaxGapDefault is the default maximum gap between adjacent
// same-pitch notes that still qualifies for fusion.
const noteMergeMaxGapDefault = 0.08

// MergeSamePitch fuses adjacent same-pitch notes separated by a gap no
// larger than maxGapS. Notes must already be sorted by start time; the
// result preserves that order.
func MergeSamePitch(notes []Note, maxGapS float64) ([]Note, error) {
	if len(notes) == 0 {
		return nil, nil
	}

	merged := make([]Note, 0, len(notes))
	merged = append(merged, notes[0])

	for _, cur := range notes[1:] {
		prev := &merged[len(merged)-1]
		gap := cur.StartTimeS - prev.EndTimeS()

		if cur.MIDINumber == prev.MIDINumber && gap >= 0 && gap <= maxGapS {
			fused, err := fuseNotes(*prev, cur, gap)
			if err != nil {
				return nil, err
			}
			*prev = fused
			continue
		}

		merged = append(merged, cur)
	}

	return merged, nil
}

// fuseNotes combines prev and cur (with prev.end + gap == cur.start) into a
// single note spanning both, weighting frequency/confidence/energy by each
// side's share of the fused duration including the gap.
func fuseNotes(prev, cur Note, gap float64) (Note, error) {
	totalDur := prev.DurationS + cur.DurationS + gap
	wPrev := prev.DurationS / totalDur
	wCur := cur.DurationS / totalDur

	freq := wPrev*prev.FrequencyHz + wCur*cur.FrequencyHz
	conf := wPrev*prev.Confidence + wCur*cur.Confidence

	var energy float64
	var hasEnergy bool
	switch {
	case prev.HasEnergy && cur.HasEnergy:
		energy = wPrev*prev.EnergyRMS + wCur*cur.EnergyRMS
		hasEnergy = true
	case prev.HasEnergy:
		energy, hasEnergy = prev.EnergyRMS, true
	case cur.HasEnergy:
		energy, hasEnergy = cur.EnergyRMS, true
	}

	return NewNote(prev.MIDINumber, prev.StartTimeS, totalDur, freq, conf, energy, hasEnergy)
}
