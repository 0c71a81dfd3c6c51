package pitch

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Default windowing and outlier-rule knobs for FilterKeyOutliers (spec
// §4.8, §6.4).
const (
	keyWindowSecondsDefault        = 8.0
	keyOverlapSecondsDefault       = 4.0
	keyOutlierMaxDurationDefault   = 0.15
	keyOutlierMaxConfidenceDefault = 0.65
	keyHistogramMinWeight          = 0.1
)

// majorProfile and minorProfile are the Krumhansl-Kessler tonal hierarchy
// weights, index 0 = tonic.
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}

	// majorIntervals and minorIntervals are the base scale-degree
	// semitone offsets from the tonic.
	majorIntervals = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorIntervals = [7]int{0, 2, 3, 5, 7, 8, 10}
)

// keyWindow is an internal sliding analysis window, carrying the winning
// key candidate and that key's extended diatonic set.
type keyWindow struct {
	startS, endS float64
	tonic        int
	mode         Mode
	correlation  float64 // raw Pearson r, not yet rescaled to [0,1]
	extended     map[int]bool
}

// FilterKeyOutliers detects tonality per sliding window (Krumhansl-
// Schmuckler) and drops short, low-confidence, non-diatonic notes (spec
// §4.8). It returns the surviving notes (order preserved) and the list of
// detected SectionKey windows for downstream serialization.
func FilterKeyOutliers(notes []Note, windowS, overlapS, outlierMaxDurationS, outlierMaxConfidence float64) ([]Note, []SectionKey) {
	if len(notes) == 0 {
		return nil, nil
	}

	windows := buildKeyWindows(notes, windowS, overlapS)
	if len(windows) == 0 {
		return append([]Note(nil), notes...), nil
	}

	sections := make([]SectionKey, 0, len(windows))
	for _, w := range windows {
		sections = append(sections, SectionKey{
			StartTimeS:  w.startS,
			EndTimeS:    w.endS,
			Tonic:       w.tonic,
			Mode:        w.mode,
			Correlation: round4((w.correlation + 1) / 2),
		})
	}

	kept := make([]Note, 0, len(notes))
	for _, n := range notes {
		if isTonalOutlier(n, windows, outlierMaxDurationS, outlierMaxConfidence) {
			continue
		}
		kept = append(kept, n)
	}

	return kept, sections
}

// buildKeyWindows slides [w_s, w_e) across the note span by step =
// windowS - overlapS, discarding windows whose pitch-class histogram sums
// to <= 0.1, and assigns each surviving window its winning key candidate.
func buildKeyWindows(notes []Note, windowS, overlapS float64) []keyWindow {
	step := windowS - overlapS
	if step <= 0 {
		step = windowS
	}

	spanStart := notes[0].StartTimeS
	spanEnd := notes[0].EndTimeS()
	for _, n := range notes[1:] {
		if n.EndTimeS() > spanEnd {
			spanEnd = n.EndTimeS()
		}
	}

	var windows []keyWindow
	for ws := spanStart; ws < spanEnd; ws += step {
		we := ws + windowS

		hist := pitchClassHistogram(notes, ws, we)
		sum := 0.0
		for _, v := range hist {
			sum += v
		}
		if sum <= keyHistogramMinWeight {
			continue
		}

		tonic, mode, corr, ok := bestKeyCandidate(hist)
		if !ok {
			continue
		}

		windows = append(windows, keyWindow{
			startS:      ws,
			endS:        we,
			tonic:       tonic,
			mode:        mode,
			correlation: corr,
			extended:    extendedDiatonicSet(tonic, mode),
		})
	}
	return windows
}

func pitchClassHistogram(notes []Note, ws, we float64) [12]float64 {
	var hist [12]float64
	for _, n := range notes {
		overlap := math.Min(n.EndTimeS(), we) - math.Max(n.StartTimeS, ws)
		if overlap > 0 {
			hist[((n.MIDINumber%12)+12)%12] += overlap
		}
	}
	return hist
}

// bestKeyCandidate scans all 24 (tonic, mode) rotations of the key
// profiles and returns the highest-correlated candidate, breaking ties by
// first-encountered order: tonic 0..11, major before minor.
func bestKeyCandidate(hist [12]float64) (tonic int, mode Mode, correlation float64, ok bool) {
	h := hist[:]
	best := math.Inf(-1)

	for t := 0; t < 12; t++ {
		for _, cand := range [2]struct {
			mode    Mode
			profile *[12]float64
		}{{ModeMajor, &majorProfile}, {ModeMinor, &minorProfile}} {
			rotated := rotateProfile(cand.profile, t)
			r := stat.Correlation(h, rotated, nil)
			if math.IsNaN(r) {
				continue
			}
			if r > best {
				best = r
				tonic, mode, correlation, ok = t, cand.mode, r, true
			}
		}
	}
	return
}

// rotateProfile builds the expected-weight vector for tonic t: position p
// (a pitch class) carries the profile's weight for scale degree (p - t).
func rotateProfile(profile *[12]float64, tonic int) []float64 {
	out := make([]float64, 12)
	for p := 0; p < 12; p++ {
		out[p] = profile[((p-tonic)%12+12)%12]
	}
	return out
}

// extendedDiatonicSet is the base diatonic scale degrees plus their
// immediate chromatic neighbours.
func extendedDiatonicSet(tonic int, mode Mode) map[int]bool {
	base := majorIntervals[:]
	if mode == ModeMinor {
		base = minorIntervals[:]
	}

	set := make(map[int]bool, 21)
	for _, iv := range base {
		pc := ((tonic+iv)%12 + 12) % 12
		set[pc] = true
		set[(pc+11)%12] = true
		set[(pc+1)%12] = true
	}
	return set
}

// isTonalOutlier reports whether note n satisfies all three conditions of
// the outlier rule, against the highest-correlated window overlapping it.
func isTonalOutlier(n Note, windows []keyWindow, maxDurationS, maxConfidence float64) bool {
	if n.DurationS >= maxDurationS || n.Confidence >= maxConfidence {
		return false
	}

	w, ok := bestOverlappingWindow(n, windows)
	if !ok {
		return false
	}

	pc := ((n.MIDINumber % 12) + 12) % 12
	return !w.extended[pc]
}

func bestOverlappingWindow(n Note, windows []keyWindow) (keyWindow, bool) {
	var best keyWindow
	found := false
	for _, w := range windows {
		overlap := math.Min(n.EndTimeS(), w.endS) - math.Max(n.StartTimeS, w.startS)
		if overlap <= 0 {
			continue
		}
		if !found || w.correlation > best.correlation {
			best = w
			found = true
		}
	}
	return best, found
}
