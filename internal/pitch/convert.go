package pitch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// HzToMIDI converts a frequency in Hz to the nearest MIDI note number,
// clamped to [0, 127]. 440 Hz maps to 69 (A4).
func HzToMIDI(frequencyHz float64) int {
	if frequencyHz <= 0 {
		return 0
	}
	midi := 69 + 12*math.Log2(frequencyHz/440.0)
	n := int(math.Round(midi))
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}

// MIDIToHz converts a MIDI note number to its equal-tempered frequency.
func MIDIToHz(midiNumber int) float64 {
	return 440.0 * math.Pow(2.0, float64(midiNumber-69)/12.0)
}

// MIDIToNoteName renders a MIDI number in scientific pitch notation, e.g.
// MIDIToNoteName(70) == "A#4".
func MIDIToNoteName(midiNumber int) string {
	octave := midiNumber/12 - 1
	return fmt.Sprintf("%s%d", noteNames[((midiNumber%12)+12)%12], octave)
}

// noteNameSemitone maps a note letter (with optional accidental) to its
// semitone offset from C, accepting both sharps and flats.
var noteNameSemitone = map[string]int{
	"C": 0, "C#": 1, "DB": 1,
	"D": 2, "D#": 3, "EB": 3,
	"E": 4,
	"F": 5, "F#": 6, "GB": 6,
	"G": 7, "G#": 8, "AB": 8,
	"A": 9, "A#": 10, "BB": 10,
	"B": 11,
}

// NoteNameToMIDI is the inverse of MIDIToNoteName, accepting both sharp
// ("A#4") and flat ("Bb4") spellings. It is not exercised by the core
// pipeline (which only ever produces names from MIDI numbers), and no other
// package in this repository calls it.
func NoteNameToMIDI(noteName string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(noteName))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note name: %q", noteName)
	}

	var letter string
	var octaveStr string
	switch {
	case len(s) >= 3 && (s[1] == '#' || s[1] == 'B'):
		letter, octaveStr = s[:2], s[2:]
	default:
		letter, octaveStr = s[:1], s[1:]
	}

	semitone, ok := noteNameSemitone[letter]
	if !ok {
		return 0, fmt.Errorf("unrecognized note letter: %q", letter)
	}

	octave, err := strconv.Atoi(octaveStr)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", noteName, err)
	}

	midi := (octave+1)*12 + semitone
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note out of MIDI range: %q (midi %d)", noteName, midi)
	}
	return midi, nil
}
