package pitch

import (
	"math"
	"testing"
)

func TestHzToMIDIA440(t *testing.T) {
	if got := HzToMIDI(440.0); got != 69 {
		t.Errorf("expected 440Hz to map to midi 69, got %d", got)
	}
}

func TestHzToMIDIClampsRange(t *testing.T) {
	if got := HzToMIDI(0); got != 0 {
		t.Errorf("expected non-positive frequency to clamp to 0, got %d", got)
	}
	if got := HzToMIDI(-10); got != 0 {
		t.Errorf("expected negative frequency to clamp to 0, got %d", got)
	}
}

func TestHzToMIDIRoundTripsThroughMIDIToHz(t *testing.T) {
	for m := 0; m <= 127; m++ {
		hz := MIDIToHz(m)
		got := HzToMIDI(hz)
		if got != m {
			t.Errorf("hz_to_midi(midi_to_hz(%d)) = %d, want %d", m, got, m)
		}
	}
}

func TestMIDIToNoteName(t *testing.T) {
	cases := map[int]string{
		69: "A4",
		60: "C4",
		70: "A#4",
		0:  "C-1",
	}
	for midi, want := range cases {
		if got := MIDIToNoteName(midi); got != want {
			t.Errorf("MIDIToNoteName(%d) = %q, want %q", midi, got, want)
		}
	}
}

func TestNoteNameToMIDIAcceptsSharpsAndFlats(t *testing.T) {
	cases := map[string]int{
		"A4":  69,
		"A#4": 70,
		"Bb4": 70,
		"C4":  60,
	}
	for name, want := range cases {
		got, err := NoteNameToMIDI(name)
		if err != nil {
			t.Fatalf("NoteNameToMIDI(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("NoteNameToMIDI(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestNoteNameToMIDIRejectsGarbage(t *testing.T) {
	if _, err := NoteNameToMIDI("nonsense"); err == nil {
		t.Error("expected an error for an unparseable note name")
	}
}

func TestMIDIToHzA440(t *testing.T) {
	if got := MIDIToHz(69); math.Abs(got-440.0) > 1e-9 {
		t.Errorf("expected midi 69 to map to 440Hz, got %f", got)
	}
}
