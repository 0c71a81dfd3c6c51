package jsonformat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
)

func mustNote(t *testing.T, midi int, start, dur, freq, conf float64) pitch.Note {
	t.Helper()
	n, err := pitch.NewNote(midi, start, dur, freq, conf, 0, false)
	if err != nil {
		t.Fatalf("build note: %v", err)
	}
	return n
}

func TestBuildRendersNotesAndMetadata(t *testing.T) {
	result := pitch.Result{
		Notes: []pitch.Note{mustNote(t, 69, 0.0, 1.0, 440.0, 0.9)},
	}
	processedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	env := Build(result, Options{
		InputFile:           "song.wav",
		AudioDurationS:      1.0,
		ModelSize:           "full",
		ConfidenceThreshold: 0.5,
		ProcessedAt:         processedAt,
	})

	if len(env.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(env.Notes))
	}
	if env.Notes[0].NoteName != "A4" {
		t.Errorf("expected note name A4, got %s", env.Notes[0].NoteName)
	}
	if env.Metadata.InputFile == nil || *env.Metadata.InputFile != "song.wav" {
		t.Errorf("expected input_file to be set")
	}
	if env.Metadata.NotesDetected != 1 {
		t.Errorf("expected notes_detected=1, got %d", env.Metadata.NotesDetected)
	}
	if env.Metadata.ProcessedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected processed_at: %s", env.Metadata.ProcessedAt)
	}
}

func TestBuildRendersNilInputFileAsNull(t *testing.T) {
	env := Build(pitch.Result{}, Options{InputFile: ""})
	if env.Metadata.InputFile != nil {
		t.Error("expected nil input_file when Options.InputFile is empty")
	}

	data, err := Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	meta := decoded["metadata"].(map[string]any)
	if meta["input_file"] != nil {
		t.Errorf("expected JSON null for input_file, got %v", meta["input_file"])
	}
}

func TestBuildRendersKeyInfo(t *testing.T) {
	result := pitch.Result{
		Sections: []pitch.SectionKey{
			{StartTimeS: 0, EndTimeS: 8, Tonic: 0, Mode: pitch.ModeMajor, Correlation: 0.92},
		},
	}
	env := Build(result, Options{})
	if len(env.Metadata.KeyInfo) != 1 {
		t.Fatalf("expected 1 key_info entry, got %d", len(env.Metadata.KeyInfo))
	}
	if env.Metadata.KeyInfo[0].Key != "C major" {
		t.Errorf("expected key name 'C major', got %q", env.Metadata.KeyInfo[0].Key)
	}
}

func TestRoundNHandlesNegativeValues(t *testing.T) {
	if got := roundN(-1.005, 2); got != -1.0 && got != -1.01 {
		t.Errorf("unexpected rounding of a negative value: %f", got)
	}
	if got := roundN(-0.001, 2); got != 0 {
		t.Errorf("expected -0.001 to round to 0 at 2 decimals, got %f", got)
	}
}

func TestMarshalProducesValidJSON(t *testing.T) {
	env := Build(pitch.Result{Notes: []pitch.Note{mustNote(t, 60, 0, 0.5, 261.63, 0.8)}}, Options{})
	data, err := Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip unmarshal: %v", err)
	}
	if len(decoded.Notes) != 1 {
		t.Errorf("expected 1 note after round trip, got %d", len(decoded.Notes))
	}
}
