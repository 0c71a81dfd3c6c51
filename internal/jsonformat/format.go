// Package jsonformat renders a pipeline result as the output JSON
// envelope. It is a pure serialization adaptor; it holds no musical
// heuristics.
package jsonformat

import (
	"encoding/json"
	"math"
	"time"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
)

// Metadata is the envelope's "metadata" object.
type Metadata struct {
	InputFile            *string      `json:"input_file"`
	AudioDuration        float64      `json:"audio_duration"`
	ModelSize            string       `json:"model_size"`
	ConfidenceThreshold  float64      `json:"confidence_threshold"`
	NotesDetected        int          `json:"notes_detected"`
	ProcessedAt          string       `json:"processed_at"`
	KeyInfo              []KeyInfo    `json:"key_info,omitempty"`
}

// KeyInfo is one entry of the envelope's "key_info" array.
type KeyInfo struct {
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Key         string  `json:"key"`
	Tonic       int     `json:"tonic"`
	Mode        string  `json:"mode"`
	Correlation float64 `json:"correlation"`
}

// NoteJSON is one entry of the envelope's "notes" array.
type NoteJSON struct {
	MIDINumber int     `json:"midi_number"`
	NoteName   string  `json:"note_name"`
	StartTime  float64 `json:"start_time"`
	Duration   float64 `json:"duration"`
	EndTime    float64 `json:"end_time"`
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
	Velocity   int     `json:"velocity"`
}

// Envelope is the top-level document written as a job's JSON result.
type Envelope struct {
	Metadata Metadata   `json:"metadata"`
	Notes    []NoteJSON `json:"notes"`
}

// Options carries the request-time parameters needed to populate
// Metadata that the pure pipeline result does not itself carry.
type Options struct {
	InputFile           string // empty means null in the rendered JSON
	AudioDurationS      float64
	ModelSize           string
	ConfidenceThreshold float64
	ProcessedAt         time.Time
}

// Build assembles an Envelope from a pipeline result.
func Build(result pitch.Result, opts Options) Envelope {
	notes := make([]NoteJSON, len(result.Notes))
	for i, n := range result.Notes {
		notes[i] = NoteJSON{
			MIDINumber: n.MIDINumber,
			NoteName:   n.NoteName,
			StartTime:  round2(n.StartTimeS),
			Duration:   round2(n.DurationS),
			EndTime:    round2(n.EndTimeS()),
			Frequency:  round2(n.FrequencyHz),
			Confidence: round4(n.Confidence),
			Velocity:   n.Velocity,
		}
	}

	var keyInfo []KeyInfo
	for _, s := range result.Sections {
		keyInfo = append(keyInfo, KeyInfo{
			StartTime:   round2(s.StartTimeS),
			EndTime:     round2(s.EndTimeS),
			Key:         s.KeyName(),
			Tonic:       s.Tonic,
			Mode:        string(s.Mode),
			Correlation: s.Correlation,
		})
	}

	var inputFile *string
	if opts.InputFile != "" {
		inputFile = &opts.InputFile
	}

	return Envelope{
		Metadata: Metadata{
			InputFile:           inputFile,
			AudioDuration:       round2(opts.AudioDurationS),
			ModelSize:           opts.ModelSize,
			ConfidenceThreshold: opts.ConfidenceThreshold,
			NotesDetected:       len(notes),
			ProcessedAt:         opts.ProcessedAt.UTC().Format(time.RFC3339),
			KeyInfo:             keyInfo,
		},
		Notes: notes,
	}
}

// Marshal renders the envelope as indented JSON.
func Marshal(env Envelope) ([]byte, error) {
	return json.MarshalIndent(env, "", "  ")
}

func round2(x float64) float64 { return roundN(x, 2) }
func round4(x float64) float64 { return roundN(x, 4) }

func roundN(x float64, n int) float64 {
	scale := math.Pow(10, float64(n))
	return math.Round(x*scale) / scale
}
