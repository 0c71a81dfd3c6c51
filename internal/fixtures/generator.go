// Package fixtures generates a fixed set of canonical vocal-transcription
// WAV scenarios as on-disk fixtures for integration tests and manual
// pipeline exercising.
package fixtures

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
	"github.com/vocalscribe/vocalscribe/internal/wavio"
)

// Config controls which scenario fixtures are emitted.
type Config struct {
	OutputDir  string
	SampleRate int
}

// Manifest describes generated fixtures for tests/consumers.
type Manifest struct {
	SampleRate int               `json:"sample_rate"`
	Fixtures   []ManifestFixture `json:"fixtures"`
}

// ManifestFixture describes one generated scenario WAV.
type ManifestFixture struct {
	File        string  `json:"file"`
	Scenario    string  `json:"scenario"`
	DurationSec float64 `json:"duration_sec"`
}

// Generate writes the scenario WAVs and a manifest.json into OutputDir.
func Generate(cfg Config) (*Manifest, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = pitch.SampleRate
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./testdata/audio"
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output: %w", err)
	}

	manifest := &Manifest{SampleRate: cfg.SampleRate}
	add := func(file, scenario string, samples []float64) error {
		path := filepath.Join(cfg.OutputDir, file)
		if err := writeFixture(path, samples, cfg.SampleRate); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
		manifest.Fixtures = append(manifest.Fixtures, ManifestFixture{
			File:        file,
			Scenario:    scenario,
			DurationSec: float64(len(samples)) / float64(cfg.SampleRate),
		})
		return nil
	}

	sr := cfg.SampleRate

	if err := add("pure_tone_440.wav", "pure_tone", tone(sr, 440.0, 2.0, 1.0)); err != nil {
		return nil, err
	}
	if err := add("two_tones_440_523.wav", "two_tones", concat(
		tone(sr, 440.0, 1.0, 1.0),
		tone(sr, 523.25, 1.0, 1.0),
	)); err != nil {
		return nil, err
	}
	if err := add("same_pitch_gap_50ms.wav", "same_pitch_short_gap", concat(
		tone(sr, 440.0, 1.0, 1.0),
		silence(sr, 0.05),
		tone(sr, 440.0, 1.0, 1.0),
	)); err != nil {
		return nil, err
	}
	if err := add("same_pitch_gap_200ms.wav", "same_pitch_long_gap", concat(
		tone(sr, 440.0, 1.0, 1.0),
		silence(sr, 0.2),
		tone(sr, 440.0, 1.0, 1.0),
	)); err != nil {
		return nil, err
	}
	if err := add("leading_silence.wav", "leading_silence", concat(
		silence(sr, 0.5),
		tone(sr, 440.0, 1.0, 1.0),
	)); err != nil {
		return nil, err
	}
	if err := add("tonal_outlier_c_major.wav", "tonal_outlier", tonalOutlierRun(sr)); err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return manifest, nil
}

// tone renders durationSec of a pure sine wave at frequencyHz, amplitude
// peak in [0, 1].
func tone(sampleRate int, frequencyHz, durationSec, peak float64) []float64 {
	n := int(durationSec * float64(sampleRate))
	data := make([]float64, n)
	for i := range data {
		t := float64(i) / float64(sampleRate)
		data[i] = peak * math.Sin(2*math.Pi*frequencyHz*t)
	}
	return data
}

// silence renders durationSec of true digital silence.
func silence(sampleRate int, durationSec float64) []float64 {
	return make([]float64, int(durationSec*float64(sampleRate)))
}

func concat(parts ...[]float64) []float64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]float64, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// tonalOutlierRun renders a short C-major scale run with one 80ms
// MIDI-61 (C#) intrusion inserted against a low-amplitude
// tone so the estimator double used in tests can report a depressed
// confidence for it; the amplitude alone is not what drives the
// confidence value used by tests — callers exercising this fixture
// through a real estimator should treat the intrusion's reported
// confidence as approximate and set it explicitly via a test double
// where exact confidence matters.
func tonalOutlierRun(sampleRate int) []float64 {
	// C major scale: C4..C5, ~300ms each, to establish the key.
	scaleMIDI := []int{60, 62, 64, 65, 67, 69, 71, 72}
	var segments []float64
	for _, m := range scaleMIDI {
		segments = append(segments, tone(sampleRate, pitch.MIDIToHz(m), 0.3, 0.8)...)
	}
	// 80ms intrusion at MIDI 61 (C#), lower amplitude to bias estimator
	// confidence downward.
	intrusion := tone(sampleRate, pitch.MIDIToHz(61), 0.08, 0.3)
	return concat(segments, intrusion, tone(sampleRate, pitch.MIDIToHz(72), 0.3, 0.8))
}

func writeFixture(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return wavio.Write(f, samples, sampleRate)
}
