// Command transcribe runs the full vocal transcription pipeline against a
// local WAV file end-to-end, without the HTTP/job-store layer — useful for
// batch/offline use and integration testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vocalscribe/vocalscribe/internal/estimator"
	"github.com/vocalscribe/vocalscribe/internal/jsonformat"
	"github.com/vocalscribe/vocalscribe/internal/midi"
	"github.com/vocalscribe/vocalscribe/internal/pitch"
	"github.com/vocalscribe/vocalscribe/internal/wavio"
)

func main() {
	inputPath := flag.String("input", "", "path to a mono 16-bit PCM WAV file (required)")
	outputPrefix := flag.String("output", "", "output path prefix for .mid and .json results (defaults to the input path without extension)")
	modelSize := flag.String("model-size", "full", "pitch estimator variant (tiny, full)")
	confidenceThreshold := flag.Float64("confidence-threshold", pitch.DefaultOptions().ConfidenceThreshold, "minimum frame periodicity to count as voiced")
	flag.Parse()

	level := slog.LevelInfo
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *inputPath == "" {
		logger.Error("missing required -input flag")
		os.Exit(1)
	}
	prefix := *outputPrefix
	if prefix == "" {
		prefix = strings.TrimSuffix(*inputPath, ".wav")
	}

	if err := run(logger, *inputPath, prefix, *modelSize, *confidenceThreshold); err != nil {
		logger.Error("transcription failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, inputPath, outputPrefix, modelSize string, confidenceThreshold float64) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	samples, sampleRate, err := wavio.Read(f)
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	if sampleRate != pitch.SampleRate {
		return fmt.Errorf("unsupported sample rate %d (expected %d)", sampleRate, pitch.SampleRate)
	}
	audioDuration := float64(len(samples)) / float64(pitch.SampleRate)

	logger.Info("preprocessing audio", "input", inputPath, "duration_s", audioDuration)
	trimmed, trimOffsetS := pitch.Preprocess(samples)

	// TODO(vocalscribe): wire a real neural estimator here once one is
	// available; estimator.Sinusoidal only exists to exercise the pipeline
	// in tests.
	est := estimator.Sinusoidal{}
	freq, periodicity, err := est.Estimate(context.Background(), trimmed, pitch.SampleRate, pitch.ModelSize(modelSize), estimator.DefaultFMin, estimator.DefaultFMax)
	if err != nil {
		return fmt.Errorf("estimate pitch: %w", err)
	}
	rawFrames, err := estimator.ToPitchFrames(freq, periodicity)
	if err != nil {
		return fmt.Errorf("pack pitch frames: %w", err)
	}

	opts := pitch.DefaultOptions()
	opts.ConfidenceThreshold = confidenceThreshold

	logger.Info("running pitch pipeline")
	result, err := pitch.Run(trimmed, rawFrames, trimOffsetS, opts)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	logger.Info("pipeline complete", "notes_detected", len(result.Notes), "sections_detected", len(result.Sections))

	envelope := jsonformat.Build(result, jsonformat.Options{
		InputFile:           inputPath,
		AudioDurationS:      audioDuration,
		ModelSize:           modelSize,
		ConfidenceThreshold: confidenceThreshold,
		ProcessedAt:         time.Now(),
	})
	jsonBytes, err := jsonformat.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal json result: %w", err)
	}
	if err := os.WriteFile(outputPrefix+".json", jsonBytes, 0644); err != nil {
		return fmt.Errorf("write json result: %w", err)
	}

	midiBytes, err := midi.Write(result.Notes)
	if err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	if err := os.WriteFile(outputPrefix+".mid", midiBytes, 0644); err != nil {
		return fmt.Errorf("write midi file: %w", err)
	}

	logger.Info("wrote results", "json", outputPrefix+".json", "midi", outputPrefix+".mid")
	return nil
}
