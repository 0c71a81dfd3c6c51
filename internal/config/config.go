// Package config parses the command-line configuration of cmd/server.
// cmd/transcribe defines its own smaller flag set.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
)

// Config carries the pitch pipeline's tunable knobs plus the service-level
// settings needed to run the HTTP job API.
type Config struct {
	// Server settings
	Port     int
	DataDir  string
	LogLevel string
	ModelSize string

	// Webhook delivery settings
	WebhookTimeout    time.Duration
	WebhookMaxRetries int

	// MaxAudioDurationS rejects uploads longer than this many seconds at
	// the HTTP boundary, before a job is ever enqueued.
	MaxAudioDurationS float64

	// Pipeline knobs
	Pitch pitch.Options
}

// Parse reads flags into a Config populated with the pipeline's default
// knob values. The data-dir default honours VOCALSCRIBE_DATA_DIR; the
// webhook signing secret is read separately by WebhookSecret.
func Parse() *Config {
	defaults := pitch.DefaultOptions()
	cfg := &Config{}

	flag.IntVar(&cfg.Port, "port", 8080, "HTTP server port")
	flag.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "data directory for SQLite and blobs")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.ModelSize, "model-size", "full", "pitch estimator variant (tiny, full)")

	flag.DurationVar(&cfg.WebhookTimeout, "webhook-timeout", 10*time.Second, "HTTP timeout for webhook delivery")
	flag.IntVar(&cfg.WebhookMaxRetries, "webhook-max-retries", 3, "maximum webhook delivery attempts")

	flag.Float64Var(&cfg.MaxAudioDurationS, "max-audio-duration", 600, "maximum accepted upload duration, in seconds")

	flag.Float64Var(&cfg.Pitch.ConfidenceThreshold, "confidence-threshold", defaults.ConfidenceThreshold, "minimum frame periodicity to count as voiced")
	flag.Float64Var(&cfg.Pitch.EnergyPercentile, "energy-percentile", defaults.EnergyPercentile, "percentile for the adaptive energy threshold")
	flag.IntVar(&cfg.Pitch.PitchMedianWindow, "pitch-median-window", defaults.PitchMedianWindow, "median filter width in frames")
	flag.IntVar(&cfg.Pitch.VibratoSmoothWindow, "vibrato-smooth-window", defaults.VibratoSmoothWindow, "vibrato moving-average width in frames")
	flag.Float64Var(&cfg.Pitch.VibratoExtentCents, "vibrato-extent-cents", defaults.VibratoExtentCents, "peak-to-peak vibrato extent threshold, in cents")
	flag.Float64Var(&cfg.Pitch.NoteMergeMaxGapS, "note-merge-max-gap", defaults.NoteMergeMaxGapS, "maximum gap (seconds) between same-pitch notes eligible for merge")
	flag.Float64Var(&cfg.Pitch.PostMergeMinDurationS, "post-merge-min-duration", defaults.PostMergeMinDurationS, "minimum surviving note duration (seconds) after merge")
	flag.IntVar(&cfg.Pitch.OnsetLookbackFrames, "onset-lookback-frames", defaults.OnsetLookbackFrames, "frames searched backward for onset refinement")
	flag.Float64Var(&cfg.Pitch.KeyWindowSecondsS, "key-window-seconds", defaults.KeyWindowSecondsS, "key-detection sliding window width, in seconds")
	flag.Float64Var(&cfg.Pitch.KeyOverlapSecondsS, "key-overlap-seconds", defaults.KeyOverlapSecondsS, "key-detection sliding window overlap, in seconds")
	flag.Float64Var(&cfg.Pitch.KeyOutlierMaxDuration, "key-outlier-max-duration", defaults.KeyOutlierMaxDuration, "maximum duration (seconds) eligible for tonal-outlier removal")
	flag.Float64Var(&cfg.Pitch.KeyOutlierMaxConfidence, "key-outlier-max-confidence", defaults.KeyOutlierMaxConfidence, "maximum confidence eligible for tonal-outlier removal")

	flag.Parse()
	return cfg
}

// WebhookSecret reads the HMAC signing secret for outbound webhook
// delivery from the environment; an empty secret disables signing.
func WebhookSecret() string {
	return os.Getenv("VOCALSCRIBE_WEBHOOK_SECRET")
}

func defaultDataDir() string {
	if dir := os.Getenv("VOCALSCRIBE_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vocalscribe"
	}
	return home + "/.vocalscribe"
}
