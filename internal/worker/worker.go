// Package worker runs the transcription pipeline against queued jobs,
// reporting staged progress (load -> detect -> post-process -> segment
// -> ... -> webhook) with a small goroutine pool polling the job store
// for work.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocalscribe/vocalscribe/internal/estimator"
	"github.com/vocalscribe/vocalscribe/internal/jobstore"
	"github.com/vocalscribe/vocalscribe/internal/jsonformat"
	"github.com/vocalscribe/vocalscribe/internal/midi"
	"github.com/vocalscribe/vocalscribe/internal/pitch"
	"github.com/vocalscribe/vocalscribe/internal/wavio"
	"github.com/vocalscribe/vocalscribe/internal/webhook"
)

// Pool runs a fixed number of goroutines that poll the job store for
// pending work and drive each job through the full pipeline.
type Pool struct {
	db        *jobstore.DB
	estimator estimator.Estimator
	webhook   *webhook.Sender
	logger    *slog.Logger
	pollEvery time.Duration
}

// NewPool builds a worker Pool.
func NewPool(db *jobstore.DB, est estimator.Estimator, sender *webhook.Sender, logger *slog.Logger) *Pool {
	return &Pool{db: db, estimator: est, webhook: sender, logger: logger, pollEvery: 500 * time.Millisecond}
}

// Run starts n goroutines that poll and process jobs until ctx is
// cancelled. It blocks until all goroutines have returned.
func (p *Pool) Run(ctx context.Context, n int) {
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(workerID int) {
			p.loop(ctx, workerID)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := p.db.ClaimNextPending()
			if err != nil {
				p.logger.Error("claim job failed", "worker", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			p.process(ctx, job)
		}
	}
}

// process runs the full pipeline for a single claimed job, reporting
// staged progress (10/30/60/90/100%).
func (p *Pool) process(ctx context.Context, job *jobstore.Job) {
	logger := p.logger.With("job_id", job.ID)
	logger.Info("processing job started")

	result, audioDuration, err := p.runPipeline(job)
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		if failErr := p.db.FailJob(job.ID, err.Error()); failErr != nil {
			logger.Error("failed to record job failure", "error", failErr)
		}
		return
	}

	p.setProgress(job.ID, jobstore.ProgressRendering, logger)

	envelope := jsonformat.Build(result, jsonformat.Options{
		InputFile:           job.InputFileName,
		AudioDurationS:      audioDuration,
		ModelSize:           job.ModelSize,
		ConfidenceThreshold: job.ConfidenceThreshold,
		ProcessedAt:         time.Now(),
	})

	jsonBytes, err := jsonformat.Marshal(envelope)
	if err != nil {
		p.fail(job.ID, fmt.Errorf("marshal json result: %w", err), logger)
		return
	}

	midiBytes, err := midi.Write(result.Notes)
	if err != nil {
		p.fail(job.ID, fmt.Errorf("write midi: %w", err), logger)
		return
	}

	jsonHash, err := p.db.PutBlob(jobstore.KindJSON, jsonBytes)
	if err != nil {
		p.fail(job.ID, fmt.Errorf("store json blob: %w", err), logger)
		return
	}
	midiHash, err := p.db.PutBlob(jobstore.KindMIDI, midiBytes)
	if err != nil {
		p.fail(job.ID, fmt.Errorf("store midi blob: %w", err), logger)
		return
	}

	if err := p.db.CompleteJob(job.ID, string(jsonBytes), midiHash, jsonHash); err != nil {
		p.fail(job.ID, fmt.Errorf("complete job: %w", err), logger)
		return
	}

	logger.Info("processing job completed", "notes_detected", len(result.Notes))

	if job.WebhookURL != "" {
		data := webhook.Data{NotesDetected: len(result.Notes), AudioDuration: audioDuration}
		if err := p.webhook.Send(ctx, job.WebhookURL, job.ID, data); err != nil {
			logger.Warn("webhook delivery ultimately failed", "error", err)
		}
	}
}

func (p *Pool) runPipeline(job *jobstore.Job) (pitch.Result, float64, error) {
	logger := p.logger.With("job_id", job.ID)

	audioBytes, err := p.db.GetBlob(job.AudioBlobHash)
	if err != nil {
		return pitch.Result{}, 0, fmt.Errorf("load audio blob: %w", err)
	}

	p.setProgress(job.ID, jobstore.ProgressPreprocess, logger)

	samples, sampleRate, err := wavio.Read(bytes.NewReader(audioBytes))
	if err != nil {
		return pitch.Result{}, 0, fmt.Errorf("decode audio: %w", err)
	}
	if sampleRate != pitch.SampleRate {
		return pitch.Result{}, 0, fmt.Errorf("unsupported sample rate %d (expected %d)", sampleRate, pitch.SampleRate)
	}
	audioDuration := float64(len(samples)) / float64(pitch.SampleRate)

	trimmed, trimOffsetS := pitch.Preprocess(samples)

	p.setProgress(job.ID, jobstore.ProgressPitchCore, logger)

	modelSize := pitch.ModelSize(job.ModelSize)
	freq, periodicity, err := p.estimator.Estimate(context.Background(), trimmed, pitch.SampleRate, modelSize, estimator.DefaultFMin, estimator.DefaultFMax)
	if err != nil {
		return pitch.Result{}, 0, fmt.Errorf("estimate pitch: %w", err)
	}
	rawFrames, err := estimator.ToPitchFrames(freq, periodicity)
	if err != nil {
		return pitch.Result{}, 0, fmt.Errorf("pack pitch frames: %w", err)
	}

	p.setProgress(job.ID, jobstore.ProgressNoteLogic, logger)

	opts := pitch.DefaultOptions()
	opts.ConfidenceThreshold = job.ConfidenceThreshold

	result, err := pitch.Run(trimmed, rawFrames, trimOffsetS, opts)
	if err != nil {
		return pitch.Result{}, 0, fmt.Errorf("run pipeline: %w", err)
	}

	return result, audioDuration, nil
}

func (p *Pool) setProgress(jobID string, pct int, logger *slog.Logger) {
	if err := p.db.UpdateProgress(jobID, pct); err != nil {
		logger.Warn("failed to update progress", "error", err)
	}
}

func (p *Pool) fail(jobID string, err error, logger *slog.Logger) {
	logger.Error("job failed", "error", err)
	if failErr := p.db.FailJob(jobID, err.Error()); failErr != nil {
		logger.Error("failed to record job failure", "error", failErr)
	}
}
