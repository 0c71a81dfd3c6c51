package jobstore

import (
	"database/sql"
	"fmt"
	"time"
)

// Status is the lifecycle state of a transcription job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Progress percentages reported between pipeline stages.
const (
	ProgressQueued     = 0
	ProgressPreprocess = 10
	ProgressPitchCore  = 30
	ProgressNoteLogic  = 60
	ProgressRendering  = 90
	ProgressDone       = 100
)

// sqliteTimeLayout matches SQLite's CURRENT_TIMESTAMP default rendering.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Job is one row of the transcription job queue.
type Job struct {
	ID                  string
	Status              Status
	ModelSize            string
	ConfidenceThreshold float64
	AudioBlobHash       string
	InputFileName       string
	WebhookURL          string
	Progress            int
	ResultJSON          string
	MIDIBlobHash        string
	JSONBlobHash        string
	Error               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateJob inserts a new pending job for the uploaded audio blob
// identified by audioBlobHash.
func (d *DB) CreateJob(id, modelSize string, confidenceThreshold float64, audioBlobHash, inputFileName, webhookURL string) error {
	_, err := d.db.Exec(`
		INSERT INTO jobs (id, status, model_size, confidence_threshold, audio_blob_hash, input_file_name, webhook_url, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, string(StatusPending), modelSize, confidenceThreshold, audioBlobHash, inputFileName, webhookURL, ProgressQueued)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetJob fetches a job by id.
func (d *DB) GetJob(id string) (*Job, error) {
	row := d.db.QueryRow(`
		SELECT id, status, model_size, confidence_threshold, audio_blob_hash, input_file_name,
		       webhook_url, progress, result_json, midi_blob_hash, json_blob_hash, error,
		       created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	j := &Job{}
	var status, webhookURL, resultJSON, midiHash, jsonHash, jobErr sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &status, &j.ModelSize, &j.ConfidenceThreshold, &j.AudioBlobHash, &j.InputFileName,
		&webhookURL, &j.Progress, &resultJSON, &midiHash, &jsonHash, &jobErr, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	j.Status = Status(status.String)
	j.WebhookURL = webhookURL.String
	j.ResultJSON = resultJSON.String
	j.MIDIBlobHash = midiHash.String
	j.JSONBlobHash = jsonHash.String
	j.Error = jobErr.String
	j.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	j.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
	return j, nil
}

// ClaimNextPending atomically claims the oldest pending job, marking it
// processing, and returns nil if none is available.
func (d *DB) ClaimNextPending() (*Job, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback()

	var id string
	row := tx.QueryRow(`SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC LIMIT 1`, string(StatusPending))
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("select pending job: %w", err)
	}

	if _, err := tx.Exec(`UPDATE jobs SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(StatusProcessing), id); err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	return d.GetJob(id)
}

// UpdateProgress advances a processing job's progress percentage.
func (d *DB) UpdateProgress(id string, progress int) error {
	_, err := d.db.Exec(`UPDATE jobs SET progress = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, progress, id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// CompleteJob marks a job completed with its rendered JSON result and
// output artifact blob hashes.
func (d *DB) CompleteJob(id, resultJSON, midiBlobHash, jsonBlobHash string) error {
	_, err := d.db.Exec(`
		UPDATE jobs SET status = ?, progress = ?, result_json = ?, midi_blob_hash = ?, json_blob_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(StatusCompleted), ProgressDone, resultJSON, midiBlobHash, jsonBlobHash, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// FailJob marks a job failed with an error message.
func (d *DB) FailJob(id, errMsg string) error {
	_, err := d.db.Exec(`UPDATE jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(StatusFailed), errMsg, id)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}
