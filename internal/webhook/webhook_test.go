package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendDeliversSignedPayloadOnFirstSuccess(t *testing.T) {
	var gotBody []byte
	var gotSignature string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(2*time.Second, 3, "topsecret", testLogger())
	err := sender.Send(context.Background(), server.URL, "job-1", Data{NotesDetected: 5, AudioDuration: 12.5})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	var payload Payload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal delivered body: %v", err)
	}
	if payload.JobID != "job-1" || payload.Event != "job.completed" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.Data.NotesDetected != 5 {
		t.Errorf("expected notes_detected=5, got %d", payload.Data.NotesDetected)
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Errorf("expected signature %s, got %s", want, gotSignature)
	}
}

func TestSendFailsAfterExhaustingRetriesOnPersistentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewSender(2*time.Second, 1, "secret", testLogger())
	err := sender.Send(context.Background(), server.URL, "job-1", Data{})
	if err == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
}

func TestSendRecoversAfterATransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(2*time.Second, 3, "secret", testLogger())
	err := sender.Send(context.Background(), server.URL, "job-1", Data{})
	if err != nil {
		t.Fatalf("expected success after a transient failure, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts)
	}
}

func TestSendAbortsOnContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := NewSender(2*time.Second, 5, "secret", testLogger())
	err := sender.Send(ctx, server.URL, "job-1", Data{})
	if err == nil {
		t.Fatal("expected an error when the context is already canceled")
	}
}

func TestBackoffGrowsExponentially(t *testing.T) {
	cases := map[int]time.Duration{
		0: 1 * time.Second,
		1: 2 * time.Second,
		2: 4 * time.Second,
		3: 8 * time.Second,
	}
	for attempt, want := range cases {
		if got := backoff(attempt); got != want {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestSignProducesCanonicalHexPrefix(t *testing.T) {
	sig := sign([]byte(`{"a":1}`), "secret")
	if len(sig) < len("sha256=") || sig[:7] != "sha256=" {
		t.Errorf("expected a sha256= prefixed signature, got %s", sig)
	}
}
