package jobstore

import "testing"

func TestPutBlobAndGetBlobRoundTrip(t *testing.T) {
	db := openTestDB(t)

	hash, err := db.PutBlob(KindAudio, []byte("some audio bytes"))
	if err != nil {
		t.Fatalf("put blob: %v", err)
	}
	if hash == "" {
		t.Fatal("expected a non-empty content hash")
	}

	data, err := db.GetBlob(hash)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if string(data) != "some audio bytes" {
		t.Errorf("expected round-tripped bytes, got %q", data)
	}
}

func TestPutBlobIsContentAddressed(t *testing.T) {
	db := openTestDB(t)

	h1, err := db.PutBlob(KindJSON, []byte("identical"))
	if err != nil {
		t.Fatalf("put blob 1: %v", err)
	}
	h2, err := db.PutBlob(KindJSON, []byte("identical"))
	if err != nil {
		t.Fatalf("put blob 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected identical content to hash to the same address, got %s and %s", h1, h2)
	}
}

func TestPutBlobDistinctContentYieldsDistinctHashes(t *testing.T) {
	db := openTestDB(t)

	h1, err := db.PutBlob(KindMIDI, []byte("alpha"))
	if err != nil {
		t.Fatalf("put blob 1: %v", err)
	}
	h2, err := db.PutBlob(KindMIDI, []byte("beta"))
	if err != nil {
		t.Fatalf("put blob 2: %v", err)
	}
	if h1 == h2 {
		t.Error("expected distinct content to hash to distinct addresses")
	}
}

func TestGetBlobReturnsErrorForUnknownHash(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetBlob("0000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected an error for an unknown blob hash")
	}
}
