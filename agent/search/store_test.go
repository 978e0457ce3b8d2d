package search

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testRecord(fp string, dims int) Record {
	return Record{ItemID: "item-" + fp, Fingerprint: fp, Vector: make([]float64, dims)}
}

func TestMemoryStoreRejectsEmptyFingerprint(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	if err := s.Put(Record{ItemID: "x"}); err == nil {
		t.Fatal("expected an error for an empty fingerprint")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewFileStore(dir, "abc123", 4)

	rec := testRecord("fp-1", 4)
	rec.Vector[0] = 0.5
	if err := s.Put(rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	reopened := NewFileStore(dir, "abc123", 4)
	got, ok := reopened.Get("fp-1")
	if !ok {
		t.Fatal("expected the flushed record to survive a reopen")
	}
	if got.Vector[0] != 0.5 {
		t.Fatalf("vector = %v", got.Vector)
	}
}

func TestFileStoreDiscardsCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.emb.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewFileStore(dir, "bad", 4)
	if _, ok := s.Get("anything"); ok {
		t.Fatal("corrupt cache must start empty")
	}

	// The store keeps working after the discard.
	if err := s.Put(testRecord("fp-1", 4)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestFileStoreDiscardsDimensionMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewFileStore(dir, "resto", 4)
	if err := s.Put(testRecord("fp-1", 4)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	// A model change flips the dimensionality and invalidates the file.
	reopened := NewFileStore(dir, "resto", 8)
	if _, ok := reopened.Get("fp-1"); ok {
		t.Fatal("dimension mismatch must discard the cache")
	}
}

func TestFileStoreDiscardsInconsistentRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	payload := filePayload{
		Dimensions: 4,
		Records: map[string]Record{
			"fp-1": {ItemID: "a", Fingerprint: "fp-other", Vector: make([]float64, 4)},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "resto.emb.json"), raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewFileStore(dir, "resto", 4)
	if _, ok := s.Get("fp-1"); ok {
		t.Fatal("a record keyed under the wrong fingerprint must not load")
	}
}

func TestFileStorePutValidatesDimensions(t *testing.T) {
	t.Parallel()

	s := NewFileStore(t.TempDir(), "resto", 4)
	if err := s.Put(testRecord("fp-1", 3)); err == nil {
		t.Fatal("expected a dimensionality error")
	}
	if err := s.Put(Record{Vector: make([]float64, 4)}); err == nil {
		t.Fatal("expected an empty fingerprint error")
	}
}
