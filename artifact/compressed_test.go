package artifact

import (
	"bytes"
	"errors"
	"testing"
)

func TestCompressedStore_RoundTrip(t *testing.T) {
	inner := NewInMemoryStore()
	svc, err := NewCompressedStore(inner)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer svc.Close()

	data := bytes.Repeat([]byte(`{"move":"left"}`), 200)
	if err := svc.Save("m1", TranscriptName, data); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := inner.Get("m1", TranscriptName)
	if err != nil {
		t.Fatalf("inner get: %v", err)
	}
	if len(raw) >= len(data) {
		t.Fatalf("expected compressed bytes, got %d >= %d", len(raw), len(data))
	}

	out, err := svc.Get("m1", TranscriptName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch")
	}

	ids, _ := svc.List("m1")
	if len(ids) != 1 || ids[0] != TranscriptName {
		t.Fatalf("unexpected list %v", ids)
	}
	if err := svc.Delete("m1", TranscriptName); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get("m1", TranscriptName); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompressedStore_CorruptData(t *testing.T) {
	inner := NewInMemoryStore()
	svc, err := NewCompressedStore(inner)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer svc.Close()

	if err := inner.Save("m1", "raw", []byte("not zstd")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get("m1", "raw"); err == nil {
		t.Fatalf("expected decompress error")
	}
}

func TestCompressedStore_Transcript(t *testing.T) {
	svc, err := NewCompressedStore(NewInMemoryStore())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer svc.Close()

	if err := SaveTranscript(svc, "m1", nil); err != nil {
		t.Fatalf("save transcript: %v", err)
	}
	tr, err := LoadTranscript(svc, "m1")
	if err != nil {
		t.Fatalf("load transcript: %v", err)
	}
	if tr.MatchID != "m1" || len(tr.Rounds) != 0 {
		t.Fatalf("unexpected transcript %+v", tr)
	}
}
