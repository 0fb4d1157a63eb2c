package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/danteocualesjr/ai-chatbot/internal/storage"
)

func TestFileKVRoundTrip(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileKV err: %v", err)
	}

	if _, err := kv.Get("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Set("conversations", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	got, err := kv.Get("conversations")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Fatalf("unexpected value: %s", got)
	}

	if err := kv.Remove("conversations"); err != nil {
		t.Fatalf("Remove err: %v", err)
	}
	if _, err := kv.Get("conversations"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestFileKVQuota(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("NewFileKV err: %v", err)
	}

	if err := kv.Set("k", []byte("0123456789!")); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if err := kv.Set("k", []byte("0123456789")); err != nil {
		t.Fatalf("Set within quota err: %v", err)
	}
}

func TestFileKVRemoveAbsentIsNoop(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileKV err: %v", err)
	}
	if err := kv.Remove("never-set"); err != nil {
		t.Fatalf("Remove absent err: %v", err)
	}
}

func TestMemoryKVQuota(t *testing.T) {
	kv := storage.NewMemoryKV(4)

	if err := kv.Set("k", []byte("12345")); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if err := kv.Set("k", []byte("1234")); err != nil {
		t.Fatalf("Set within quota err: %v", err)
	}
}

func TestMemoryKVReturnsCopies(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	if err := kv.Set("k", []byte("abc")); err != nil {
		t.Fatalf("Set err: %v", err)
	}

	got, err := kv.Get("k")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	got[0] = 'x'

	again, err := kv.Get("k")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if string(again) != "abc" {
		t.Fatalf("stored value mutated: %s", again)
	}
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	kv, err := storage.NewSQLiteKV(filepath.Join(t.TempDir(), "kv.db"), 0)
	if err != nil {
		t.Fatalf("NewSQLiteKV err: %v", err)
	}
	defer kv.Close()

	if _, err := kv.Get("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Set("k", []byte("v1")); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if err := kv.Set("k", []byte("v2")); err != nil {
		t.Fatalf("upsert err: %v", err)
	}

	got, err := kv.Get("k")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("unexpected value: %s", got)
	}

	if err := kv.Remove("k"); err != nil {
		t.Fatalf("Remove err: %v", err)
	}
	if _, err := kv.Get("k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestSQLiteKVQuota(t *testing.T) {
	kv, err := storage.NewSQLiteKV(filepath.Join(t.TempDir(), "kv.db"), 3)
	if err != nil {
		t.Fatalf("NewSQLiteKV err: %v", err)
	}
	defer kv.Close()

	if err := kv.Set("k", []byte("1234")); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}
