package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss before set
	_, hit, err := c.Get(ctx, "arrange:abc")
	if err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	// Roundtrip
	if err := c.Set(ctx, "arrange:abc", []byte("groups"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "arrange:abc")
	if err != nil || !hit {
		t.Fatalf("expected hit, hit=%v err=%v", hit, err)
	}
	if string(data) != "groups" {
		t.Errorf("Get = %q, want %q", data, "groups")
	}

	// Expired entries are misses
	if err := c.Set(ctx, "arrange:old", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "arrange:old")
	if hit {
		t.Error("expired entry should be a miss")
	}

	// Delete is idempotent
	if err := c.Delete(ctx, "arrange:abc"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Delete(ctx, "arrange:abc"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "arrange:abc")
	if hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// Tuning changes the arrangement key
	ak1 := k.ArrangementKey("hash123", ArrangementKeyOpts{Tuning: []int{40, 45, 50, 55, 59, 64}, MaxFret: 24})
	ak2 := k.ArrangementKey("hash123", ArrangementKeyOpts{Tuning: []int{38, 45, 50, 55, 59, 64}, MaxFret: 24})
	if ak1 == ak2 {
		t.Error("Different tunings should produce different keys")
	}

	// Line capacity changes the layout key
	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{LineCapacity: 8, LinesPerPage: 4})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{LineCapacity: 12, LinesPerPage: 4})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	// Format changes the artifact key
	fk1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	fk2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "txt"})
	if fk1 == fk2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "deploy:eu:")

	key := scoped.ArrangementKey("hash123", ArrangementKeyOpts{})
	if len(key) < 10 || key[:10] != "deploy:eu:" {
		t.Errorf("ScopedKeyer key should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.LayoutKey("h", LayoutKeyOpts{})
	if key[:7] != "prefix:" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	base := errors.New("boom")
	re := Retryable(base)
	if !IsRetryable(re) {
		t.Error("IsRetryable should be true for wrapped errors")
	}
	if IsRetryable(base) {
		t.Error("IsRetryable should be false for plain errors")
	}
	if !errors.Is(re, base) {
		t.Error("wrapped error should unwrap to base")
	}
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("fatal")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for non-retryable error", calls)
	}
}
