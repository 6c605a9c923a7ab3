package applock

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mhollis/serenity/internal/storage"
)

func setupLock(t *testing.T) *Lock {
	t.Helper()
	// Empty DBPath probes straight to the in-memory SQLite engine.
	store, err := storage.Open(storage.Config{FallbackDir: t.TempDir()}, slog.Default())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestPasscodeLifecycle(t *testing.T) {
	lock := setupLock(t)
	ctx := context.Background()

	if lock.Enabled(ctx) {
		t.Error("lock should start disabled")
	}
	if lock.Verify(ctx, "1234") {
		t.Error("verify should fail with no passcode set")
	}

	if err := lock.Set(ctx, "1234"); err != nil {
		t.Fatalf("set passcode: %v", err)
	}
	if !lock.Enabled(ctx) {
		t.Error("lock should be enabled after set")
	}
	if !lock.Verify(ctx, "1234") {
		t.Error("correct passcode should verify")
	}
	if lock.Verify(ctx, "9999") {
		t.Error("wrong passcode should not verify")
	}

	if err := lock.Clear(ctx); err != nil {
		t.Fatalf("clear passcode: %v", err)
	}
	if lock.Enabled(ctx) {
		t.Error("lock should be disabled after clear")
	}
}

func TestPasscodeTooShort(t *testing.T) {
	lock := setupLock(t)

	if err := lock.Set(context.Background(), "12"); err == nil {
		t.Error("expected error for short passcode")
	}
}
