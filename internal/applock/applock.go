// Package applock implements the optional app passcode: a bcrypt hash kept
// in the preferences collection, verified by the shell before it unlocks
// the journal UI. This protects against a curious person holding the
// unlocked phone, not against a forensic attacker.
package applock

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mhollis/serenity/internal/storage"
)

const passcodeHashKey = "passcodeHash"

const minPasscodeLen = 4

// Lock manages the stored passcode hash.
type Lock struct {
	store *storage.Adapter
}

// New creates a Lock over the given storage adapter.
func New(store *storage.Adapter) *Lock {
	return &Lock{store: store}
}

// Enabled reports whether a passcode is currently set.
func (l *Lock) Enabled(ctx context.Context) bool {
	hash, _ := l.store.GetPreference(ctx, passcodeHashKey).(string)
	return hash != ""
}

// Set hashes and stores a new passcode, replacing any existing one.
func (l *Lock) Set(ctx context.Context, passcode string) error {
	passcode = strings.TrimSpace(passcode)
	if len(passcode) < minPasscodeLen {
		return fmt.Errorf("passcode must be at least %d characters", minPasscodeLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}
	if err := l.store.SetPreference(ctx, passcodeHashKey, string(hash)); err != nil {
		return fmt.Errorf("store passcode: %w", err)
	}
	return nil
}

// Verify reports whether the passcode matches the stored hash. It returns
// false when no passcode is set.
func (l *Lock) Verify(ctx context.Context, passcode string) bool {
	hash, _ := l.store.GetPreference(ctx, passcodeHashKey).(string)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(passcode))) == nil
}

// Clear removes the stored passcode.
func (l *Lock) Clear(ctx context.Context) error {
	if err := l.store.SetPreference(ctx, passcodeHashKey, ""); err != nil {
		return fmt.Errorf("clear passcode: %w", err)
	}
	return nil
}
