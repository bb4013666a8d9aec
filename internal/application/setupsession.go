package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// Session keys owned by the setup wizard.
const (
	CSRFSessionKey     = "_setup_csrf"
	AttemptsSessionKey = "_setup_attempts"
)

const (
	// SetupAttemptWindow is the sliding window for counting setup attempts.
	SetupAttemptWindow = 900 * time.Second
	// MaxSetupAttempts is the number of attempts allowed within the window.
	MaxSetupAttempts = 5

	csrfTokenBytes = 16
)

// SetupSession keeps the wizard's CSRF token and attempt window in the
// client's session. The read-modify-write sequences are not atomic across
// concurrent requests of the same session.
type SetupSession struct {
	session driven.Session
	now     func() time.Time
}

// NewSetupSession binds the setup state to a client session. now defaults to
// time.Now when nil.
func NewSetupSession(session driven.Session, now func() time.Time) *SetupSession {
	if now == nil {
		now = time.Now
	}
	return &SetupSession{session: session, now: now}
}

// CSRFToken returns the session's token, minting one on first use.
func (s *SetupSession) CSRFToken(ctx context.Context) (string, error) {
	token, ok, err := s.session.Read(ctx, CSRFSessionKey)
	if err != nil {
		return "", fmt.Errorf("read csrf token: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}

	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	token = hex.EncodeToString(b)

	if err := s.session.Write(ctx, CSRFSessionKey, token); err != nil {
		return "", fmt.Errorf("store csrf token: %w", err)
	}
	return token, nil
}

// ValidateCSRF reports whether submitted equals the stored token. The
// comparison runs in constant time for equal-length inputs.
func (s *SetupSession) ValidateCSRF(ctx context.Context, submitted string) (bool, error) {
	stored, ok, err := s.session.Read(ctx, CSRFSessionKey)
	if err != nil {
		return false, fmt.Errorf("read csrf token: %w", err)
	}
	if !ok || stored == "" || submitted == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1, nil
}

// RegenerateCSRF discards the stored token so the next form gets a new one.
func (s *SetupSession) RegenerateCSRF(ctx context.Context) error {
	if err := s.session.Delete(ctx, CSRFSessionKey); err != nil {
		return fmt.Errorf("delete csrf token: %w", err)
	}
	return nil
}

// CheckRateLimit prunes expired attempts, stores the pruned window, and
// reports whether another attempt is allowed.
func (s *SetupSession) CheckRateLimit(ctx context.Context) (bool, error) {
	window, err := s.prunedWindow(ctx)
	if err != nil {
		return false, err
	}
	if err := s.storeWindow(ctx, window); err != nil {
		return false, err
	}
	return len(window.Attempts) < MaxSetupAttempts, nil
}

// RecordFailedAttempt adds the current time to the attempt window.
func (s *SetupSession) RecordFailedAttempt(ctx context.Context) error {
	window, err := s.prunedWindow(ctx)
	if err != nil {
		return err
	}
	return s.storeWindow(ctx, window.Record(s.now()))
}

// ClearRateLimit forgets every recorded attempt.
func (s *SetupSession) ClearRateLimit(ctx context.Context) error {
	if err := s.session.Delete(ctx, AttemptsSessionKey); err != nil {
		return fmt.Errorf("delete setup attempts: %w", err)
	}
	return nil
}

// RemainingAttempts returns how many attempts are left in the current window.
func (s *SetupSession) RemainingAttempts(ctx context.Context) (int, error) {
	window, err := s.prunedWindow(ctx)
	if err != nil {
		return 0, err
	}
	return window.Remaining(MaxSetupAttempts), nil
}

func (s *SetupSession) prunedWindow(ctx context.Context) (model.RateLimitWindow, error) {
	raw, _, err := s.session.Read(ctx, AttemptsSessionKey)
	if err != nil {
		return model.RateLimitWindow{}, fmt.Errorf("read setup attempts: %w", err)
	}
	return model.DecodeRateLimitWindow(raw).Prune(s.now(), SetupAttemptWindow), nil
}

func (s *SetupSession) storeWindow(ctx context.Context, window model.RateLimitWindow) error {
	if err := s.session.Write(ctx, AttemptsSessionKey, window.Encode()); err != nil {
		return fmt.Errorf("store setup attempts: %w", err)
	}
	return nil
}
