package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/kickstart/internal/application"
	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

func newTestSetupSession(sess *mockSession) (*application.SetupSession, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return application.NewSetupSession(sess, clock.Now), clock
}

func TestSetupSession_CSRFToken_StableWithinSession(t *testing.T) {
	ctx := context.Background()
	sess := newMockSession()
	s, _ := newTestSetupSession(sess)

	first, err := s.CSRFToken(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := s.CSRFToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, sess.values[application.CSRFSessionKey])
}

func TestSetupSession_ValidateCSRF(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSetupSession(newMockSession())

	token, err := s.CSRFToken(ctx)
	require.NoError(t, err)
	require.Len(t, token, 32)

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{name: "matching token", submitted: token, want: true},
		{name: "empty token", submitted: "", want: false},
		{name: "wrong token", submitted: "0123456789abcdef0123456789abcdef", want: false},
		{name: "prefix of token", submitted: token[:10], want: false},
		{name: "token plus suffix", submitted: token + "0", want: false},
		// Same-length inputs take the subtle.ConstantTimeCompare path, which
		// reads every byte whether the first or the last one differs.
		{name: "same length, first byte differs", submitted: flipHexAt(token, 0), want: false},
		{name: "same length, last byte differs", submitted: flipHexAt(token, len(token)-1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.ValidateCSRF(ctx, tt.submitted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSetupSession_ValidateCSRF_NoStoredToken(t *testing.T) {
	s, _ := newTestSetupSession(newMockSession())

	ok, err := s.ValidateCSRF(context.Background(), "anything")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetupSession_RegenerateCSRF(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSetupSession(newMockSession())

	old, err := s.CSRFToken(ctx)
	require.NoError(t, err)
	require.NoError(t, s.RegenerateCSRF(ctx))

	ok, err := s.ValidateCSRF(ctx, old)
	require.NoError(t, err)
	assert.False(t, ok, "old token must not validate after regeneration")

	fresh, err := s.CSRFToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh)
}

func TestSetupSession_RateLimit_BlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestSetupSession(newMockSession())

	for i := range application.MaxSetupAttempts {
		allowed, err := s.CheckRateLimit(ctx)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
		require.NoError(t, s.RecordFailedAttempt(ctx))
		clock.Advance(time.Second)
	}

	allowed, err := s.CheckRateLimit(ctx)
	require.NoError(t, err)
	assert.False(t, allowed)

	remaining, err := s.RemainingAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestSetupSession_RateLimit_ExpiredAttemptsArePruned(t *testing.T) {
	ctx := context.Background()
	sess := newMockSession()
	s, clock := newTestSetupSession(sess)

	old := clock.Now().Add(-901 * time.Second)
	window := model.RateLimitWindow{}
	for range 4 {
		window = window.Record(old)
	}
	sess.values[application.AttemptsSessionKey] = window.Encode()

	allowed, err := s.CheckRateLimit(ctx)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, "[]", sess.values[application.AttemptsSessionKey])

	require.NoError(t, s.RecordFailedAttempt(ctx))
	remaining, err := s.RemainingAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestSetupSession_RateLimit_WindowBoundary(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestSetupSession(newMockSession())

	for range application.MaxSetupAttempts {
		require.NoError(t, s.RecordFailedAttempt(ctx))
	}

	clock.Advance(application.SetupAttemptWindow - time.Second)
	allowed, err := s.CheckRateLimit(ctx)
	require.NoError(t, err)
	assert.False(t, allowed, "attempts inside the window still count")

	clock.Advance(time.Second)
	allowed, err = s.CheckRateLimit(ctx)
	require.NoError(t, err)
	assert.True(t, allowed, "attempts exactly one window old are pruned")
}

func TestSetupSession_ClearRateLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSetupSession(newMockSession())

	for range 3 {
		require.NoError(t, s.RecordFailedAttempt(ctx))
	}
	require.NoError(t, s.ClearRateLimit(ctx))

	remaining, err := s.RemainingAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, application.MaxSetupAttempts, remaining)
}

func TestSetupSession_MalformedAttemptsTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	sess := newMockSession()
	sess.values[application.AttemptsSessionKey] = "not json"
	s, _ := newTestSetupSession(sess)

	allowed, err := s.CheckRateLimit(ctx)

	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSetupSession_SessionErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	sess := newMockSession()
	sess.readErr = errors.New("backend down")
	s, _ := newTestSetupSession(sess)

	_, err := s.CSRFToken(ctx)
	assert.ErrorContains(t, err, "backend down")

	_, err = s.CheckRateLimit(ctx)
	assert.ErrorContains(t, err, "backend down")
}

// flipHexAt returns token with the hex digit at i replaced by another one.
func flipHexAt(token string, i int) string {
	b := []byte(token)
	if b[i] == '0' {
		b[i] = '1'
	} else {
		b[i] = '0'
	}
	return string(b)
}
