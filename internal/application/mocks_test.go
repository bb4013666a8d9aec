package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// --- Mock implementations ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSession struct {
	mu       sync.Mutex
	values   map[string]string
	readErr  error
	writeErr error
}

func newMockSession() *mockSession {
	return &mockSession{values: make(map[string]string)}
}

func (m *mockSession) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockSession) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSession) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type mockCredentialStore struct {
	current  model.ConnectionConfig
	written  []model.ConnectionConfig
	writeErr error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{current: model.DefaultConnectionConfig()}
}

func (m *mockCredentialStore) Read(_ context.Context) model.ConnectionConfig {
	return m.current
}

func (m *mockCredentialStore) Write(_ context.Context, cfg model.ConnectionConfig) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, cfg)
	m.current = cfg
	return nil
}

type mockDatabasePinger struct {
	err   error
	calls []model.ConnectionConfig
}

func (m *mockDatabasePinger) Ping(_ context.Context, cfg model.ConnectionConfig) error {
	m.calls = append(m.calls, cfg)
	return m.err
}

type mockCachePinger struct {
	info  driven.CacheInfo
	err   error
	calls int
	// gotTimeout records the timeout of the last call.
	gotTimeout time.Duration
}

func (m *mockCachePinger) Ping(_ context.Context, host, port string, timeout time.Duration) (driven.CacheInfo, error) {
	m.calls++
	m.gotTimeout = timeout
	if m.err != nil {
		return driven.CacheInfo{}, m.err
	}
	info := m.info
	info.Host, info.Port = host, port
	return info, nil
}

type mockAssetInspector struct {
	devURL     string
	devRunning bool
	manifest   bool
}

func (m *mockAssetInspector) DevServerURL() (string, bool) {
	return m.devURL, m.devURL != ""
}

func (m *mockAssetInspector) DevServerRunning(_ context.Context, _ string) bool {
	return m.devRunning
}

func (m *mockAssetInspector) ManifestExists() bool {
	return m.manifest
}

func (m *mockAssetInspector) ManifestPath() string {
	return "webroot/build/manifest.json"
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")

// fakeClock is a settable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
