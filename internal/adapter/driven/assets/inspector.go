// Package assets implements the AssetInspector port against the frontend
// build output on disk and the asset dev server.
package assets

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// DevServerTimeout bounds the dev server liveness check.
const DevServerTimeout = time.Second

// Compile-time interface satisfaction check.
var _ driven.AssetInspector = (*Inspector)(nil)

// Inspector looks for a running dev server (announced through a marker file)
// or a production build manifest.
type Inspector struct {
	hotFile      string
	manifestPath string
	client       *http.Client
}

// NewInspector creates an Inspector. hotFile is the dev server marker file
// containing the server URL; manifestPath is the production build manifest.
func NewInspector(hotFile, manifestPath string) *Inspector {
	// Dev servers commonly use self-signed certificates.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // liveness check only
	}

	return &Inspector{
		hotFile:      hotFile,
		manifestPath: manifestPath,
		client:       &http.Client{Timeout: DevServerTimeout, Transport: transport},
	}
}

// DevServerURL returns the http(s) URL written to the marker file.
func (i *Inspector) DevServerURL() (string, bool) {
	data, err := os.ReadFile(i.hotFile)
	if err != nil {
		return "", false
	}

	raw := strings.TrimSpace(string(data))
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return raw, true
}

// DevServerRunning sends a HEAD request and reports whether it got a 2xx.
func (i *Inspector) DevServerRunning(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, DevServerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ManifestExists reports whether the build manifest is a regular file.
func (i *Inspector) ManifestExists() bool {
	info, err := os.Stat(i.manifestPath)
	return err == nil && info.Mode().IsRegular()
}

// ManifestPath returns the configured manifest location.
func (i *Inspector) ManifestPath() string {
	return i.manifestPath
}
