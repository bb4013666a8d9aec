package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// ErrCacheClientUnavailable is reported when the cache probe is enabled but no
// cache client was wired into the build.
var ErrCacheClientUnavailable = errors.New("cache client support is not available")

// DatabasePinger opens a short-lived connection with the given settings and
// verifies the server answers. The returned error carries the driver message.
type DatabasePinger interface {
	Ping(ctx context.Context, cfg model.ConnectionConfig) error
}

// CacheInfo describes the cache server that answered a ping.
type CacheInfo struct {
	Version string
	Host    string
	Port    string
}

// CachePinger connects to a cache service and reports its version.
type CachePinger interface {
	Ping(ctx context.Context, host, port string, timeout time.Duration) (CacheInfo, error)
}

// AssetInspector answers questions about the frontend build output.
type AssetInspector interface {
	// DevServerURL returns the URL from the dev server marker file, if any.
	DevServerURL() (string, bool)
	// DevServerRunning reports whether the dev server at url answers a HEAD
	// request successfully.
	DevServerRunning(ctx context.Context, url string) bool
	// ManifestExists reports whether the production build manifest exists.
	ManifestExists() bool
	// ManifestPath returns the manifest location for diagnostics.
	ManifestPath() string
}

// Environment looks up configuration values such as environment variables.
type Environment interface {
	Lookup(key string) (string, bool)
}
