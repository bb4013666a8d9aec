// Package redis implements the CachePinger port with go-redis.
package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CachePinger = (*Pinger)(nil)

// Pinger checks a Redis server with a single, non-retrying connection.
type Pinger struct{}

// NewPinger creates a Pinger.
func NewPinger() *Pinger {
	return &Pinger{}
}

// Ping connects to host:port, sends PING and reads the server version from
// INFO. Every network step is bounded by timeout.
func (p *Pinger) Ping(ctx context.Context, host, port string, timeout time.Duration) (driven.CacheInfo, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         net.JoinHostPort(host, port),
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     1,
		MaxRetries:   -1,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return driven.CacheInfo{}, fmt.Errorf("ping %s: %w", net.JoinHostPort(host, port), err)
	}

	info := driven.CacheInfo{Host: host, Port: port, Version: "unknown"}
	raw, err := client.Info(ctx, "server").Result()
	if err != nil {
		// A server that answers PING but restricts INFO is still usable.
		return info, nil
	}
	if v := infoField(raw, "redis_version"); v != "" {
		info.Version = v
	}
	return info, nil
}

// infoField extracts a "key:value" line from an INFO reply.
func infoField(raw, key string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, key+":"); ok {
			return v
		}
	}
	return ""
}
