package sqldb

import (
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// buildPostgresDSN constructs a key/value Postgres connection string.
func buildPostgresDSN(cfg model.ConnectionConfig, timeout time.Duration) string {
	port := cfg.Port
	if port == "" {
		port = model.DriverPostgres.DefaultPort()
	}
	// connect_timeout is whole seconds; anything under one rounds up.
	seconds := int(math.Ceil(timeout.Seconds()))

	pairs := []string{
		"host=" + quotePostgres(cfg.Host),
		"port=" + quotePostgres(port),
		"user=" + quotePostgres(cfg.Username),
		"password=" + quotePostgres(cfg.Password),
		"dbname=" + quotePostgres(cfg.Database),
		"sslmode=disable",
		fmt.Sprintf("connect_timeout=%d", max(1, seconds)),
	}
	return strings.Join(pairs, " ")
}

// quotePostgres single-quotes a value, escaping backslashes and quotes.
func quotePostgres(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
