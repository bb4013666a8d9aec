package sqldb

import (
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// buildSQLiteDSN opens the database file read-write without creating it, so
// probing a wrong path does not leave an empty database behind.
func buildSQLiteDSN(cfg model.ConnectionConfig, timeout time.Duration) (string, error) {
	if cfg.Database == "" {
		return "", errors.New("sqlite database path is required")
	}
	return fmt.Sprintf("file:%s?mode=rw&_pragma=busy_timeout(%d)", cfg.Database, timeout.Milliseconds()), nil
}
