package sqldb

import (
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// buildMySQLDSN constructs a MySQL DSN from a ConnectionConfig.
func buildMySQLDSN(cfg model.ConnectionConfig, timeout time.Duration) string {
	port := cfg.Port
	if port == "" {
		port = model.DriverMySQL.DefaultPort()
	}

	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, port)
	c.DBName = cfg.Database
	c.Timeout = timeout
	c.ReadTimeout = timeout
	c.WriteTimeout = timeout
	c.ParseTime = true
	return c.FormatDSN()
}
