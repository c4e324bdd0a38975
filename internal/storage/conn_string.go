package storage

import (
	"net"
	"net/url"
	"strconv"

	"github.com/omerorhan/stay-pricing/internal/config"
)

// inventoryAppName identifies the pricing pool in pg_stat_activity.
const inventoryAppName = "stay-pricing"

// BuildConnString builds the inventory database URL. Sessions are opened read-only: the
// inventory source never writes.
func BuildConnString(cfg config.DBConfig) string {
	port := cfg.Port
	if port == 0 {
		port = config.DefaultDBPort
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", inventoryAppName)
	q.Set("default_transaction_read_only", "on")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
