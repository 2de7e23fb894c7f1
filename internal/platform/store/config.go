package store

import (
	"time"

	"enrollcam/internal/platform/config"
)

// Config aggregates per backend configuration; a backend with an empty URL or path stays off
type Config struct {
	AppName string

	PG     PGConfig
	CH     CHConfig
	SQLite SQLiteConfig
}

// PGConfig configures the enrollment attempt ledger
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures the capture statistics sink
type CHConfig struct {
	Enabled   bool
	URL       string
	ClientTag string
}

// SQLiteConfig configures the on-device template cache database
type SQLiteConfig struct {
	Enabled bool
	Path    string
}

// ConfigFromEnv reads STORE_* keys, eg STORE_PG_URL, STORE_CH_URL, STORE_SQLITE_PATH
func ConfigFromEnv(cfg config.Conf, appName string) Config {
	c := cfg.Prefix("STORE_")
	pgURL := c.MayString("PG_URL", "")
	chURL := c.MayString("CH_URL", "")
	litePath := c.MayString("SQLITE_PATH", "")
	return Config{
		AppName: appName,
		PG: PGConfig{
			Enabled:        pgURL != "",
			URL:            pgURL,
			MaxConns:       int32(c.MayInt("PG_MAX_CONNS", 4)),
			LogSQL:         c.MayBool("PG_LOG_SQL", false),
			SlowQueryMs:    c.MayInt("PG_SLOW_MS", 200),
			ConnectRetries: c.MayInt("PG_CONNECT_RETRIES", 6),
			PingTimeout:    c.MayDuration("PG_PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled:   chURL != "",
			URL:       chURL,
			ClientTag: c.MayString("CH_CLIENT_TAG", appName),
		},
		SQLite: SQLiteConfig{
			Enabled: litePath != "",
			Path:    litePath,
		},
	}
}
