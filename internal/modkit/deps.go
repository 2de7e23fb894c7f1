package modkit

import (
	"database/sql"

	"enrollcam/internal/platform/config"
	"enrollcam/internal/platform/logger"
	"enrollcam/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// Storage fields are nil when the backend is disabled; modules must check
type Deps struct {
	Log  logger.Logger
	Cfg  config.Conf
	PG   store.TxRunner
	CH   store.Clickhouse
	Lite *sql.DB
}

// FromStore copies the opened backends into Deps
func FromStore(log logger.Logger, cfg config.Conf, s *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if s != nil {
		d.PG, d.CH, d.Lite = s.PG, s.CH, s.Lite
	}
	return d
}
