package sqllog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"libcommon/pkg/observability"
)

// OpenDB opens a PostgreSQL handle for dsn. Statement logging is attached
// only when cfg.Enabled; SQL metrics are recorded whenever metrics is set.
func OpenDB(dsn string, cfg Config, logger *slog.Logger, metrics *observability.Metrics) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var listener *Listener
	if cfg.Enabled {
		logger.Info("Initializing SQL statement logging", "profiles", strings.Join(cfg.Profiles, ","))
		listener = NewListener(cfg, logger)
	}
	if listener != nil || metrics != nil {
		connCfg.Tracer = NewTracer(listener, metrics)
	}

	return stdlib.OpenDB(*connCfg), nil
}
