// Package sqllog logs every executed SQL statement with its timing and row
// counts, optionally with parameters inlined for local debugging.
package sqllog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config controls statement logging.
type Config struct {
	Enabled        bool
	ShowParameters bool
	Profiles       []string
}

// DevProfile reports whether any profile is dev or local.
func (c Config) DevProfile() bool {
	for _, p := range c.Profiles {
		p = strings.TrimSpace(p)
		if strings.EqualFold(p, "dev") || strings.EqualFold(p, "local") {
			return true
		}
	}
	return false
}

// QueryInfo is one statement and the parameter sets it ran with; a batch
// of the same statement has several sets.
type QueryInfo struct {
	SQL  string
	Args [][]any
}

// ExecutionInfo describes one execution. Columns is negative when the
// driver does not report result-set metadata.
type ExecutionInfo struct {
	Elapsed   time.Duration
	BatchSize int
	ResultSet bool
	Columns   int
	Rows      int64
	Err       error
}

// Listener formats executions and writes them to its logger.
type Listener struct {
	logger *slog.Logger
	inline bool
}

// NewListener creates a Listener. Parameters are inlined only in dev or
// local profiles; elsewhere a request for them is ignored with a warning,
// and enabling statement logging at all outside dev or local is warned
// about.
func NewListener(cfg Config, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	profiles := strings.Join(cfg.Profiles, ",")
	dev := cfg.DevProfile()
	show := cfg.ShowParameters

	if !dev {
		if show {
			logger.Warn(fmt.Sprintf("Parameter logging is ENABLED in non-dev environment [%s]; ignoring inline parameters for safety.", profiles))
			show = false
		}
		logger.Warn(fmt.Sprintf("SQL logging is ENABLED in non-dev environment [%s]; consider disabling before production.", profiles))
	}

	return &Listener{logger: logger, inline: dev && show}
}

// InlineParameters reports whether parameter values are inlined.
func (l *Listener) InlineParameters() bool {
	return l.inline
}

// AfterQuery logs one execution of queries.
func (l *Listener) AfterQuery(ctx context.Context, exec ExecutionInfo, queries []QueryInfo) {
	line := l.Format(exec, queries)
	if exec.Err != nil {
		l.logger.WarnContext(ctx, line, "error", exec.Err)
		return
	}
	l.logger.InfoContext(ctx, line)
}

// Format renders the log line for an execution.
func (l *Listener) Format(exec ExecutionInfo, queries []QueryInfo) string {
	raw := rawSQL(queries)
	query := normalize(raw)
	if l.inline && hasPlaceholder(raw) {
		query = inlineParams(raw, queries)
	}

	bs := ""
	if exec.BatchSize > 1 {
		bs = fmt.Sprintf(" batchSize=%d", exec.BatchSize)
	}
	ms := exec.Elapsed.Milliseconds()

	switch {
	case exec.ResultSet && exec.Columns >= 0:
		return fmt.Sprintf("Query: %s | cols=%d%s time=%dms", query, exec.Columns, bs, ms)
	case exec.ResultSet:
		return fmt.Sprintf("Query: %s | rows=%d%s time=%dms", query, exec.Rows, bs, ms)
	default:
		return fmt.Sprintf("Query: %s | rowsAffected=%d%s time=%dms", query, exec.Rows, bs, ms)
	}
}

func rawSQL(queries []QueryInfo) string {
	parts := make([]string, 0, len(queries))
	for _, q := range queries {
		parts = append(parts, q.SQL)
	}
	return strings.Join(parts, " ; ")
}

func normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
