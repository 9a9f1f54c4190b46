package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"libcommon/pkg/filter"
	"libcommon/pkg/logctx"
	"libcommon/pkg/pagination"
)

// LoggedStore logs every call to the wrapped store: entry and exit at
// debug level, failures at error level with their root cause.
type LoggedStore struct {
	next   Store
	logger *slog.Logger
}

// WithCallLogging wraps next. A nil logger uses slog.Default.
func WithCallLogging(next Store, logger *slog.Logger) *LoggedStore {
	return &LoggedStore{next: next, logger: logger}
}

func (s *LoggedStore) Create(ctx context.Context, item Item) error {
	return logctx.Do(ctx, s.logger, "catalog.Store.Create", []any{item}, func(ctx context.Context) error {
		return s.next.Create(ctx, item)
	})
}

func (s *LoggedStore) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	return logctx.Call(ctx, s.logger, "catalog.Store.Get", []any{id}, func(ctx context.Context) (Item, error) {
		return s.next.Get(ctx, id)
	})
}

func (s *LoggedStore) List(ctx context.Context, where *filter.Spec[Item], pageable pagination.Pageable) (*pagination.Page[Item], error) {
	return logctx.Call(ctx, s.logger, "catalog.Store.List", []any{pageable}, func(ctx context.Context) (*pagination.Page[Item], error) {
		return s.next.List(ctx, where, pageable)
	})
}

// Ready is not logged; it runs on every readiness check.
func (s *LoggedStore) Ready(ctx context.Context) error {
	return s.next.Ready(ctx)
}
