package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"libcommon/pkg/filter"
	"libcommon/pkg/observability"
	"libcommon/pkg/pagination"
	"libcommon/pkg/sqllog"
)

const uniqueViolation = "23505"

// sortColumns maps API sort fields to columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price",
}

// PostgresStore keeps items in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig configures OpenPostgres.
type PostgresConfig struct {
	DatabaseURL    string
	MigrationsPath string // Migrations are skipped when empty
	SQL            sqllog.Config
	Logger         *slog.Logger
	Metrics        *observability.Metrics
}

// OpenPostgres connects with statement logging as configured, applies
// pending migrations and verifies the connection.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.MigrationsPath != "" {
		if err := Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return nil, err
		}
	}

	db, err := sqllog.OpenDB(cfg.DatabaseURL, cfg.SQL, cfg.Logger, cfg.Metrics)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the migrations in dir to the database.
func Migrate(databaseURL, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve migration path: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migration runner: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			slog.Warn("Migration source close failed", "error", sourceErr)
		}
		if dbErr != nil {
			slog.Warn("Migration database close failed", "error", dbErr)
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("Database migrations up to date")
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	default:
		slog.Info("Database migrations applied")
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, item Item) error {
	const query = `
INSERT INTO items (id, name, category, price, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := s.db.ExecContext(ctx, query, item.ID, item.Name, item.Category, item.Price, item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	const query = `
SELECT id, name, category, price, created_at
FROM items
WHERE id = $1
`
	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) List(ctx context.Context, where *filter.Spec[Item], pageable pagination.Pageable) (*pagination.Page[Item], error) {
	clause, args := filter.Where(where)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM items `+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	n := len(args)
	query := `
SELECT id, name, category, price, created_at
FROM items
` + clause + `
` + pageable.OrderBy(sortColumns) + `
LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2) + `
`
	rows, err := s.db.QueryContext(ctx, query, append(args, pageable.Limit(), pageable.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, pageable.Limit())
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return pagination.NewPage(items, pageable, total), nil
}

// Ready pings the database.
func (s *PostgresStore) Ready(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.CreatedAt)
	item.CreatedAt = item.CreatedAt.UTC()
	return item, err
}
