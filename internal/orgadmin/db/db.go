// Package db implements the persistence gateway for companies, departments and
// employees on top of GORM. It supports PostgreSQL in production and SQLite for
// local runs and tests.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbmodels "github.com/aymens/orgadmin/internal/orgadmin/db/models"
	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Repository is the GORM-backed persistence gateway. A Repository obtained
// inside WithTransaction runs every call on that transaction.
type Repository struct {
	db *gorm.DB
	// readOnlyTx enables read-only transaction options; SQLite ignores them.
	readOnlyTx bool
}

type Config struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// ConnectRetries bounds the attempts made by Connect.
	ConnectRetries int
}

func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite, "":
		dsn := c.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return sqlite.Open(withForeignKeys(dsn)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// withForeignKeys turns on foreign key enforcement, which SQLite leaves off
// by default. The driver applies DSN options to every new connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

// NewRepository opens the database described by cfg and migrates the schema.
func NewRepository(cfg *Config, logger *zap.Logger) (*Repository, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver != DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database pool: %w", err)
		}
		// SQLite serializes writers; a single connection also keeps in-memory databases intact.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(dbmodels.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db, readOnlyTx: cfg.Driver == DriverPostgres}, nil
}

// Connect calls NewRepository with exponential backoff, giving up after
// cfg.ConnectRetries retries or when ctx is done.
func Connect(ctx context.Context, cfg *Config, logger *zap.Logger) (*Repository, error) {
	var repo *Repository
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(max(cfg.ConnectRetries, 0))),
		ctx,
	)
	err := backoff.Retry(func() error {
		var err error
		repo, err = NewRepository(cfg, logger)
		if err != nil {
			logger.Warn("database not ready", zap.String("driver", cfg.Driver), zap.Error(err))
		}
		return err
	}, policy)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// WithTransaction runs fn inside a read-write transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, readOnlyTx: r.readOnlyTx})
	})
}

// WithReadOnlyTransaction runs fn inside a transaction that takes no write locks.
func (r *Repository) WithReadOnlyTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, readOnlyTx: r.readOnlyTx})
	}, &sql.TxOptions{ReadOnly: r.readOnlyTx})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func (r *Repository) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(model).
		Where(query, args...).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) get(ctx context.Context, dest any, kind string, id uint) error {
	result := r.db.WithContext(ctx).First(dest, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return e.NotFound(kind, id)
		}
		return result.Error
	}
	return nil
}

// constraintError maps constraint violations translated by GORM onto the
// business sentinels.
func constraintError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return e.ErrReferenced
	default:
		return err
	}
}

func (r *Repository) create(ctx context.Context, row any) error {
	return constraintError(r.db.WithContext(ctx).Create(row).Error)
}

func (r *Repository) delete(ctx context.Context, model any, kind string, id uint) error {
	result := r.db.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return constraintError(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound(kind, id)
	}
	return nil
}
