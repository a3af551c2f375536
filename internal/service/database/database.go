package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kapu/rutube-stats-go/internal/config"
	"github.com/kapu/rutube-stats-go/internal/constants"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect covers the SQL differences between the supported drivers.
type Dialect struct {
	Driver string
}

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d.Driver == DriverSQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

type poolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// poolSettingsFor keeps sqlite on one connection that is never recycled:
// every connection to :memory: is a separate database.
func poolSettingsFor(driver string) poolSettings {
	if driver == DriverSQLite {
		return poolSettings{MaxOpen: 1, MaxIdle: 1}
	}
	return poolSettings{
		MaxOpen:     constants.DatabaseConfig.MaxOpenConns,
		MaxIdle:     constants.DatabaseConfig.MaxIdleConns,
		MaxLifetime: constants.DatabaseConfig.ConnMaxLife,
	}
}

type DatabaseService struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

func NewDatabaseService(cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseService, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	pool := poolSettingsFor(cfg.Driver)
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseConfig.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	logger.Info("Database connected", zap.String("driver", cfg.Driver))

	return &DatabaseService{
		db:      db,
		dialect: Dialect{Driver: cfg.Driver},
		logger:  logger,
	}, nil
}

func (ds *DatabaseService) GetDB() *sql.DB {
	return ds.db
}

func (ds *DatabaseService) Dialect() Dialect {
	return ds.dialect
}

func (ds *DatabaseService) Close() error {
	if ds.db != nil {
		return ds.db.Close()
	}
	return nil
}

func (ds *DatabaseService) Ping(ctx context.Context) error {
	return ds.db.PingContext(ctx)
}
