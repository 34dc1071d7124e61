package persistence

import (
	"fmt"
	"time"

	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/erp/salesledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB     *gorm.DB
	Driver string
}

// Plugin is registered on the connection after it is opened
type Plugin interface {
	Register(db *gorm.DB) error
}

// DatabaseOption customises NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger  logger.Interface
	plugins []Plugin
}

// WithGormLogger replaces GORM's default silent logger
func WithGormLogger(l logger.Interface) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = l
	}
}

// WithPlugins registers callbacks such as DB tracing
func WithPlugins(plugins ...Plugin) DatabaseOption {
	return func(o *databaseOptions) {
		o.plugins = append(o.plugins, plugins...)
	}
}

// NewDatabase opens a postgres or sqlite connection according to cfg.Driver.
// The sqlite driver creates the schema with AutoMigrate; postgres relies on
// the SQL migrations.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{logger: logger.Default.LogMode(logger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != config.DriverSQLite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, p := range o.plugins {
		if err := p.Register(db); err != nil {
			return nil, fmt.Errorf("failed to register database plugin: %w", err)
		}
	}

	if cfg.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	return &Database{DB: db, Driver: cfg.Driver}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// TeamScope restricts a query to rows owned by teamID.
// Panics on uuid.Nil to prevent unscoped reads.
func TeamScope(teamID uuid.UUID) func(*gorm.DB) *gorm.DB {
	if teamID == uuid.Nil {
		panic("TeamScope called with empty team ID - this is a programming error")
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("team_id = ?", teamID)
	}
}
