// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package connectors

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/rapidaai/voicecollect/pkg/commons"
)

// Supported database drivers.
const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConnector hands out gorm handles bound to a request context.
type DatabaseConnector interface {
	// DB returns a *gorm.DB scoped to ctx.
	DB(ctx context.Context) *gorm.DB
	// Ping verifies the underlying connection is alive.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close() error
}

type databaseConnector struct {
	logger commons.Logger
	db     *gorm.DB
}

// DatabaseConfig carries the connection settings for NewDatabaseConnector.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	// DSN is the driver-native connection string: a file path (or
	// "file::memory:?cache=shared") for sqlite, a key=value DSN for postgres.
	DSN               string `mapstructure:"dsn" validate:"required"`
	MaxOpenConnection int    `mapstructure:"max_open_connection"`
	MaxIdleConnection int    `mapstructure:"max_ideal_connection"`
}

// NewDatabaseConnector opens a gorm connection for the configured driver.
func NewDatabaseConnector(cfg DatabaseConfig, logger commons.Logger) (DatabaseConnector, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverSqlite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.MaxOpenConnection > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConnection)
	}
	if cfg.MaxIdleConnection > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConnection)
	}

	logger.Infof("connected %s database", cfg.Driver)
	return &databaseConnector{logger: logger, db: db}, nil
}

func (c *databaseConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *databaseConnector) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *databaseConnector) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
