// Package database opens the GORM connection and owns the schema lifecycle.
package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rockae/internal/config"
	"rockae/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialector picks the GORM driver for the configured DB_DRIVER. An empty
// driver means postgres.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.SQLitePath)), nil
	case config.DriverPostgres, "":
		return postgres.Open(postgresDSN(cfg)), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func sqliteDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

func postgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + cfg.DBHost,
		"port=" + cfg.DBPort,
		"user=" + cfg.DBUser,
		"password=" + cfg.DBPassword,
		"dbname=" + cfg.DBName,
		"sslmode=" + sslMode,
	}
	return strings.Join(parts, " ")
}

// Connect opens the configured database. It leaves the schema alone; callers
// run ApplySchema when they need it.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	d, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return Open(d, cfg)
}

// Open attaches query logging, the metrics plugin and pool limits to a
// dialector.
func Open(d gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	queryLevel := gormlogger.Warn
	if observability.ParseLevel(cfg.LogLevel) <= slog.LevelDebug {
		queryLevel = gormlogger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{Logger: NewGormLogger(queryLevel)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}
	if err := db.Use(observability.MetricsPlugin{}); err != nil {
		return nil, fmt.Errorf("register metrics plugin: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	observability.Logger.Info("database ready", slog.String("driver", d.Name()))
	return db, nil
}

// configurePool applies the DB_* pool limits. Zero keeps the database/sql default.
func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	if n := cfg.DBMaxOpenConns; n > 0 {
		sqlDB.SetMaxOpenConns(n)
	}
	if n := cfg.DBMaxIdleConns; n > 0 {
		sqlDB.SetMaxIdleConns(n)
	}
	if m := cfg.DBConnMaxLifetimeMinutes; m > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(m) * time.Minute)
	}
	return nil
}
