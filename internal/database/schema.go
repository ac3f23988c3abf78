package database

import (
	"context"
	"fmt"
	"log/slog"

	"rockae/internal/config"
	"rockae/internal/observability"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
	SchemaModeOff    = "off"
)

// SchemaStatus describes what ApplySchema would do and what has already been applied.
type SchemaStatus struct {
	Mode               string
	Environment        string
	Driver             string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	Tables             []string
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is the set of steps ApplySchema performs for a mode and driver.
type schemaPlan struct {
	mode string
	sql  bool
	auto bool
}

// planSchema resolves DB_SCHEMA_MODE against the live driver. The SQL
// migrations carry PostgreSQL-only constraints, so hybrid mode drops them
// elsewhere and sql mode refuses to run.
func planSchema(cfg *config.Config, driver string) (schemaPlan, error) {
	p := schemaPlan{mode: cfg.DBSchemaMode}
	if p.mode == "" {
		p.mode = SchemaModeHybrid
	}
	postgres := driver == "postgres"

	switch p.mode {
	case SchemaModeHybrid:
		p.sql, p.auto = postgres, true
	case SchemaModeAuto:
		p.auto = true
	case SchemaModeSQL:
		if !postgres {
			return p, fmt.Errorf("DB_SCHEMA_MODE=sql needs postgres, have %q", driver)
		}
		p.sql = true
	case SchemaModeOff:
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.mode)
	}
	return p, nil
}

// AutoMigrate creates or updates every table in the persistent model registry.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date for DB_SCHEMA_MODE. Automigration
// runs before the SQL files so they can add constraints to existing tables.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg, db.Dialector.Name())
	if err != nil {
		return err
	}
	log := observability.Logger.With(slog.String("mode", plan.mode), slog.String("env", cfg.Env))

	if plan.auto {
		log.InfoContext(ctx, "automigrating models", slog.Int("models", len(PersistentModels())))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
	}
	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the resolved plan and, when SQL migrations are in
// play, which versions are applied and which are still pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	driver := db.Dialector.Name()
	plan, err := planSchema(cfg, driver)
	if err != nil {
		return nil, err
	}

	st := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		Driver:             driver,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
		Tables:             TableNames(),
	}
	if !plan.sql {
		return st, nil
	}

	applied, err := NewMigrationStore(db).Applied(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range applied {
		st.AppliedVersions = append(st.AppliedVersions, a.Version)
	}
	st.PendingMigrations = pendingMigrations(GetMigrations(), applied)
	return st, nil
}
