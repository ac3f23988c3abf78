// Command migrate runs schema operations against the configured database.
//
//	migrate up            apply according to DB_SCHEMA_MODE
//	migrate auto          force GORM automigration
//	migrate status        report applied and pending versions
//	migrate down VERSION  revert one SQL migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"rockae/internal/config"
	"rockae/internal/database"
	"rockae/internal/observability"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     up,
	"auto":   auto,
	"status": status,
	"down":   down,
}

var errUsage = errors.New("usage: migrate <up|auto|status|down> [version]")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		observability.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.Configure(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return cmd(ctx, db, cfg, args[1:])
}

func up(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	observability.Logger.Info("schema applied", slog.String("mode", cfg.DBSchemaMode))
	return nil
}

func auto(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error {
	forced := *cfg
	forced.DBSchemaMode = database.SchemaModeAuto
	return up(ctx, db, &forced, args)
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status: %w", err)
	}
	observability.Logger.Info("schema status",
		slog.String("mode", st.Mode),
		slog.String("env", st.Environment),
		slog.String("driver", st.Driver),
		slog.Bool("run_sql", st.WillRunSQL),
		slog.Bool("run_auto", st.WillRunAutoMigrate),
		slog.Int("tables", len(st.Tables)),
		slog.Any("applied", st.AppliedVersions),
	)
	for _, m := range st.PendingMigrations {
		fmt.Println("pending", m.String())
	}
	return nil
}

func down(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return err
	}
	observability.Logger.Info("migration reverted", slog.Int("version", version))
	return nil
}
