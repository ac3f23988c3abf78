package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"rockae/internal/observability"

	"gorm.io/gorm"
)

// AppliedMigration is one row of the schema_migrations table. Checksum is the
// SHA-256 of the up script at the time it ran.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

func checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// MigrationStore records which migrations ran and executes their scripts.
type MigrationStore interface {
	EnsureTable(ctx context.Context) error
	Applied(ctx context.Context) ([]AppliedMigration, error)
	Apply(ctx context.Context, m Migration) error
	Revert(ctx context.Context, m Migration) error
}

type gormMigrationStore struct {
	db *gorm.DB
}

// NewMigrationStore keeps migration state in db.
func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &gormMigrationStore{db: db}
}

func (s *gormMigrationStore) EnsureTable(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// Applied lists recorded migrations by version. A missing table means nothing ran yet.
func (s *gormMigrationStore) Applied(ctx context.Context) ([]AppliedMigration, error) {
	if !s.db.WithContext(ctx).Migrator().HasTable(&AppliedMigration{}) {
		return nil, nil
	}
	var rows []AppliedMigration
	if err := s.db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	return rows, nil
}

func (s *gormMigrationStore) Apply(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("migration %s failed: %w", m.String(), err)
		}
		row := AppliedMigration{Version: m.Version, Name: m.Name, Checksum: checksum(m.UpScript)}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.String(), err)
		}
		return nil
	})
}

func (s *gormMigrationStore) Revert(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("rollback of %s failed: %w", m.String(), err)
		}
		return tx.Delete(&AppliedMigration{}, m.Version).Error
	})
}

// RunMigrations applies every embedded migration that has not run yet.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, NewMigrationStore(db), migrations)
}

func runMigrations(ctx context.Context, store MigrationStore, registered []Migration) error {
	if err := store.EnsureTable(ctx); err != nil {
		return err
	}
	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	if err := checkApplied(applied, registered); err != nil {
		return err
	}

	for _, m := range pendingMigrations(registered, applied) {
		if err := store.Apply(ctx, m); err != nil {
			return err
		}
		observability.Logger.InfoContext(ctx, "migration applied",
			slog.Int("version", m.Version),
			slog.String("name", m.Name),
		)
	}
	return nil
}

// checkApplied fails when the database holds versions the code does not know
// or when an applied script has been edited since it ran.
func checkApplied(applied []AppliedMigration, registered []Migration) error {
	byVersion := make(map[int]Migration, len(registered))
	for _, m := range registered {
		byVersion[m.Version] = m
	}

	var unknown, edited []string
	for _, a := range applied {
		m, ok := byVersion[a.Version]
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d", a.Version))
		case a.Checksum != checksum(m.UpScript):
			edited = append(edited, m.String())
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("schema_migrations has versions missing from this build: %s", strings.Join(unknown, ", "))
	}
	if len(edited) > 0 {
		return fmt.Errorf("applied migrations were modified after they ran: %s", strings.Join(edited, ", "))
	}
	return nil
}

func pendingMigrations(registered []Migration, applied []AppliedMigration) []Migration {
	var out []Migration
	for _, m := range registered {
		ran := slices.ContainsFunc(applied, func(a AppliedMigration) bool { return a.Version == m.Version })
		if !ran {
			out = append(out, m)
		}
	}
	return out
}

// RollbackMigration runs the down script of an applied migration and forgets it.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return rollback(ctx, NewMigrationStore(db), migrations, version)
}

func rollback(ctx context.Context, store MigrationStore, registered []Migration, version int) error {
	idx := slices.IndexFunc(registered, func(m Migration) bool { return m.Version == version })
	if idx < 0 {
		return fmt.Errorf("migration version %d not found", version)
	}
	m := registered[idx]

	applied, err := store.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(applied, func(a AppliedMigration) bool { return a.Version == version }) {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}

	if err := store.Revert(ctx, m); err != nil {
		return err
	}
	observability.Logger.InfoContext(ctx, "migration rolled back",
		slog.Int("version", m.Version),
		slog.String("name", m.Name),
	)
	return nil
}
