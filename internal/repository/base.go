// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"rockae/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction bound to ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// Conn exposes conn to services that query simple tables without a dedicated repository.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	return conn(ctx, db)
}

// Transactor runs a function inside a database transaction. Repositories
// called with the ctx handed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor returns a Transactor backed by db.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return conn(ctx, t.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// writeError maps a failed insert or update. Unique violations become
// validation errors carrying conflictMsg.
func writeError(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if isUniqueConstraintError(err) {
		return models.NewValidationError(conflictMsg)
	}
	return models.NewInternalError(err)
}

// readError maps a failed single-row lookup.
func readError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// findOne loads the first row matching query into dest, returning (false, nil) when absent.
func findOne(db *gorm.DB, dest interface{}, query interface{}, args ...interface{}) (bool, error) {
	err := db.Where(query, args...).First(dest).Error
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, models.NewInternalError(err)
	}
}

// exists reports whether q, already filtered, matches any row of model.
func exists(q *gorm.DB, model interface{}) (bool, error) {
	var n int64
	if err := q.Model(model).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// pageBounds clamps a page size to 1..100, defaulting to 20.
func pageBounds(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
