// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rockae/internal/database"
	"rockae/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with foreign keys on
// and every persistent model migrated.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var userSeq atomic.Int64

// CreateUser inserts an active user with a unique email derived from name.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	u := &models.User{
		Email:      fmt.Sprintf("%s.%d@example.com", name, n),
		Password:   "x",
		IsActive:   true,
		DateJoined: time.Now().UTC(),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateCommunity inserts a bare community row.
func CreateCommunity(t testing.TB, db *gorm.DB, alias string) *models.Community {
	t.Helper()
	c := &models.Community{Name: alias, Alias: alias, IsOpen: true}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create community: %v", err)
	}
	return c
}

// AddMember inserts a membership row with role.
func AddMember(t testing.TB, db *gorm.DB, communityID, userID uint, role models.MemberRole) *models.CommunityMember {
	t.Helper()
	m := &models.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    time.Now().UTC(),
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}
