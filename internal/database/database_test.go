package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
	"testing/fstest"

	"rockae/internal/config"
	"rockae/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: "dev.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.Config{DBDriver: config.DriverPostgres, DBHost: "localhost", DBName: "rockae"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN_DefaultsSSLMode(t *testing.T) {
	dsn := postgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "rock", DBName: "rockae"})
	assert.Contains(t, dsn, "host=db port=5432 user=rock")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestQueryLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	q := &queryLogger{
		log:   slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		level: logger.Warn,
		slow:  500 * time.Millisecond,
	}
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	q.Trace(context.Background(), time.Now(), stmt, nil)
	assert.Empty(t, buf.String(), "fast queries stay quiet at warn")

	q.Trace(context.Background(), time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	q.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "sql slow")

	buf.Reset()
	q.Trace(context.Background(), time.Now(), stmt, errors.New("syntax"))
	assert.Contains(t, buf.String(), "sql failed")
	assert.Contains(t, buf.String(), "error=syntax")

	buf.Reset()
	q.LogMode(logger.Silent).Trace(context.Background(), time.Now(), stmt, errors.New("syntax"))
	assert.Empty(t, buf.String())
}

func TestPersistentModels_IncludesCommunityMember(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.CommunityMember); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include CommunityMember")
	assert.Contains(t, TableNames(), "PaymentTransaction")
	assert.Len(t, TableNames(), len(PersistentModels()))
}

func TestAutoMigrate_CreatesTablesAndOwnerIndex(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	for _, table := range TableNames() {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.CommunityMember{}, "idx_community_single_owner"))
	assert.True(t, db.Migrator().HasIndex(&models.WheelParticipant{}, "idx_wheel_participant_order"))
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		mode    string
		driver  string
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{"", "postgres", true, true, false},
		{SchemaModeHybrid, "sqlite", false, true, false},
		{SchemaModeAuto, "postgres", false, true, false},
		{SchemaModeSQL, "postgres", true, false, false},
		{SchemaModeSQL, "sqlite", false, false, true},
		{SchemaModeOff, "postgres", false, false, false},
		{"bogus", "postgres", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.driver, func(t *testing.T) {
			plan, err := planSchema(&config.Config{DBSchemaMode: tt.mode}, tt.driver)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, plan.sql)
			assert.Equal(t, tt.runAuto, plan.auto)
		})
	}
}

func TestApplySchema_SQLiteHybridSkipsSQL(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", DBSchemaMode: SchemaModeHybrid}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	assert.True(t, db.Migrator().HasTable("Community"))
	assert.False(t, db.Migrator().HasTable("schema_migrations"))

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Driver)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	assert.Empty(t, status.PendingMigrations)
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	for i, m := range all {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Less(t, all[i-1].Version, m.Version)
		}
	}
	first := GetMigrationByVersion(1)
	require.NotNil(t, first)
	assert.Equal(t, "000001_payment_transaction_single_subscription", first.String())
	assert.Nil(t, GetMigrationByVersion(999999))
}

func TestLoadMigrations(t *testing.T) {
	t.Run("sorted pairs", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000002_second.up.sql":   {Data: []byte("SELECT 2;")},
			"m/000002_second.down.sql": {Data: []byte("SELECT -2;")},
			"m/000001_first.up.sql":    {Data: []byte("SELECT 1;")},
			"m/000001_first.down.sql":  {Data: []byte("SELECT -1;")},
			"m/README.md":              {Data: []byte("ignored")},
		}
		got, err := LoadMigrations(fsys, "m")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Name)
		assert.Equal(t, 2, got[1].Version)
	})

	t.Run("missing down script", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000001_first.up.sql": {Data: []byte("SELECT 1;")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"m/000001_a.down.sql": {Data: []byte("SELECT 1;")},
			"m/000001_b.up.sql":   {Data: []byte("SELECT 1;")},
			"m/000001_b.down.sql": {Data: []byte("SELECT 1;")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})
}

func testMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "widgets", UpScript: "CREATE TABLE widgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE widgets"},
		{Version: 2, Name: "gadgets", UpScript: "CREATE TABLE gadgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE gadgets"},
	}
}

func appliedVersions(t *testing.T, store MigrationStore) []int {
	t.Helper()
	rows, err := store.Applied(context.Background())
	require.NoError(t, err)
	versions := make([]int, 0, len(rows))
	for _, r := range rows {
		versions = append(versions, r.Version)
	}
	return versions
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	store := NewMigrationStore(db)
	registered := testMigrations()

	require.NoError(t, runMigrations(ctx, store, registered))
	require.NoError(t, runMigrations(ctx, store, registered))
	assert.Equal(t, []int{1, 2}, appliedVersions(t, store))
	assert.True(t, db.Migrator().HasTable("gadgets"))

	err := runMigrations(ctx, store, registered[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000002")
}

func TestRunMigrations_DetectsEditedScript(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	store := NewMigrationStore(db)
	registered := testMigrations()
	require.NoError(t, runMigrations(ctx, store, registered))

	registered[0].UpScript = "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)"
	err := runMigrations(ctx, store, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000001_widgets")
}

func TestRollback(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	store := NewMigrationStore(db)
	registered := testMigrations()
	require.NoError(t, runMigrations(ctx, store, registered))

	require.NoError(t, rollback(ctx, store, registered, 2))
	assert.False(t, db.Migrator().HasTable("gadgets"))
	assert.Equal(t, []int{1}, appliedVersions(t, store))

	assert.Error(t, rollback(ctx, store, registered, 2))
	assert.Error(t, rollback(ctx, store, registered, 99))

	require.NoError(t, runMigrations(ctx, store, registered))
	assert.True(t, db.Migrator().HasTable("gadgets"))
}

func TestApplied_MissingTable(t *testing.T) {
	db := openSQLite(t)
	assert.Empty(t, appliedVersions(t, NewMigrationStore(db)))
}
