package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"rockae/internal/config"
	"rockae/internal/models"
	"rockae/internal/service"
	"rockae/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:             "development",
		DBDriver:        config.DriverSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "rockae.db"),
		DBSchemaMode:    "hybrid",
		LogLevel:        "warn",
		TracingExporter: "stdout",
	}
}

func TestInitRuntime(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = mr.Addr()
	cfg.PlatformFeePercent = 2
	cfg.DevRootEmail = "root@example.com"
	cfg.DevRootPassword = "R00t-Password!"

	rt, err := InitRuntime(ctx, cfg, Options{ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	require.NotNil(t, rt.Cache)

	root, err := rt.Services.Users.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.True(t, root.IsVerified)

	c, err := rt.Services.Communities.CreateCommunity(ctx, root.ID, service.CreateCommunityInput{Name: "Runtime Club", IsOpen: true})
	require.NoError(t, err)
	got, err := rt.Services.Communities.GetByAlias(ctx, c.Alias)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestInitRuntime_RedisDownDisablesCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = mr.Addr()
	mr.Close()

	rt, err := InitRuntime(ctx, cfg, Options{ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	assert.Nil(t, rt.Cache)
}

func TestEnsureDevRootAdmin(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	svc := NewServices(db, nil, 2)
	cfg := &config.Config{Env: "development", DevRootEmail: "root@example.com", DevRootPassword: "R00t-Password!"}

	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, svc.Users))
	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, svc.Users))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "root@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	cfg.Env = "test"
	cfg.DevRootEmail = "other@example.com"
	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, svc.Users))
	other, err := svc.Users.FindByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Nil(t, other)
}
