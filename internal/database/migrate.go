package database

import (
	"cmp"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"

	"rockae/internal/observability"
)

// Migration is one versioned pair of SQL scripts. They carry the PostgreSQL
// constraints GORM tags cannot declare.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations []Migration

func init() {
	var err error
	if migrations, err = LoadMigrations(migrationFS, "migrations"); err != nil {
		observability.Logger.Error("embedded migrations unreadable", slog.String("error", err.Error()))
	}
}

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// parseMigrationName splits "000003_payment_rules" into its version and name.
func parseMigrationName(base string) (int, string, bool) {
	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", false
	}
	v, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", false
	}
	return v, name, true
}

// LoadMigrations reads NNNNNN_name.up.sql files and their .down.sql partners
// from dir. Badly named files are skipped; a missing down script or a reused
// version is an error.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*"+upSuffix))
	if err != nil {
		return nil, fmt.Errorf("list migrations in %s: %w", dir, err)
	}

	byVersion := make(map[int]Migration, len(ups))
	for _, file := range ups {
		base := strings.TrimSuffix(path.Base(file), upSuffix)
		version, name, ok := parseMigrationName(base)
		if !ok {
			observability.Logger.Warn("ignoring migration file", slog.String("file", file))
			continue
		}
		if prev, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, prev.Name, name)
		}

		up, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+downSuffix))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", base, err)
		}
		byVersion[version] = Migration{Version: version, Name: name, UpScript: string(up), DownScript: string(down)}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

func GetMigrationByVersion(version int) *Migration {
	i := slices.IndexFunc(migrations, func(m Migration) bool { return m.Version == version })
	if i < 0 {
		return nil
	}
	m := migrations[i]
	return &m
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
