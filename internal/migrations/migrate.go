package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	// Dir holds the numbered .up.sql/.down.sql files
	Dir            = "migrations"
	migrationTable = "schema_migrations_migrate"
)

var versionPattern = regexp.MustCompile(`^0*([0-9]+)_`)

// RunMigrations applies the file-based migrations in dir. A database that
// already has game_moves but no migrate metadata is baselined to the
// latest version first.
func RunMigrations(databaseURL, dir string, logger *zap.Logger) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: migrationTable})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if tableExists(sqlDB, "game_moves") && !tableExists(sqlDB, migrationTable) {
		if latest := LatestVersion(dir); latest > 0 {
			logger.Info("baselining existing schema", zap.Int64("version", latest))
			if ferr := m.Force(int(latest)); ferr != nil {
				logger.Warn("baseline failed", zap.Int64("version", latest), zap.Error(ferr))
			}
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	logger.Info("migrations applied", zap.String("dir", dir))
	return nil
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	row := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", name)
	if err := row.Scan(&exists); err != nil {
		return false
	}
	return exists
}

// LatestVersion returns the highest numeric prefix (e.g. 000001_) found in dir,
// or 0 when the directory is missing or has no migration files.
func LatestVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := versionPattern.FindStringSubmatch(f.Name())
		if len(m) < 2 {
			continue
		}
		v, _ := strconv.ParseInt(m[1], 10, 64)
		if v > max {
			max = v
		}
	}

	return max
}
