// Copyright (C) 2025 The Blazeledger Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package migrations

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// CheckExpectedVersion verifies that the database is at the migration
// version matching the embedded files, waiting for an external migration
// job when the database is behind.
func CheckExpectedVersion(ctx context.Context, pool *pgxpool.Pool) error {
	config := getCheckConfig()
	if !config.Enabled {
		slog.Debug("Migration version checking disabled for userdb")
		return nil
	}

	expectedVersion, err := extractLatestMigrationVersion(migrationFiles)
	if err != nil {
		return fmt.Errorf("failed to extract expected migration version: %w", err)
	}

	slog.Info("Checking migration version",
		slog.Uint64("expected_version", uint64(expectedVersion)),
		slog.Duration("timeout", config.Timeout))

	deadline := time.Now().Add(config.Timeout)
	ticker := time.NewTicker(config.RetryInterval)
	defer ticker.Stop()

	for {
		currentVersion, dirty, err := currentMigrationVersion(pool)
		if err != nil {
			return fmt.Errorf("failed to get current migration version: %w", err)
		}

		if dirty && !config.AllowDirty {
			return fmt.Errorf("userdb migration is in dirty state, please fix before proceeding")
		}

		if currentVersion == expectedVersion {
			return nil
		}

		if currentVersion > expectedVersion {
			return fmt.Errorf("userdb version %d is newer than expected version %d - you may need to update the application",
				currentVersion, expectedVersion)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for userdb migration to complete: current version %d, expected %d",
				currentVersion, expectedVersion)
		}

		slog.Info("Waiting for migrations to complete",
			slog.Uint64("current_version", uint64(currentVersion)),
			slog.Uint64("expected_version", uint64(expectedVersion)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for userdb migrations")
		case <-ticker.C:
		}
	}
}

type checkConfig struct {
	Enabled       bool
	Timeout       time.Duration
	RetryInterval time.Duration
	AllowDirty    bool
}

func getCheckConfig() checkConfig {
	enabled := true
	if val := os.Getenv("USERDB_MIGRATION_CHECK_ENABLED"); val != "" {
		enabled = strings.ToLower(val) == "true"
	}

	timeout := 60 * time.Second
	if val := os.Getenv("MIGRATION_CHECK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			timeout = d
		}
	}

	retryInterval := 5 * time.Second
	if val := os.Getenv("MIGRATION_CHECK_RETRY_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			retryInterval = d
		}
	}

	allowDirty := false
	if val := os.Getenv("MIGRATION_CHECK_ALLOW_DIRTY"); val != "" {
		allowDirty = strings.ToLower(val) == "true"
	}

	return checkConfig{
		Enabled:       enabled,
		Timeout:       timeout,
		RetryInterval: retryInterval,
		AllowDirty:    allowDirty,
	}
}

// extractLatestMigrationVersion extracts the highest migration version
// from filenames like "1756300000_initial.up.sql".
func extractLatestMigrationVersion(migrationFiles embed.FS) (uint, error) {
	entries, err := migrationFiles.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		parts := strings.SplitN(name, "_", 2)
		version, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			continue
		}

		if uint(version) > maxVersion {
			maxVersion = uint(version)
		}
	}

	if maxVersion == 0 {
		return 0, fmt.Errorf("no valid migration files found")
	}

	return maxVersion, nil
}

func currentMigrationVersion(pool *pgxpool.Pool) (uint, bool, error) {
	sourceDriver, err := iofs.New(migrationFiles, ".")
	if err != nil {
		return 0, false, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() {
		_ = sqlDB.Close()
	}()

	dbDriver, err := pgx.WithInstance(sqlDB, &pgx.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to create pgx driver: %w", err)
	}
	defer func() {
		_ = dbDriver.Close()
	}()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get current version: %w", err)
	}

	return version, dirty, nil
}
