//go:build integration

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

package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blazefam/blazeledger/userdb"
	"github.com/blazefam/blazeledger/userdb/migrations"
)

// SetupTestUserDB creates a clean test database with migrations applied.
// Returns a connection pool and registers cleanup with t.Cleanup.
func SetupTestUserDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dbName := fmt.Sprintf("test_userdb_%d_%d", time.Now().Unix(), rand.Intn(10000))

	// Get connection details from environment
	host := getEnvOrDefault("USERDB_HOST", "localhost")
	port := getEnvOrDefault("USERDB_PORT", "5432")
	user := getEnvOrDefault("USERDB_USER", os.Getenv("USER"))
	baseDB := getEnvOrDefault("USERDB_DBNAME", "testing_userdb")

	// Connect to base database to create test database
	password := os.Getenv("USERDB_PASSWORD")
	basePool, err := pgxpool.New(ctx, connString(user, password, host, port, baseDB))
	if err != nil {
		t.Fatalf("Failed to connect to base database: %v", err)
	}

	_, err = basePool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	testPool, err := pgxpool.New(ctx, connString(user, password, host, port, dbName))
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := migrations.RunMigrationsUp(ctx, testPool); err != nil {
		testPool.Close()
		t.Fatalf("Failed to run userdb migrations: %v", err)
	}

	t.Cleanup(func() {
		testPool.Close()

		_, err := basePool.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
		if err != nil {
			slog.Error("Failed to drop test database", slog.String("dbName", dbName), slog.Any("error", err))
		}

		basePool.Close()
	})

	return testPool
}

// NewTestUserDBStore creates a userdb store connected to a test database.
func NewTestUserDBStore(t *testing.T) *userdb.Store {
	pool := SetupTestUserDB(t)
	return userdb.NewStore(pool)
}

func connString(user, password, host, port, dbName string) string {
	if password != "" {
		return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
	}
	return fmt.Sprintf("postgresql://%s@%s:%s/%s", user, host, port, dbName)
}
