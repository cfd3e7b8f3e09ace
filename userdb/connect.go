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

package userdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blazefam/blazeledger/internal/dbopen"
	"github.com/blazefam/blazeledger/userdb/migrations"
)

// ConnectToUserDB opens a pool against the database named by the
// USERDB_* environment variables and verifies the schema is at the
// expected migration version.
func ConnectToUserDB(ctx context.Context) (*pgxpool.Pool, error) {
	connectionString, err := dbopen.GetDatabaseURLFromEnv("USERDB")
	if err != nil {
		return nil, errors.Join(dbopen.ErrDatabaseNotConfigured, fmt.Errorf("failed to get USERDB connection string: %w", err))
	}

	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.CheckExpectedVersion(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("USERDB migration version check failed: %w", err)
	}

	return pool, nil
}

// UserDBStore connects and wraps the pool in a Store.
func UserDBStore(ctx context.Context) (*Store, error) {
	pool, err := ConnectToUserDB(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}
