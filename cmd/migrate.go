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

package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/blazefam/blazeledger/internal/dbopen"
	"github.com/blazefam/blazeledger/userdb/migrations"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply userdb migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			connectionString, err := dbopen.GetDatabaseURLFromEnv("USERDB")
			if err != nil {
				return errors.Join(dbopen.ErrDatabaseNotConfigured, err)
			}

			pool, err := pgxpool.New(ctx, connectionString)
			if err != nil {
				return fmt.Errorf("failed to create connection pool: %w", err)
			}
			defer pool.Close()

			if err := migrations.RunMigrationsUp(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			slog.Info("Migrations applied")
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
}
