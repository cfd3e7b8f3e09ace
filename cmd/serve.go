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
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blazefam/blazeledger/config"
	"github.com/blazefam/blazeledger/internal/apiserver"
	"github.com/blazefam/blazeledger/internal/healthcheck"
	"github.com/blazefam/blazeledger/internal/referral"
	"github.com/blazefam/blazeledger/internal/usercache"
	"github.com/blazefam/blazeledger/internal/userservice"
	"github.com/blazefam/blazeledger/userdb"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the ledger API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Start health check server
			healthConfig := healthcheck.GetConfigFromEnv()
			healthServer := healthcheck.NewServer(healthConfig)

			go func() {
				if err := healthServer.Start(ctx); err != nil {
					slog.Error("Health check server stopped", slog.Any("error", err))
				}
			}()

			store, err := userdb.UserDBStore(ctx)
			if err != nil {
				slog.Error("Failed to connect to user database", slog.Any("error", err))
				return fmt.Errorf("failed to connect to user database: %w", err)
			}
			defer store.Close()

			cache := usercache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
			defer cache.Stop()

			users := userservice.New(store, cache)
			referrals := referral.New(store, cache, cfg.Referral.InviteReward)

			server := apiserver.NewServer(apiserver.Config{
				Addr:           cfg.API.Addr,
				RequestTimeout: cfg.API.RequestTimeout,
			}, users, referrals)

			healthServer.SetStatus(healthcheck.StatusHealthy)
			healthServer.SetReady(true)

			return server.Run(ctx)
		},
	}

	rootCmd.AddCommand(cmd)
}
