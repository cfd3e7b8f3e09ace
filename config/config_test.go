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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, uint64(1000), cfg.Cache.Capacity)
	assert.Equal(t, int64(150), cfg.Referral.InviteReward)
}

func TestLoadUsesDefaultsWithoutEnv(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BLAZELEDGER_API_ADDR", ":9090")
	t.Setenv("BLAZELEDGER_CACHE_TTL", "30s")
	t.Setenv("BLAZELEDGER_CACHE_CAPACITY", "50")
	t.Setenv("BLAZELEDGER_REFERRAL_INVITE_REWARD", "200")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.API.Addr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, uint64(50), cfg.Cache.Capacity)
	assert.Equal(t, int64(200), cfg.Referral.InviteReward)

	// Untouched keys keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
}
