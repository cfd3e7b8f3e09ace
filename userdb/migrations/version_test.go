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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLatestMigrationVersion(t *testing.T) {
	version, err := extractLatestMigrationVersion(migrationFiles)
	require.NoError(t, err)
	assert.Equal(t, uint(1756300000), version)
}

func TestEmbeddedMigrationsComeInPairs(t *testing.T) {
	entries, err := migrationFiles.ReadDir(".")
	require.NoError(t, err)

	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs, "every up migration needs a matching down migration")
}

func TestGetCheckConfigDefaults(t *testing.T) {
	t.Setenv("USERDB_MIGRATION_CHECK_ENABLED", "")
	t.Setenv("MIGRATION_CHECK_TIMEOUT", "")
	t.Setenv("MIGRATION_CHECK_RETRY_INTERVAL", "")
	t.Setenv("MIGRATION_CHECK_ALLOW_DIRTY", "")

	config := getCheckConfig()
	assert.True(t, config.Enabled)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.Equal(t, 5*time.Second, config.RetryInterval)
	assert.False(t, config.AllowDirty)
}

func TestGetCheckConfigOverrides(t *testing.T) {
	t.Setenv("USERDB_MIGRATION_CHECK_ENABLED", "false")
	t.Setenv("MIGRATION_CHECK_TIMEOUT", "90s")
	t.Setenv("MIGRATION_CHECK_RETRY_INTERVAL", "1s")
	t.Setenv("MIGRATION_CHECK_ALLOW_DIRTY", "true")

	config := getCheckConfig()
	assert.False(t, config.Enabled)
	assert.Equal(t, 90*time.Second, config.Timeout)
	assert.Equal(t, time.Second, config.RetryInterval)
	assert.True(t, config.AllowDirty)
}
