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

package usercache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blazefam/blazeledger/userdb"
)

func TestGetMissOnAbsentKey(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Stop()

	_, ok := c.Get(42)
	require.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Stop()

	name := "alice"
	c.Put(userdb.User{UserID: 42, Username: &name, Coins: 10, Level: "Bronze"})

	got, ok := c.Get(42)
	require.True(t, ok)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, int64(10), got.Coins)
	require.NotNil(t, got.Username)
	require.Equal(t, "alice", *got.Username)
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(10, 30*time.Millisecond)
	defer c.Stop()

	c.Put(userdb.User{UserID: 1, Coins: 5})
	_, ok := c.Get(1)
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get(1)
	require.False(t, ok, "entry older than the TTL must be a miss")
}

func TestHitDoesNotExtendTTL(t *testing.T) {
	c := New(10, 60*time.Millisecond)
	defer c.Stop()

	c.Put(userdb.User{UserID: 1})

	// Keep hitting the entry; the hits must not push the expiry out.
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		c.Get(1)
		time.Sleep(20 * time.Millisecond)
	}

	_, ok := c.Get(1)
	require.False(t, ok)
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, time.Minute)
	defer c.Stop()

	c.Put(userdb.User{UserID: 1})
	c.Put(userdb.User{UserID: 2})

	// Touch 1 so 2 becomes the least recently used entry.
	_, ok := c.Get(1)
	require.True(t, ok)

	c.Put(userdb.User{UserID: 3})

	_, ok = c.Get(2)
	require.False(t, ok, "least recently used entry should have been evicted")
	_, ok = c.Get(1)
	require.True(t, ok)
	_, ok = c.Get(3)
	require.True(t, ok)
}

func TestInvalidateIsIdempotent(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Stop()

	c.Put(userdb.User{UserID: 7})
	c.Invalidate(7)
	_, ok := c.Get(7)
	require.False(t, ok)

	// Invalidating an absent key is a no-op.
	c.Invalidate(7)
	c.Invalidate(12345)
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Stop()

	name := "alice"
	inviter := int64(9)
	original := userdb.User{UserID: 42, Username: &name, InvitedBy: &inviter}
	c.Put(original)

	// Mutating what the caller still holds must not leak into the cache.
	*original.Username = "mallory"
	*original.InvitedBy = 666

	got, ok := c.Get(42)
	require.True(t, ok)
	require.Equal(t, "alice", *got.Username)
	require.Equal(t, int64(9), *got.InvitedBy)

	// And mutating a returned snapshot must not change later reads.
	*got.Username = "eve"
	again, ok := c.Get(42)
	require.True(t, ok)
	require.Equal(t, "alice", *again.Username)
}
