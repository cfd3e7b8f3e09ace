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

// Package usercache holds point-in-time copies of user rows with a fixed
// time-to-live and a fixed capacity. It never originates truth: entries
// only mirror the store, and writers invalidate rather than refresh.
//
// Eviction when full is least-recently-used: a Get moves the entry to
// the front of the recency list, and insertion beyond capacity drops the
// entry at the back. A hit never extends an entry's TTL.
package usercache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/blazefam/blazeledger/userdb"
)

const (
	DefaultTTL      = 300 * time.Second
	DefaultCapacity = 1000
)

type Cache struct {
	items *ttlcache.Cache[int64, userdb.User]
}

// New builds a cache with the given capacity and TTL, applying the
// defaults for zero values, and starts the expiry janitor.
func New(capacity uint64, ttl time.Duration) *Cache {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	items := ttlcache.New(
		ttlcache.WithTTL[int64, userdb.User](ttl),
		ttlcache.WithCapacity[int64, userdb.User](capacity),
		ttlcache.WithDisableTouchOnHit[int64, userdb.User](),
	)
	go items.Start()
	return &Cache{items: items}
}

// Get returns a copy of the cached row for userID. An entry older than
// the TTL is a miss even if not yet collected by the janitor.
func (c *Cache) Get(userID int64) (userdb.User, bool) {
	item := c.items.Get(userID)
	if item == nil {
		return userdb.User{}, false
	}
	return snapshot(item.Value()), true
}

// Put stores a copy of the row under its user id.
func (c *Cache) Put(user userdb.User) {
	c.items.Set(user.UserID, snapshot(user), ttlcache.DefaultTTL)
}

// Invalidate drops the entry for userID. Dropping an absent key is a
// no-op, not an error.
func (c *Cache) Invalidate(userID int64) {
	c.items.Delete(userID)
}

// Len reports the number of physically present entries, expired or not.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Stop shuts down the expiry janitor.
func (c *Cache) Stop() {
	c.items.Stop()
}

// snapshot clones pointer fields so a cached row never aliases a row
// held by a caller, and vice versa.
func snapshot(u userdb.User) userdb.User {
	if u.Username != nil {
		name := *u.Username
		u.Username = &name
	}
	if u.InvitedBy != nil {
		inviter := *u.InvitedBy
		u.InvitedBy = &inviter
	}
	return u
}
