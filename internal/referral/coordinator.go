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

// Package referral enforces the one-time-invite invariant: an invitee's
// inviter is fixed by the first claim to commit, and the inviter reward
// lands in the same transaction as the linkage.
package referral

import (
	"context"
	"log/slog"

	"github.com/blazefam/blazeledger/internal/logctx"
	"github.com/blazefam/blazeledger/internal/usercache"
)

// DefaultInviteReward is the coin reward credited per claimed invite.
const DefaultInviteReward = 150

// Store is the slice of userdb.Store the coordinator depends on.
type Store interface {
	ClaimInviteWithReward(ctx context.Context, inviterID, inviteeID, reward int64) error
}

type Coordinator struct {
	store  Store
	cache  *usercache.Cache
	reward int64
}

func New(store Store, cache *usercache.Cache, reward int64) *Coordinator {
	if reward <= 0 {
		reward = DefaultInviteReward
	}
	return &Coordinator{store: store, cache: cache, reward: reward}
}

// InviteFriend claims inviteeID for inviterID. The invitee is created if
// absent, or linked if its inviter is still unset; in both cases the
// inviter gets invited_frens+1 and coins+reward in the same transaction.
// A lost claim returns userdb.ErrAlreadyInvited with nothing mutated,
// a missing inviter userdb.ErrInviterNotFound.
//
// inviterID == inviteeID is not rejected here; the claim follows the
// same transition rules as any other pair.
func (c *Coordinator) InviteFriend(ctx context.Context, inviterID, inviteeID int64) error {
	if err := c.store.ClaimInviteWithReward(ctx, inviterID, inviteeID, c.reward); err != nil {
		return err
	}

	c.cache.Invalidate(inviterID)
	c.cache.Invalidate(inviteeID)

	logctx.FromContext(ctx).Info("Invite claimed",
		slog.Int64("inviter_id", inviterID),
		slog.Int64("invitee_id", inviteeID),
		slog.Int64("reward", c.reward))
	return nil
}
