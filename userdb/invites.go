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
	"fmt"
)

// ClaimInviteWithReward links the invitee to the inviter and credits the
// inviter's reward as one transaction: either both rows change or
// neither does.
//
// The inviter existence check runs first so a dangling inviter surfaces
// as ErrInviterNotFound rather than a foreign key violation from the
// invitee insert.
func (store *Store) ClaimInviteWithReward(ctx context.Context, inviterID, inviteeID, reward int64) error {
	return store.execTx(ctx, func(s *Store) error {
		exists, err := s.UserExists(ctx, inviterID)
		if err != nil {
			return fmt.Errorf("failed to check inviter: %w", err)
		}
		if !exists {
			return ErrInviterNotFound
		}

		claimed, err := s.ClaimInvite(ctx, ClaimInviteParams{
			InviteeID: inviteeID,
			InviterID: inviterID,
		})
		if err != nil {
			return fmt.Errorf("failed to claim invite: %w", err)
		}
		if !claimed {
			return ErrAlreadyInvited
		}

		if err := s.CreditInviter(ctx, CreditInviterParams{
			UserID: inviterID,
			Reward: reward,
		}); err != nil {
			return fmt.Errorf("failed to credit inviter: %w", err)
		}
		return nil
	})
}
