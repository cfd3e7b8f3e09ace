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

	"github.com/jackc/pgx/v5"
)

const getUserQuery = `
SELECT user_id, username, coins, level, invited_frens, invited_by
FROM users
WHERE user_id = $1`

// GetUser returns the row for userID, or ErrNotFound.
func (q *Queries) GetUser(ctx context.Context, userID int64) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserQuery, userID).Scan(
		&u.UserID, &u.Username, &u.Coins, &u.Level, &u.InvitedFrens, &u.InvitedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

const userExistsQuery = `
SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`

func (q *Queries) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, userExistsQuery, userID).Scan(&exists)
	return exists, err
}

// UpsertUserParams carries a partial update. A nil pointer means the
// field is absent and the stored value is kept; a non-nil pointer is
// applied verbatim, including empty strings and zeros.
type UpsertUserParams struct {
	UserID       int64
	Username     *string
	Coins        *int64
	Level        *string
	InvitedFrens *int64
}

const upsertUserQuery = `
INSERT INTO users (user_id, username, coins, level, invited_frens)
VALUES ($1, $2, COALESCE($3::bigint, 0), COALESCE($4::text, 'Bronze'), COALESCE($5::bigint, 0))
ON CONFLICT (user_id) DO UPDATE SET
    username      = COALESCE($2::text, users.username),
    coins         = COALESCE($3::bigint, users.coins),
    level         = COALESCE($4::text, users.level),
    invited_frens = COALESCE($5::bigint, users.invited_frens)
RETURNING user_id, username, coins, level, invited_frens, invited_by`

// UpsertUser creates the row if absent, applying defaults for fields not
// supplied, otherwise updates only the supplied fields. A duplicate
// username surfaces as an integrity violation from the database; it is
// deliberately not pre-checked here.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, upsertUserQuery,
		arg.UserID, arg.Username, arg.Coins, arg.Level, arg.InvitedFrens).Scan(
		&u.UserID, &u.Username, &u.Coins, &u.Level, &u.InvitedFrens, &u.InvitedBy)
	return u, err
}

type AddUserCoinsParams struct {
	UserID int64
	Delta  int64
}

const addUserCoinsQuery = `
INSERT INTO users (user_id, coins)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET coins = users.coins + EXCLUDED.coins
RETURNING user_id, username, coins, level, invited_frens, invited_by`

// AddUserCoins applies a relative credit as a single read-modify-write
// statement, creating the row on first reference.
func (q *Queries) AddUserCoins(ctx context.Context, arg AddUserCoinsParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, addUserCoinsQuery, arg.UserID, arg.Delta).Scan(
		&u.UserID, &u.Username, &u.Coins, &u.Level, &u.InvitedFrens, &u.InvitedBy)
	return u, err
}

type ClaimInviteParams struct {
	InviteeID int64
	InviterID int64
}

const claimInviteQuery = `
INSERT INTO users (user_id, invited_by)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET invited_by = EXCLUDED.invited_by
WHERE users.invited_by IS NULL
RETURNING user_id`

// ClaimInvite fixes the invitee's inviter, creating the invitee if it
// does not exist. The WHERE clause makes the claim first-writer-wins:
// once invited_by is set, no later statement matches and no row is
// returned. Returns false without error when the claim was lost.
func (q *Queries) ClaimInvite(ctx context.Context, arg ClaimInviteParams) (bool, error) {
	var id int64
	err := q.db.QueryRow(ctx, claimInviteQuery, arg.InviteeID, arg.InviterID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type CreditInviterParams struct {
	UserID int64
	Reward int64
}

const creditInviterQuery = `
UPDATE users
SET invited_frens = invited_frens + 1,
    coins         = coins + $2
WHERE user_id = $1`

// CreditInviter applies both inviter counters in one statement so no
// reader can observe one changed without the other.
func (q *Queries) CreditInviter(ctx context.Context, arg CreditInviterParams) error {
	tag, err := q.db.Exec(ctx, creditInviterQuery, arg.UserID, arg.Reward)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInviterNotFound
	}
	return nil
}

const getUserStatsQuery = `
SELECT count(*), COALESCE(sum(coins), 0)::bigint
FROM users`

// GetUserStats reads the aggregate directly from the table, bypassing
// any per-user caching.
func (q *Queries) GetUserStats(ctx context.Context) (UserStatsRow, error) {
	var row UserStatsRow
	err := q.db.QueryRow(ctx, getUserStatsQuery).Scan(&row.TotalUsers, &row.TotalCoins)
	return row, err
}

const listInviteesQuery = `
SELECT user_id, username, coins, level, invited_frens, invited_by
FROM users
WHERE invited_by = $1
ORDER BY coins DESC, user_id`

// ListInvitees returns the users whose invite was claimed by inviterID.
func (q *Queries) ListInvitees(ctx context.Context, inviterID int64) ([]User, error) {
	rows, err := q.db.Query(ctx, listInviteesQuery, inviterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Username, &u.Coins, &u.Level, &u.InvitedFrens, &u.InvitedBy); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type ApplyLevelUpParams struct {
	UserID int64
	Level  string
	Cost   int64
	Prize  int64
}

const applyLevelUpQuery = `
UPDATE users
SET level = $2,
    coins = coins - $3 + $4
WHERE user_id = $1 AND coins >= $3
RETURNING user_id, username, coins, level, invited_frens, invited_by`

// ApplyLevelUp debits the cost, credits the prize, and sets the new tier
// in one statement. No row is returned when the user is missing or the
// balance cannot cover the cost; the caller disambiguates.
func (q *Queries) ApplyLevelUp(ctx context.Context, arg ApplyLevelUpParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, applyLevelUpQuery,
		arg.UserID, arg.Level, arg.Cost, arg.Prize).Scan(
		&u.UserID, &u.Username, &u.Coins, &u.Level, &u.InvitedFrens, &u.InvitedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}
