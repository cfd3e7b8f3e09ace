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

// User is one row of the users table. UserID is externally assigned
// (Telegram user id), never generated here. InvitedBy is nil until the
// user has been claimed by an inviter, and immutable afterwards.
type User struct {
	UserID       int64
	Username     *string
	Coins        int64
	Level        string
	InvitedFrens int64
	InvitedBy    *int64
}

// Task is one row of the static task catalog.
type Task struct {
	ID          int64
	Description string
	Reward      int64
	ImageURL    string
	Header      string
	Link        string
	Type        string
}

// UserStatsRow is the aggregate over all users. It is always computed
// from the live table, never from cached snapshots.
type UserStatsRow struct {
	TotalUsers int64
	TotalCoins int64
}
