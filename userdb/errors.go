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
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a user id has no row. Expected and
	// non-fatal; callers decide whether it is an error at their layer.
	ErrNotFound = errors.New("user not found")

	// ErrTaskNotFound is returned when a task id has no catalog row.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInviterNotFound is returned by ClaimInviteWithReward when the
	// inviter does not exist. Nothing is mutated.
	ErrInviterNotFound = errors.New("inviter not found")

	// ErrAlreadyInvited is returned when the invitee's invited_by is
	// already set. The first successful claim is permanent; every later
	// attempt fails, including repeats from the same inviter.
	ErrAlreadyInvited = errors.New("user already invited")
)

// IsIntegrityViolation reports whether err is a storage constraint
// failure, such as a duplicate username or an invited_by reference to a
// missing user. The transaction has already been rolled back when this
// is observed; the caller surfaces it as a server-side failure.
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
}
