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

// Package userservice orchestrates user reads and writes: reads are
// cache-first with a store fallback and cache fill, writes go to the
// store first and invalidate the cache entry after commit so the next
// read re-derives authoritative state.
package userservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blazefam/blazeledger/internal/logctx"
	"github.com/blazefam/blazeledger/internal/usercache"
	"github.com/blazefam/blazeledger/userdb"
)

// ErrInsufficientCoins is returned by LevelUp when the balance cannot
// cover the tier cost. Nothing is mutated.
var ErrInsufficientCoins = errors.New("insufficient coins")

// Store is the slice of userdb.Store the service depends on.
type Store interface {
	GetUser(ctx context.Context, userID int64) (userdb.User, error)
	UpsertUser(ctx context.Context, arg userdb.UpsertUserParams) (userdb.User, error)
	GetUserStats(ctx context.Context) (userdb.UserStatsRow, error)
	ListInvitees(ctx context.Context, inviterID int64) ([]userdb.User, error)
	ApplyLevelUp(ctx context.Context, arg userdb.ApplyLevelUpParams) (userdb.User, error)
	CompleteTaskCredit(ctx context.Context, userID, taskID int64) (userdb.User, error)
	ListTasks(ctx context.Context) ([]userdb.Task, error)
	AddTask(ctx context.Context, arg userdb.AddTaskParams) (userdb.Task, error)
	DeleteTask(ctx context.Context, taskID int64) error
}

type Service struct {
	store Store
	cache *usercache.Cache
}

func New(store Store, cache *usercache.Cache) *Service {
	return &Service{store: store, cache: cache}
}

// FetchUser returns a snapshot of the user, from the cache when a
// non-expired entry exists, otherwise from the store. Negative results
// are not cached.
func (s *Service) FetchUser(ctx context.Context, userID int64) (userdb.User, error) {
	if user, ok := s.cache.Get(userID); ok {
		return user, nil
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return userdb.User{}, err
	}
	s.cache.Put(user)
	return user, nil
}

// ApplyUpdate upserts the supplied fields, then invalidates the cache
// entry. Exactly one store transaction and at most one invalidation per
// call; the entry is dropped rather than refreshed.
func (s *Service) ApplyUpdate(ctx context.Context, arg userdb.UpsertUserParams) (userdb.User, error) {
	user, err := s.store.UpsertUser(ctx, arg)
	if err != nil {
		if userdb.IsIntegrityViolation(err) {
			logctx.FromContext(ctx).Warn("User update hit integrity constraint",
				slog.Int64("user_id", arg.UserID), slog.Any("error", err))
		}
		return userdb.User{}, err
	}
	s.cache.Invalidate(arg.UserID)
	return user, nil
}

// AggregateStats reads the live aggregate; the per-user cache is
// bypassed entirely.
func (s *Service) AggregateStats(ctx context.Context) (userdb.UserStatsRow, error) {
	return s.store.GetUserStats(ctx)
}

// ListFrens returns the users invited by userID.
func (s *Service) ListFrens(ctx context.Context, userID int64) ([]userdb.User, error) {
	return s.store.ListInvitees(ctx, userID)
}

// CompleteTask credits the catalog reward of taskID to userID and
// invalidates the user's cache entry.
func (s *Service) CompleteTask(ctx context.Context, userID, taskID int64) (userdb.User, error) {
	user, err := s.store.CompleteTaskCredit(ctx, userID, taskID)
	if err != nil {
		return userdb.User{}, err
	}
	s.cache.Invalidate(userID)
	return user, nil
}

type LevelUpParams struct {
	UserID int64
	Level  string
	Cost   int64
	Prize  int64
}

// LevelUp moves the user to a new tier, debiting the cost and crediting
// the prize atomically. Returns ErrInsufficientCoins when the balance is
// too low and userdb.ErrNotFound for an unknown user.
func (s *Service) LevelUp(ctx context.Context, arg LevelUpParams) (userdb.User, error) {
	user, err := s.store.ApplyLevelUp(ctx, userdb.ApplyLevelUpParams{
		UserID: arg.UserID,
		Level:  arg.Level,
		Cost:   arg.Cost,
		Prize:  arg.Prize,
	})
	if errors.Is(err, userdb.ErrNotFound) {
		// No row matched: either the user is missing or too poor.
		if _, getErr := s.store.GetUser(ctx, arg.UserID); getErr == nil {
			return userdb.User{}, ErrInsufficientCoins
		}
		return userdb.User{}, userdb.ErrNotFound
	}
	if err != nil {
		return userdb.User{}, err
	}
	s.cache.Invalidate(arg.UserID)
	return user, nil
}

// Tasks returns the task catalog.
func (s *Service) Tasks(ctx context.Context) ([]userdb.Task, error) {
	return s.store.ListTasks(ctx)
}

// AddTask inserts a catalog row.
func (s *Service) AddTask(ctx context.Context, arg userdb.AddTaskParams) (userdb.Task, error) {
	return s.store.AddTask(ctx, arg)
}

// DeleteTask removes a catalog row.
func (s *Service) DeleteTask(ctx context.Context, taskID int64) error {
	return s.store.DeleteTask(ctx, taskID)
}
