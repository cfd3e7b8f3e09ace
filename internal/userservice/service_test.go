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

package userservice

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blazefam/blazeledger/internal/referral"
	"github.com/blazefam/blazeledger/internal/usercache"
	"github.com/blazefam/blazeledger/userdb"
)

// fakeStore mirrors the store's transactional semantics in memory,
// including create-on-first-write and the first-writer-wins invite
// claim, and counts store reads so tests can observe cache hits.
type fakeStore struct {
	mu           sync.Mutex
	users        map[int64]userdb.User
	tasks        map[int64]userdb.Task
	nextTaskID   int64
	getUserCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[int64]userdb.User),
		tasks: make(map[int64]userdb.Task),
	}
}

func cloneUser(u userdb.User) userdb.User {
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

func (f *fakeStore) GetUser(_ context.Context, userID int64) (userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUserCalls++
	u, ok := f.users[userID]
	if !ok {
		return userdb.User{}, userdb.ErrNotFound
	}
	return cloneUser(u), nil
}

func (f *fakeStore) UpsertUser(_ context.Context, arg userdb.UpsertUserParams) (userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[arg.UserID]
	if !ok {
		u = userdb.User{UserID: arg.UserID, Level: "Bronze"}
	}
	if arg.Username != nil {
		u.Username = arg.Username
	}
	if arg.Coins != nil {
		u.Coins = *arg.Coins
	}
	if arg.Level != nil {
		u.Level = *arg.Level
	}
	if arg.InvitedFrens != nil {
		u.InvitedFrens = *arg.InvitedFrens
	}
	f.users[arg.UserID] = u
	return cloneUser(u), nil
}

func (f *fakeStore) GetUserStats(_ context.Context) (userdb.UserStatsRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var row userdb.UserStatsRow
	for _, u := range f.users {
		row.TotalUsers++
		row.TotalCoins += u.Coins
	}
	return row, nil
}

func (f *fakeStore) ListInvitees(_ context.Context, inviterID int64) ([]userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []userdb.User
	for _, u := range f.users {
		if u.InvitedBy != nil && *u.InvitedBy == inviterID {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coins > out[j].Coins })
	return out, nil
}

func (f *fakeStore) ApplyLevelUp(_ context.Context, arg userdb.ApplyLevelUpParams) (userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[arg.UserID]
	if !ok || u.Coins < arg.Cost {
		return userdb.User{}, userdb.ErrNotFound
	}
	u.Level = arg.Level
	u.Coins = u.Coins - arg.Cost + arg.Prize
	f.users[arg.UserID] = u
	return cloneUser(u), nil
}

func (f *fakeStore) CompleteTaskCredit(_ context.Context, userID, taskID int64) (userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return userdb.User{}, userdb.ErrTaskNotFound
	}
	u, ok := f.users[userID]
	if !ok {
		u = userdb.User{UserID: userID, Level: "Bronze"}
	}
	u.Coins += task.Reward
	f.users[userID] = u
	return cloneUser(u), nil
}

func (f *fakeStore) ListTasks(_ context.Context) ([]userdb.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []userdb.Task
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) AddTask(_ context.Context, arg userdb.AddTaskParams) (userdb.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTaskID++
	t := userdb.Task{
		ID:          f.nextTaskID,
		Description: arg.Description,
		Reward:      arg.Reward,
		ImageURL:    arg.ImageURL,
		Header:      arg.Header,
		Link:        arg.Link,
		Type:        arg.Type,
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, taskID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[taskID]; !ok {
		return userdb.ErrTaskNotFound
	}
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeStore) ClaimInviteWithReward(_ context.Context, inviterID, inviteeID, reward int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[inviterID]; !ok {
		return userdb.ErrInviterNotFound
	}
	invitee, ok := f.users[inviteeID]
	if !ok {
		invitee = userdb.User{UserID: inviteeID, Level: "Bronze"}
	} else if invitee.InvitedBy != nil {
		return userdb.ErrAlreadyInvited
	}
	inviter := inviterID
	invitee.InvitedBy = &inviter
	f.users[inviteeID] = invitee

	u := f.users[inviterID]
	u.InvitedFrens++
	u.Coins += reward
	f.users[inviterID] = u
	return nil
}

func (f *fakeStore) storeReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getUserCalls
}

func newTestService(t *testing.T) (*Service, *fakeStore, *usercache.Cache) {
	t.Helper()
	store := newFakeStore()
	cache := usercache.New(100, time.Minute)
	t.Cleanup(cache.Stop)
	return New(store, cache), store, cache
}

func ptr[T any](v T) *T { return &v }

func TestFetchUserNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.FetchUser(context.Background(), 42)
	require.ErrorIs(t, err, userdb.ErrNotFound)
}

func TestFetchUserSecondReadServedFromCache(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.ApplyUpdate(context.Background(), userdb.UpsertUserParams{
		UserID: 42, Username: ptr("a"), Coins: ptr(int64(10)),
	})
	require.NoError(t, err)

	first, err := svc.FetchUser(context.Background(), 42)
	require.NoError(t, err)
	second, err := svc.FetchUser(context.Background(), 42)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, store.storeReads(), "second fetch within the TTL must not hit the store")
}

func TestFetchUserNegativeResultNotCached(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.FetchUser(context.Background(), 42)
	require.ErrorIs(t, err, userdb.ErrNotFound)
	_, err = svc.FetchUser(context.Background(), 42)
	require.ErrorIs(t, err, userdb.ErrNotFound)

	require.Equal(t, 2, store.storeReads(), "misses must not be cached")
}

func TestApplyUpdateInvalidatesCacheEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 42, Coins: ptr(int64(10))})
	require.NoError(t, err)

	got, err := svc.FetchUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Coins)

	_, err = svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 42, Coins: ptr(int64(99))})
	require.NoError(t, err)

	got, err = svc.FetchUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(99), got.Coins, "read after update must never return the stale snapshot")
}

func TestApplyUpdateCreatesWithDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	user, err := svc.ApplyUpdate(context.Background(), userdb.UpsertUserParams{
		UserID: 42, Username: ptr("a"), Coins: ptr(int64(10)),
	})
	require.NoError(t, err)
	require.Equal(t, "Bronze", user.Level)
	require.Equal(t, int64(0), user.InvitedFrens)
	require.Nil(t, user.InvitedBy)
}

func TestApplyUpdatePartialLeavesOtherFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyUpdate(ctx, userdb.UpsertUserParams{
		UserID:   42,
		Username: ptr("a"),
		Coins:    ptr(int64(10)),
		Level:    ptr("Gold"),
	})
	require.NoError(t, err)

	user, err := svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 42, Coins: ptr(int64(5))})
	require.NoError(t, err)

	require.Equal(t, int64(5), user.Coins)
	require.Equal(t, "a", *user.Username)
	require.Equal(t, "Gold", user.Level)
	require.Equal(t, int64(0), user.InvitedFrens)
}

func TestApplyUpdatePresentButEmptyValueApplied(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 42, Username: ptr("a")})
	require.NoError(t, err)

	user, err := svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 42, Username: ptr("")})
	require.NoError(t, err)
	require.NotNil(t, user.Username)
	require.Equal(t, "", *user.Username, "a present-but-empty value is applied verbatim")
}

func TestLevelUp(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 1, Coins: ptr(int64(5000))})
	require.NoError(t, err)

	user, err := svc.LevelUp(ctx, LevelUpParams{UserID: 1, Level: "Gold", Cost: 3000, Prize: 5000})
	require.NoError(t, err)
	require.Equal(t, "Gold", user.Level)
	require.Equal(t, int64(7000), user.Coins)

	_, err = svc.LevelUp(ctx, LevelUpParams{UserID: 1, Level: "Platinum", Cost: 10000, Prize: 15000})
	require.ErrorIs(t, err, ErrInsufficientCoins)

	_, err = svc.LevelUp(ctx, LevelUpParams{UserID: 2, Level: "Gold", Cost: 0, Prize: 0})
	require.ErrorIs(t, err, userdb.ErrNotFound)
}

func TestCompleteTaskCreditsCatalogReward(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, userdb.AddTaskParams{Description: "join channel", Reward: 500, Type: "Telegram"})
	require.NoError(t, err)

	_, err = svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 42, Coins: ptr(int64(10))})
	require.NoError(t, err)

	// Prime the cache, then complete the task and re-read.
	_, err = svc.FetchUser(ctx, 42)
	require.NoError(t, err)

	user, err := svc.CompleteTask(ctx, 42, task.ID)
	require.NoError(t, err)
	require.Equal(t, int64(510), user.Coins)

	got, err := svc.FetchUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(510), got.Coins, "cache entry must be invalidated after the credit")

	_, err = svc.CompleteTask(ctx, 42, 9999)
	require.ErrorIs(t, err, userdb.ErrTaskNotFound)
}

func TestScenarioLedgerFlow(t *testing.T) {
	store := newFakeStore()
	cache := usercache.New(100, time.Minute)
	t.Cleanup(cache.Stop)
	svc := New(store, cache)
	referrals := referral.New(store, cache, 150)
	ctx := context.Background()

	// Unknown user reads as not found.
	_, err := svc.FetchUser(ctx, 42)
	require.ErrorIs(t, err, userdb.ErrNotFound)

	// First write creates the user with defaults for the rest.
	_, err = svc.ApplyUpdate(ctx, userdb.UpsertUserParams{
		UserID: 42, Username: ptr("a"), Coins: ptr(int64(10)),
	})
	require.NoError(t, err)

	user, err := svc.FetchUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(10), user.Coins)
	require.Equal(t, "Bronze", user.Level)

	// Inviting an unknown user creates it already claimed.
	require.NoError(t, referrals.InviteFriend(ctx, 42, 99))

	inviter, err := svc.FetchUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(1), inviter.InvitedFrens)
	require.Equal(t, int64(160), inviter.Coins)

	invitee, err := svc.FetchUser(ctx, 99)
	require.NoError(t, err)
	require.NotNil(t, invitee.InvitedBy)
	require.Equal(t, int64(42), *invitee.InvitedBy)

	// The claim is permanent, even for a different inviter.
	_, err = svc.ApplyUpdate(ctx, userdb.UpsertUserParams{UserID: 7, Coins: ptr(int64(0))})
	require.NoError(t, err)
	err = referrals.InviteFriend(ctx, 7, 99)
	require.ErrorIs(t, err, userdb.ErrAlreadyInvited)

	invitee, err = svc.FetchUser(ctx, 99)
	require.NoError(t, err)
	require.Equal(t, int64(42), *invitee.InvitedBy)

	// Frens listing sees the claimed invitee.
	frens, err := svc.ListFrens(ctx, 42)
	require.NoError(t, err)
	require.Len(t, frens, 1)
	require.Equal(t, int64(99), frens[0].UserID)

	// Aggregate stats reflect the live table.
	stats, err := svc.AggregateStats(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.TotalUsers, int64(2))
	require.GreaterOrEqual(t, stats.TotalCoins, int64(170))
}
