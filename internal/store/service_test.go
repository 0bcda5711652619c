package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mighty-lite/mighty"
)

func TestMemoryRegisterAndAuthenticate(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	info, err := svc.RegisterUser(ctx, "alice", "Alice", "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.NotZero(t, info.No)
	require.Equal(t, defaultRating, info.Rating)

	_, err = svc.RegisterUser(ctx, "alice", "Other", "", "pw")
	require.ErrorIs(t, err, ErrDuplicateID)

	_, err = svc.RegisterUser(ctx, "", "NoId", "", "pw")
	require.ErrorIs(t, err, ErrEmptyField)

	got, err := svc.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, info, got)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrBadPassword)

	_, err = svc.Authenticate(ctx, "nobody", "pw")
	require.ErrorIs(t, err, ErrNotFound)

	byID, err := svc.GetUserInfoByID(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, info, byID)
}

func TestMemoryGuestFallback(t *testing.T) {
	svc := NewMemoryService()
	info, err := svc.GetUserInfoByNo(context.Background(), 777)
	require.NoError(t, err)
	require.EqualValues(t, 777, info.No)
	require.Equal(t, "guest_777", info.Id)
	require.Equal(t, defaultRating, info.Rating)
}

func TestMemoryRatingHistory(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	info, err := svc.RegisterUser(ctx, "bob", "Bob", "", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.ChangeRating(ctx, info.No, "g1", 30, 1530))
	require.NoError(t, svc.ChangeRating(ctx, info.No, "g2", -10, 1520))

	entries, err := svc.GetRating(ctx, info.No, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "g1", entries[0].GameId)
	require.Equal(t, 1520, entries[1].Rating)

	entries, err = svc.GetRating(ctx, info.No, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "g2", entries[0].GameId)

	updated, err := svc.GetUserInfoByNo(ctx, info.No)
	require.NoError(t, err)
	require.Equal(t, 1520, updated.Rating)
}

func TestMemoryRulePersistence(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	_, err := svc.LoadRule(ctx, 123456)
	require.ErrorIs(t, err, ErrNotFound)

	rule := mighty.Default5()
	require.NoError(t, svc.SaveRule(ctx, 123456, rule))
	got, err := svc.LoadRule(ctx, 123456)
	require.NoError(t, err)
	require.Equal(t, rule, got)
}

func TestNewServiceModes(t *testing.T) {
	svc, mode, err := NewService("", "", "")
	require.NoError(t, err)
	require.Equal(t, "memory", mode)
	require.NoError(t, svc.Close())

	_, _, err = NewService("bogus", "", "")
	require.Error(t, err)
}

func TestSQLiteRoundTrip(t *testing.T) {
	svc, err := NewSQLiteService(t.TempDir() + "/store.db")
	require.NoError(t, err)
	defer svc.Close()
	ctx := context.Background()

	info, err := svc.RegisterUser(ctx, "carol", "Carol", "carol@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.RegisterUser(ctx, "carol", "", "", "pw")
	require.ErrorIs(t, err, ErrDuplicateID)

	got, err := svc.Authenticate(ctx, "carol", "pw")
	require.NoError(t, err)
	require.Equal(t, info.No, got.No)

	_, err = svc.GetUserInfoByNo(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	rule := mighty.Default5()
	require.NoError(t, svc.MakeGameRecord(ctx, "game-1", 123456, "table", []int64{1, 2, 3, 4, 5}, true, rule))
	require.NoError(t, svc.SaveState(ctx, "game-1", 123456, 1, mighty.NewState()))
	// Duplicate sequence numbers are ignored, not fatal.
	require.NoError(t, svc.SaveState(ctx, "game-1", 123456, 1, mighty.NewState()))

	require.NoError(t, svc.ChangeRating(ctx, info.No, "game-1", 40, 1540))
	entries, err := svc.GetRating(ctx, info.No, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 40, entries[0].Diff)

	updated, err := svc.GetUserInfoByNo(ctx, info.No)
	require.NoError(t, err)
	require.Equal(t, 1540, updated.Rating)
}

func TestSQLiteRulePersistence(t *testing.T) {
	svc, err := NewSQLiteService(t.TempDir() + "/store.db")
	require.NoError(t, err)
	defer svc.Close()
	ctx := context.Background()

	_, err = svc.LoadRule(ctx, 123456)
	require.ErrorIs(t, err, ErrNotFound)

	rule := mighty.Default5()
	require.NoError(t, svc.SaveRule(ctx, 123456, rule))
	got, err := svc.LoadRule(ctx, 123456)
	require.NoError(t, err)
	require.Equal(t, rule, got)

	// A rule change upserts the same row.
	changed := mighty.Default5()
	changed.Pledge.Min = 14
	require.NoError(t, svc.SaveRule(ctx, 123456, changed))
	got, err = svc.LoadRule(ctx, 123456)
	require.NoError(t, err)
	require.Equal(t, 14, got.Pledge.Min)
}

func TestCachedServiceReadThrough(t *testing.T) {
	inner := NewMemoryService()
	svc, err := NewCachedService(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	info, err := svc.RegisterUser(ctx, "dave", "Dave", "", "pw")
	require.NoError(t, err)

	cached, err := svc.GetUserInfoByNo(ctx, info.No)
	require.NoError(t, err)
	require.Equal(t, info, cached)

	// A rating change must invalidate the cached row.
	require.NoError(t, svc.ChangeRating(ctx, info.No, "g1", 20, 1520))
	fresh, err := svc.GetUserInfoByNo(ctx, info.No)
	require.NoError(t, err)
	require.Equal(t, 1520, fresh.Rating)
}
