package user

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mighty-lite/internal/store"
)

func newTestUser(t *testing.T, offline func(int64)) *User {
	t.Helper()
	u := New(store.UserInfo{No: 7, Id: "tester", Name: "Tester"}, offline)
	t.Cleanup(u.Stop)
	return u
}

func TestStatusOnlineWhileConnected(t *testing.T) {
	u := newTestUser(t, nil)
	require.Equal(t, StatusDisconnected, u.GetStatus())

	u.Connect(ChannelMain, 1)
	require.Equal(t, StatusOnline, u.GetStatus())

	u.Connect(ChannelRoom, 2)
	u.Disconnect(ChannelMain, 1)
	require.Equal(t, StatusOnline, u.GetStatus(), "one open channel keeps the user online")

	u.Disconnect(ChannelRoom, 2)
	require.Equal(t, StatusDisconnected, u.GetStatus(), "grace window after the last stream drops")
}

func TestListenerFiresOnTransition(t *testing.T) {
	u := newTestUser(t, nil)

	var mu sync.Mutex
	var seen []Status
	id := u.AddListener(func(_ int64, st Status) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})
	require.NotZero(t, id)

	u.Connect(ChannelMain, 1)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 1 && seen[0] == StatusOnline
	}, time.Second, 10*time.Millisecond)

	u.Disconnect(ChannelMain, 1)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2 && seen[1] == StatusDisconnected
	}, time.Second, 10*time.Millisecond)

	// Removed listeners stay silent.
	u.RemoveListener(id)
	u.Connect(ChannelMain, 2)
	require.Equal(t, StatusOnline, u.GetStatus())
	mu.Lock()
	n := len(seen)
	mu.Unlock()
	require.Equal(t, 2, n)
}

func TestStoppedUserReportsOffline(t *testing.T) {
	u := New(store.UserInfo{No: 9}, nil)
	u.Stop()
	require.Eventually(t, func() bool {
		return u.GetStatus() == StatusOffline
	}, time.Second, 10*time.Millisecond)
}
