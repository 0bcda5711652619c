package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendQueuesUntilBind(t *testing.T) {
	addr := NewExternalAddr[int]()
	require.False(t, addr.Bound())
	require.True(t, addr.Send(1))
	require.True(t, addr.Send(2))
	require.True(t, addr.Send(3))

	var got []int
	addr.Bind(func(v int) { got = append(got, v) })
	require.Equal(t, []int{1, 2, 3}, got, "pending messages must flush in order")

	require.True(t, addr.Send(4))
	require.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestPendingOverflowDropsMessage(t *testing.T) {
	addr := NewExternalAddr[int]()
	for i := 0; i < pendingLimit; i++ {
		require.True(t, addr.Send(i))
	}
	require.False(t, addr.Send(pendingLimit), "overflow must report a drop")

	var got []int
	addr.Bind(func(v int) { got = append(got, v) })
	require.Len(t, got, pendingLimit)
	require.Equal(t, pendingLimit-1, got[len(got)-1])
}

func TestUnbindKeepsHandleUsable(t *testing.T) {
	addr := NewExternalAddr[string]()
	var got []string
	addr.Bind(func(v string) { got = append(got, v) })
	require.True(t, addr.Send("a"))

	addr.Unbind()
	require.False(t, addr.Bound())
	require.True(t, addr.Send("b"), "sends after unbind queue again")
	require.Equal(t, []string{"a"}, got)

	addr.Bind(func(v string) { got = append(got, v) })
	require.Equal(t, []string{"a", "b"}, got)
}
