package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"mighty-lite/card"
	"mighty-lite/mighty"
)

func TestRoomClientAcceptsBareStart(t *testing.T) {
	var msg RoomClient
	require.NoError(t, json.Unmarshal([]byte(`"Start"`), &msg))
	require.True(t, msg.Start)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `"Start"`, string(raw))
}

func TestRoomClientRejectsUnknownTag(t *testing.T) {
	var msg RoomClient
	require.Error(t, json.Unmarshal([]byte(`"Stop"`), &msg))
}

func TestRoomClientObjectForms(t *testing.T) {
	var msg RoomClient
	require.NoError(t, json.Unmarshal([]byte(`{"ChangeName":"new room"}`), &msg))
	require.NotNil(t, msg.ChangeName)
	require.Equal(t, "new room", *msg.ChangeName)

	cmd := mighty.CmdGo(card.Normal(card.Spade, card.RankAce), card.RushNone, false)
	raw, err := json.Marshal(RoomClient{Command: &cmd})
	require.NoError(t, err)

	var back RoomClient
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Command)
	require.NotNil(t, back.Command.Go)
	require.Equal(t, cmd.Go.Card, back.Command.Go.Card)
}

func TestMainClientAcceptsBareUpdate(t *testing.T) {
	var msg MainClient
	require.NoError(t, json.Unmarshal([]byte(`"Update"`), &msg))
	require.True(t, msg.Update)

	require.NoError(t, json.Unmarshal([]byte(`{"Subscribe":42}`), &msg))
	require.False(t, msg.Update)
	require.NotNil(t, msg.Subscribe)
	require.EqualValues(t, 42, *msg.Subscribe)
}

func TestFromErrorMapsEngineErrors(t *testing.T) {
	require.Nil(t, FromError(nil))

	msg := FromError(mighty.InvalidCommandError{Expected: "Pledge"})
	require.Equal(t, "InvalidCommand", msg.Kind)
	require.Equal(t, "Pledge", msg.Expected)

	msg = FromError(mighty.InvalidPledgeError{IsCeiling: true, Bound: 20})
	require.Equal(t, "InvalidPledge", msg.Kind)
	require.NotNil(t, msg.IsCeiling)
	require.True(t, *msg.IsCeiling)
	require.NotNil(t, msg.Bound)
	require.Equal(t, 20, *msg.Bound)

	msg = FromError(mighty.ErrNotLeader)
	require.Equal(t, "NotLeader", msg.Kind)

	msg = FromError(json.Unmarshal([]byte("{"), &struct{}{}))
	require.Equal(t, "Error", msg.Kind)
}
