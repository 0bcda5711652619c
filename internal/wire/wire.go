package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mighty-lite/mighty"
)

// RoomInfo is the public shape of a room, sent on the list and room
// sub-protocols. User slots hold 0 when the seat is empty.
type RoomInfo struct {
	Uid         string       `json:"uid"`
	Id          int          `json:"id"`
	Name        string       `json:"name"`
	Rule        *mighty.Rule `json:"rule"`
	IsRank      bool         `json:"is_rank"`
	Head        int          `json:"head"`
	Users       []int64      `json:"user"`
	ObserverCnt int          `json:"observer_cnt"`
	IsGame      bool         `json:"is_game"`
}

// ChatMsg is broadcast to room users and observers on the chat channel.
type ChatMsg struct {
	UserNo  int64  `json:"user_no"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// RoomServer is a server→client message on the room and observe
// sub-protocols; exactly one field is set.
type RoomServer struct {
	Room  *RoomInfo     `json:"Room,omitempty"`
	Game  *mighty.State `json:"Game,omitempty"`
	Chat  *ChatMsg      `json:"Chat,omitempty"`
	Error *ErrorMsg     `json:"Error,omitempty"`
}

// RoomClient is a client→server message on the room sub-protocol. The
// bare string "Start" and single-key objects are both accepted.
type RoomClient struct {
	Start      bool
	ChangeName *string
	ChangeRule *mighty.Rule
	Command    *mighty.Command
}

func (m *RoomClient) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "Start" {
			return fmt.Errorf("unknown room command %q", tag)
		}
		*m = RoomClient{Start: true}
		return nil
	}
	var obj struct {
		ChangeName *string         `json:"ChangeName"`
		ChangeRule *mighty.Rule    `json:"ChangeRule"`
		Command    *mighty.Command `json:"Command"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = RoomClient{ChangeName: obj.ChangeName, ChangeRule: obj.ChangeRule, Command: obj.Command}
	return nil
}

func (m RoomClient) MarshalJSON() ([]byte, error) {
	switch {
	case m.Start:
		return json.Marshal("Start")
	case m.ChangeName != nil:
		return json.Marshal(map[string]string{"ChangeName": *m.ChangeName})
	case m.ChangeRule != nil:
		return json.Marshal(map[string]*mighty.Rule{"ChangeRule": m.ChangeRule})
	case m.Command != nil:
		return json.Marshal(map[string]*mighty.Command{"Command": m.Command})
	}
	return nil, fmt.Errorf("empty room command")
}

// ListServer is a server→client message on the list sub-protocol.
type ListServer struct {
	Room *RoomInfo `json:"Room,omitempty"`
}

// ListClient subscribes or unsubscribes a room id on the list feed.
type ListClient struct {
	Subscribe   *int `json:"Subscribe,omitempty"`
	Unsubscribe *int `json:"Unsubscribe,omitempty"`
}

// MainServer is a per-user status update.
type MainServer struct {
	UserNo int64  `json:"user_no"`
	Status string `json:"status"`
}

// MainClient is a client→server message on the main sub-protocol. The
// bare string "Update" refreshes the user's activity stamp.
type MainClient struct {
	Update      bool
	Subscribe   *int64
	Unsubscribe *int64
}

func (m *MainClient) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "Update" {
			return fmt.Errorf("unknown main command %q", tag)
		}
		*m = MainClient{Update: true}
		return nil
	}
	var obj struct {
		Subscribe   *int64 `json:"Subscribe"`
		Unsubscribe *int64 `json:"Unsubscribe"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*m = MainClient{Subscribe: obj.Subscribe, Unsubscribe: obj.Unsubscribe}
	return nil
}

func (m MainClient) MarshalJSON() ([]byte, error) {
	switch {
	case m.Update:
		return json.Marshal("Update")
	case m.Subscribe != nil:
		return json.Marshal(map[string]int64{"Subscribe": *m.Subscribe})
	case m.Unsubscribe != nil:
		return json.Marshal(map[string]int64{"Unsubscribe": *m.Unsubscribe})
	}
	return nil, fmt.Errorf("empty main command")
}

// ChatClient carries one chat line from a room user.
type ChatClient struct {
	Message string `json:"Message"`
}
