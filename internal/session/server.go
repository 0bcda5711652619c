package session

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mighty-lite/internal/actor"
	"mighty-lite/internal/hub"
	"mighty-lite/internal/room"
	"mighty-lite/internal/user"
	"mighty-lite/internal/wire"
	"mighty-lite/mighty"
)

// Server terminates the websocket sub-protocols and bridges them onto the
// actor mesh. One stream = one sub-protocol = one handler goroutine.
type Server struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func New(h *hub.Hub) *Server {
	return &Server{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the sub-protocol endpoints.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws/list", s.handleList)
	mux.HandleFunc("/ws/main", s.handleMain)
	mux.HandleFunc("/ws/room", s.handleRoom)
	mux.HandleFunc("/ws/observe", s.handleObserve)
	mux.HandleFunc("/ws/chat", s.handleChat)
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*stream, bool) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Session] Upgrade: %v", err)
		return nil, false
	}
	return newStream(s.nextID.Add(1), conn, nil), true
}

func queryInt(r *http.Request, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// handleList streams RoomInfo updates. The client gets a snapshot of every
// room on connect and may subscribe to per-room updates.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	st, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer st.close()

	sink := actor.NewExternalAddr[wire.ListServer]()
	sink.Bind(func(msg wire.ListServer) { st.sendJSON(msg) })
	defer sink.Unbind()

	for _, rm := range s.hub.Rooms() {
		info := rm.Info()
		if info.Uid == "" {
			continue
		}
		st.sendJSON(wire.ListServer{Room: &info})
	}

	subscribed := make(map[int]*room.Room)
	defer func() {
		for _, rm := range subscribed {
			rm.Unsubscribe(st.id)
		}
	}()

	st.readLoop(func(raw []byte) {
		var msg wire.ListClient
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[Session %d] List decode: %v", st.id, err)
			return
		}
		switch {
		case msg.Subscribe != nil:
			rm, err := s.hub.GetRoom(*msg.Subscribe)
			if err != nil {
				return
			}
			subscribed[*msg.Subscribe] = rm
			rm.Subscribe(st.id, sink)
		case msg.Unsubscribe != nil:
			if rm, ok := subscribed[*msg.Unsubscribe]; ok {
				rm.Unsubscribe(st.id)
				delete(subscribed, *msg.Unsubscribe)
			}
		}
	})
}

// handleMain is the presence channel: it keeps the user alive, accepts
// activity refreshes and streams status updates for watched users.
func (s *Server) handleMain(w http.ResponseWriter, r *http.Request) {
	userNo, ok := queryInt(r, "user")
	if !ok {
		http.Error(w, "user query parameter required", http.StatusBadRequest)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	u, err := s.hub.Connect(ctx, userNo)
	cancel()
	if err != nil {
		http.Error(w, "unknown user", http.StatusForbidden)
		return
	}

	st, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	st.onActivity = u.Touch
	defer st.close()

	u.Connect(user.ChannelMain, st.id)
	defer u.Disconnect(user.ChannelMain, st.id)

	// watched maps a target user to the listener id registered on them.
	watched := make(map[int64]int)
	defer func() {
		for target, id := range watched {
			if tu, err := s.hub.GetUser(target); err == nil {
				tu.RemoveListener(id)
			}
		}
	}()

	st.readLoop(func(raw []byte) {
		var msg wire.MainClient
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[Session %d] Main decode: %v", st.id, err)
			return
		}
		switch {
		case msg.Update:
			u.Touch()
		case msg.Subscribe != nil:
			target := *msg.Subscribe
			if _, dup := watched[target]; dup {
				return
			}
			tu, err := s.hub.GetUser(target)
			if err != nil {
				st.sendJSON(wire.MainServer{UserNo: target, Status: user.StatusOffline.String()})
				return
			}
			watched[target] = tu.AddListener(func(no int64, status user.Status) {
				st.sendJSON(wire.MainServer{UserNo: no, Status: status.String()})
			})
			st.sendJSON(wire.MainServer{UserNo: target, Status: tu.GetStatus().String()})
		case msg.Unsubscribe != nil:
			if id, ok := watched[*msg.Unsubscribe]; ok {
				if tu, err := s.hub.GetUser(*msg.Unsubscribe); err == nil {
					tu.RemoveListener(id)
				}
				delete(watched, *msg.Unsubscribe)
			}
		}
	})
}

// handleRoom is the gameplay channel: join a seat, then room commands.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	userNo, ok := queryInt(r, "user")
	if !ok {
		http.Error(w, "user query parameter required", http.StatusBadRequest)
		return
	}
	roomId, ok := queryInt(r, "room")
	if !ok {
		http.Error(w, "room query parameter required", http.StatusBadRequest)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	u, err := s.hub.Connect(ctx, userNo)
	cancel()
	if err != nil {
		http.Error(w, "unknown user", http.StatusForbidden)
		return
	}
	rm, err := s.hub.GetRoom(int(roomId))
	if err != nil {
		http.Error(w, "no such room", http.StatusNotFound)
		return
	}

	st, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	st.onActivity = u.Touch
	defer st.close()

	u.Connect(user.ChannelRoom, st.id)
	defer u.Disconnect(user.ChannelRoom, st.id)

	sink := actor.NewExternalAddr[wire.RoomServer]()
	sink.Bind(func(msg wire.RoomServer) { st.sendJSON(msg) })
	defer sink.Unbind()

	// A seat outlives its stream: the hub vacates it once the user goes
	// fully offline, so a reconnect within the grace window keeps it.
	if err := rm.Join(userNo, sink); err != nil {
		st.sendJSON(wire.RoomServer{Error: wire.FromError(err)})
		return
	}

	st.readLoop(func(raw []byte) {
		var msg wire.RoomClient
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[Session %d] Room decode: %v", st.id, err)
			return
		}
		var cmdErr error
		switch {
		case msg.Start:
			cmdErr = rm.StartGame(userNo)
		case msg.ChangeName != nil:
			cmdErr = rm.ChangeName(userNo, *msg.ChangeName)
		case msg.ChangeRule != nil:
			cmdErr = rm.ChangeRule(userNo, msg.ChangeRule)
		case msg.Command != nil:
			cmdErr = rm.Command(userNo, *msg.Command)
		default:
			cmdErr = mighty.InvalidCommandError{Expected: "Start|ChangeName|ChangeRule|Command"}
		}
		if cmdErr != nil {
			st.sendJSON(wire.RoomServer{Error: wire.FromError(cmdErr)})
		}
	})
}

// handleObserve is the read-only view of a room.
func (s *Server) handleObserve(w http.ResponseWriter, r *http.Request) {
	roomId, ok := queryInt(r, "room")
	if !ok {
		http.Error(w, "room query parameter required", http.StatusBadRequest)
		return
	}
	rm, err := s.hub.GetRoom(int(roomId))
	if err != nil {
		http.Error(w, "no such room", http.StatusNotFound)
		return
	}

	st, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	defer st.close()

	// Observers may be logged in; presence is optional here.
	if userNo, ok := queryInt(r, "user"); ok {
		ctx, cancel := contextWithTimeout(r)
		if u, err := s.hub.Connect(ctx, userNo); err == nil {
			st.onActivity = u.Touch
			u.Connect(user.ChannelObserve, st.id)
			defer u.Disconnect(user.ChannelObserve, st.id)
		}
		cancel()
	}

	sink := actor.NewExternalAddr[wire.RoomServer]()
	sink.Bind(func(msg wire.RoomServer) { st.sendJSON(msg) })
	defer sink.Unbind()

	if err := rm.Observe(st.id, sink); err != nil {
		st.sendJSON(wire.RoomServer{Error: wire.FromError(err)})
		return
	}
	defer rm.LeaveObserver(st.id)

	// Inbound frames only feed the liveness clock.
	st.readLoop(func([]byte) {})
}

// handleChat relays room chat lines.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userNo, ok := queryInt(r, "user")
	if !ok {
		http.Error(w, "user query parameter required", http.StatusBadRequest)
		return
	}
	roomId, ok := queryInt(r, "room")
	if !ok {
		http.Error(w, "room query parameter required", http.StatusBadRequest)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	u, err := s.hub.Connect(ctx, userNo)
	cancel()
	if err != nil {
		http.Error(w, "unknown user", http.StatusForbidden)
		return
	}
	rm, err := s.hub.GetRoom(int(roomId))
	if err != nil {
		http.Error(w, "no such room", http.StatusNotFound)
		return
	}

	st, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	st.onActivity = u.Touch
	defer st.close()

	u.Connect(user.ChannelChat, st.id)
	defer u.Disconnect(user.ChannelChat, st.id)

	st.readLoop(func(raw []byte) {
		var msg wire.ChatClient
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Message == "" {
			return
		}
		rm.Chat(wire.ChatMsg{UserNo: userNo, Name: u.Info.Name, Message: msg.Message})
	})
}

func contextWithTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}
