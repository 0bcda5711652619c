package hub

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"mighty-lite/internal/room"
	"mighty-lite/internal/store"
	"mighty-lite/internal/user"
	"mighty-lite/mighty"
)

var (
	ErrRoomNotFound = errors.New("no such room")
	ErrUserNotFound = errors.New("user is not connected")
	ErrTooManyRooms = errors.New("room id space exhausted")
)

// Hub is the single in-process directory of rooms and connected users.
// Rooms and users are actors; the hub itself only guards the two maps.
type Hub struct {
	mu    sync.Mutex
	rooms map[int]*room.Room
	users map[int64]*user.User

	store store.Service
	rng   *rand.Rand

	roomOpts room.Options
}

func New(svc store.Service, seed int64, roomOpts room.Options) *Hub {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Hub{
		rooms:    make(map[int]*room.Room),
		users:    make(map[int64]*user.User),
		store:    svc,
		rng:      rand.New(rand.NewSource(seed)),
		roomOpts: roomOpts,
	}
}

// MakeRoom allocates a free 6-digit id and spawns the room actor.
func (h *Hub) MakeRoom(name string, rule *mighty.Rule, isRank bool) (*room.Room, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := 0
	for tries := 0; ; tries++ {
		if tries >= 1000 {
			return nil, ErrTooManyRooms
		}
		id = h.rng.Intn(1_000_000)
		if id < 100_000 {
			continue
		}
		if _, taken := h.rooms[id]; !taken {
			break
		}
	}

	r := room.New(id, name, rule, isRank, h.store, h.RemoveRoom, h.roomOpts)
	h.rooms[id] = r
	log.Printf("[Hub] Room %06d created (%q, rank=%v)", id, name, isRank)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.store.SaveRule(ctx, id, rule); err != nil {
			log.Printf("[Hub] SaveRule for room %06d: %v", id, err)
		}
	}()
	return r, nil
}

func (h *Hub) GetRoom(id int) (*room.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// RemoveRoom drops the directory entry; the room actor stops itself.
func (h *Hub) RemoveRoom(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[id]; ok {
		delete(h.rooms, id)
		log.Printf("[Hub] Room %06d removed", id)
	}
}

// Rooms snapshots the public shape of every live room.
func (h *Hub) Rooms() []*room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*room.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}

// Connect resolves the account and spawns (or returns) the presence actor.
// An unknown user number fails the connection.
func (h *Hub) Connect(ctx context.Context, userNo int64) (*user.User, error) {
	h.mu.Lock()
	if u, ok := h.users[userNo]; ok {
		h.mu.Unlock()
		return u, nil
	}
	h.mu.Unlock()

	info, err := h.store.GetUserInfoByNo(ctx, userNo)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if u, ok := h.users[userNo]; ok {
		return u, nil
	}
	u := user.New(info, h.Disconnect)
	h.users[userNo] = u
	log.Printf("[Hub] User %d (%s) connected", userNo, info.Name)
	return u, nil
}

func (h *Hub) GetUser(userNo int64) (*user.User, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.users[userNo]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Disconnect garbage-collects an offline user and frees any seat they
// still hold. Mid-game rooms release the seat when the game ends.
func (h *Hub) Disconnect(userNo int64) {
	h.mu.Lock()
	_, ok := h.users[userNo]
	if ok {
		delete(h.users, userNo)
		log.Printf("[Hub] User %d disconnected", userNo)
	}
	rooms := make([]*room.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	for _, r := range rooms {
		r.Vacate(userNo)
	}
}

// Close stops every room actor; users stop themselves via their timers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, r := range h.rooms {
		r.Stop()
		delete(h.rooms, id)
	}
	for no, u := range h.users {
		u.Stop()
		delete(h.users, no)
	}
}
