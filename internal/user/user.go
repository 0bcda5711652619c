package user

import (
	"log"
	"time"

	"mighty-lite/internal/store"
)

// Channel names one presence sub-protocol.
type Channel string

const (
	ChannelMain    Channel = "main"
	ChannelRoom    Channel = "room"
	ChannelObserve Channel = "observe"
	ChannelChat    Channel = "chat"
)

// Status is the derived presence of a user across all channels.
type Status int

const (
	StatusOnline Status = iota
	StatusAbsent
	StatusDisconnected
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "Online"
	case StatusAbsent:
		return "Absent"
	case StatusDisconnected:
		return "Disconnected"
	case StatusOffline:
		return "Offline"
	}
	return "Unknown"
}

const (
	// AbsentTime is the idle span after which an open connection counts
	// as absent.
	AbsentTime = 300 * time.Second
	// ReconnectionTime is the grace window after the last stream drops.
	ReconnectionTime = 10 * time.Second
)

// Listener observes status transitions.
type Listener func(userNo int64, status Status)

type eventType int

const (
	evConnect eventType = iota
	evDisconnect
	evTouch
	evAddListener
	evRemoveListener
	evGetStatus
	evStop
)

type event struct {
	typ       eventType
	channel   Channel
	sessionID uint64
	listener  Listener

	replyID     chan int
	replyStatus chan Status
}

// User is the presence actor for one account. It tracks live sessions per
// channel and last-activity stamps, derives Status, and garbage-collects
// itself via the offline callback.
type User struct {
	No   int64
	Info store.UserInfo

	events chan event
	done   chan struct{}

	conns        map[Channel]map[uint64]struct{}
	lastActivity time.Time
	lastClose    time.Time

	listeners    map[int]Listener
	nextListener int
	last         Status

	offline func(userNo int64)
}

// New spawns the actor. offline is invoked once when the user transitions
// to Offline, after which the actor stops.
func New(info store.UserInfo, offline func(userNo int64)) *User {
	u := &User{
		No:           info.No,
		Info:         info,
		events:       make(chan event, 64),
		done:         make(chan struct{}),
		conns:        make(map[Channel]map[uint64]struct{}),
		lastActivity: time.Now(),
		lastClose:    time.Now(),
		listeners:    make(map[int]Listener),
		last:         StatusDisconnected,
		offline:      offline,
	}
	go u.run()
	return u
}

func (u *User) run() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case ev := <-u.events:
			if ev.typ == evStop {
				close(u.done)
				return
			}
			u.handle(ev)
			u.refreshStatus(time.Now())
		case <-ticker.C:
			if u.refreshStatus(time.Now()); u.last == StatusOffline {
				close(u.done)
				return
			}
		}
	}
}

func (u *User) handle(ev event) {
	now := time.Now()
	switch ev.typ {
	case evConnect:
		set := u.conns[ev.channel]
		if set == nil {
			set = make(map[uint64]struct{})
			u.conns[ev.channel] = set
		}
		set[ev.sessionID] = struct{}{}
		u.lastActivity = now
	case evDisconnect:
		if set := u.conns[ev.channel]; set != nil {
			delete(set, ev.sessionID)
			if len(set) == 0 {
				delete(u.conns, ev.channel)
			}
		}
		u.lastClose = now
	case evTouch:
		u.lastActivity = now
	case evAddListener:
		u.nextListener++
		u.listeners[u.nextListener] = ev.listener
		ev.replyID <- u.nextListener
	case evRemoveListener:
		delete(u.listeners, int(ev.sessionID))
	case evGetStatus:
		ev.replyStatus <- u.status(now)
	}
}

func (u *User) status(now time.Time) Status {
	open := 0
	for _, set := range u.conns {
		open += len(set)
	}
	switch {
	case open > 0 && now.Sub(u.lastActivity) < AbsentTime:
		return StatusOnline
	case open > 0:
		return StatusAbsent
	case now.Sub(u.lastClose) < ReconnectionTime:
		return StatusDisconnected
	}
	return StatusOffline
}

// refreshStatus notifies listeners on actual transitions only.
func (u *User) refreshStatus(now time.Time) {
	st := u.status(now)
	if st == u.last {
		return
	}
	u.last = st
	log.Printf("[User %d] Status -> %s", u.No, st)
	for _, listener := range u.listeners {
		listener(u.No, st)
	}
	if st == StatusOffline && u.offline != nil {
		u.offline(u.No)
	}
}

// Connect registers a live session on a channel.
func (u *User) Connect(channel Channel, sessionID uint64) {
	u.send(event{typ: evConnect, channel: channel, sessionID: sessionID})
}

// Disconnect removes a session; the reconnection window starts here.
func (u *User) Disconnect(channel Channel, sessionID uint64) {
	u.send(event{typ: evDisconnect, channel: channel, sessionID: sessionID})
}

// Touch refreshes the activity stamp.
func (u *User) Touch() {
	u.send(event{typ: evTouch})
}

// AddListener registers a status listener; the id removes it later.
func (u *User) AddListener(listener Listener) int {
	reply := make(chan int, 1)
	if !u.send(event{typ: evAddListener, listener: listener, replyID: reply}) {
		return 0
	}
	select {
	case id := <-reply:
		return id
	case <-u.done:
		return 0
	}
}

func (u *User) RemoveListener(id int) {
	u.send(event{typ: evRemoveListener, sessionID: uint64(id)})
}

// GetStatus derives the current status.
func (u *User) GetStatus() Status {
	reply := make(chan Status, 1)
	if !u.send(event{typ: evGetStatus, replyStatus: reply}) {
		return StatusOffline
	}
	select {
	case st := <-reply:
		return st
	case <-u.done:
		return StatusOffline
	}
}

// Stop halts the actor without an Offline transition.
func (u *User) Stop() {
	u.send(event{typ: evStop})
}

func (u *User) send(ev event) bool {
	select {
	case u.events <- ev:
		return true
	case <-u.done:
		return false
	}
}
