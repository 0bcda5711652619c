package room

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"log"
	"time"

	"github.com/google/uuid"

	"mighty-lite/internal/actor"
	"mighty-lite/internal/store"
	"mighty-lite/internal/wire"
	"mighty-lite/mighty"
)

// Sink receives room fan-out; bound lazily by the session layer.
type Sink = *actor.ExternalAddr[wire.RoomServer]

// ListSink receives RoomInfo updates on the list feed.
type ListSink = *actor.ExternalAddr[wire.ListServer]

// RatingPolicy turns a finished game into a per-seat rating delta. The
// adjustment formula is a pluggable hook; DefaultRatingPolicy is a
// margin-proportional placeholder.
type RatingPolicy func(end *mighty.GameEndedState, seat int) int

func DefaultRatingPolicy(end *mighty.GameEndedState, seat int) int {
	diff := 10 * end.Margin()
	if end.Winners&(1<<seat) == 0 {
		return -diff
	}
	return diff
}

type eventType int

const (
	evJoin eventType = iota
	evLeave
	evVacate
	evObserve
	evLeaveObserver
	evSubscribe
	evUnsubscribe
	evChangeName
	evChangeRule
	evStartGame
	evCommand
	evChat
	evInfo
	evStop
)

type event struct {
	typ eventType

	userNo    int64
	sessionID uint64
	sink      Sink
	listSink  ListSink
	name      string
	rule      *mighty.Rule
	cmd       mighty.Command
	chat      wire.ChatMsg

	Response  chan error
	replyInfo chan wire.RoomInfo
}

type game struct {
	id     string
	engine *mighty.Engine
	state  mighty.State
	// order maps engine seats to user numbers; the head is engine seat 0.
	order    []int64
	seq      int
	deadline time.Time
}

func (g *game) seatOf(userNo int64) int {
	for i, no := range g.order {
		if no == userNo {
			return i
		}
	}
	return -1
}

// Room is the actor owning one table: seats, head, subscribers and the
// optional running game. All mutation happens on the run loop.
type Room struct {
	Uid string
	Id  int

	events chan event
	done   chan struct{}

	name   string
	rule   *mighty.Rule
	isRank bool
	head   int
	seats  []int64
	// joined flips on the first claimed seat; the room never closes as
	// empty before that.
	joined bool
	// vacated marks users gone offline mid-game; their seats are swept
	// when the game ends.
	vacated map[int64]bool

	sinks     map[int64]Sink
	observers map[uint64]Sink
	listSubs  map[uint64]ListSink

	game *game
	// nextDealer is the user dealing the next game (0 = the head).
	nextDealer int64

	store  store.Service
	rating RatingPolicy
	seed   int64

	// removeSelf tells the hub the room is empty and gone.
	removeSelf func(id int)
}

// Options carry the optional knobs for New.
type Options struct {
	Rating RatingPolicy
	// Seed fixes the engine seed for every game in this room (tests and
	// game reproduction); 0 draws a fresh seed per game.
	Seed int64
}

// randomSeed draws shuffle entropy from the system source; clock fallback
// if the read fails.
func randomSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

func New(id int, name string, rule *mighty.Rule, isRank bool, svc store.Service, removeSelf func(id int), opts Options) *Room {
	if opts.Rating == nil {
		opts.Rating = DefaultRatingPolicy
	}
	r := &Room{
		Uid:        uuid.NewString(),
		Id:         id,
		events:     make(chan event, 64),
		done:       make(chan struct{}),
		name:       name,
		rule:       rule,
		isRank:     isRank,
		seats:      make([]int64, rule.UserCnt),
		vacated:    make(map[int64]bool),
		sinks:      make(map[int64]Sink),
		observers:  make(map[uint64]Sink),
		listSubs:   make(map[uint64]ListSink),
		store:      svc,
		rating:     opts.Rating,
		seed:       opts.Seed,
		removeSelf: removeSelf,
	}
	go r.run()
	return r
}

func (r *Room) run() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			if ev.typ == evStop {
				close(r.done)
				return
			}
			r.handle(ev)
		case <-ticker.C:
			r.checkDeadline()
		}
		// Seats can empty out from a leave, an offline vacate or the
		// end-of-game sweep; the check runs after every step.
		if r.joined && r.game == nil && r.empty() {
			log.Printf("[Room %06d] Empty, closing", r.Id)
			close(r.done)
			if r.removeSelf != nil {
				r.removeSelf(r.Id)
			}
			return
		}
	}
}

func (r *Room) handle(ev event) {
	switch ev.typ {
	case evJoin:
		ev.Response <- r.join(ev.userNo, ev.sink)
	case evLeave:
		ev.Response <- r.leave(ev.userNo)
	case evVacate:
		r.vacate(ev.userNo)
	case evObserve:
		r.observers[ev.sessionID] = ev.sink
		ev.sink.Send(wire.RoomServer{Room: r.info()})
		if r.game != nil {
			state := r.game.engine.Project(r.game.state, -1)
			ev.sink.Send(wire.RoomServer{Game: &state})
		}
		r.broadcastInfo()
		ev.Response <- nil
	case evLeaveObserver:
		delete(r.observers, ev.sessionID)
		r.broadcastInfo()
	case evSubscribe:
		r.listSubs[ev.sessionID] = ev.listSink
		ev.listSink.Send(wire.ListServer{Room: r.info()})
	case evUnsubscribe:
		delete(r.listSubs, ev.sessionID)
	case evChangeName:
		ev.Response <- r.changeName(ev.userNo, ev.name)
	case evChangeRule:
		ev.Response <- r.changeRule(ev.userNo, ev.rule)
	case evStartGame:
		ev.Response <- r.startGame(ev.userNo)
	case evCommand:
		ev.Response <- r.command(ev.userNo, ev.cmd)
	case evChat:
		msg := ev.chat
		r.fanOut(wire.RoomServer{Chat: &msg})
	case evInfo:
		ev.replyInfo <- *r.info()
	}
}

func (r *Room) join(userNo int64, sink Sink) error {
	for _, no := range r.seats {
		if no == userNo {
			// Rejoin after a dropped stream keeps the seat and cancels
			// a pending vacate.
			delete(r.vacated, userNo)
			r.sinks[userNo] = sink
			r.resync(userNo, sink)
			return nil
		}
	}
	for i, no := range r.seats {
		if no == 0 {
			r.seats[i] = userNo
			r.joined = true
			r.sinks[userNo] = sink
			log.Printf("[Room %06d] User %d joined seat %d", r.Id, userNo, i)
			r.resync(userNo, sink)
			r.broadcastInfo()
			return nil
		}
	}
	return ErrRoomFull
}

// resync pushes the room info and, mid-game, the viewer's projection.
func (r *Room) resync(userNo int64, sink Sink) {
	sink.Send(wire.RoomServer{Room: r.info()})
	if r.game == nil {
		return
	}
	state := r.game.engine.Project(r.game.state, r.game.seatOf(userNo))
	sink.Send(wire.RoomServer{Game: &state})
}

func (r *Room) leave(userNo int64) error {
	seat := r.seatOf(userNo)
	if seat < 0 {
		return ErrNotInRoom
	}
	if r.game != nil {
		return ErrGameInProgress
	}
	r.doLeave(userNo, seat)
	return nil
}

func (r *Room) doLeave(userNo int64, seat int) {
	r.seats[seat] = 0
	delete(r.sinks, userNo)
	delete(r.vacated, userNo)
	log.Printf("[Room %06d] User %d left seat %d", r.Id, userNo, seat)
	if r.head == seat {
		r.promoteHead()
	}
	r.broadcastInfo()
}

// vacate frees the seat of a user who went fully offline. While a game is
// running the seat is only marked; the sweep runs when the game ends and
// the deadline timer keeps playing for the absent seat until then.
func (r *Room) vacate(userNo int64) {
	seat := r.seatOf(userNo)
	if seat < 0 {
		return
	}
	if r.game != nil {
		r.vacated[userNo] = true
		log.Printf("[Room %06d] User %d offline, seat %d held until game end", r.Id, userNo, seat)
		return
	}
	r.doLeave(userNo, seat)
}

// promoteHead hands the room to the next occupied seat.
func (r *Room) promoteHead() {
	for i := range r.seats {
		seat := (r.head + 1 + i) % len(r.seats)
		if r.seats[seat] != 0 {
			r.head = seat
			return
		}
	}
	r.head = 0
}

func (r *Room) empty() bool {
	for _, no := range r.seats {
		if no != 0 {
			return false
		}
	}
	return true
}

func (r *Room) changeName(userNo int64, name string) error {
	if r.seatOf(userNo) != r.head {
		return ErrNotHead
	}
	r.name = name
	r.broadcastInfo()
	return nil
}

func (r *Room) changeRule(userNo int64, rule *mighty.Rule) error {
	if r.seatOf(userNo) != r.head {
		return ErrNotHead
	}
	if r.game != nil {
		return ErrGameInProgress
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.UserCnt != len(r.seats) {
		return ErrSeatCountFixed
	}
	r.rule = rule
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.SaveRule(ctx, r.Id, rule); err != nil {
			log.Printf("[Room %06d] SaveRule: %v", r.Id, err)
		}
	}()
	r.broadcastInfo()
	return nil
}

func (r *Room) startGame(userNo int64) error {
	seat := r.seatOf(userNo)
	if seat != r.head {
		return ErrNotHead
	}
	if r.game != nil {
		return ErrGameInProgress
	}
	for _, no := range r.seats {
		if no == 0 {
			return ErrSeatsNotFull
		}
	}

	seed := r.seed
	if seed == 0 {
		seed = randomSeed()
	}
	engine, err := mighty.NewEngine(r.rule, seed)
	if err != nil {
		return err
	}
	// Rotate the seats so the dealer is the engine's seat 0.
	dealer := r.head
	if s := r.seatOf(r.nextDealer); s >= 0 {
		dealer = s
	}
	order := make([]int64, len(r.seats))
	for i := range r.seats {
		order[i] = r.seats[(dealer+i)%len(r.seats)]
	}
	g := &game{
		id:     uuid.NewString(),
		engine: engine,
		state:  mighty.NewState(),
		order:  order,
	}
	r.game = g
	log.Printf("[Room %06d] Game %s started", r.Id, g.id)

	users := append([]int64(nil), order...)
	gameId, roomName, isRank, rule := g.id, r.name, r.isRank, r.rule
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.MakeGameRecord(ctx, gameId, r.Id, roomName, users, isRank, rule); err != nil {
			log.Printf("[Room %06d] MakeGameRecord: %v", r.Id, err)
		}
	}()

	r.broadcastInfo()
	return r.command(order[0], mighty.CmdStartGame())
}

func (r *Room) command(userNo int64, cmd mighty.Command) error {
	if r.game == nil {
		return ErrNoGame
	}
	seat := r.game.seatOf(userNo)
	if seat < 0 {
		return ErrNotInRoom
	}
	next, err := r.game.engine.Next(r.game.state, seat, cmd)
	if err != nil {
		return err
	}
	r.advance(next)
	return nil
}

// advance installs a new state: persist, fan out projections, settle on end.
func (r *Room) advance(next mighty.State) {
	g := r.game
	g.state = next
	g.seq++
	r.armDeadline()

	gameId, seq := g.id, g.seq
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.SaveState(ctx, gameId, r.Id, seq, next); err != nil {
			log.Printf("[Room %06d] SaveState %s#%d: %v", r.Id, gameId, seq, err)
		}
	}()

	for userNo, sink := range r.sinks {
		state := g.engine.Project(next, g.seatOf(userNo))
		sink.Send(wire.RoomServer{Game: &state})
	}
	observed := g.engine.Project(next, -1)
	for _, sink := range r.observers {
		state := observed
		sink.Send(wire.RoomServer{Game: &state})
	}

	if next.GameEnded != nil {
		r.settle(next.GameEnded)
		r.game = nil
		for userNo := range r.vacated {
			if seat := r.seatOf(userNo); seat >= 0 {
				r.doLeave(userNo, seat)
			}
		}
		clear(r.vacated)
		r.broadcastInfo()
	}
}

// settle applies the rating policy. Casual rooms skip it.
func (r *Room) settle(end *mighty.GameEndedState) {
	log.Printf("[Room %06d] Game over: score %d / pledge %d, winners %05b",
		r.Id, end.Score, end.Pledge, end.Winners)

	switch r.rule.NextDealer {
	case mighty.NextDealerPresident:
		r.nextDealer = r.game.order[end.President]
	default:
		r.nextDealer = r.game.order[1%len(r.game.order)]
	}

	if !r.isRank {
		return
	}
	gameId := r.game.id
	users := append([]int64(nil), r.game.order...)
	for seat, userNo := range users {
		diff := r.rating(end, seat)
		go func(userNo int64, diff int) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			info, err := r.store.GetUserInfoByNo(ctx, userNo)
			if err != nil {
				log.Printf("[Room %06d] Rating lookup %d: %v", r.Id, userNo, err)
				return
			}
			if err := r.store.ChangeRating(ctx, userNo, gameId, diff, info.Rating+diff); err != nil {
				log.Printf("[Room %06d] ChangeRating %d: %v", r.Id, userNo, err)
			}
		}(userNo, diff)
	}
}

// armDeadline starts the per-phase command timer; zero timing disables it.
func (r *Room) armDeadline() {
	g := r.game
	var limit time.Duration
	switch {
	case g.state.Election != nil:
		limit = r.rule.Timing.Election
	case g.state.SelectFriend != nil:
		limit = r.rule.Timing.SelectFriend
	case g.state.InGame != nil:
		limit = r.rule.Timing.InGame
	}
	if limit <= 0 {
		g.deadline = time.Time{}
		return
	}
	g.deadline = time.Now().Add(limit)
}

// checkDeadline plays a random command for a stalled seat.
func (r *Room) checkDeadline() {
	g := r.game
	if g == nil || g.deadline.IsZero() || time.Now().Before(g.deadline) {
		return
	}
	seat := r.activeSeat()
	if seat < 0 {
		g.deadline = time.Time{}
		return
	}
	log.Printf("[Room %06d] Seat %d timed out, playing random", r.Id, seat)
	next, err := g.engine.Next(g.state, seat, mighty.CmdRandom())
	if err != nil {
		log.Printf("[Room %06d] Random for seat %d: %v", r.Id, seat, err)
		g.deadline = time.Time{}
		return
	}
	r.advance(next)
}

func (r *Room) activeSeat() int {
	st := r.game.state
	switch {
	case st.Election != nil:
		return st.Election.Curr
	case st.SelectFriend != nil:
		return st.SelectFriend.President
	case st.InGame != nil:
		return st.InGame.CurrentSeat
	}
	return -1
}

func (r *Room) seatOf(userNo int64) int {
	for i, no := range r.seats {
		if no == userNo && no != 0 {
			return i
		}
	}
	return -1
}

func (r *Room) info() *wire.RoomInfo {
	return &wire.RoomInfo{
		Uid:         r.Uid,
		Id:          r.Id,
		Name:        r.name,
		Rule:        r.rule,
		IsRank:      r.isRank,
		Head:        r.head,
		Users:       append([]int64(nil), r.seats...),
		ObserverCnt: len(r.observers),
		IsGame:      r.game != nil,
	}
}

// broadcastInfo fans the room shape to users, observers and list feeds.
func (r *Room) broadcastInfo() {
	info := r.info()
	r.fanOut(wire.RoomServer{Room: info})
	for _, sink := range r.listSubs {
		sink.Send(wire.ListServer{Room: info})
	}
}

func (r *Room) fanOut(msg wire.RoomServer) {
	for _, sink := range r.sinks {
		sink.Send(msg)
	}
	for _, sink := range r.observers {
		sink.Send(msg)
	}
}

// --- public API; each call round-trips through the run loop ---

func (r *Room) Join(userNo int64, sink Sink) error {
	return r.ask(event{typ: evJoin, userNo: userNo, sink: sink})
}

func (r *Room) Leave(userNo int64) error {
	return r.ask(event{typ: evLeave, userNo: userNo})
}

// Vacate frees a seat once its user is fully offline; mid-game the seat
// is released when the game ends.
func (r *Room) Vacate(userNo int64) {
	r.cast(event{typ: evVacate, userNo: userNo})
}

func (r *Room) Observe(sessionID uint64, sink Sink) error {
	return r.ask(event{typ: evObserve, sessionID: sessionID, sink: sink})
}

func (r *Room) LeaveObserver(sessionID uint64) {
	r.cast(event{typ: evLeaveObserver, sessionID: sessionID})
}

func (r *Room) Subscribe(sessionID uint64, sink ListSink) {
	r.cast(event{typ: evSubscribe, sessionID: sessionID, listSink: sink})
}

func (r *Room) Unsubscribe(sessionID uint64) {
	r.cast(event{typ: evUnsubscribe, sessionID: sessionID})
}

func (r *Room) ChangeName(userNo int64, name string) error {
	return r.ask(event{typ: evChangeName, userNo: userNo, name: name})
}

func (r *Room) ChangeRule(userNo int64, rule *mighty.Rule) error {
	return r.ask(event{typ: evChangeRule, userNo: userNo, rule: rule})
}

func (r *Room) StartGame(userNo int64) error {
	return r.ask(event{typ: evStartGame, userNo: userNo})
}

func (r *Room) Command(userNo int64, cmd mighty.Command) error {
	return r.ask(event{typ: evCommand, userNo: userNo, cmd: cmd})
}

func (r *Room) Chat(msg wire.ChatMsg) {
	r.cast(event{typ: evChat, chat: msg})
}

// Info snapshots the public room shape.
func (r *Room) Info() wire.RoomInfo {
	reply := make(chan wire.RoomInfo, 1)
	if !r.cast(event{typ: evInfo, replyInfo: reply}) {
		return wire.RoomInfo{}
	}
	select {
	case info := <-reply:
		return info
	case <-r.done:
		return wire.RoomInfo{}
	}
}

// Stop halts the actor without the empty-room hub callback.
func (r *Room) Stop() {
	r.cast(event{typ: evStop})
}

func (r *Room) ask(ev event) error {
	ev.Response = make(chan error, 1)
	if !r.cast(ev) {
		return ErrRoomClosed
	}
	select {
	case err := <-ev.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) cast(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}
