package mighty

import (
	"math/rand"
	"time"
)

// Engine runs the mighty state machine under a fixed rule. Randomness (deck
// shuffles, tie-breaks, Random commands) is drawn from the seeded rng and
// nothing else, so a fixed seed replays a game exactly.
type Engine struct {
	rule *Rule
	rng  *rand.Rand
}

// NewEngine validates the rule and seeds the engine. Seed 0 picks a
// time-based seed.
func NewEngine(rule *Rule, seed int64) (*Engine, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{rule: rule, rng: rand.New(rand.NewSource(seed))}, nil
}

func (e *Engine) Rule() *Rule { return e.rule }

// Next applies a command from a seat and returns the successor state. The
// input state is never mutated; errors leave it untouched by construction.
func (e *Engine) Next(s State, seat int, cmd Command) (State, error) {
	if seat < 0 || seat >= e.rule.UserCnt {
		return State{}, InternalError("seat out of range")
	}

	switch {
	case s.GameEnded != nil:
		// Absorbing: every command is a no-op.
		return s, nil

	case s.NotStarted != nil:
		if cmd.StartGame == nil {
			return State{}, InvalidCommandError{Expected: "StartGame"}
		}
		return e.startGame(seat)

	case s.Election != nil:
		switch {
		case cmd.Pledge != nil:
			return e.pledge(s.Election, seat, cmd.Pledge.Bid)
		case cmd.Random != nil:
			// Random during an election is a pass.
			return e.pledge(s.Election, seat, nil)
		}
		return State{}, InvalidCommandError{Expected: "Pledge"}

	case s.SelectFriend != nil:
		switch {
		case cmd.SelectFriend != nil:
			return e.selectFriend(s.SelectFriend, seat, cmd.SelectFriend)
		case cmd.Random != nil:
			return e.randomFriend(s.SelectFriend, seat)
		}
		return State{}, InvalidCommandError{Expected: "SelectFriend"}

	case s.InGame != nil:
		switch {
		case cmd.Go != nil:
			return e.play(s.InGame, seat, cmd.Go)
		case cmd.Random != nil:
			return e.randomPlay(s.InGame, seat)
		}
		return State{}, InvalidCommandError{Expected: "Go"}
	}
	return State{}, InternalError("state has no active variant")
}
