package mighty

import (
	"errors"
	"fmt"

	"mighty-lite/card"
)

var (
	ErrNotLeader    = errors.New("only seat 0 may start the game")
	ErrNotPresident = errors.New("only the president may act here")
	ErrNotInDeck    = errors.New("card is not in hand")
	ErrWrongCard    = errors.New("card violates the play rules")
	ErrSameGiruda   = errors.New("same giruda may not be re-declared")
)

// InvalidCommandError: the command is not accepted in the current state.
type InvalidCommandError struct {
	Expected string
}

func (e InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command: expected %s", e.Expected)
}

// InvalidPledgeError: the pledge fell below the floor or above the ceiling.
// Bound carries the violated limit.
type InvalidPledgeError struct {
	IsCeiling bool
	Bound     int
}

func (e InvalidPledgeError) Error() string {
	if e.IsCeiling {
		return fmt.Sprintf("pledge above ceiling %d", e.Bound)
	}
	return fmt.Sprintf("pledge below floor %d", e.Bound)
}

// InvalidUserError: a command arrived from the wrong seat.
type InvalidUserError struct {
	Seat int
}

func (e InvalidUserError) Error() string {
	return fmt.Sprintf("not your turn: seat %d expected", e.Seat)
}

// WrongCardTypeError: a joker lead declared a rush inconsistent with the
// joker's color.
type WrongCardTypeError struct {
	Expected card.Rush
}

func (e WrongCardTypeError) Error() string {
	return fmt.Sprintf("wrong card type: rush must be within %s", e.Expected)
}

// ParseError: malformed command text.
type ParseError string

func (e ParseError) Error() string { return "parse error: " + string(e) }

// InternalError marks an engine invariant violation; it should never occur.
type InternalError string

func (e InternalError) Error() string { return "internal: " + string(e) }
