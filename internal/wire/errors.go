package wire

import (
	"errors"

	"mighty-lite/card"
	"mighty-lite/mighty"
)

// ErrorMsg is the client-facing projection of an engine error.
type ErrorMsg struct {
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Expected  string     `json:"expected,omitempty"`
	IsCeiling *bool      `json:"is_ceiling,omitempty"`
	Bound     *int       `json:"bound,omitempty"`
	Seat      *int       `json:"seat,omitempty"`
	Rush      *card.Rush `json:"rush,omitempty"`
}

// FromError maps an engine error onto its wire code.
func FromError(err error) *ErrorMsg {
	if err == nil {
		return nil
	}
	msg := &ErrorMsg{Message: err.Error()}

	var cmdErr mighty.InvalidCommandError
	var pledgeErr mighty.InvalidPledgeError
	var userErr mighty.InvalidUserError
	var typeErr mighty.WrongCardTypeError
	var parseErr mighty.ParseError
	var internalErr mighty.InternalError
	switch {
	case errors.As(err, &cmdErr):
		msg.Kind = "InvalidCommand"
		msg.Expected = cmdErr.Expected
	case errors.As(err, &pledgeErr):
		msg.Kind = "InvalidPledge"
		msg.IsCeiling = &pledgeErr.IsCeiling
		msg.Bound = &pledgeErr.Bound
	case errors.As(err, &userErr):
		msg.Kind = "InvalidUser"
		msg.Seat = &userErr.Seat
	case errors.As(err, &typeErr):
		msg.Kind = "WrongCardType"
		msg.Rush = &typeErr.Expected
	case errors.As(err, &parseErr):
		msg.Kind = "ParseError"
	case errors.As(err, &internalErr):
		msg.Kind = "Internal"
	case errors.Is(err, mighty.ErrNotLeader):
		msg.Kind = "NotLeader"
	case errors.Is(err, mighty.ErrNotPresident):
		msg.Kind = "NotPresident"
	case errors.Is(err, mighty.ErrNotInDeck):
		msg.Kind = "NotInDeck"
	case errors.Is(err, mighty.ErrWrongCard):
		msg.Kind = "WrongCard"
	case errors.Is(err, mighty.ErrSameGiruda):
		msg.Kind = "SameGiruda"
	default:
		msg.Kind = "Error"
	}
	return msg
}
