package room

import "errors"

var (
	ErrRoomFull       = errors.New("room is full")
	ErrNotInRoom      = errors.New("user is not in the room")
	ErrGameInProgress = errors.New("a game is in progress")
	ErrNotHead        = errors.New("only the head may do that")
	ErrSeatsNotFull   = errors.New("all seats must be occupied")
	ErrSeatCountFixed = errors.New("rule change may not resize the room")
	ErrNoGame         = errors.New("no game is running")
	ErrRoomClosed     = errors.New("room is closed")
)
