package mighty

import (
	"fmt"

	"mighty-lite/card"
)

// selectFriend drops the president's discards, resolves the friend function
// and seeds the in-game state.
func (e *Engine) selectFriend(prev *SelectFriendState, seat int, cmd *SelectFriendCommand) (State, error) {
	if seat != prev.President {
		return State{}, ErrNotPresident
	}
	if len(cmd.Drop) != e.rule.Leftover() {
		return State{}, InvalidCommandError{Expected: fmt.Sprintf("%d dropped cards", e.rule.Leftover())}
	}
	if !e.rule.Friend.Modes.Has(cmd.Friend.Mode()) {
		return State{}, InvalidCommandError{Expected: "an admitted friend mode"}
	}
	if e.rule.Friend.Cnt == 0 && !cmd.Friend.IsNone() {
		return State{}, InvalidCommandError{Expected: "no friend"}
	}

	st := prev.clone()
	for _, c := range cmd.Drop {
		idx := indexOfCard(st.Hands[seat], c)
		if idx < 0 {
			return State{}, ErrNotInDeck
		}
		st.Hands[seat] = removeAt(st.Hands[seat], idx)
	}

	friendSeat := -1
	friendKnown := false
	switch {
	case cmd.Friend.IsNone():
		friendKnown = true
	case cmd.Friend.Card != nil:
		// The unique non-president holder, if any; revealed when played.
		for other, hand := range st.Hands {
			if other != seat && indexOfCard(hand, *cmd.Friend.Card) >= 0 {
				friendSeat = other
				break
			}
		}
	case cmd.Friend.User != nil:
		if u := *cmd.Friend.User; u != seat && u >= 0 && u < e.rule.UserCnt {
			friendSeat = u
		}
		friendKnown = true
	case cmd.Friend.Winning != nil:
		// Deferred to the named trick.
	}

	n := e.rule.UserCnt
	return State{InGame: &InGameState{
		President:   st.President,
		Friend:      cmd.Friend,
		FriendSeat:  friendSeat,
		FriendKnown: friendKnown,
		Giruda:      clonePattern(st.Pledge.Giruda),
		Pledge:      st.Pledge.Count,
		Hands:       st.Hands,
		Scores:      make([][]card.Card, n),
		Turn:        0,
		Placed:      make([]*card.Card, n),
		StartSeat:   st.President,
		CurrentSeat: st.President,
		// Sentinel rush; the first lead overwrites it.
		Rush:        card.RushSpade,
		JokerCalled: false,
	}}, nil
}

func indexOfCard(hand []card.Card, c card.Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}

func removeAt(hand []card.Card, idx int) []card.Card {
	out := append([]card.Card(nil), hand[:idx]...)
	return append(out, hand[idx+1:]...)
}
