package mighty

import "mighty-lite/card"

// randomFriend plays a timeout fallback for the president: drop random
// cards and call the mighty as friend (or no friend when that is not open).
func (e *Engine) randomFriend(prev *SelectFriendState, seat int) (State, error) {
	if seat != prev.President {
		return State{}, ErrNotPresident
	}

	hand := append([]card.Card(nil), prev.Hands[seat]...)
	e.rng.Shuffle(len(hand), func(i, j int) { hand[i], hand[j] = hand[j], hand[i] })
	drop := hand[:e.rule.Leftover()]

	friend := FriendNone()
	mighty := e.rule.MightyCard(prev.Pledge.Giruda)
	if e.rule.Friend.Cnt > 0 && e.rule.Friend.Modes.Has(FriendModeCard) &&
		indexOfCard(prev.Hands[seat], mighty) < 0 {
		friend = FriendByCard(mighty)
	}

	return e.selectFriend(prev, seat, &SelectFriendCommand{Friend: friend, Drop: drop})
}

// LegalPlays enumerates every Go command the seat may issue right now.
// Joker leads carry their full colour rush.
func (e *Engine) LegalPlays(st *InGameState, seat int) []GoCommand {
	if seat != st.CurrentSeat {
		return nil
	}
	var out []GoCommand
	for _, c := range st.Hands[seat] {
		cmd := GoCommand{Card: c}
		if c.IsJoker() {
			cmd.Rush = card.ColorRush(c.Color())
		}
		if _, err := e.play(st, seat, &cmd); err == nil {
			out = append(out, cmd)
		}
	}
	return out
}

// randomPlay picks uniformly among the legal plays.
func (e *Engine) randomPlay(st *InGameState, seat int) (State, error) {
	plays := e.LegalPlays(st, seat)
	if len(plays) == 0 {
		if seat != st.CurrentSeat {
			return State{}, InvalidUserError{Seat: st.CurrentSeat}
		}
		return State{}, InternalError("no legal play available")
	}
	picked := plays[e.rng.Intn(len(plays))]
	return e.play(st, seat, &picked)
}
