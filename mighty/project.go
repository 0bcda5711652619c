package mighty

import "mighty-lite/card"

// Project redacts a state down to what the viewer seat may see. Hidden
// cards are replaced with the invalid card so hand sizes stay visible.
// A negative viewer is an observer and sees no hand at all.
func (e *Engine) Project(s State, viewer int) State {
	switch {
	case s.Election != nil:
		st := s.Election.clone()
		st.Hands = maskHands(st.Hands, func(seat int) bool { return seat == viewer })
		st.Left = maskPile(st.Left)
		return State{Election: st}

	case s.SelectFriend != nil:
		st := s.SelectFriend.clone()
		st.Hands = maskHands(st.Hands, func(seat int) bool { return seat == viewer })
		return State{SelectFriend: st}

	case s.InGame != nil:
		st := s.InGame.clone()
		st.Hands = maskHands(st.Hands, func(seat int) bool {
			return seat == viewer || e.partnerVisible(st, viewer, seat)
		})
		return State{InGame: st}
	}
	// NotStarted and GameEnded carry nothing to hide.
	return s
}

// partnerVisible applies the friend-hands visibility: once the friend is
// known, the president and the friend see each other's hand.
func (e *Engine) partnerVisible(st *InGameState, viewer, seat int) bool {
	if !e.rule.Visibility.Has(VisibilityFriendHands) || !st.FriendKnown || st.FriendSeat < 0 {
		return false
	}
	pair := func(a, b int) bool { return viewer == a && seat == b }
	return pair(st.President, st.FriendSeat) || pair(st.FriendSeat, st.President)
}

func maskHands(hands [][]card.Card, visible func(seat int) bool) [][]card.Card {
	out := make([][]card.Card, len(hands))
	for seat, hand := range hands {
		if visible(seat) {
			out[seat] = hand
			continue
		}
		out[seat] = maskPile(hand)
	}
	return out
}

func maskPile(pile []card.Card) []card.Card {
	out := make([]card.Card, len(pile))
	for i := range out {
		out[i] = card.CardInvalid
	}
	return out
}
