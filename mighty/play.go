package mighty

import "mighty-lite/card"

// play handles Go(card, rush, joker-called) during InGame.
func (e *Engine) play(prev *InGameState, seat int, cmd *GoCommand) (State, error) {
	if seat != prev.CurrentSeat {
		return State{}, InvalidUserError{Seat: prev.CurrentSeat}
	}

	st := prev.clone()
	hand := st.Hands[seat]
	idx := indexOfCard(hand, cmd.Card)
	if idx < 0 {
		return State{}, ErrNotInDeck
	}
	if err := e.checkTurnPolicy(st, cmd.Card); err != nil {
		return State{}, err
	}

	mighty := e.rule.MightyCard(st.Giruda)
	leading := seat == st.StartSeat && st.Placed[st.StartSeat] == nil

	if leading {
		if err := e.applyLead(st, hand, cmd, mighty); err != nil {
			return State{}, err
		}
	} else if err := e.checkFollow(st, hand, cmd.Card, mighty); err != nil {
		return State{}, err
	}

	st.Hands[seat] = removeAt(hand, idx)
	played := cmd.Card
	st.Placed[seat] = &played

	// A ByCard friend is unmasked the moment the named card hits the table.
	if st.Friend.Card != nil && *st.Friend.Card == played && seat != st.President {
		st.FriendSeat = seat
		st.FriendKnown = true
	}

	next := (seat + 1) % e.rule.UserCnt
	if next == st.StartSeat {
		return e.resolveTrick(st)
	}
	st.CurrentSeat = next
	return State{InGame: st}, nil
}

// applyLead validates a trick-leading card and derives the new rush.
func (e *Engine) applyLead(st *InGameState, hand []card.Card, cmd *GoCommand, mighty card.Card) error {
	if cmd.Card.IsJoker() {
		colorRush := card.ColorRush(cmd.Card.Color())
		if cmd.Rush == card.RushNone || cmd.Rush&^colorRush != 0 {
			return WrongCardTypeError{Expected: colorRush}
		}
		st.Rush = cmd.Rush
		st.JokerCalled = false
		return nil
	}

	// Trump may not be led while the hand can still follow with anything
	// else.
	if st.Giruda != nil && cmd.Card.Pattern() == *st.Giruda && holdsNonForced(hand, *st.Giruda, mighty) {
		return ErrWrongCard
	}

	st.Rush = card.PatternRush(cmd.Card.Pattern())
	st.JokerCalled = false
	if _, ok := e.rule.JokerCall.CallsJoker(cmd.Card); ok && e.rule.JokerCall.HasPower {
		st.JokerCalled = cmd.JokerCall
	}
	return nil
}

// holdsNonForced reports whether the hand still has a card that is neither
// trump, mighty nor joker.
func holdsNonForced(hand []card.Card, giruda card.Pattern, mighty card.Card) bool {
	for _, c := range hand {
		if c.IsJoker() || c == mighty {
			continue
		}
		if c.Pattern() != giruda {
			return true
		}
	}
	return false
}

// checkFollow enforces must-follow and the joker call on non-leading seats.
func (e *Engine) checkFollow(st *InGameState, hand []card.Card, c card.Card, mighty card.Card) error {
	if c == mighty {
		// Mighty may always be played, except into an undefended joker call.
		if st.JokerCalled && !e.rule.JokerCall.MightyDefense && jokerIn(hand) >= 0 {
			return ErrWrongCard
		}
		return nil
	}
	if st.JokerCalled && !c.IsJoker() && jokerIn(hand) >= 0 {
		return ErrWrongCard
	}
	if c.IsJoker() {
		return nil
	}
	if !st.Rush.Has(c.Pattern()) && handHasRush(hand, st.Rush) {
		return ErrWrongCard
	}
	return nil
}

func jokerIn(hand []card.Card) int {
	for i, c := range hand {
		if c.IsJoker() {
			return i
		}
	}
	return -1
}

func handHasRush(hand []card.Card, rush card.Rush) bool {
	for _, c := range hand {
		if !c.IsJoker() && rush.Has(c.Pattern()) {
			return true
		}
	}
	return false
}

// checkTurnPolicy applies first/last-turn card-class policies that forbid
// the play outright.
func (e *Engine) checkTurnPolicy(st *InGameState, c card.Card) error {
	if st.Turn != 0 {
		return nil
	}
	policy := e.classPolicy(c)
	if policy != nil && policy.First == PolicyInvalidForFirst {
		return ErrWrongCard
	}
	return nil
}

// classPolicy maps a card onto its special-class turn policy, if any.
func (e *Engine) classPolicy(c card.Card) *TurnPolicy {
	if c.IsJoker() {
		return &e.rule.CardPolicy.Joker
	}
	if _, ok := e.rule.JokerCall.CallsJoker(c); ok {
		return &e.rule.CardPolicy.JokerCall
	}
	return nil
}

// canWinTrick applies PolicyNoEffect: on boundary turns the card is skipped
// from winner consideration.
func (e *Engine) canWinTrick(st *InGameState, c card.Card) bool {
	policy := e.classPolicy(c)
	if policy == nil {
		return true
	}
	if st.Turn == 0 && policy.First == PolicyNoEffect {
		return false
	}
	if st.Turn == e.rule.CardsPerUser-1 && policy.Last == PolicyNoEffect {
		return false
	}
	return true
}

// resolveTrick determines the winner, moves score cards, resolves a
// ByWinning friend and either starts the next trick or ends the game.
func (e *Engine) resolveTrick(st *InGameState) (State, error) {
	n := e.rule.UserCnt
	winner := -1
	for i := 0; i < n; i++ {
		seat := (st.StartSeat + i) % n
		placed := st.Placed[seat]
		if placed == nil {
			return State{}, InternalError("trick resolved with a missing card")
		}
		if !e.canWinTrick(st, *placed) {
			continue
		}
		if winner < 0 || e.beats(st, *placed, *st.Placed[winner]) {
			winner = seat
		}
	}
	if winner < 0 {
		// Every placed card was policy-voided; the leader keeps the trick.
		winner = st.StartSeat
	}

	for _, placed := range st.Placed {
		if placed.IsScore() {
			st.Scores[winner] = append(st.Scores[winner], *placed)
		}
	}

	if st.Friend.Winning != nil && *st.Friend.Winning == st.Turn && winner != st.President {
		st.FriendSeat = winner
		st.FriendKnown = true
	}

	st.Placed = make([]*card.Card, n)
	st.Turn++
	st.StartSeat = winner
	st.CurrentSeat = winner
	st.JokerCalled = false

	if st.Turn >= e.rule.CardsPerUser {
		return e.endGame(st)
	}
	return State{InGame: st}, nil
}

// endGame tallies the captured piles and settles the parties.
func (e *Engine) endGame(st *InGameState) (State, error) {
	score := len(st.Scores[st.President])
	if st.FriendSeat >= 0 && st.FriendSeat != st.President {
		score += len(st.Scores[st.FriendSeat])
	}

	var ruling byte = 1 << st.President
	if st.FriendSeat >= 0 {
		ruling |= 1 << st.FriendSeat
	}
	all := byte(1<<e.rule.UserCnt) - 1

	winners := ruling
	if score < st.Pledge {
		winners = ^ruling & all
	}

	return State{GameEnded: &GameEndedState{
		Winners:    winners,
		President:  st.President,
		FriendSeat: st.FriendSeat,
		Score:      score,
		Pledge:     st.Pledge,
		Giruda:     clonePattern(st.Giruda),
	}}, nil
}

// Multiplier is ×2 for a no-giruda pledge and ×2 again for a friendless game.
func (g *GameEndedState) Multiplier() int {
	mult := 1
	if g.Giruda == nil {
		mult *= 2
	}
	if g.FriendSeat < 0 {
		mult *= 2
	}
	return mult
}

// RulingWon reports whether the president's party met the pledge.
func (g *GameEndedState) RulingWon() bool { return g.Score >= g.Pledge }

// Margin is the scored gain for a ruling win, or the opposition's margin
// otherwise.
func (g *GameEndedState) Margin() int {
	if g.RulingWon() {
		return g.Multiplier() * (g.Score - 10)
	}
	return g.Pledge + g.Score - 20
}
