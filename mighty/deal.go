package mighty

import "mighty-lite/card"

func (e *Engine) startGame(seat int) (State, error) {
	if seat != 0 {
		return State{}, ErrNotLeader
	}
	n := e.rule.UserCnt
	hands, left := e.deal()
	st := &ElectionState{
		Bids:  make([]*Bid, n),
		Done:  make([]bool, n),
		Hands: hands,
		Left:  left,
	}
	if e.rule.Election.Has(ElectionPassFirst) {
		st.Curr = 1 % n
	}
	return State{Election: st}, nil
}

// deal shuffles until no hand is a missed deal. The last chunk becomes the
// leftover pile.
func (e *Engine) deal() ([][]card.Card, []card.Card) {
	n, per := e.rule.UserCnt, e.rule.CardsPerUser
	for {
		cards := e.rule.Deck.Shuffled(e.rng)
		hands := make([][]card.Card, n)
		missed := false
		for i := 0; i < n; i++ {
			hands[i] = append([]card.Card(nil), cards[i*per:(i+1)*per]...)
			if e.rule.MissedDeal.IsMissedDeal(hands[i]) {
				missed = true
				break
			}
		}
		if missed {
			continue
		}
		left := append([]card.Card(nil), cards[n*per:]...)
		return hands, left
	}
}
