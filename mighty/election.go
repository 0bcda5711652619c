package mighty

import "mighty-lite/card"

// pledge handles Pledge(bid) and Pledge(nil) (a pass).
func (e *Engine) pledge(prev *ElectionState, seat int, bid *Bid) (State, error) {
	ordered := e.rule.Election.Has(ElectionOrdered)
	if ordered && seat != prev.Curr {
		return State{}, InvalidUserError{Seat: prev.Curr}
	}
	if prev.Done[seat] {
		return State{}, InvalidCommandError{Expected: "no pledge from a passed seat"}
	}

	st := prev.clone()
	if bid == nil {
		st.Done[seat] = true
		st.Curr = nextBidder(st, seat)
		if remaining, bidders := openSeats(st); remaining > 1 || (remaining == 1 && bidders == 0) {
			return State{Election: st}, nil
		}
		return e.finishElection(st)
	}

	if bid.Count > e.rule.Pledge.Max {
		return State{}, InvalidPledgeError{IsCeiling: true, Bound: e.rule.Pledge.Max}
	}
	if bid.Giruda == nil && !e.rule.Election.Has(ElectionNoGirudaExist) {
		return State{}, InvalidCommandError{Expected: "a giruda pledge"}
	}
	if own := st.Bids[seat]; own != nil && own.sameGiruda(*bid) && bid.Count == own.Count {
		return State{}, ErrSameGiruda
	}
	if floor := e.pledgeFloor(st, seat, bid); bid.Count < floor {
		return State{}, InvalidPledgeError{IsCeiling: false, Bound: floor}
	}

	recorded := Bid{Giruda: clonePattern(bid.Giruda), Count: bid.Count}
	st.Bids[seat] = &recorded
	st.Curr = nextBidder(st, seat)
	return State{Election: st}, nil
}

// pledgeFloor is the lowest admissible count for this seat's bid.
func (e *Engine) pledgeFloor(st *ElectionState, seat int, bid *Bid) int {
	var highest *Bid
	for _, b := range st.Bids {
		if b != nil && (highest == nil || b.Count > highest.Count) {
			highest = b
		}
	}

	floor := e.rule.Pledge.Min
	if highest == nil {
		floor += e.rule.Pledge.FirstOffset
	} else if highest.Count >= floor {
		floor = highest.Count
		if e.rule.Election.Has(ElectionIncreasing) {
			floor++
		}
	}
	if own := st.Bids[seat]; own != nil && !own.sameGiruda(*bid) {
		floor += e.rule.Pledge.ChangeCost
	}
	if bid.Giruda == nil {
		floor += e.rule.Pledge.NoGirudaOffset
	}
	return floor
}

// nextBidder advances cyclically past passed seats.
func nextBidder(st *ElectionState, from int) int {
	n := len(st.Done)
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if !st.Done[seat] {
			return seat
		}
	}
	return from
}

// openSeats counts not-yet-passed seats, and how many of those hold a bid.
func openSeats(st *ElectionState) (remaining, bidders int) {
	for seat, done := range st.Done {
		if done {
			continue
		}
		remaining++
		if st.Bids[seat] != nil {
			bidders++
		}
	}
	return remaining, bidders
}

// finishElection picks the president, hands over the leftover pile, and
// moves to friend selection.
func (e *Engine) finishElection(st *ElectionState) (State, error) {
	president, pledge := e.electPresident(st)

	hands := cloneHands(st.Hands)
	hands[president] = append(hands[president], st.Left...)
	return State{SelectFriend: &SelectFriendState{
		President: president,
		Pledge:    pledge,
		Hands:     hands,
	}}, nil
}

func (e *Engine) electPresident(st *ElectionState) (int, Bid) {
	best := -1
	for _, b := range st.Bids {
		if b != nil && e.effectiveCount(b) > best {
			best = e.effectiveCount(b)
		}
	}

	if best < 0 {
		// Everyone passed with no pledge on record: a random seat takes a
		// random default starter pledge.
		seat := e.rng.Intn(e.rule.UserCnt)
		return seat, e.starterPledge()
	}

	var winners []int
	for seat, b := range st.Bids {
		if b != nil && e.effectiveCount(b) == best {
			winners = append(winners, seat)
		}
	}
	president := winners[e.rng.Intn(len(winners))]
	won := *st.Bids[president]
	won.Giruda = clonePattern(won.Giruda)
	return president, won
}

// effectiveCount normalizes a bid for comparison: a no-giruda pledge is
// worth its count minus the (negative) offset, so no-giruda 13 outbids a
// giruda 13.
func (e *Engine) effectiveCount(b *Bid) int {
	if b.Giruda == nil {
		return b.Count - e.rule.Pledge.NoGirudaOffset
	}
	return b.Count
}

// starterPledge draws uniformly from the default starters: no-giruda 12
// (when admitted) or any giruda at 13.
func (e *Engine) starterPledge() Bid {
	candidates := make([]Bid, 0, 5)
	if e.rule.Election.Has(ElectionNoGirudaExist) {
		candidates = append(candidates, Bid{Count: 12})
	}
	for p := card.Spade; p <= card.Clover; p++ {
		g := p
		candidates = append(candidates, Bid{Giruda: &g, Count: 13})
	}
	picked := candidates[e.rng.Intn(len(candidates))]
	picked.Giruda = clonePattern(picked.Giruda)
	return picked
}
