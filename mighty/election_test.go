package mighty

import (
	"errors"
	"testing"

	"mighty-lite/card"
)

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e, err := NewEngine(Default5(), seed)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func startElection(t *testing.T, e *Engine) State {
	t.Helper()
	s, err := e.Next(NewState(), 0, CmdStartGame())
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if s.Election == nil {
		t.Fatalf("expected Election, got %s", s.Phase())
	}
	return s
}

func TestStartGameOnlyFromLeader(t *testing.T) {
	e := newTestEngine(t, 1)
	if _, err := e.Next(NewState(), 3, CmdStartGame()); !errors.Is(err, ErrNotLeader) {
		t.Fatalf("expected ErrNotLeader, got %v", err)
	}
}

func TestDealShape(t *testing.T) {
	e := newTestEngine(t, 7)
	s := startElection(t, e)

	total := 0
	for seat, hand := range s.Election.Hands {
		if len(hand) != 10 {
			t.Fatalf("seat %d dealt %d cards", seat, len(hand))
		}
		total += len(hand)
	}
	if len(s.Election.Left) != 4 {
		t.Fatalf("leftover pile has %d cards", len(s.Election.Left))
	}
	total += len(s.Election.Left)
	if total != e.Rule().Deck.Size() {
		t.Fatalf("dealt %d cards, deck has %d", total, e.Rule().Deck.Size())
	}

	seen := map[card.Card]bool{}
	for _, hand := range s.Election.Hands {
		for _, c := range hand {
			if seen[c] {
				t.Fatalf("card %s dealt twice", c)
			}
			seen[c] = true
		}
	}
}

func TestIncreasingElectionRejectsEqualPledge(t *testing.T) {
	rule := Default5()
	rule.Election |= ElectionPassFirst
	e, err := NewEngine(rule, 3)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := startElection(t, e)

	spade := card.Spade
	s, err = e.Next(s, 1, CmdPledge(&Bid{Giruda: &spade, Count: 13}))
	if err != nil {
		t.Fatalf("first pledge at the minimum: %v", err)
	}

	heart := card.Heart
	_, err = e.Next(s, 2, CmdPledge(&Bid{Giruda: &heart, Count: 13}))
	var pledgeErr InvalidPledgeError
	if !errors.As(err, &pledgeErr) {
		t.Fatalf("expected InvalidPledgeError, got %v", err)
	}
	if pledgeErr.IsCeiling || pledgeErr.Bound != 14 {
		t.Fatalf("expected floor bound 14, got %+v", pledgeErr)
	}
}

func TestPledgeCeiling(t *testing.T) {
	e := newTestEngine(t, 5)
	s := startElection(t, e)

	spade := card.Spade
	_, err := e.Next(s, 0, CmdPledge(&Bid{Giruda: &spade, Count: 21}))
	var pledgeErr InvalidPledgeError
	if !errors.As(err, &pledgeErr) {
		t.Fatalf("expected InvalidPledgeError, got %v", err)
	}
	if !pledgeErr.IsCeiling || pledgeErr.Bound != 20 {
		t.Fatalf("expected ceiling bound 20, got %+v", pledgeErr)
	}
}

func TestOrderedElectionRejectsOutOfTurn(t *testing.T) {
	e := newTestEngine(t, 9)
	s := startElection(t, e)

	_, err := e.Next(s, 2, CmdPass())
	var userErr InvalidUserError
	if !errors.As(err, &userErr) {
		t.Fatalf("expected InvalidUserError, got %v", err)
	}
	if userErr.Seat != 0 {
		t.Fatalf("expected seat 0 on turn, got %d", userErr.Seat)
	}
}

func TestNoGirudaFloor(t *testing.T) {
	e := newTestEngine(t, 11)
	s := startElection(t, e)

	// The no-giruda offset lowers the first floor to 12.
	if _, err := e.Next(s, 0, CmdPledge(&Bid{Count: 11})); err == nil {
		t.Fatal("no-giruda 11 below floor should be rejected")
	}
	if _, err := e.Next(s, 0, CmdPledge(&Bid{Count: 12})); err != nil {
		t.Fatalf("no-giruda 12 at floor: %v", err)
	}
}

func TestSameGirudaRePledgeRejected(t *testing.T) {
	e := newTestEngine(t, 13)
	s := startElection(t, e)

	spade := card.Spade
	s, err := e.Next(s, 0, CmdPledge(&Bid{Giruda: &spade, Count: 13}))
	if err != nil {
		t.Fatalf("first pledge: %v", err)
	}
	for seat := 1; seat <= 3; seat++ {
		if s, err = e.Next(s, seat, CmdPass()); err != nil {
			t.Fatalf("seat %d pass: %v", seat, err)
		}
	}
	heart := card.Heart
	if s, err = e.Next(s, 4, CmdPledge(&Bid{Giruda: &heart, Count: 14})); err != nil {
		t.Fatalf("seat 4 raise: %v", err)
	}
	if _, err = e.Next(s, 0, CmdPledge(&Bid{Giruda: &spade, Count: 13})); !errors.Is(err, ErrSameGiruda) {
		t.Fatalf("expected ErrSameGiruda, got %v", err)
	}
}

func TestGirudaChangeCost(t *testing.T) {
	e := newTestEngine(t, 17)
	s := startElection(t, e)

	spade := card.Spade
	s, err := e.Next(s, 0, CmdPledge(&Bid{Giruda: &spade, Count: 13}))
	if err != nil {
		t.Fatalf("first pledge: %v", err)
	}
	for seat := 1; seat <= 3; seat++ {
		if s, err = e.Next(s, seat, CmdPass()); err != nil {
			t.Fatalf("seat %d pass: %v", seat, err)
		}
	}
	heart := card.Heart
	if s, err = e.Next(s, 4, CmdPledge(&Bid{Giruda: &heart, Count: 14})); err != nil {
		t.Fatalf("seat 4 raise: %v", err)
	}

	// Seat 0 switching from spade must pay the change cost on top of the
	// increasing floor: 14 + 1 + 2 = 17.
	diamond := card.Diamond
	_, err = e.Next(s, 0, CmdPledge(&Bid{Giruda: &diamond, Count: 16}))
	var pledgeErr InvalidPledgeError
	if !errors.As(err, &pledgeErr) {
		t.Fatalf("expected InvalidPledgeError, got %v", err)
	}
	if pledgeErr.Bound != 17 {
		t.Fatalf("expected change-cost floor 17, got %d", pledgeErr.Bound)
	}
	if _, err := e.Next(s, 0, CmdPledge(&Bid{Giruda: &diamond, Count: 17})); err != nil {
		t.Fatalf("switch at the change-cost floor: %v", err)
	}
}

func TestNoGirudaOutbidsEqualGirudaCount(t *testing.T) {
	// No-giruda 13 carries the offset, so it beats spade 13 outright; the
	// outcome must not depend on the tie-break draw.
	for seed := int64(1); seed <= 5; seed++ {
		e := newTestEngine(t, seed)
		s := startElection(t, e)

		spade := card.Spade
		s, err := e.Next(s, 0, CmdPledge(&Bid{Giruda: &spade, Count: 13}))
		if err != nil {
			t.Fatalf("seed %d: spade pledge: %v", seed, err)
		}
		if s, err = e.Next(s, 1, CmdPledge(&Bid{Count: 13})); err != nil {
			t.Fatalf("seed %d: no-giruda pledge: %v", seed, err)
		}
		for seat := 2; seat <= 4; seat++ {
			if s, err = e.Next(s, seat, CmdPass()); err != nil {
				t.Fatalf("seed %d: seat %d pass: %v", seed, seat, err)
			}
		}
		if s, err = e.Next(s, 0, CmdPass()); err != nil {
			t.Fatalf("seed %d: seat 0 pass: %v", seed, err)
		}

		if s.SelectFriend == nil {
			t.Fatalf("seed %d: expected SelectFriend, got %s", seed, s.Phase())
		}
		if s.SelectFriend.President != 1 {
			t.Fatalf("seed %d: president seat %d, want 1", seed, s.SelectFriend.President)
		}
		if s.SelectFriend.Pledge.Giruda != nil {
			t.Fatalf("seed %d: winning pledge kept a giruda: %+v", seed, s.SelectFriend.Pledge)
		}
	}
}

func TestAllPassElectsRandomPresident(t *testing.T) {
	e := newTestEngine(t, 19)
	s := startElection(t, e)

	var err error
	for seat := 0; seat < 5; seat++ {
		if s, err = e.Next(s, seat, CmdPass()); err != nil {
			t.Fatalf("seat %d pass: %v", seat, err)
		}
	}
	if s.SelectFriend == nil {
		t.Fatalf("expected SelectFriend, got %s", s.Phase())
	}
	st := s.SelectFriend
	if st.President < 0 || st.President >= 5 {
		t.Fatalf("president seat %d out of range", st.President)
	}
	if got := len(st.Hands[st.President]); got != 14 {
		t.Fatalf("president hand should hold 14 cards after the leftover, got %d", got)
	}
	if st.Pledge.Count < 12 || st.Pledge.Count > 13 {
		t.Fatalf("unexpected starter pledge %+v", st.Pledge)
	}
}

func TestMissedDealWeights(t *testing.T) {
	m := MissedDeal{Limit: 1, ScoreWeight: 1, JokerWeight: -1}

	weak := []card.Card{
		card.Normal(card.Spade, 2), card.Normal(card.Heart, 3),
		card.Normal(card.Clover, 4), card.Normal(card.Diamond, 5),
		card.Normal(card.Spade, 10),
	}
	if !m.IsMissedDeal(weak) {
		t.Fatal("one score card should be a missed deal")
	}

	// A joker weighs -1, so it drags an otherwise-acceptable hand down.
	withJoker := append(append([]card.Card(nil), weak...), card.JokerBlack)
	if !m.IsMissedDeal(withJoker) {
		t.Fatal("joker weight should keep the hand a missed deal")
	}

	strong := []card.Card{
		card.Normal(card.Spade, card.RankAce), card.Normal(card.Heart, card.RankKing),
		card.Normal(card.Clover, 4), card.Normal(card.Diamond, 5),
	}
	if m.IsMissedDeal(strong) {
		t.Fatal("two score cards must not be a missed deal")
	}

	disabled := MissedDeal{Limit: -1, ScoreWeight: 1, JokerWeight: -1}
	if disabled.IsMissedDeal(weak) {
		t.Fatal("limit < 0 disables the missed-deal check")
	}
}
