package mighty

import (
	"errors"
	"testing"

	"mighty-lite/card"
)

// inGameFixture builds a mid-trick state with explicit hands. The trick is
// open at the start seat.
func inGameFixture(giruda *card.Pattern, hands [][]card.Card) *InGameState {
	n := len(hands)
	return &InGameState{
		President:   0,
		Friend:      FriendNone(),
		FriendSeat:  -1,
		FriendKnown: true,
		Giruda:      giruda,
		Pledge:      13,
		Hands:       cloneHands(hands),
		Scores:      make([][]card.Card, n),
		Turn:        1, // past the first-turn policies
		Placed:      make([]*card.Card, n),
		StartSeat:   0,
		CurrentSeat: 0,
		Rush:        card.RushSpade,
	}
}

func TestTrumpLeadRestriction(t *testing.T) {
	e := newTestEngine(t, 1)
	spade := card.Spade
	st := inGameFixture(&spade, [][]card.Card{
		{card.Normal(card.Spade, 5), card.Normal(card.Heart, 5)},
		{card.Normal(card.Clover, 5), card.Normal(card.Clover, 6)},
		{card.Normal(card.Diamond, 5), card.Normal(card.Diamond, 6)},
		{card.Normal(card.Heart, 6), card.Normal(card.Heart, 7)},
		{card.Normal(card.Clover, 7), card.Normal(card.Clover, 8)},
	})

	// Leading trump while holding a plain card is rejected.
	if _, err := e.play(st, 0, &GoCommand{Card: card.Normal(card.Spade, 5)}); !errors.Is(err, ErrWrongCard) {
		t.Fatalf("expected ErrWrongCard on a trump lead, got %v", err)
	}
	if _, err := e.play(st, 0, &GoCommand{Card: card.Normal(card.Heart, 5)}); err != nil {
		t.Fatalf("plain lead: %v", err)
	}

	// With only trump left the restriction lifts.
	st.Hands[0] = []card.Card{card.Normal(card.Spade, 5), card.Normal(card.Spade, 6)}
	if _, err := e.play(st, 0, &GoCommand{Card: card.Normal(card.Spade, 5)}); err != nil {
		t.Fatalf("all-trump lead: %v", err)
	}
}

func TestFollowRush(t *testing.T) {
	e := newTestEngine(t, 1)
	spade := card.Spade
	st := inGameFixture(&spade, [][]card.Card{
		{card.Normal(card.Heart, 5), card.Normal(card.Heart, 6)},
		{card.Normal(card.Heart, 7), card.Normal(card.Clover, 5)},
		{card.Normal(card.Diamond, 5), card.Normal(card.Diamond, 6)},
		{card.Normal(card.Heart, 8), card.Normal(card.Heart, 9)},
		{card.Normal(card.Clover, 7), card.Normal(card.Clover, 8)},
	})

	next, err := e.play(st, 0, &GoCommand{Card: card.Normal(card.Heart, 5)})
	if err != nil {
		t.Fatalf("lead: %v", err)
	}
	g := next.InGame
	if g.Rush != card.RushHeart {
		t.Fatalf("rush should follow the lead, got %s", g.Rush)
	}

	// Seat 1 holds a heart and must follow it.
	if _, err := e.play(g, 1, &GoCommand{Card: card.Normal(card.Clover, 5)}); !errors.Is(err, ErrWrongCard) {
		t.Fatalf("expected ErrWrongCard off-rush, got %v", err)
	}
	if _, err := e.play(g, 1, &GoCommand{Card: card.Normal(card.Heart, 7)}); err != nil {
		t.Fatalf("follow: %v", err)
	}
}

func TestJokerLeadRushDeclaration(t *testing.T) {
	e := newTestEngine(t, 1)
	spade := card.Spade
	st := inGameFixture(&spade, [][]card.Card{
		{card.JokerBlack, card.Normal(card.Heart, 5)},
		{card.Normal(card.Clover, 5)}, {card.Normal(card.Diamond, 5)},
		{card.Normal(card.Heart, 6)}, {card.Normal(card.Clover, 6)},
	})

	// A black joker may only declare a black rush.
	_, err := e.play(st, 0, &GoCommand{Card: card.JokerBlack, Rush: card.RushHeart})
	var typeErr WrongCardTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected WrongCardTypeError, got %v", err)
	}
	if typeErr.Expected != card.RushBlack {
		t.Fatalf("expected black rush bound, got %s", typeErr.Expected)
	}

	next, err := e.play(st, 0, &GoCommand{Card: card.JokerBlack, Rush: card.RushClover})
	if err != nil {
		t.Fatalf("joker lead: %v", err)
	}
	if next.InGame.Rush != card.RushClover {
		t.Fatalf("declared rush should stick, got %s", next.InGame.Rush)
	}
}

func TestJokerCallForcesTheJoker(t *testing.T) {
	e := newTestEngine(t, 1)
	diamond := card.Diamond
	st := inGameFixture(&diamond, [][]card.Card{
		{card.Normal(card.Clover, 2), card.Normal(card.Heart, 5)},
		{card.JokerBlack, card.Normal(card.Clover, 9)},
		{card.Normal(card.Clover, 5)}, {card.Normal(card.Clover, 6)},
		{card.Normal(card.Clover, 7)},
	})

	next, err := e.play(st, 0, &GoCommand{Card: card.Normal(card.Clover, 2), JokerCall: true})
	if err != nil {
		t.Fatalf("call lead: %v", err)
	}
	g := next.InGame
	if !g.JokerCalled {
		t.Fatal("joker call flag should be set")
	}

	// The joker holder may not slip a normal card past the call.
	if _, err := e.play(g, 1, &GoCommand{Card: card.Normal(card.Clover, 9)}); !errors.Is(err, ErrWrongCard) {
		t.Fatalf("expected ErrWrongCard under a joker call, got %v", err)
	}
	if _, err := e.play(g, 1, &GoCommand{Card: card.JokerBlack}); err != nil {
		t.Fatalf("surrendering the joker: %v", err)
	}
}

func TestCalledJokerIsPowerless(t *testing.T) {
	e := newTestEngine(t, 1)
	diamond := card.Diamond
	st := inGameFixture(&diamond, nil)
	st.Rush = card.RushClover

	clover := card.Normal(card.Clover, 3)

	st.JokerCalled = true
	if e.beats(st, card.JokerBlack, clover) {
		t.Fatal("a called joker must lose to any rush card")
	}

	st.JokerCalled = false
	if !e.beats(st, card.JokerBlack, clover) {
		t.Fatal("an uncalled joker beats a non-trump rush card")
	}
	if e.beats(st, card.JokerBlack, card.Normal(card.Diamond, 3)) {
		t.Fatal("the joker must not beat trump")
	}
}

func TestTrickOrdering(t *testing.T) {
	e := newTestEngine(t, 1)
	diamond := card.Diamond
	st := inGameFixture(&diamond, nil)
	st.Rush = card.RushClover

	mighty := card.Normal(card.Spade, card.RankAce)
	cases := []struct {
		a, b card.Card
		want bool
	}{
		{mighty, card.Normal(card.Diamond, card.RankAce), true},
		{card.Normal(card.Diamond, card.RankAce), card.JokerBlack, true},
		{card.JokerBlack, card.Normal(card.Clover, card.RankAce), true},
		{card.JokerRed, card.Normal(card.Clover, 4), false},
		{card.Normal(card.Diamond, 2), card.Normal(card.Clover, card.RankAce), true},
		{card.Normal(card.Clover, card.RankKing), card.Normal(card.Clover, 4), true},
		{card.Normal(card.Heart, card.RankAce), card.Normal(card.Clover, 4), false},
	}
	for _, tc := range cases {
		if got := e.beats(st, tc.a, tc.b); got != tc.want {
			t.Errorf("beats(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTrickResolutionCapturesScoreCards(t *testing.T) {
	e := newTestEngine(t, 1)
	heart := card.Heart
	st := inGameFixture(&heart, [][]card.Card{
		{card.Normal(card.Clover, 5), card.Normal(card.Spade, 2)},
		{card.Normal(card.Clover, 9), card.Normal(card.Spade, 3)},
		{card.Normal(card.Clover, card.RankKing), card.Normal(card.Spade, 4)},
		{card.Normal(card.Clover, 10), card.Normal(card.Spade, 5)},
		{card.Normal(card.Clover, 6), card.Normal(card.Spade, 6)},
	})

	s := State{InGame: st}
	var err error
	for seat := 0; seat < 5; seat++ {
		c := st.Hands[seat][0]
		if s, err = e.Next(s, seat, CmdGo(c, card.RushNone, false)); err != nil {
			t.Fatalf("seat %d: %v", seat, err)
		}
	}
	g := s.InGame
	if g == nil {
		t.Fatalf("expected InGame, got %s", s.Phase())
	}
	if g.StartSeat != 2 || g.CurrentSeat != 2 {
		t.Fatalf("clover king should win the trick, starter = %d", g.StartSeat)
	}
	if len(g.Scores[2]) != 2 {
		t.Fatalf("winner should capture K and 10, got %v", g.Scores[2])
	}
	if g.Turn != 2 {
		t.Fatalf("turn should advance, got %d", g.Turn)
	}
}

func TestFullRandomGamesTerminate(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		e := newTestEngine(t, seed)
		s := NewState()
		var err error
		if s, err = e.Next(s, 0, CmdStartGame()); err != nil {
			t.Fatalf("seed %d start: %v", seed, err)
		}
		for steps := 0; s.GameEnded == nil; steps++ {
			if steps > 500 {
				t.Fatalf("seed %d: game did not terminate", seed)
			}
			assertCardConservation(t, e, s)
			seat := currentSeat(s)
			if s, err = e.Next(s, seat, CmdRandom()); err != nil {
				t.Fatalf("seed %d step %d (%s): %v", seed, steps, s.Phase(), err)
			}
		}
		g := s.GameEnded
		if g.Score < 0 || g.Score > 20 {
			t.Fatalf("seed %d: score %d out of range", seed, g.Score)
		}
		if g.Winners == 0 || g.Winners > 0x1F {
			t.Fatalf("seed %d: winner bitmask %05b out of range", seed, g.Winners)
		}
	}
}

// assertCardConservation accounts for every deck card at each phase:
// hands plus the leftover pile during the election, hands alone while the
// president holds the leftover, and hands plus the open trick plus
// resolved tricks plus the president's discards in game.
func assertCardConservation(t *testing.T, e *Engine, s State) {
	t.Helper()
	size := e.Rule().Deck.Size()
	switch {
	case s.Election != nil:
		total := len(s.Election.Left)
		for _, hand := range s.Election.Hands {
			total += len(hand)
		}
		if total != size {
			t.Fatalf("election holds %d cards, deck has %d", total, size)
		}
	case s.SelectFriend != nil:
		total := 0
		for _, hand := range s.SelectFriend.Hands {
			total += len(hand)
		}
		if total != size {
			t.Fatalf("friend selection holds %d cards, deck has %d", total, size)
		}
	case s.InGame != nil:
		g := s.InGame
		total := e.Rule().Leftover()
		for _, hand := range g.Hands {
			total += len(hand)
		}
		for _, placed := range g.Placed {
			if placed != nil {
				total++
			}
		}
		total += g.Turn * e.Rule().UserCnt
		if total != size {
			t.Fatalf("turn %d holds %d cards, deck has %d", g.Turn, total, size)
		}

		// Captured piles keep the score cards of resolved tricks, never
		// more than the tricks supplied.
		captured := 0
		for _, pile := range g.Scores {
			captured += len(pile)
		}
		if captured > g.Turn*e.Rule().UserCnt {
			t.Fatalf("captured %d cards out of %d resolved", captured, g.Turn*e.Rule().UserCnt)
		}
	}
}

func currentSeat(s State) int {
	switch {
	case s.Election != nil:
		return s.Election.Curr
	case s.SelectFriend != nil:
		return s.SelectFriend.President
	case s.InGame != nil:
		return s.InGame.CurrentSeat
	}
	return 0
}

func TestEndGameScoring(t *testing.T) {
	g := &GameEndedState{
		Winners:    0b00101,
		President:  0,
		FriendSeat: 2,
		Score:      18,
		Pledge:     15,
	}
	if !g.RulingWon() {
		t.Fatal("18 captured against a pledge of 15 is a ruling win")
	}
	if g.Multiplier() != 2 {
		t.Fatalf("no-giruda multiplier should be 2, got %d", g.Multiplier())
	}
	if g.Margin() != 16 {
		t.Fatalf("gain should be 2*(18-10)=16, got %d", g.Margin())
	}

	spade := card.Spade
	lost := &GameEndedState{
		Winners: 0b11010, President: 0, FriendSeat: 2,
		Score: 11, Pledge: 15, Giruda: &spade,
	}
	if lost.RulingWon() {
		t.Fatal("11 against 15 is a loss")
	}
	if lost.Margin() != 6 {
		t.Fatalf("opposition margin should be 15+11-20=6, got %d", lost.Margin())
	}

	alone := &GameEndedState{FriendSeat: -1, Score: 14, Pledge: 13}
	if alone.Multiplier() != 4 {
		t.Fatalf("no-giruda, no-friend multiplier should be 4, got %d", alone.Multiplier())
	}
}

func TestGameEndedIsAbsorbing(t *testing.T) {
	e := newTestEngine(t, 1)
	s := State{GameEnded: &GameEndedState{Winners: 1}}
	next, err := e.Next(s, 3, CmdRandom())
	if err != nil {
		t.Fatalf("absorbing state: %v", err)
	}
	if next.GameEnded != s.GameEnded {
		t.Fatal("GameEnded must return the same state")
	}
}
