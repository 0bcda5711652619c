package mighty

import (
	"fmt"
	"time"

	"mighty-lite/card"
)

// Election flags.
type Election byte

const (
	// ElectionIncreasing forbids matching the current highest pledge.
	ElectionIncreasing Election = 1 << iota
	// ElectionOrdered restricts pledging to the current bidder seat.
	ElectionOrdered
	// ElectionPassFirst starts bidding at seat 1 instead of seat 0.
	ElectionPassFirst
	// ElectionNoGirudaExist admits no-trump pledges.
	ElectionNoGirudaExist
)

func (e Election) Has(flag Election) bool { return e&flag != 0 }

type PledgeRule struct {
	Min            int `json:"min"`
	Max            int `json:"max"`
	NoGirudaOffset int `json:"no_giruda_offset"`
	ChangeCost     int `json:"change_cost"`
	FirstOffset    int `json:"first_offset"`
}

// Friend selection modes admitted by a rule (mask).
type FriendMode byte

const (
	FriendModeNone FriendMode = 1 << iota
	FriendModeCard
	FriendModeUser
	FriendModeWinning
)

func (m FriendMode) Has(flag FriendMode) bool { return m&flag != 0 }

type FriendRule struct {
	Modes FriendMode `json:"modes"`
	Cnt   int        `json:"cnt"`
}

// PolicyKind states what a special card class does on a boundary turn.
type PolicyKind byte

const (
	// PolicyValid leaves the card at full power.
	PolicyValid PolicyKind = iota
	// PolicyNoEffect keeps the play legal but the card cannot win the trick.
	PolicyNoEffect
	// PolicyInvalidForFirst rejects playing the card on the first turn.
	PolicyInvalidForFirst
)

type TurnPolicy struct {
	First PolicyKind `json:"first"`
	Last  PolicyKind `json:"last"`
}

// CardPolicy assigns per-class policies for the first and last turns.
type CardPolicy struct {
	Joker     TurnPolicy `json:"joker"`
	JokerCall TurnPolicy `json:"joker_call"`
}

type JokerCallPair struct {
	Call  card.Card `json:"call"`
	Joker card.Card `json:"joker"`
}

type JokerCallRule struct {
	// Cards holds one pair per joker in the deck.
	Cards []JokerCallPair `json:"cards"`
	// MightyDefense lets the joker holder answer a call with the mighty.
	MightyDefense bool `json:"mighty_defense"`
	// HasPower enforces the call; without it the call flag is cosmetic.
	HasPower bool `json:"has_power"`
}

func (j JokerCallRule) CallsJoker(c card.Card) (card.Card, bool) {
	for _, pair := range j.Cards {
		if pair.Call == c {
			return pair.Joker, true
		}
	}
	return card.CardInvalid, false
}

// MissedDeal weights a dealt hand; a hand scoring at or below Limit forces a
// re-deal. Limit < 0 disables the check.
type MissedDeal struct {
	Limit       int `json:"limit"`
	ScoreWeight int `json:"score_weight"`
	JokerWeight int `json:"joker_weight"`
}

func (m MissedDeal) weightOf(c card.Card) int {
	if c.IsJoker() {
		return m.JokerWeight
	}
	if c.IsScore() {
		return m.ScoreWeight
	}
	return 0
}

// IsMissedDeal reports whether a hand must be re-dealt.
func (m MissedDeal) IsMissedDeal(hand []card.Card) bool {
	if m.Limit < 0 {
		return false
	}
	sum := 0
	for _, c := range hand {
		sum += m.weightOf(c)
	}
	return sum <= m.Limit
}

// Visibility mask for richer projections.
type Visibility byte

const (
	// VisibilityFriendHands lets the president and a known friend see each
	// other's hands.
	VisibilityFriendHands Visibility = 1 << iota
)

func (v Visibility) Has(flag Visibility) bool { return v&flag != 0 }

// NextDealerRule picks seat 0 of the following game.
type NextDealerRule byte

const (
	NextDealerRotate NextDealerRule = iota
	NextDealerPresident
)

// Timing holds per-phase command caps; zero disables the timer for a phase.
type Timing struct {
	Election     time.Duration `json:"election"`
	SelectFriend time.Duration `json:"select_friend"`
	InGame       time.Duration `json:"in_game"`
}

// Rule is the immutable per-game configuration.
type Rule struct {
	UserCnt      int             `json:"user_cnt"`
	CardsPerUser int             `json:"cards_per_user"`
	Deck         card.Deck       `json:"deck"`
	MissedDeal   MissedDeal      `json:"missed_deal"`
	Election     Election        `json:"election"`
	Pledge       PledgeRule      `json:"pledge"`
	Friend       FriendRule      `json:"friend"`
	CardPolicy   CardPolicy      `json:"card_policy"`
	JokerCall    JokerCallRule   `json:"joker_call"`
	PatternOrder [4]card.Pattern `json:"pattern_order"`
	Visibility   Visibility      `json:"visibility"`
	NextDealer   NextDealerRule  `json:"next_dealer"`
	Timing       Timing          `json:"timing"`
}

// Default5 is the canonical 5-player rule set.
func Default5() *Rule {
	return &Rule{
		UserCnt:      5,
		CardsPerUser: 10,
		Deck:         card.NewFull(),
		MissedDeal:   MissedDeal{Limit: 1, ScoreWeight: 1, JokerWeight: -1},
		Election:     ElectionIncreasing | ElectionOrdered | ElectionNoGirudaExist,
		Pledge: PledgeRule{
			Min:            13,
			Max:            20,
			NoGirudaOffset: -1,
			ChangeCost:     2,
		},
		Friend: FriendRule{
			Modes: FriendModeNone | FriendModeCard | FriendModeUser | FriendModeWinning,
			Cnt:   1,
		},
		CardPolicy: CardPolicy{
			Joker: TurnPolicy{First: PolicyNoEffect, Last: PolicyNoEffect},
		},
		JokerCall: JokerCallRule{
			Cards: []JokerCallPair{
				{Call: card.Normal(card.Clover, 2), Joker: card.JokerBlack},
				{Call: card.Normal(card.Heart, 2), Joker: card.JokerRed},
			},
			HasPower: true,
		},
		PatternOrder: [4]card.Pattern{card.Spade, card.Diamond, card.Heart, card.Clover},
		NextDealer:   NextDealerRotate,
		Timing: Timing{
			Election:     60 * time.Second,
			SelectFriend: 60 * time.Second,
			InGame:       30 * time.Second,
		},
	}
}

// Validate checks the rule invariants.
func (r *Rule) Validate() error {
	if r.UserCnt <= 1 {
		return fmt.Errorf("user_cnt must be > 1")
	}
	if r.CardsPerUser <= 0 {
		return fmt.Errorf("cards_per_user must be > 0")
	}
	if r.Pledge.Min >= r.Pledge.Max {
		return fmt.Errorf("pledge min %d must be < max %d", r.Pledge.Min, r.Pledge.Max)
	}
	if r.UserCnt*r.CardsPerUser > r.Deck.Size() {
		return fmt.Errorf("deck too small: %d users * %d cards > %d", r.UserCnt, r.CardsPerUser, r.Deck.Size())
	}
	if len(r.JokerCall.Cards) != r.Deck.JokerCount() {
		return fmt.Errorf("joker call table size %d != joker count %d", len(r.JokerCall.Cards), r.Deck.JokerCount())
	}
	var seen [4]bool
	for _, p := range r.PatternOrder {
		if p > card.Clover || seen[p] {
			return fmt.Errorf("pattern_order is not a permutation")
		}
		seen[p] = true
	}
	return nil
}

// MightyCard is Spade A, or Diamond A when the giruda is Spade.
func (r *Rule) MightyCard(giruda *card.Pattern) card.Card {
	if giruda != nil && *giruda == card.Spade {
		return card.Normal(card.Diamond, card.RankAce)
	}
	return card.Normal(card.Spade, card.RankAce)
}

// Leftover is the pile size remaining after the deal.
func (r *Rule) Leftover() int {
	return r.Deck.Size() - r.UserCnt*r.CardsPerUser
}
