package card

import (
	"encoding/json"
	"math/rand"
	"sort"
)

// Joker-validity bits carried by a deck.
const (
	jokerFlagBlack byte = 1 << iota
	jokerFlagRed
)

// Deck is an ordered multiset of cards plus a 2-bit flag recording which
// joker colors are part of the deck.
type Deck struct {
	cards  []Card
	jokers byte
}

// NewFull is the 54-card preset: four patterns, ranks 2..A, both jokers.
func NewFull() Deck {
	d := Deck{cards: allNormals(), jokers: jokerFlagBlack | jokerFlagRed}
	d.cards = append(d.cards, JokerBlack, JokerRed)
	return d
}

// NewSingleJoker is the 53-card preset with the black joker only.
func NewSingleJoker() Deck {
	d := Deck{cards: allNormals(), jokers: jokerFlagBlack}
	d.cards = append(d.cards, JokerBlack)
	return d
}

func allNormals() []Card {
	cards := make([]Card, 0, 52)
	for p := Spade; p <= Clover; p++ {
		for rank := byte(2); rank <= RankAce; rank++ {
			cards = append(cards, Normal(p, rank))
		}
	}
	return cards
}

// FromMap builds a deck from a card→count map. Joker validity is derived
// from the map contents. Iteration order is made deterministic by sorting.
func FromMap(counts map[Card]int) Deck {
	keys := make([]Card, 0, len(counts))
	for c := range counts {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var d Deck
	for _, c := range keys {
		for i := 0; i < counts[c]; i++ {
			d.cards = append(d.cards, c)
		}
		if c == JokerBlack && counts[c] > 0 {
			d.jokers |= jokerFlagBlack
		}
		if c == JokerRed && counts[c] > 0 {
			d.jokers |= jokerFlagRed
		}
	}
	return d
}

func (d Deck) Size() int {
	return len(d.cards)
}

func (d Deck) HasJoker(c Color) bool {
	if c == Black {
		return d.jokers&jokerFlagBlack != 0
	}
	return d.jokers&jokerFlagRed != 0
}

func (d Deck) JokerCount() int {
	n := 0
	if d.jokers&jokerFlagBlack != 0 {
		n++
	}
	if d.jokers&jokerFlagRed != 0 {
		n++
	}
	return n
}

// Cards returns a copy of the deck contents in preset order.
func (d Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// MarshalJSON writes the deck as an array of card texts; joker validity is
// recoverable from the contents.
func (d Deck) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.cards)
}

func (d *Deck) UnmarshalJSON(data []byte) error {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return err
	}
	d.cards = cards
	d.jokers = 0
	for _, c := range cards {
		switch c {
		case JokerBlack:
			d.jokers |= jokerFlagBlack
		case JokerRed:
			d.jokers |= jokerFlagRed
		}
	}
	return nil
}

// Shuffled returns a fresh permutation of the deck drawn from rng.
func (d Deck) Shuffled(rng *rand.Rand) []Card {
	cards := d.Cards()
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}
