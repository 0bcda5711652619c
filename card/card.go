package card

import "fmt"

// Card is a single byte in the mighty deck encoding:
//
//   - normal card: high nibble = pattern (0..3), low nibble = rank (2..14)
//   - joker:       0xF0 | color (0 black, 1 red)
//
// Rank runs 2..14 with the ace as 14, so the score predicate (rank >= 10)
// covers 10, J, Q, K, A.
type Card byte

const (
	CardInvalid Card = 0x00

	jokerBase Card = 0xF0

	JokerBlack = jokerBase | Card(Black)
	JokerRed   = jokerBase | Card(Red)
)

const (
	RankJack  byte = 11
	RankQueen byte = 12
	RankKing  byte = 13
	RankAce   byte = 14
)

func Normal(p Pattern, rank byte) Card {
	return Card(byte(p)<<4 | rank&0x0F)
}

func Joker(c Color) Card {
	return jokerBase | Card(c)
}

func (c Card) IsJoker() bool {
	return c&jokerBase == jokerBase
}

// Pattern is only meaningful for normal cards.
func (c Card) Pattern() Pattern {
	return Pattern(c >> 4)
}

// Rank 2..14; 0 for jokers.
func (c Card) Rank() byte {
	if c.IsJoker() {
		return 0
	}
	return byte(c & 0x0F)
}

func (c Card) Color() Color {
	if c.IsJoker() {
		return Color(c & 0x01)
	}
	return c.Pattern().Color()
}

// Rush is the follow-suit contribution of the card when led: a single
// pattern for normal cards, the color pair for jokers.
func (c Card) Rush() Rush {
	if c.IsJoker() {
		return ColorRush(c.Color())
	}
	return PatternRush(c.Pattern())
}

// IsScore reports whether the card counts toward the captured score pile.
// Jokers never score.
func (c Card) IsScore() bool {
	return !c.IsJoker() && c.Rank() >= 10
}

// String renders the compact text form: "<pattern><hex-rank>" or "j<color>".
// The canonical rank digit is lowercase hex (ten = 'a', ace = 'e').
func (c Card) String() string {
	if c.IsJoker() {
		if c.Color() == Black {
			return "jb"
		}
		return "jr"
	}
	return fmt.Sprintf("%c%x", c.Pattern().Char(), c.Rank())
}

// Parse reads the compact text form. Besides the canonical hex digits it
// accepts '0' for ten and '1' for the ace, the shorthand some transcripts use.
func Parse(s string) (Card, error) {
	if len(s) != 2 {
		return CardInvalid, fmt.Errorf("invalid card text %q", s)
	}
	if s[0] == 'j' || s[0] == 'J' {
		switch s[1] {
		case 'b', 'B':
			return JokerBlack, nil
		case 'r', 'R':
			return JokerRed, nil
		}
		return CardInvalid, fmt.Errorf("invalid joker color %q", s)
	}
	p, ok := ParsePattern(s[0])
	if !ok {
		return CardInvalid, fmt.Errorf("invalid card pattern %q", s)
	}
	rank, ok := parseRankDigit(s[1])
	if !ok {
		return CardInvalid, fmt.Errorf("invalid card rank %q", s)
	}
	return Normal(p, rank), nil
}

func parseRankDigit(ch byte) (byte, bool) {
	switch {
	case ch >= '2' && ch <= '9':
		return ch - '0', true
	case ch >= 'a' && ch <= 'e':
		return ch - 'a' + 10, true
	case ch >= 'A' && ch <= 'E':
		return ch - 'A' + 10, true
	case ch == '0':
		return 10, true
	case ch == '1':
		return RankAce, true
	}
	return 0, false
}

// MarshalJSON writes the compact text form, which keeps wire payloads and
// persisted states readable.
func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *Card) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid card json %s", data)
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Valid reports whether the byte is a well-formed mighty card.
func (c Card) Valid() bool {
	if c.IsJoker() {
		return c == JokerBlack || c == JokerRed
	}
	r := c.Rank()
	return c.Pattern() <= Clover && r >= 2 && r <= RankAce
}
