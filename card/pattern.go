package card

import "fmt"

// Pattern 0..3 in canonical order. The order matters for rule pattern
// permutations and for the deck preset layout.
type Pattern byte

const (
	Spade Pattern = iota
	Diamond
	Heart
	Clover
)

var patternNames = [...]string{"Spade", "Diamond", "Heart", "Clover"}
var patternChars = [...]byte{'s', 'd', 'h', 'c'}

func (p Pattern) String() string {
	if int(p) < len(patternNames) {
		return patternNames[p]
	}
	return fmt.Sprintf("Pattern(%d)", byte(p))
}

// Char is the single-letter text form used by the compact grammar.
func (p Pattern) Char() byte {
	return patternChars[p]
}

func ParsePattern(ch byte) (Pattern, bool) {
	switch ch {
	case 's', 'S':
		return Spade, true
	case 'd', 'D':
		return Diamond, true
	case 'h', 'H':
		return Heart, true
	case 'c', 'C':
		return Clover, true
	}
	return 0, false
}

func (p Pattern) Color() Color {
	if p == Spade || p == Clover {
		return Black
	}
	return Red
}

type Color byte

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Black {
		return "Black"
	}
	return "Red"
}

// Rush is a bit-set over the four patterns. A trick's effective suit is a
// Rush: single pattern for a normal lead, a color pair for a joker lead.
type Rush byte

const (
	RushNone    Rush = 0
	RushSpade   Rush = 1 << Spade
	RushDiamond Rush = 1 << Diamond
	RushHeart   Rush = 1 << Heart
	RushClover  Rush = 1 << Clover
	RushBlack   Rush = RushSpade | RushClover
	RushRed     Rush = RushDiamond | RushHeart
	RushAll     Rush = RushBlack | RushRed
)

func PatternRush(p Pattern) Rush {
	return Rush(1 << p)
}

func ColorRush(c Color) Rush {
	if c == Black {
		return RushBlack
	}
	return RushRed
}

func (r Rush) Has(p Pattern) bool {
	return r&PatternRush(p) != 0
}

// Color reports the color covering the rush and whether the rush is
// single-colored.
func (r Rush) Color() (Color, bool) {
	switch {
	case r != 0 && r&RushRed == 0:
		return Black, true
	case r != 0 && r&RushBlack == 0:
		return Red, true
	}
	return 0, false
}

func (r Rush) String() string {
	switch r {
	case RushNone:
		return "n"
	case RushSpade:
		return "s"
	case RushDiamond:
		return "d"
	case RushHeart:
		return "h"
	case RushClover:
		return "c"
	case RushBlack:
		return "b"
	case RushRed:
		return "r"
	}
	return fmt.Sprintf("Rush(%04b)", byte(r))
}

func ParseRush(ch byte) (Rush, bool) {
	switch ch {
	case 'n':
		return RushNone, true
	case 'b':
		return RushBlack, true
	case 'r':
		return RushRed, true
	}
	if p, ok := ParsePattern(ch); ok {
		return PatternRush(p), true
	}
	return 0, false
}
