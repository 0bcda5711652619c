package mighty

import "mighty-lite/card"

// strength classes, from weakest to strongest. An off-class card (wrong
// suit, a called joker, a joker of the wrong color) never wins a trick.
const (
	classOff = iota
	classRush
	classJoker
	classGiruda
	classMighty
)

// cardClass ranks a placed card within the current trick. A joker carries
// weight only when its color matches the rush color and the joker was not
// called onto the table.
func (e *Engine) cardClass(st *InGameState, c card.Card) int {
	if c == e.rule.MightyCard(st.Giruda) {
		return classMighty
	}
	if c.IsJoker() {
		if st.JokerCalled && e.rule.JokerCall.HasPower {
			return classOff
		}
		if rushColor, ok := st.Rush.Color(); ok && rushColor == c.Color() {
			return classJoker
		}
		return classOff
	}
	if st.Giruda != nil && c.Pattern() == *st.Giruda {
		return classGiruda
	}
	if st.Rush.Has(c.Pattern()) {
		return classRush
	}
	return classOff
}

// beats reports whether a strictly outranks b in the current trick. Equal
// off-class cards never outrank each other, so the earlier play stands.
func (e *Engine) beats(st *InGameState, a, b card.Card) bool {
	ca, cb := e.cardClass(st, a), e.cardClass(st, b)
	if ca != cb {
		return ca > cb
	}
	if ca == classGiruda || ca == classRush {
		return a.Rank() > b.Rank()
	}
	return false
}
