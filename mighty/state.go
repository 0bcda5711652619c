package mighty

import "mighty-lite/card"

// State is a pointer-tagged union; exactly one variant is non-nil. The JSON
// form is a single-key tagged object, e.g. {"Election": {...}}.
type State struct {
	NotStarted   *NotStartedState   `json:"NotStarted,omitempty"`
	Election     *ElectionState     `json:"Election,omitempty"`
	SelectFriend *SelectFriendState `json:"SelectFriend,omitempty"`
	InGame       *InGameState       `json:"InGame,omitempty"`
	GameEnded    *GameEndedState    `json:"GameEnded,omitempty"`
}

// NewState is the NotStarted state.
func NewState() State {
	return State{NotStarted: &NotStartedState{}}
}

type NotStartedState struct{}

type ElectionState struct {
	// Bids holds the recorded pledge per seat (nil = none yet).
	Bids []*Bid `json:"bids"`
	// Done marks seats that passed out of the election.
	Done  []bool        `json:"done"`
	Hands [][]card.Card `json:"hands"`
	// Left is the leftover pile awaiting the president.
	Left []card.Card `json:"left"`
	// Curr is the current bidder seat (ordered elections).
	Curr int `json:"curr"`
}

type SelectFriendState struct {
	President int `json:"president"`
	Pledge    Bid `json:"pledge"`
	// Hands includes the leftover pile merged into the president's hand.
	Hands [][]card.Card `json:"hands"`
}

type InGameState struct {
	President   int           `json:"president"`
	Friend      FriendFunc    `json:"friend"`
	FriendSeat  int           `json:"friend_seat"` // -1 while unknown or friendless
	FriendKnown bool          `json:"friend_known"`
	Giruda      *card.Pattern `json:"giruda"`
	Pledge      int           `json:"pledge"`
	Hands       [][]card.Card `json:"hands"`
	// Scores are the captured score-card piles per seat.
	Scores [][]card.Card `json:"scores"`
	Turn   int           `json:"turn"`
	// Placed is the current trick, indexed by seat (nil = not yet played).
	Placed      []*card.Card `json:"placed"`
	StartSeat   int          `json:"start_seat"`
	CurrentSeat int          `json:"current_seat"`
	Rush        card.Rush    `json:"rush"`
	JokerCalled bool         `json:"joker_called"`
}

type GameEndedState struct {
	// Winners is a seat bitmask.
	Winners    byte          `json:"winners"`
	President  int           `json:"president"`
	FriendSeat int           `json:"friend_seat"`
	Score      int           `json:"score"`
	Pledge     int           `json:"pledge"`
	Giruda     *card.Pattern `json:"giruda"`
}

// Phase names the active variant.
func (s State) Phase() string {
	switch {
	case s.NotStarted != nil:
		return "NotStarted"
	case s.Election != nil:
		return "Election"
	case s.SelectFriend != nil:
		return "SelectFriend"
	case s.InGame != nil:
		return "InGame"
	case s.GameEnded != nil:
		return "GameEnded"
	}
	return "Invalid"
}

// clone helpers keep Next a pure function: transitions mutate a deep copy.

func cloneHands(hands [][]card.Card) [][]card.Card {
	out := make([][]card.Card, len(hands))
	for i, h := range hands {
		out[i] = append([]card.Card(nil), h...)
	}
	return out
}

func cloneBids(bids []*Bid) []*Bid {
	out := make([]*Bid, len(bids))
	for i, b := range bids {
		if b == nil {
			continue
		}
		cp := *b
		if b.Giruda != nil {
			g := *b.Giruda
			cp.Giruda = &g
		}
		out[i] = &cp
	}
	return out
}

func clonePattern(p *card.Pattern) *card.Pattern {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (st *ElectionState) clone() *ElectionState {
	return &ElectionState{
		Bids:  cloneBids(st.Bids),
		Done:  append([]bool(nil), st.Done...),
		Hands: cloneHands(st.Hands),
		Left:  append([]card.Card(nil), st.Left...),
		Curr:  st.Curr,
	}
}

func (st *SelectFriendState) clone() *SelectFriendState {
	cp := &SelectFriendState{
		President: st.President,
		Pledge:    st.Pledge,
		Hands:     cloneHands(st.Hands),
	}
	cp.Pledge.Giruda = clonePattern(st.Pledge.Giruda)
	return cp
}

func (st *InGameState) clone() *InGameState {
	placed := make([]*card.Card, len(st.Placed))
	for i, c := range st.Placed {
		if c != nil {
			cp := *c
			placed[i] = &cp
		}
	}
	return &InGameState{
		President:   st.President,
		Friend:      st.Friend,
		FriendSeat:  st.FriendSeat,
		FriendKnown: st.FriendKnown,
		Giruda:      clonePattern(st.Giruda),
		Pledge:      st.Pledge,
		Hands:       cloneHands(st.Hands),
		Scores:      cloneHands(st.Scores),
		Turn:        st.Turn,
		Placed:      placed,
		StartSeat:   st.StartSeat,
		CurrentSeat: st.CurrentSeat,
		Rush:        st.Rush,
		JokerCalled: st.JokerCalled,
	}
}
